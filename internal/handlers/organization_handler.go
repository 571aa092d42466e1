package handlers

import (
	"net/http"

	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// OrganizationHandler обслуживает организации, сотрудников и должности
type OrganizationHandler struct {
	*BaseHandler
	organizationService services.OrganizationService
	employeeService     services.EmployeeService
	jobTitleService     services.JobTitleService
	reviewService       services.ReviewService
}

func NewOrganizationHandler(
	base *BaseHandler,
	organizationService services.OrganizationService,
	employeeService services.EmployeeService,
	jobTitleService services.JobTitleService,
	reviewService services.ReviewService,
) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         base,
		organizationService: organizationService,
		employeeService:     employeeService,
		jobTitleService:     jobTitleService,
		reviewService:       reviewService,
	}
}

func (h *OrganizationHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	orgs := rg.Group("/organization", authMW)
	{
		orgs.POST("/", h.CreateOrganization)
		orgs.GET("/my/", h.ListMyOrganizations)
		orgs.GET("/:slug/", h.GetOrganization)
		orgs.PUT("/:slug/", h.UpdateOrganization)
		orgs.DELETE("/:slug/", h.DeleteOrganization)
		orgs.POST("/:slug/activate/", h.ActivateOrganization)
		orgs.POST("/:slug/exit/", h.ExitOrganization)
		orgs.GET("/:slug/reviews/", h.ListReviews)
	}

	employees := rg.Group("/employee", authMW)
	{
		employees.POST("/invite/", h.Invite)
		employees.GET("/invites/", h.ListMyInvites)
		employees.POST("/invites/:org_slug/accept/", h.AcceptInvite)
		employees.POST("/invites/:org_slug/decline/", h.DeclineInvite)
		employees.GET("/:org_slug/list/", h.ListEmployees)
		employees.GET("/detail/:id/", h.GetEmployeeDetail)
		employees.DELETE("/:id/", h.RemoveEmployee)
		employees.PUT("/:id/job/", h.ChangeEmployeeJob)
	}

	jobs := rg.Group("/org-jobs", authMW)
	{
		jobs.GET("/", h.ListJobTitles)
		jobs.POST("/", h.CreateJobTitle)
		jobs.PUT("/:slug/", h.UpdateJobTitle)
		jobs.DELETE("/:slug/", h.DeleteJobTitle)
	}
}

// --- Организации ---

// CreateOrganization godoc
// @Summary Создание организации
// @Description Лимит организаций зависит от тарифа; создатель становится владельцем и активным сотрудником
// @Tags organization
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOrganizationRequest true "Организация"
// @Success 201 {object} dto.OrganizationResponse
// @Failure 403 {object} apperrors.ErrorResponse "Лимит тарифа"
// @Router /organization/ [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreateOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var org *dto.OrganizationResponse
	err := h.Retry(c, func() (err error) {
		org, err = h.organizationService.CreateOrganization(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (h *OrganizationHandler) ListMyOrganizations(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var orgs []*dto.OrganizationResponse
	err := h.Retry(c, func() (err error) {
		orgs, err = h.organizationService.ListMyOrganizations(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var org *dto.OrganizationResponse
	err := h.Retry(c, func() (err error) {
		org, err = h.organizationService.GetOrganization(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateOrganizationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var org *dto.OrganizationResponse
	err := h.Retry(c, func() (err error) {
		org, err = h.organizationService.UpdateOrganization(db, userID, c.Param("slug"), &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.organizationService.DeleteOrganization(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ActivateOrganization godoc
// @Summary Сделать организацию активной
// @Tags organization
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug организации"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /organization/{slug}/activate/ [post]
func (h *OrganizationHandler) ActivateOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.organizationService.ActivateOrganization(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Organization activated"})
}

func (h *OrganizationHandler) ExitOrganization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.organizationService.ExitOrganization(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Left organization"})
}

// ListReviews godoc
// @Summary Отзывы об организации
// @Tags organization
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug организации"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.PaginatedResponse
// @Router /organization/{slug}/reviews/ [get]
func (h *OrganizationHandler) ListReviews(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)
	var reviews *dto.PaginatedResponse
	err := h.Retry(c, func() (err error) {
		reviews, err = h.reviewService.ListOrganizationReviews(db, c.Param("slug"), page, pageSize)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// --- Сотрудники ---

// Invite godoc
// @Summary Приглашение сотрудника
// @Description Нужен флаг flag_create_employee или членство владельца
// @Tags employee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.InviteRequest true "Email, организация, должность"
// @Success 201 {object} dto.InviteResponse
// @Failure 409 {object} apperrors.ErrorResponse "Уже приглашен"
// @Router /employee/invite/ [post]
func (h *OrganizationHandler) Invite(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.InviteRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var invite *dto.InviteResponse
	err := h.Retry(c, func() (err error) {
		invite, err = h.employeeService.Invite(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

func (h *OrganizationHandler) ListMyInvites(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var invites []*dto.InviteResponse
	err := h.Retry(c, func() (err error) {
		invites, err = h.employeeService.ListMyInvites(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

func (h *OrganizationHandler) AcceptInvite(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.employeeService.AcceptInvite(db, userID, c.Param("org_slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Invitation accepted"})
}

func (h *OrganizationHandler) DeclineInvite(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.employeeService.DeclineInvite(db, userID, c.Param("org_slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Invitation declined"})
}

func (h *OrganizationHandler) ListEmployees(c *gin.Context) {
	db := h.GetDB(c)
	var employees []*dto.EmployeeResponse
	err := h.Retry(c, func() (err error) {
		employees, err = h.employeeService.ListEmployees(db, c.Param("org_slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, employees)
}

func (h *OrganizationHandler) GetEmployeeDetail(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var employee *dto.EmployeeDetailResponse
	err := h.Retry(c, func() (err error) {
		employee, err = h.employeeService.GetEmployeeDetail(db, userID, c.Param("id"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, employee)
}

func (h *OrganizationHandler) RemoveEmployee(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.employeeService.RemoveEmployee(db, userID, c.Param("id")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrganizationHandler) ChangeEmployeeJob(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.ChangeJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var employee *dto.EmployeeResponse
	err := h.Retry(c, func() (err error) {
		employee, err = h.employeeService.ChangeEmployeeJob(db, userID, c.Param("id"), &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, employee)
}

// --- Должности ---

func (h *OrganizationHandler) ListJobTitles(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var jobs []*dto.JobTitleResponse
	err := h.Retry(c, func() (err error) {
		jobs, err = h.jobTitleService.ListJobTitles(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// CreateJobTitle godoc
// @Summary Новая должность в активной организации
// @Tags org-jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.JobTitleRequest true "Название и флаги"
// @Success 201 {object} dto.JobTitleResponse
// @Failure 409 {object} apperrors.ErrorResponse "Должность уже есть"
// @Router /org-jobs/ [post]
func (h *OrganizationHandler) CreateJobTitle(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.JobTitleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var job *dto.JobTitleResponse
	err := h.Retry(c, func() (err error) {
		job, err = h.jobTitleService.CreateJobTitle(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *OrganizationHandler) UpdateJobTitle(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.JobTitleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var job *dto.JobTitleResponse
	err := h.Retry(c, func() (err error) {
		job, err = h.jobTitleService.UpdateJobTitle(db, userID, c.Param("slug"), &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *OrganizationHandler) DeleteJobTitle(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.jobTitleService.DeleteJobTitle(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
