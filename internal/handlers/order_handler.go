package handlers

import (
	"net/http"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	*BaseHandler
	orderService  services.OrderService
	reviewService services.ReviewService
}

func NewOrderHandler(base *BaseHandler, orderService services.OrderService, reviewService services.ReviewService) *OrderHandler {
	return &OrderHandler{
		BaseHandler:   base,
		orderService:  orderService,
		reviewService: reviewService,
	}
}

type statusQuery struct {
	Status string `form:"status" json:"status" validate:"required,is-order-status"`
}

// ToggleResponse - состояние после переключения скрытия или лайка
type ToggleResponse struct {
	Value bool `json:"value"`
}

func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	orders := rg.Group("", authMW)
	{
		orders.GET("/order-list/", h.ListOrders)
		orders.GET("/order-detail/:slug/", h.GetOrder)
		orders.GET("/order-my/", h.ListMyOrders)
		orders.GET("/order-liked/", h.ListLikedOrders)
		orders.GET("/order-org/", h.ListOrganizationOrders)

		orders.POST("/add-order/", h.CreateOrder)
		orders.PUT("/update-order/:slug/", h.UpdateOrder)
		orders.DELETE("/delete-order/:slug/", h.DeleteOrder)
		orders.POST("/order-hide/:slug/", h.ToggleHide)
		orders.POST("/order-like/:slug/", h.ToggleLike)

		orders.POST("/order-apply/:slug/", h.Apply)
		orders.DELETE("/order-apply/:slug/", h.CancelApplication)
		orders.GET("/order-applicants/:slug/", h.ListApplicants)
		orders.POST("/order-book/:slug/:org_slug/", h.Book)

		orders.PUT("/update-status/:slug/", h.AdvanceStatus)
		orders.POST("/order-finish/:slug/", h.Finish)
		orders.POST("/order-workers/:slug/:employee_id/", h.AddWorker)
		orders.DELETE("/order-workers/:slug/:employee_id/", h.RemoveWorker)

		orders.POST("/order-review/:slug/", h.CreateReview)
	}
}

// ListOrders godoc
// @Summary Лента заказов
// @Description Скрытые заказы видны только автору
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param category query string false "Категория"
// @Param currency query string false "Валюта"
// @Param author query string false "Slug автора"
// @Param is_booked query bool false "Забронирован"
// @Param is_finished query bool false "Завершен"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.PaginatedResponse
// @Router /order-list/ [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.OrderListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)
	var orders *dto.PaginatedResponse
	err := h.Retry(c, func() (err error) {
		orders, err = h.orderService.ListOrders(db, userID, &query, page, pageSize)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary Заказ с историей статусов, исполнителями и отзывом
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug заказа"
// @Success 200 {object} dto.OrderDetailResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /order-detail/{slug}/ [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderDetailResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.GetOrder(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	h.listPaged(c, h.orderService.ListMyOrders)
}

func (h *OrderHandler) ListLikedOrders(c *gin.Context) {
	h.listPaged(c, h.orderService.ListLikedOrders)
}

func (h *OrderHandler) listPaged(c *gin.Context, list func(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error)) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)
	var orders *dto.PaginatedResponse
	err := h.Retry(c, func() (err error) {
		orders, err = list(db, userID, page, pageSize)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListOrganizationOrders godoc
// @Summary Заказы активной организации
// @Description Забронированные и те, на которые организация откликнулась
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.OrganizationOrdersResponse
// @Router /order-org/ [get]
func (h *OrderHandler) ListOrganizationOrders(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var orders *dto.OrganizationOrdersResponse
	err := h.Retry(c, func() (err error) {
		orders, err = h.orderService.ListOrganizationOrders(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// CreateOrder godoc
// @Summary Новый заказ
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOrderRequest true "Заказ"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /add-order/ [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CreateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.CreateOrder(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.UpdateOrder(db, userID, c.Param("slug"), &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.orderService.DeleteOrder(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) ToggleHide(c *gin.Context) {
	h.toggle(c, h.orderService.ToggleHide)
}

func (h *OrderHandler) ToggleLike(c *gin.Context) {
	h.toggle(c, h.orderService.ToggleLike)
}

func (h *OrderHandler) toggle(c *gin.Context, fn func(db *gorm.DB, userID, slug string) (bool, error)) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var value bool
	err := h.Retry(c, func() (err error) {
		value, err = fn(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{Value: value})
}

// Apply godoc
// @Summary Отклик активной организации на заказ
// @Description Повторный отклик не ошибка
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug заказа"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Заказ уже забронирован"
// @Router /order-apply/{slug}/ [post]
func (h *OrderHandler) Apply(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.orderService.Apply(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Application sent"})
}

func (h *OrderHandler) CancelApplication(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.orderService.CancelApplication(db, userID, c.Param("slug")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) ListApplicants(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var applicants []*dto.ApplicantResponse
	err := h.Retry(c, func() (err error) {
		applicants, err = h.orderService.ListApplicants(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, applicants)
}

// Book godoc
// @Summary Бронирование заказа откликнувшейся организацией
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug заказа"
// @Param org_slug path string true "Slug организации"
// @Success 200 {object} dto.OrderResponse
// @Failure 403 {object} apperrors.ErrorResponse "Не автор"
// @Failure 409 {object} apperrors.ErrorResponse "Уже забронирован"
// @Router /order-book/{slug}/{org_slug}/ [post]
func (h *OrderHandler) Book(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.Book(db, userID, c.Param("slug"), c.Param("org_slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// AdvanceStatus godoc
// @Summary Перевод заказа в следующий статус
// @Description New → Process → Checking → Sending → Arrived, только на шаг вперед
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug заказа"
// @Param status query string true "Новый статус" Enums(Process, Checking, Sending, Arrived)
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} apperrors.ErrorResponse "Недопустимый переход"
// @Router /update-status/{slug}/ [put]
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query statusQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.AdvanceStatus(db, userID, c.Param("slug"), models.OrderStatus(query.Status))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Finish(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var order *dto.OrderResponse
	err := h.Retry(c, func() (err error) {
		order, err = h.orderService.Finish(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AddWorker(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error {
		return h.orderService.AddWorker(db, userID, c.Param("slug"), c.Param("employee_id"))
	}); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Worker assigned"})
}

func (h *OrderHandler) RemoveWorker(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error {
		return h.orderService.RemoveWorker(db, userID, c.Param("slug"), c.Param("employee_id"))
	}); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateReview godoc
// @Summary Отзыв автора о выполненном заказе
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug заказа"
// @Param request body dto.ReviewRequest true "Оценка 0-5 и текст"
// @Success 201 {object} dto.ReviewResponse
// @Failure 409 {object} apperrors.ErrorResponse "Отзыв уже есть"
// @Router /order-review/{slug}/ [post]
func (h *OrderHandler) CreateReview(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var review *dto.ReviewResponse
	err := h.Retry(c, func() (err error) {
		review, err = h.reviewService.CreateReview(db, userID, c.Param("slug"), &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}
