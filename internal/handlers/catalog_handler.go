package handlers

import (
	"net/http"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogHandler - оборудование, услуги и вакансии.
// Маршруты одинаковые для всех видов: /<kind>-list/, /<kind>-detail/:slug/ и т.д.
type CatalogHandler struct {
	*BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(base *BaseHandler, catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    base,
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	catalog := rg.Group("", authMW)

	for _, kind := range []models.CatalogKind{models.CatalogEquipment, models.CatalogService, models.CatalogVacancy} {
		prefix := "/" + string(kind)
		catalog.GET(prefix+"-list/", h.list(kind))
		catalog.GET(prefix+"-detail/:slug/", h.get(kind))
		catalog.POST(prefix+"-hide/:slug/", h.toggle(kind, h.catalogService.ToggleHide))
		if kind != models.CatalogVacancy {
			catalog.POST(prefix+"-like/:slug/", h.toggle(kind, h.catalogService.ToggleLike))
		}
	}

	catalog.POST("/add-equipment/", h.CreateEquipment)
	catalog.POST("/add-service/", h.CreateService)
	catalog.POST("/add-vacancy/", h.CreateVacancy)
	catalog.POST("/equipment-sold/:slug/", h.MarkSold)
}

func (h *CatalogHandler) list(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}
		var query dto.CatalogQuery
		if !h.BindAndValidate_Query(c, &query) {
			return
		}
		page, pageSize := ParsePagination(c)

		db := h.GetDB(c)
		var items *dto.PaginatedResponse
		err := h.Retry(c, func() (err error) {
			items, err = h.catalogService.ListItems(db, userID, kind, &query, page, pageSize)
			return err
		})
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

func (h *CatalogHandler) get(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}

		db := h.GetDB(c)
		var item *dto.CatalogItemResponse
		err := h.Retry(c, func() (err error) {
			item, err = h.catalogService.GetItem(db, userID, kind, c.Param("slug"))
			return err
		})
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

type catalogToggle func(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (bool, error)

func (h *CatalogHandler) toggle(kind models.CatalogKind, fn catalogToggle) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.GetAndAuthorizeUserID(c)
		if !ok {
			return
		}

		db := h.GetDB(c)
		var value bool
		err := h.Retry(c, func() (err error) {
			value, err = fn(db, userID, kind, c.Param("slug"))
			return err
		})
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, ToggleResponse{Value: value})
	}
}

// CreateEquipment godoc
// @Summary Новое объявление об оборудовании
// @Description Объявление привязывается к активной организации автора, если она есть
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CatalogItemRequest true "Оборудование"
// @Success 201 {object} dto.CatalogItemResponse
// @Router /add-equipment/ [post]
func (h *CatalogHandler) CreateEquipment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CatalogItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var item *dto.CatalogItemResponse
	err := h.Retry(c, func() (err error) {
		item, err = h.catalogService.CreateEquipment(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.CatalogItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var item *dto.CatalogItemResponse
	err := h.Retry(c, func() (err error) {
		item, err = h.catalogService.CreateService(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// CreateVacancy godoc
// @Summary Новая вакансия активной организации
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VacancyRequest true "Вакансия"
// @Success 201 {object} dto.CatalogItemResponse
// @Failure 403 {object} apperrors.ErrorResponse "Нет флага flag_create_vacancy"
// @Router /add-vacancy/ [post]
func (h *CatalogHandler) CreateVacancy(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.VacancyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var item *dto.CatalogItemResponse
	err := h.Retry(c, func() (err error) {
		item, err = h.catalogService.CreateVacancy(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) MarkSold(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var item *dto.CatalogItemResponse
	err := h.Retry(c, func() (err error) {
		item, err = h.catalogService.MarkSold(db, userID, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
