package handlers

import (
	"net/http"

	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

// CountResponse - число затронутых уведомлений
type CountResponse struct {
	Count int64 `json:"count"`
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	notifications := rg.Group("/notifications", authMW)
	{
		notifications.GET("/", h.List)
		notifications.GET("/unread-count/", h.UnreadCount)
		notifications.POST("/read-all/", h.MarkAllRead)
		notifications.POST("/:id/read/", h.MarkRead)
		notifications.DELETE("/:id/", h.Delete)
		notifications.DELETE("/", h.DeleteAll)
	}
}

// List godoc
// @Summary Уведомления текущего пользователя
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Только непрочитанные"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.PaginatedResponse
// @Router /notifications/ [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var query dto.NotificationQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)
	var list *dto.PaginatedResponse
	err := h.Retry(c, func() (err error) {
		list, err = h.notificationService.ListForUser(db, userID, &query, page, pageSize)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var count int64
	err := h.Retry(c, func() (err error) {
		count, err = h.notificationService.UnreadCount(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.notificationService.MarkRead(db, userID, c.Param("id")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var count int64
	err := h.Retry(c, func() (err error) {
		count, err = h.notificationService.MarkAllRead(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Count: count})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.notificationService.Delete(db, userID, c.Param("id")) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var count int64
	err := h.Retry(c, func() (err error) {
		count, err = h.notificationService.DeleteAll(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CountResponse{Count: count})
}
