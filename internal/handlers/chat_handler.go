package handlers

import (
	"net/http"

	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	*BaseHandler
	chatService services.ChatService
}

func NewChatHandler(base *BaseHandler, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		chatService: chatService,
	}
}

func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	chat := rg.Group("/chat", authMW)
	{
		chat.GET("/", h.ListConversations)
		chat.POST("/start/:profile_slug/", h.StartConversation)
		chat.GET("/:room_id/messages/", h.ListMessages)
		chat.POST("/:room_id/messages/", h.PostMessage)
	}
}

// StartConversation godoc
// @Summary Открыть диалог с профилем
// @Description Для пары профилей диалог один, повторный вызов вернет его же
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param profile_slug path string true "Slug собеседника"
// @Success 200 {object} dto.ConversationResponse
// @Failure 400 {object} apperrors.ErrorResponse "Диалог с самим собой"
// @Router /chat/start/{profile_slug}/ [post]
func (h *ChatHandler) StartConversation(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var conv *dto.ConversationResponse
	err := h.Retry(c, func() (err error) {
		conv, err = h.chatService.StartConversation(db, userID, c.Param("profile_slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var list []*dto.ConversationResponse
	err := h.Retry(c, func() (err error) {
		list, err = h.chatService.ListConversations(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)
	var list *dto.PaginatedResponse
	err := h.Retry(c, func() (err error) {
		list, err = h.chatService.ListMessages(db, userID, c.Param("room_id"), page, pageSize)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// PostMessage godoc
// @Summary Сообщение в диалог
// @Description Вложение передается в base64, не больше 10 МБ
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room_id path string true "ID диалога"
// @Param request body dto.PostMessageRequest true "Текст и/или вложение"
// @Success 201 {object} dto.MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse "Не участник"
// @Router /chat/{room_id}/messages/ [post]
func (h *ChatHandler) PostMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.PostMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	// без Retry: вложение уже могло сохраниться
	msg, err := h.chatService.PostMessage(db, userID, c.Param("room_id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}
