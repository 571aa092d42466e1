package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/middleware"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/internal/validator"
	"orgmarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// SignalGetNotifications - кадр клиента {"signal":"get_notifications"}
const SignalGetNotifications = "get_notifications"

type clientSignal struct {
	Signal string `json:"signal"`
}

type errorFrame struct {
	Error *apperrors.AppError `json:"error"`
}

type WebSocketHandler struct {
	hub           *Hub
	db            *gorm.DB
	tokens        *auth.TokenManager
	chat          services.ChatService
	notifications services.NotificationService
	validator     *validator.Validator
	upgrader      websocket.Upgrader
}

func NewWebSocketHandler(
	hub *Hub,
	db *gorm.DB,
	tokens *auth.TokenManager,
	chat services.ChatService,
	notifications services.NotificationService,
	v *validator.Validator,
	allowedOrigins []string,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		db:            db,
		tokens:        tokens,
		chat:          chat,
		notifications: notifications,
		validator:     v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"bearer"},
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	group := r.Group("/ws")
	{
		group.GET("/notifications/:user_id/", h.ServeNotifications)
		group.GET("/chat/:room_id/", h.ServeChat)
	}
}

// authenticate проверяет токен рукопожатия; при ошибке ответ уже записан
func (h *WebSocketHandler) authenticate(c *gin.Context) (*auth.Claims, bool) {
	token := middleware.BearerToken(c.Request)
	if token == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Token is required"))
		return nil, false
	}
	claims, err := h.tokens.Parse(token, auth.TokenTypeAccess)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "Rejected websocket token", "error", err.Error())
		apperrors.HandleError(c, apperrors.ErrInvalidToken)
		return nil, false
	}
	return claims, true
}

// clientContext переживает возврат из хэндлера: после апгрейда запрос завершен
func clientContext(c *gin.Context, userID string) context.Context {
	return logger.WithUserID(context.WithoutCancel(c.Request.Context()), userID)
}

// ServeNotifications - поток уведомлений пользователя.
// Сразу после подключения отдает накопившиеся непрочитанные.
func (h *WebSocketHandler) ServeNotifications(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	if claims.UserID != c.Param("user_id") {
		apperrors.HandleError(c, apperrors.ErrPermissionDenied("Token does not belong to this user"))
		return
	}

	profileID, err := h.notifications.ProfileIDForUser(h.db.WithContext(c.Request.Context()), claims.UserID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade failed", "error", err.Error())
		return
	}

	group := services.NotificationsGroup(profileID)
	client := newClient(logger.WithProfileID(clientContext(c, claims.UserID), profileID), h.hub, conn, group)
	client.onSignal = func(ctx context.Context, signal string) (any, error) {
		list, err := h.notifications.PopUnread(h.db.WithContext(ctx), profileID)
		if err != nil {
			return nil, err
		}
		// PopUnread помечает прочитанными, поэтому выданное получают все вкладки профиля,
		// остальные подключения группы увидят пустой список
		if len(list) > 0 {
			h.hub.Broadcast(group, dto.RealtimeNotificationsFrame{Notifications: list})
			return nil, nil
		}
		// на запрос клиента отвечаем всегда, по сигналу хаба пустые кадры не шлем
		if signal != SignalGetNotifications {
			return nil, nil
		}
		return dto.RealtimeNotificationsFrame{Notifications: []dto.RealtimeNotification{}}, nil
	}
	client.onFrame = func(ctx context.Context, cl *Client, data []byte) {
		var msg clientSignal
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.CtxWarn(ctx, "Malformed websocket frame", "error", err.Error())
			return
		}
		if msg.Signal == SignalGetNotifications {
			cl.Request(SignalGetNotifications)
		}
	}

	client.start()
	client.Request(services.SignalNotificationsUpdated)
	logger.CtxInfo(c.Request.Context(), "Notifications websocket connected", "profile_id", profileID)
}

// ServeChat - комната диалога. Клиент шлет кадры {message, attachment?},
// все участники получают сообщение через рассылку хаба.
func (h *WebSocketHandler) ServeChat(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	roomID := c.Param("room_id")

	isParticipant, err := h.chat.IsParticipant(h.db.WithContext(c.Request.Context()), claims.UserID, roomID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if !isParticipant {
		apperrors.HandleError(c, apperrors.ErrConversationAccessDenied)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "WebSocket upgrade failed", "error", err.Error())
		return
	}

	userID := claims.UserID
	client := newClient(clientContext(c, userID), h.hub, conn, services.ChatGroup(roomID))
	client.onFrame = func(ctx context.Context, cl *Client, data []byte) {
		var req dto.PostMessageRequest
		if err := json.Unmarshal(data, &req); err != nil {
			cl.Reply(errorFrame{Error: apperrors.NewBadRequestError("Invalid message frame")})
			return
		}
		// те же правила, что у HTTP ручки
		if err := h.validator.Validate(&req); err != nil {
			var vErr *validator.ValidationError
			if apperrors.As(err, &vErr) {
				cl.Reply(errorFrame{Error: apperrors.ValidationError(vErr.Errors)})
			} else {
				cl.Reply(errorFrame{Error: apperrors.InternalError(err)})
			}
			return
		}
		if _, err := h.chat.PostMessage(h.db.WithContext(ctx), userID, roomID, &req); err != nil {
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				logger.CtxWithError(ctx, "Failed to post websocket message", err, "room_id", roomID)
				appErr = apperrors.InternalError(err)
			}
			cl.Reply(errorFrame{Error: appErr})
		}
	}

	client.start()
	logger.CtxInfo(c.Request.Context(), "Chat websocket connected", "room_id", roomID)
}
