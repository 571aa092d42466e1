package dto

import (
	"time"

	"orgmarket_backend/internal/models"
)

type NotificationResponse struct {
	ID          string                  `json:"id"`
	Type        models.NotificationType `json:"type"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	TargetSlug  string                  `json:"target_slug,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
	Read        bool                    `json:"read"`
}

type NotificationQuery struct {
	UnreadOnly bool `form:"unread"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// RealtimeNotification - элемент кадра websocket, время в формате HH:MM
type RealtimeNotification struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type RealtimeNotificationsFrame struct {
	Notifications []RealtimeNotification `json:"notifications"`
}
