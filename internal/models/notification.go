package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification - DedupKey защищает от дублей (получатель, тип, цель, минута)
type Notification struct {
	BaseModel
	RecipientID string           `gorm:"type:uuid;not null;index:idx_notifications_recipient_read"`
	Type        NotificationType `gorm:"type:varchar(20);not null"`
	Title       string           `gorm:"not null"`
	Description string           `gorm:"type:text"`
	TargetSlug  string
	Timestamp   time.Time      `gorm:"not null"`
	Read        bool           `gorm:"default:false;index:idx_notifications_recipient_read"`
	DedupKey    string         `gorm:"uniqueIndex;not null"`
	Data        datatypes.JSON // {"order_slug": "...", "status": "..."}
}
