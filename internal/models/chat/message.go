package chat

import (
	"orgmarket_backend/internal/models"
)

type Message struct {
	models.BaseModel
	ConversationID string  `gorm:"type:uuid;index;not null"`
	SenderID       string  `gorm:"type:uuid;index;not null"`
	Text           string  `gorm:"type:text"`
	Attachment     *string // путь в хранилище: chat/<16 hex>.<ext>
}
