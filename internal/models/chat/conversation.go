package chat

import (
	"orgmarket_backend/internal/models"
)

// Conversation - диалог двух профилей, PairKey не зависит от порядка участников
type Conversation struct {
	models.BaseModel
	InitiatorID string `gorm:"type:uuid;not null;index"`
	ReceiverID  string `gorm:"type:uuid;not null;index"`
	PairKey     string `gorm:"uniqueIndex;not null"`

	Initiator *models.UserProfile `gorm:"foreignKey:InitiatorID"`
	Receiver  *models.UserProfile `gorm:"foreignKey:ReceiverID"`
}

func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (c *Conversation) HasParticipant(profileID string) bool {
	return c.InitiatorID == profileID || c.ReceiverID == profileID
}

// Other возвращает второго участника
func (c *Conversation) Other(profileID string) string {
	if c.InitiatorID == profileID {
		return c.ReceiverID
	}
	return c.InitiatorID
}
