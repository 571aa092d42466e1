package models

// Review - не больше одного отзыва на заказ
type Review struct {
	BaseModel
	OrderID    string `gorm:"type:uuid;uniqueIndex;not null"`
	ReviewerID string `gorm:"type:uuid;not null;index"`
	Rating     int    `gorm:"not null"`
	Text       string `gorm:"type:text"`

	Reviewer *UserProfile `gorm:"foreignKey:ReviewerID"`
}
