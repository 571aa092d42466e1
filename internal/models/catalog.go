package models

import "time"

type Equipment struct {
	BaseModel
	Title          string   `gorm:"not null"`
	Slug           string   `gorm:"uniqueIndex;not null"`
	Category       string   `gorm:"index"`
	Price          float64  `gorm:"type:decimal(12,2)"`
	Currency       Currency `gorm:"type:varchar(10);not null;default:'Som'"`
	Description    string   `gorm:"type:text"`
	Quantity       int      `gorm:"default:1"`
	Sold           bool     `gorm:"default:false"`
	Hide           bool     `gorm:"default:false"`
	AuthorID       string   `gorm:"type:uuid;not null;index"`
	OrganizationID *string  `gorm:"type:uuid;index"`
}

func (Equipment) TableName() string {
	return "equipment"
}

type Service struct {
	BaseModel
	Title          string   `gorm:"not null"`
	Slug           string   `gorm:"uniqueIndex;not null"`
	Category       string   `gorm:"index"`
	Price          float64  `gorm:"type:decimal(12,2)"`
	Currency       Currency `gorm:"type:varchar(10);not null;default:'Som'"`
	Description    string   `gorm:"type:text"`
	Hide           bool     `gorm:"default:false"`
	AuthorID       string   `gorm:"type:uuid;not null;index"`
	OrganizationID *string  `gorm:"type:uuid;index"`
}

type Vacancy struct {
	BaseModel
	OrganizationID string   `gorm:"type:uuid;not null;index"`
	AuthorID       string   `gorm:"type:uuid;not null"`
	Title          string   `gorm:"not null"`
	Slug           string   `gorm:"uniqueIndex;not null"`
	Salary         float64  `gorm:"type:decimal(12,2)"`
	Currency       Currency `gorm:"type:varchar(10);not null;default:'Som'"`
	Description    string   `gorm:"type:text"`
	Hide           bool     `gorm:"default:false"`
}

// CatalogLike - лайк оборудования или услуги
type CatalogLike struct {
	Kind      CatalogKind `gorm:"type:varchar(20);primaryKey"`
	ItemID    string      `gorm:"type:uuid;primaryKey"`
	ProfileID string      `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}
