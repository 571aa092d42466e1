package dto

import (
	"time"

	"orgmarket_backend/internal/models"
)

// CatalogItemRequest - оборудование и услуги; Quantity только у оборудования
type CatalogItemRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Category    string  `json:"category" validate:"omitempty,max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,is-currency"`
	Description string  `json:"description" validate:"omitempty,max=10000"`
	Quantity    int     `json:"quantity" validate:"omitempty,min=1"`
}

type VacancyRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Salary      float64 `json:"salary" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,is-currency"`
	Description string  `json:"description" validate:"omitempty,max=10000"`
}

type CatalogQuery struct {
	Category         string `form:"category" validate:"omitempty,max=100"`
	OrganizationSlug string `form:"organization"`
}

type CatalogItemResponse struct {
	Kind           models.CatalogKind `json:"kind"`
	ID             string             `json:"id"`
	Slug           string             `json:"slug"`
	Title          string             `json:"title"`
	Category       string             `json:"category,omitempty"`
	Price          float64            `json:"price"`
	Currency       models.Currency    `json:"currency"`
	Description    string             `json:"description,omitempty"`
	Quantity       int                `json:"quantity,omitempty"`
	Sold           bool               `json:"sold,omitempty"`
	Hide           bool               `json:"hide"`
	AuthorID       string             `json:"author_id"`
	OrganizationID *string            `json:"organization_id,omitempty"`
	Likes          int64              `json:"likes"`
	CreatedAt      time.Time          `json:"created_at"`
}
