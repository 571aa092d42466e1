package dto

import (
	"time"

	"orgmarket_backend/internal/models"
)

type CreateOrderRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Category    string     `json:"category" validate:"omitempty,max=100"`
	Price       float64    `json:"price" validate:"gte=0"`
	Currency    string     `json:"currency" validate:"omitempty,is-currency"`
	Description string     `json:"description" validate:"omitempty,max=10000"`
	Sizes       []string   `json:"sizes" validate:"omitempty,max=50,dive,max=50"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Phone       string     `json:"phone" validate:"omitempty,phone"`
}

type UpdateOrderRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency    *string    `json:"currency,omitempty" validate:"omitempty,is-currency"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Sizes       []string   `json:"sizes,omitempty" validate:"omitempty,max=50,dive,max=50"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,phone"`
}

// OrderListQuery - фильтры GET /order-list/
type OrderListQuery struct {
	Category   string `form:"category" validate:"omitempty,max=100"`
	Currency   string `form:"currency" validate:"omitempty,is-currency"`
	AuthorSlug string `form:"author"`
	IsBooked   *bool  `form:"is_booked"`
	IsFinished *bool  `form:"is_finished"`
}

type OrderResponse struct {
	ID             string             `json:"id"`
	Slug           string             `json:"slug"`
	Title          string             `json:"title"`
	Category       string             `json:"category,omitempty"`
	Price          float64            `json:"price"`
	Currency       models.Currency    `json:"currency"`
	Description    string             `json:"description,omitempty"`
	Sizes          []string           `json:"sizes"`
	Deadline       *time.Time         `json:"deadline,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	Author         *ProfileShort      `json:"author,omitempty"`
	OrganizationID *string            `json:"organization_id,omitempty"`
	Hide           bool               `json:"hide"`
	IsBooked       bool               `json:"is_booked"`
	IsFinished     bool               `json:"is_finished"`
	Status         models.OrderStatus `json:"status"`
	OrgWork        *OrganizationShort `json:"org_work,omitempty"`
	BookedAt       *time.Time         `json:"booked_at,omitempty"`
	FinishedAt     *time.Time         `json:"finished_at,omitempty"`
	ArrivedAt      *time.Time         `json:"arrived_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

type StatusHistoryItem struct {
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to"`
	ChangedBy string             `json:"changed_by"`
	At        time.Time          `json:"at"`
}

type OrderDetailResponse struct {
	OrderResponse
	Likes   int64               `json:"likes"`
	Liked   bool                `json:"liked"`
	Workers []WorkerResponse    `json:"workers"`
	History []StatusHistoryItem `json:"history"`
	Review  *ReviewResponse     `json:"review,omitempty"`
}

const (
	ApplicantApproved = "approved"
	ApplicantRejected = "rejected"
	ApplicantWaiting  = "waiting"
)

type ApplicantResponse struct {
	Organization OrganizationShort `json:"organization"`
	Status       string            `json:"status"`
	AppliedAt    time.Time         `json:"applied_at"`
}

type WorkerResponse struct {
	EmployeeID string       `json:"employee_id"`
	Profile    ProfileShort `json:"profile"`
	JobTitle   string       `json:"job_title"`
}

type OrganizationOrdersResponse struct {
	Booked  []OrderResponse `json:"booked"`
	Applied []OrderResponse `json:"applied"`
}

type ReviewRequest struct {
	Rating *int   `json:"rating" validate:"required,min=0,max=5"`
	Text   string `json:"text" validate:"omitempty,max=2000"`
}

type ReviewResponse struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	Rating    int          `json:"rating"`
	Text      string       `json:"text,omitempty"`
	Reviewer  ProfileShort `json:"reviewer"`
	CreatedAt time.Time    `json:"created_at"`
}
