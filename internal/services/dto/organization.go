package dto

import (
	"time"

	"orgmarket_backend/internal/models"
)

type CreateOrganizationRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Phone       string  `json:"phone" validate:"omitempty,phone"`
	Logo        *string `json:"logo,omitempty"`
	// Active=false оставляет текущую активную организацию (только Premium)
	Active *bool `json:"active,omitempty"`
}

type UpdateOrganizationRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Logo        *string `json:"logo,omitempty"`
}

type OrganizationResponse struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Logo        *string       `json:"logo,omitempty"`
	FounderID   string        `json:"founder_id"`
	Owner       *ProfileShort `json:"owner,omitempty"`
	Active      bool          `json:"active"`
	IsMyActive  bool          `json:"is_my_active"`
	CreatedAt   time.Time     `json:"created_at"`
}

// JobTitleRequest - флаги передаются плоско: {"title": "...", "flag_update_order": true}
type JobTitleRequest struct {
	Title string `json:"title" validate:"required,max=100"`
	models.JobTitleFlags
}

type JobTitleResponse struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	OrganizationID string `json:"organization_id"`
	IsFounder      bool   `json:"is_founder"`
	models.JobTitleFlags
}

type InviteRequest struct {
	Email            string `json:"email" validate:"required,email"`
	OrganizationSlug string `json:"organization" validate:"required"`
	JobTitleSlug     string `json:"job_title" validate:"required"`
}

type InviteResponse struct {
	EmployeeID   string            `json:"employee_id"`
	Organization OrganizationShort `json:"organization"`
	JobTitle     string            `json:"job_title"`
	CreatedAt    time.Time         `json:"created_at"`
}

type EmployeeResponse struct {
	ID           string                `json:"id"`
	Profile      ProfileShort          `json:"profile"`
	JobTitle     string                `json:"job_title"`
	JobTitleSlug string                `json:"job_title_slug"`
	Status       models.EmployeeStatus `json:"status"`
	Active       bool                  `json:"active"`
	CreatedAt    time.Time             `json:"created_at"`
}

type EmployeeDetailResponse struct {
	EmployeeResponse
	Phone string               `json:"phone,omitempty"`
	Email string               `json:"email,omitempty"`
	Flags models.JobTitleFlags `json:"flags"`
}

type ChangeJobRequest struct {
	JobTitleSlug string `json:"job_title" validate:"required"`
}
