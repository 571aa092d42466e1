package dto

import (
	"time"

	"orgmarket_backend/internal/models"
)

type ProfileResponse struct {
	ID                    string                  `json:"id"`
	Slug                  string                  `json:"slug"`
	Email                 string                  `json:"email,omitempty"`
	FirstName             string                  `json:"first_name"`
	LastName              string                  `json:"last_name"`
	MiddleName            string                  `json:"middle_name,omitempty"`
	FullName              string                  `json:"full_name"`
	Image                 *string                 `json:"image,omitempty"`
	Phone                 string                  `json:"phone,omitempty"`
	Gender                string                  `json:"gender,omitempty"`
	Birthday              *time.Time              `json:"birthday,omitempty"`
	SubscriptionTier      models.SubscriptionTier `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time              `json:"subscription_expires_at,omitempty"`
	ActiveOrganization    *OrganizationShort      `json:"active_organization,omitempty"`
	CreatedAt             time.Time               `json:"created_at"`
}

type UpdateProfileRequest struct {
	FirstName  *string    `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName   *string    `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	MiddleName *string    `json:"middle_name,omitempty" validate:"omitempty,max=100"`
	Phone      *string    `json:"phone,omitempty" validate:"omitempty,phone"`
	Gender     *string    `json:"gender,omitempty" validate:"omitempty,is-gender"`
	Birthday   *time.Time `json:"birthday,omitempty"`
	Image      *string    `json:"image,omitempty"`
}

type SubscriptionResponse struct {
	Tier               models.SubscriptionTier `json:"tier"`
	ExpiresAt          *time.Time              `json:"expires_at,omitempty"`
	MaxOrganizations   int                     `json:"max_organizations"`
	OwnedOrganizations int64                   `json:"owned_organizations"`
}
