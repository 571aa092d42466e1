package handlers

import (
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/validator"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	ProfileHandler      *ProfileHandler
	OrganizationHandler *OrganizationHandler
	OrderHandler        *OrderHandler
	CatalogHandler      *CatalogHandler
	NotificationHandler *NotificationHandler
	ChatHandler         *ChatHandler
}

func NewAppHandlers(svc *services.ServiceContainer, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		AuthHandler:    NewAuthHandler(base, svc.AuthService),
		ProfileHandler: NewProfileHandler(base, svc.ProfileService, svc.SubscriptionService),
		OrganizationHandler: NewOrganizationHandler(
			base, svc.OrganizationService, svc.EmployeeService, svc.JobTitleService, svc.ReviewService,
		),
		OrderHandler:        NewOrderHandler(base, svc.OrderService, svc.ReviewService),
		CatalogHandler:      NewCatalogHandler(base, svc.CatalogService),
		NotificationHandler: NewNotificationHandler(base, svc.NotificationService),
		ChatHandler:         NewChatHandler(base, svc.ChatService),
	}
}
