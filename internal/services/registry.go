package services

import (
	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/email"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/storage"

	"gorm.io/gorm"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	ProfileService      ProfileService
	SubscriptionService SubscriptionService
	OrganizationService OrganizationService
	EmployeeService     EmployeeService
	JobTitleService     JobTitleService
	OrderService        OrderService
	ReviewService       ReviewService
	CatalogService      CatalogService
	NotificationService NotificationService
	ChatService         ChatService
}

// Dependencies - внешние зависимости сервисного слоя
type Dependencies struct {
	DB            *gorm.DB
	Tokens        *auth.TokenManager
	DenyList      auth.DenyList
	Mailer        *email.Mailer
	Storage       storage.Storage
	Bus           *events.Bus
	Signaler      Signaler
	RotateRefresh bool
}

// NewServiceContainer собирает сервисы и подписывает уведомления на шину
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	userRepo := repositories.NewUserRepository()
	profileRepo := repositories.NewProfileRepository()
	tokenRepo := repositories.NewTokenRepository()
	orgRepo := repositories.NewOrganizationRepository()
	jobTitleRepo := repositories.NewJobTitleRepository()
	employeeRepo := repositories.NewEmployeeRepository()
	orderRepo := repositories.NewOrderRepository()
	reviewRepo := repositories.NewReviewRepository()
	catalogRepo := repositories.NewCatalogRepository()
	notificationRepo := repositories.NewNotificationRepository()
	chatRepo := repositories.NewChatRepository()

	access := NewAccess(employeeRepo)
	subscriptionService := NewSubscriptionService(profileRepo, orgRepo)
	notificationService := NewNotificationService(deps.DB, notificationRepo, profileRepo, deps.Signaler)
	if deps.Bus != nil {
		notificationService.RegisterHandlers(deps.Bus)
	}

	return &ServiceContainer{
		AuthService: NewAuthService(
			userRepo, profileRepo, tokenRepo, orgRepo,
			deps.Tokens, deps.DenyList, deps.Mailer, deps.Bus, deps.RotateRefresh,
		),
		ProfileService:      NewProfileService(profileRepo, userRepo, employeeRepo),
		SubscriptionService: subscriptionService,
		OrganizationService: NewOrganizationService(orgRepo, jobTitleRepo, employeeRepo, profileRepo, subscriptionService, access),
		EmployeeService:     NewEmployeeService(employeeRepo, orgRepo, jobTitleRepo, profileRepo, userRepo, access, deps.Bus),
		JobTitleService:     NewJobTitleService(jobTitleRepo, profileRepo, access),
		OrderService:        NewOrderService(orderRepo, orgRepo, employeeRepo, profileRepo, reviewRepo, access, deps.Bus),
		ReviewService:       NewReviewService(reviewRepo, orderRepo, orgRepo, profileRepo),
		CatalogService:      NewCatalogService(catalogRepo, orgRepo, profileRepo, access),
		NotificationService: notificationService,
		ChatService:         NewChatService(chatRepo, profileRepo, deps.Storage, deps.Bus),
	}
}
