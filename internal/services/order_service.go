package services

import (
	"errors"
	"strings"
	"time"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type OrderService interface {
	CreateOrder(db *gorm.DB, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	UpdateOrder(db *gorm.DB, userID, slug string, req *dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	DeleteOrder(db *gorm.DB, userID, slug string) error
	GetOrder(db *gorm.DB, userID, slug string) (*dto.OrderDetailResponse, error)
	ListOrders(db *gorm.DB, userID string, query *dto.OrderListQuery, page, pageSize int) (*dto.PaginatedResponse, error)
	ListMyOrders(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error)
	ListLikedOrders(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error)
	ToggleHide(db *gorm.DB, userID, slug string) (bool, error)
	ToggleLike(db *gorm.DB, userID, slug string) (bool, error)

	Apply(db *gorm.DB, userID, slug string) error
	CancelApplication(db *gorm.DB, userID, slug string) error
	ListApplicants(db *gorm.DB, userID, slug string) ([]*dto.ApplicantResponse, error)
	Book(db *gorm.DB, userID, slug, orgSlug string) (*dto.OrderResponse, error)
	AdvanceStatus(db *gorm.DB, userID, slug string, status models.OrderStatus) (*dto.OrderResponse, error)
	Finish(db *gorm.DB, userID, slug string) (*dto.OrderResponse, error)
	AutoFinish(db *gorm.DB, arrivedBefore time.Time, limit int) (int, error)

	AddWorker(db *gorm.DB, userID, slug, employeeID string) error
	RemoveWorker(db *gorm.DB, userID, slug, employeeID string) error
	ListOrganizationOrders(db *gorm.DB, userID string) (*dto.OrganizationOrdersResponse, error)
}

type OrderServiceImpl struct {
	orderRepo    repositories.OrderRepository
	orgRepo      repositories.OrganizationRepository
	employeeRepo repositories.EmployeeRepository
	profileRepo  repositories.ProfileRepository
	reviewRepo   repositories.ReviewRepository
	access       *Access
	bus          *events.Bus
	now          Clock
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	orgRepo repositories.OrganizationRepository,
	employeeRepo repositories.EmployeeRepository,
	profileRepo repositories.ProfileRepository,
	reviewRepo repositories.ReviewRepository,
	access *Access,
	bus *events.Bus,
) OrderService {
	return &OrderServiceImpl{
		orderRepo:    orderRepo,
		orgRepo:      orgRepo,
		employeeRepo: employeeRepo,
		profileRepo:  profileRepo,
		reviewRepo:   reviewRepo,
		access:       access,
		bus:          bus,
		now:          time.Now,
	}
}

// CreateOrder - заказ привязывается к активной организации автора, если она есть
func (s *OrderServiceImpl) CreateOrder(db *gorm.DB, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	order := &models.Order{
		Title:       strings.TrimSpace(req.Title),
		Category:    req.Category,
		Price:       req.Price,
		Currency:    currencyOrDefault(req.Currency),
		Description: req.Description,
		Sizes:       models.StringArray(req.Sizes),
		Deadline:    req.Deadline,
		Phone:       req.Phone,
		AuthorID:    profile.ID,
		Status:      models.OrderStatusNew,
	}
	if orgID := activeOrgID(subject); orgID != "" {
		order.OrganizationID = &orgID
	}

	if err := s.orderRepo.Create(tx, order); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	order.Author = profile
	return toOrderResponse(order), nil
}

// UpdateOrder - забронированный заказ не редактируется
func (s *OrderServiceImpl) UpdateOrder(db *gorm.DB, userID, slug string, req *dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	_, order, err := s.loadForAuthorAction(tx, userID, slug, auth.ActionUpdateOrder)
	if err != nil {
		return nil, err
	}
	if order.IsBooked {
		return nil, apperrors.ErrAlreadyBooked
	}

	if req.Title != nil {
		order.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		order.Category = *req.Category
	}
	if req.Price != nil {
		order.Price = *req.Price
	}
	if req.Currency != nil {
		order.Currency = currencyOrDefault(*req.Currency)
	}
	if req.Description != nil {
		order.Description = *req.Description
	}
	if req.Sizes != nil {
		order.Sizes = models.StringArray(req.Sizes)
	}
	if req.Deadline != nil {
		order.Deadline = req.Deadline
	}
	if req.Phone != nil {
		order.Phone = *req.Phone
	}

	if err := s.orderRepo.Update(tx, order); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.reload(db, order.Slug)
}

func (s *OrderServiceImpl) DeleteOrder(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	_, order, err := s.loadForAuthorAction(tx, userID, slug, auth.ActionDeleteOrder)
	if err != nil {
		return err
	}
	if order.IsBooked && !order.IsFinished {
		return apperrors.ErrAlreadyBooked
	}

	if err := s.orderRepo.Delete(tx, order.ID); err != nil {
		return handleOrderError(err)
	}
	return tx.Commit().Error
}

func (s *OrderServiceImpl) GetOrder(db *gorm.DB, userID, slug string) (*dto.OrderDetailResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindBySlug(db, slug)
	if err != nil {
		return nil, handleOrderError(err)
	}
	if order.Hide && order.AuthorID != profile.ID {
		return nil, apperrors.ErrOrderNotFound
	}

	detail := &dto.OrderDetailResponse{
		OrderResponse: *toOrderResponse(order),
		Workers:       []dto.WorkerResponse{},
		History:       []dto.StatusHistoryItem{},
	}

	if detail.Likes, err = s.orderRepo.CountLikes(db, order.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if detail.Liked, err = s.orderRepo.IsLiked(db, order.ID, profile.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	workers, err := s.orderRepo.ListWorkers(db, order.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	for _, w := range workers {
		detail.Workers = append(detail.Workers, toWorkerResponse(&w))
	}

	history, err := s.orderRepo.ListStatusHistory(db, order.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	for _, h := range history {
		detail.History = append(detail.History, dto.StatusHistoryItem{
			From:      h.FromStatus,
			To:        h.ToStatus,
			ChangedBy: h.ChangedBy,
			At:        h.CreatedAt,
		})
	}

	review, err := s.reviewRepo.FindByOrderID(db, order.ID)
	switch {
	case err == nil:
		detail.Review = toReviewResponse(review)
	case errors.Is(err, repositories.ErrReviewNotFound):
	default:
		return nil, apperrors.InternalError(err)
	}
	return detail, nil
}

func (s *OrderServiceImpl) ListOrders(db *gorm.DB, userID string, query *dto.OrderListQuery, page, pageSize int) (*dto.PaginatedResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	filter := repositories.OrderFilter{
		Category: query.Category,
		Currency: query.Currency,
		IsBooked: query.IsBooked,
		Finished: query.IsFinished,
		ViewerID: profile.ID,
		Page:     page,
		PageSize: pageSize,
	}
	if query.AuthorSlug != "" {
		author, err := s.profileRepo.FindBySlug(db, query.AuthorSlug)
		if err != nil {
			return nil, handleProfileError(err)
		}
		filter.AuthorID = author.ID
	}

	orders, total, err := s.orderRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildPaginatedResponse(toOrderResponses(orders), total, page, pageSize), nil
}

func (s *OrderServiceImpl) ListMyOrders(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orderRepo.List(db, repositories.OrderFilter{
		AuthorID: profile.ID,
		ViewerID: profile.ID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildPaginatedResponse(toOrderResponses(orders), total, page, pageSize), nil
}

func (s *OrderServiceImpl) ListLikedOrders(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orderRepo.ListLiked(db, profile.ID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildPaginatedResponse(toOrderResponses(orders), total, page, pageSize), nil
}

// ToggleHide разрешен и для забронированного заказа
func (s *OrderServiceImpl) ToggleHide(db *gorm.DB, userID, slug string) (bool, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return false, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	_, order, err := s.loadForAuthorAction(tx, userID, slug, auth.ActionUpdateOrder)
	if err != nil {
		return false, err
	}
	order.Hide = !order.Hide
	if err := s.orderRepo.Update(tx, order); err != nil {
		return false, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return false, apperrors.InternalError(err)
	}
	return order.Hide, nil
}

func (s *OrderServiceImpl) ToggleLike(db *gorm.DB, userID, slug string) (bool, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return false, err
	}
	order, err := s.orderRepo.FindBySlug(db, slug)
	if err != nil {
		return false, handleOrderError(err)
	}
	liked, err := s.orderRepo.ToggleLike(db, order.ID, profile.ID)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	return liked, nil
}

// Apply - откликается активная организация актора; повторный отклик ничего не меняет
func (s *OrderServiceImpl) Apply(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	employee, order, err := s.loadForApplicant(tx, userID, slug)
	if err != nil {
		return err
	}

	added, err := s.orderRepo.AddApplicant(tx, order.ID, employee.OrganizationID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	if added {
		title := ""
		if employee.Organization != nil {
			title = employee.Organization.Title
		}
		publish(db, s.bus, events.New(events.OrderApplied, events.OrderAppliedPayload{
			OrderSlug:         order.Slug,
			OrderTitle:        order.Title,
			AuthorID:          order.AuthorID,
			OrganizationTitle: title,
		}))
	}
	return nil
}

func (s *OrderServiceImpl) CancelApplication(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	employee, order, err := s.loadForApplicant(tx, userID, slug)
	if err != nil {
		return err
	}
	removed, err := s.orderRepo.RemoveApplicant(tx, order.ID, employee.OrganizationID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !removed {
		return apperrors.ErrNotApplicant
	}
	return tx.Commit().Error
}

// ListApplicants - статус отклика выводится из org_work
func (s *OrderServiceImpl) ListApplicants(db *gorm.DB, userID, slug string) ([]*dto.ApplicantResponse, error) {
	_, order, err := s.loadForAuthorAction(db, userID, slug, auth.ActionUpdateOrder)
	if err != nil {
		return nil, err
	}
	list, err := s.orderRepo.ListApplicants(db, order.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.ApplicantResponse, 0, len(list))
	for _, a := range list {
		item := &dto.ApplicantResponse{
			Status:    applicantStatus(order, a.OrganizationID),
			AppliedAt: a.CreatedAt,
		}
		if a.Organization != nil {
			item.Organization = *toOrganizationShort(a.Organization)
		}
		result = append(result, item)
	}
	return result, nil
}

// Book - бронирует только автор и только среди откликнувшихся
func (s *OrderServiceImpl) Book(db *gorm.DB, userID, slug, orgSlug string) (*dto.OrderResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, handleOrderError(err)
	}
	if order.AuthorID != profile.ID {
		return nil, apperrors.ErrPermissionDenied("not_order_author")
	}
	if order.IsBooked {
		return nil, apperrors.ErrAlreadyBooked
	}

	org, err := s.orgRepo.FindBySlug(tx, orgSlug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}
	applied, err := s.orderRepo.IsApplicant(tx, order.ID, org.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !applied {
		return nil, apperrors.ErrNotApplicant
	}

	now := s.now()
	order.IsBooked = true
	order.OrgWorkID = &org.ID
	order.BookedAt = &now
	if err := s.orderRepo.Update(tx, order); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	publish(db, s.bus, events.New(events.OrderBooked, events.OrderBookedPayload{
		OrderSlug:           order.Slug,
		OrderTitle:          order.Title,
		AuthorID:            order.AuthorID,
		OrganizationID:      org.ID,
		OrganizationOwnerID: org.OwnerID,
		OrganizationTitle:   org.Title,
	}))
	return s.reload(db, order.Slug)
}

// AdvanceStatus - только на один шаг вперед и только сотрудником org_work с flag_update_order
func (s *OrderServiceImpl) AdvanceStatus(db *gorm.DB, userID, slug string, status models.OrderStatus) (*dto.OrderResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, handleOrderError(err)
	}
	if !order.IsBooked || order.OrgWorkID == nil {
		return nil, apperrors.ErrNotBooked
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	// без OwnerID: автор заказа статус не двигает
	if err := authorize(subject, auth.ActionAdvanceOrder, auth.Target{OrganizationID: *order.OrgWorkID}); err != nil {
		return nil, err
	}

	if order.IsFinished {
		return nil, apperrors.ErrAlreadyFinished
	}
	next, ok := order.Status.Next()
	if !ok || status != next {
		return nil, apperrors.ErrInvalidTransition
	}

	from := order.Status
	order.Status = next
	if next == models.OrderStatusArrived {
		now := s.now()
		order.ArrivedAt = &now
	}
	if err := s.orderRepo.Update(tx, order); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.orderRepo.AddStatusHistory(tx, &models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   next,
		ChangedBy:  profile.ID,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	publish(db, s.bus, events.New(events.OrderStatusChanged, events.OrderStatusChangedPayload{
		OrderSlug:  order.Slug,
		OrderTitle: order.Title,
		AuthorID:   order.AuthorID,
		From:       string(from),
		To:         string(next),
		ChangedBy:  profile.ID,
	}))
	return s.reload(db, order.Slug)
}

// Finish - автор или сотрудник org_work с flag_update_order
func (s *OrderServiceImpl) Finish(db *gorm.DB, userID, slug string) (*dto.OrderResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, handleOrderError(err)
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	target := auth.Target{OwnerID: order.AuthorID}
	if order.OrgWorkID != nil {
		target.OrganizationID = *order.OrgWorkID
	}
	if err := authorize(subject, auth.ActionFinishOrder, target); err != nil {
		return nil, err
	}
	if order.IsFinished {
		return nil, apperrors.ErrAlreadyFinished
	}

	payload, err := s.finish(tx, order)
	if err != nil {
		return nil, err
	}
	payload.FinishedBy = profile.ID
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	publish(db, s.bus, events.New(events.OrderFinished, payload))
	return s.reload(db, order.Slug)
}

// AutoFinish завершает пачку заказов, прибывших раньше arrivedBefore.
// SKIP LOCKED позволяет нескольким экземплярам работать параллельно.
func (s *OrderServiceImpl) AutoFinish(db *gorm.DB, arrivedBefore time.Time, limit int) (int, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return 0, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	orders, err := s.orderRepo.ClaimStaleArrived(tx, arrivedBefore, limit)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	evs := make([]events.Event, 0, len(orders))
	for i := range orders {
		payload, err := s.finish(tx, &orders[i])
		if err != nil {
			return 0, err
		}
		payload.Auto = true
		evs = append(evs, events.New(events.OrderFinished, payload))
	}
	if err := tx.Commit().Error; err != nil {
		return 0, apperrors.InternalError(err)
	}

	publish(db, s.bus, evs...)
	return len(orders), nil
}

// AddWorker - назначать может любой сотрудник org_work, назначить - только Authorized сотрудника org_work
func (s *OrderServiceImpl) AddWorker(db *gorm.DB, userID, slug, employeeID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	order, employee, err := s.loadForWorkers(tx, userID, slug, employeeID)
	if err != nil {
		return err
	}
	if err := s.orderRepo.AddWorker(tx, order.ID, employee.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return tx.Commit().Error
}

func (s *OrderServiceImpl) RemoveWorker(db *gorm.DB, userID, slug, employeeID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	order, employee, err := s.loadForWorkers(tx, userID, slug, employeeID)
	if err != nil {
		return err
	}
	removed, err := s.orderRepo.RemoveWorker(tx, order.ID, employee.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !removed {
		return apperrors.ErrEmployeeNotFound
	}
	return tx.Commit().Error
}

// ListOrganizationOrders - заказы, забронированные активной организацией, и ее отклики
func (s *OrderServiceImpl) ListOrganizationOrders(db *gorm.DB, userID string) (*dto.OrganizationOrdersResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	subject, _, err := s.access.Load(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	orgID := activeOrgID(subject)
	if orgID == "" {
		return nil, apperrors.ErrPermissionDenied(auth.ReasonNoMembership)
	}

	booked, applied, err := s.orderRepo.ListForOrganization(db, orgID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.OrganizationOrdersResponse{
		Booked:  derefOrders(toOrderResponses(booked)),
		Applied: derefOrders(toOrderResponses(applied)),
	}, nil
}

// --- helpers ---

func (s *OrderServiceImpl) finish(tx *gorm.DB, order *models.Order) (events.OrderFinishedPayload, error) {
	now := s.now()
	order.IsFinished = true
	order.FinishedAt = &now
	if err := s.orderRepo.Update(tx, order); err != nil {
		return events.OrderFinishedPayload{}, apperrors.InternalError(err)
	}

	payload := events.OrderFinishedPayload{
		OrderSlug:  order.Slug,
		OrderTitle: order.Title,
		AuthorID:   order.AuthorID,
	}
	if order.OrgWorkID != nil {
		org, err := s.orgRepo.FindByID(tx, *order.OrgWorkID)
		if err == nil {
			payload.OrgWorkOwnerID = org.OwnerID
		} else if !errors.Is(err, repositories.ErrOrganizationNotFound) {
			return events.OrderFinishedPayload{}, apperrors.InternalError(err)
		}
	}
	return payload, nil
}

// loadForAuthorAction - автор или сотрудник организации заказа с нужным флагом
func (s *OrderServiceImpl) loadForAuthorAction(tx *gorm.DB, userID, slug string, action auth.Action) (*models.UserProfile, *models.Order, error) {
	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, nil, handleOrderError(err)
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	target := auth.Target{OwnerID: order.AuthorID}
	if order.OrganizationID != nil {
		target.OrganizationID = *order.OrganizationID
	}
	if err := authorize(subject, action, target); err != nil {
		return nil, nil, err
	}
	return profile, order, nil
}

func (s *OrderServiceImpl) loadForApplicant(tx *gorm.DB, userID, slug string) (*models.Employee, *models.Order, error) {
	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, nil, handleOrderError(err)
	}

	subject, employee, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	orgID := activeOrgID(subject)
	if err := authorize(subject, auth.ActionApplyOrder, auth.Target{OrganizationID: orgID}); err != nil {
		return nil, nil, err
	}

	if order.IsBooked {
		return nil, nil, apperrors.ErrAlreadyBooked
	}
	if order.OrganizationID != nil && *order.OrganizationID == orgID {
		return nil, nil, apperrors.ErrOwnOrder
	}
	return employee, order, nil
}

func (s *OrderServiceImpl) loadForWorkers(tx *gorm.DB, userID, slug, employeeID string) (*models.Order, *models.Employee, error) {
	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, slug)
	if err != nil {
		return nil, nil, handleOrderError(err)
	}
	if !order.IsBooked || order.OrgWorkID == nil {
		return nil, nil, apperrors.ErrNotBooked
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if err := authorize(subject, auth.ActionManageWorkers, auth.Target{OrganizationID: *order.OrgWorkID}); err != nil {
		return nil, nil, err
	}

	employee, err := s.employeeRepo.FindByID(tx, employeeID)
	if err != nil {
		return nil, nil, handleOrganizationError(err)
	}
	if employee.Status != models.EmployeeStatusAuthorized || employee.OrganizationID != *order.OrgWorkID {
		return nil, nil, apperrors.ErrEmployeeNotFound
	}
	return order, employee, nil
}

func (s *OrderServiceImpl) reload(db *gorm.DB, slug string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindBySlug(db, slug)
	if err != nil {
		return nil, handleOrderError(err)
	}
	return toOrderResponse(order), nil
}

func applicantStatus(order *models.Order, orgID string) string {
	switch {
	case order.OrgWorkID != nil && *order.OrgWorkID == orgID:
		return dto.ApplicantApproved
	case order.IsBooked:
		return dto.ApplicantRejected
	default:
		return dto.ApplicantWaiting
	}
}

func currencyOrDefault(raw string) models.Currency {
	c := models.Currency(raw)
	if !c.Valid() {
		return models.CurrencySom
	}
	return c
}

func toOrderResponse(o *models.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:             o.ID,
		Slug:           o.Slug,
		Title:          o.Title,
		Category:       o.Category,
		Price:          o.Price,
		Currency:       o.Currency,
		Description:    o.Description,
		Sizes:          []string(o.Sizes),
		Deadline:       o.Deadline,
		Phone:          o.Phone,
		OrganizationID: o.OrganizationID,
		Hide:           o.Hide,
		IsBooked:       o.IsBooked,
		IsFinished:     o.IsFinished,
		Status:         o.Status,
		OrgWork:        toOrganizationShort(o.OrgWork),
		BookedAt:       o.BookedAt,
		FinishedAt:     o.FinishedAt,
		ArrivedAt:      o.ArrivedAt,
		CreatedAt:      o.CreatedAt,
	}
	if resp.Sizes == nil {
		resp.Sizes = []string{}
	}
	if o.Author != nil {
		author := toProfileShort(o.Author)
		resp.Author = &author
	}
	return resp
}

func toOrderResponses(orders []models.Order) []*dto.OrderResponse {
	result := make([]*dto.OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i]))
	}
	return result
}

func derefOrders(list []*dto.OrderResponse) []dto.OrderResponse {
	result := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, *o)
	}
	return result
}

func toWorkerResponse(w *models.OrderWorker) dto.WorkerResponse {
	resp := dto.WorkerResponse{EmployeeID: w.EmployeeID}
	if w.Employee != nil {
		if w.Employee.Profile != nil {
			resp.Profile = toProfileShort(w.Employee.Profile)
		}
		if w.Employee.JobTitle != nil {
			resp.JobTitle = w.Employee.JobTitle.Title
		}
	}
	return resp
}

func handleOrderError(err error) error {
	if errors.Is(err, repositories.ErrOrderNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrOrderNotFound
	}
	return internalOr(err)
}
