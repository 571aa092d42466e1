package services

import (
	"errors"
	"strings"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// CatalogService - оборудование, услуги и вакансии
type CatalogService interface {
	CreateEquipment(db *gorm.DB, userID string, req *dto.CatalogItemRequest) (*dto.CatalogItemResponse, error)
	CreateService(db *gorm.DB, userID string, req *dto.CatalogItemRequest) (*dto.CatalogItemResponse, error)
	CreateVacancy(db *gorm.DB, userID string, req *dto.VacancyRequest) (*dto.CatalogItemResponse, error)
	GetItem(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (*dto.CatalogItemResponse, error)
	ListItems(db *gorm.DB, userID string, kind models.CatalogKind, query *dto.CatalogQuery, page, pageSize int) (*dto.PaginatedResponse, error)
	ToggleHide(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (bool, error)
	ToggleLike(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (bool, error)
	MarkSold(db *gorm.DB, userID, slug string) (*dto.CatalogItemResponse, error)
}

type CatalogServiceImpl struct {
	catalogRepo repositories.CatalogRepository
	orgRepo     repositories.OrganizationRepository
	profileRepo repositories.ProfileRepository
	access      *Access
}

func NewCatalogService(
	catalogRepo repositories.CatalogRepository,
	orgRepo repositories.OrganizationRepository,
	profileRepo repositories.ProfileRepository,
	access *Access,
) CatalogService {
	return &CatalogServiceImpl{
		catalogRepo: catalogRepo,
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		access:      access,
	}
}

// catalogItem - общий вид записи каталога для проверок прав
type catalogItem struct {
	model interface{}
	resp  *dto.CatalogItemResponse
	hide  *bool
}

func (s *CatalogServiceImpl) CreateEquipment(db *gorm.DB, userID string, req *dto.CatalogItemRequest) (*dto.CatalogItemResponse, error) {
	profile, subject, err := s.subject(db, userID)
	if err != nil {
		return nil, err
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	item := &models.Equipment{
		Title:          strings.TrimSpace(req.Title),
		Category:       req.Category,
		Price:          req.Price,
		Currency:       currencyOrDefault(req.Currency),
		Description:    req.Description,
		Quantity:       quantity,
		AuthorID:       profile.ID,
		OrganizationID: optionalOrgID(subject),
	}
	if err := s.catalogRepo.CreateEquipment(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return equipmentResponse(item), nil
}

func (s *CatalogServiceImpl) CreateService(db *gorm.DB, userID string, req *dto.CatalogItemRequest) (*dto.CatalogItemResponse, error) {
	profile, subject, err := s.subject(db, userID)
	if err != nil {
		return nil, err
	}
	item := &models.Service{
		Title:          strings.TrimSpace(req.Title),
		Category:       req.Category,
		Price:          req.Price,
		Currency:       currencyOrDefault(req.Currency),
		Description:    req.Description,
		AuthorID:       profile.ID,
		OrganizationID: optionalOrgID(subject),
	}
	if err := s.catalogRepo.CreateService(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return serviceResponse(item), nil
}

// CreateVacancy - только от имени активной организации с flag_create_vacancy
func (s *CatalogServiceImpl) CreateVacancy(db *gorm.DB, userID string, req *dto.VacancyRequest) (*dto.CatalogItemResponse, error) {
	profile, subject, err := s.subject(db, userID)
	if err != nil {
		return nil, err
	}
	orgID := activeOrgID(subject)
	if err := authorize(subject, auth.ActionCreateVacancy, auth.Target{OrganizationID: orgID}); err != nil {
		return nil, err
	}

	item := &models.Vacancy{
		OrganizationID: orgID,
		AuthorID:       profile.ID,
		Title:          strings.TrimSpace(req.Title),
		Salary:         req.Salary,
		Currency:       currencyOrDefault(req.Currency),
		Description:    req.Description,
	}
	if err := s.catalogRepo.CreateVacancy(db, item); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return vacancyResponse(item), nil
}

func (s *CatalogServiceImpl) GetItem(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (*dto.CatalogItemResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.find(db, kind, slug)
	if err != nil {
		return nil, err
	}
	if item.resp.Hide && item.resp.AuthorID != profile.ID {
		return nil, apperrors.ErrItemNotFound
	}

	if kind != models.CatalogVacancy {
		if item.resp.Likes, err = s.catalogRepo.CountLikes(db, kind, item.resp.ID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	return item.resp, nil
}

func (s *CatalogServiceImpl) ListItems(db *gorm.DB, userID string, kind models.CatalogKind, query *dto.CatalogQuery, page, pageSize int) (*dto.PaginatedResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	filter := repositories.CatalogFilter{
		Category: query.Category,
		ViewerID: profile.ID,
		Page:     page,
		PageSize: pageSize,
	}
	if query.OrganizationSlug != "" {
		org, err := s.orgRepo.FindBySlug(db, query.OrganizationSlug)
		if err != nil {
			return nil, handleOrganizationError(err)
		}
		filter.OrganizationID = org.ID
	}

	var (
		items []*dto.CatalogItemResponse
		total int64
	)
	switch kind {
	case models.CatalogEquipment:
		list, n, err := s.catalogRepo.ListEquipment(db, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		for i := range list {
			items = append(items, equipmentResponse(&list[i]))
		}
		total = n
	case models.CatalogService:
		list, n, err := s.catalogRepo.ListServices(db, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		for i := range list {
			items = append(items, serviceResponse(&list[i]))
		}
		total = n
	case models.CatalogVacancy:
		list, n, err := s.catalogRepo.ListVacancies(db, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		for i := range list {
			items = append(items, vacancyResponse(&list[i]))
		}
		total = n
	default:
		return nil, apperrors.ErrItemNotFound
	}

	if items == nil {
		items = []*dto.CatalogItemResponse{}
	}
	return buildPaginatedResponse(items, total, page, pageSize), nil
}

// ToggleHide - автор; для вакансии также сотрудник организации с flag_create_vacancy
func (s *CatalogServiceImpl) ToggleHide(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (bool, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return false, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	item, err := s.loadOwned(tx, userID, kind, slug)
	if err != nil {
		return false, err
	}
	*item.hide = !*item.hide
	if err := s.catalogRepo.Save(tx, item.model); err != nil {
		return false, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return false, apperrors.InternalError(err)
	}
	return *item.hide, nil
}

func (s *CatalogServiceImpl) ToggleLike(db *gorm.DB, userID string, kind models.CatalogKind, slug string) (bool, error) {
	if kind == models.CatalogVacancy {
		return false, apperrors.ErrInvalidOperation("catalog", "Vacancies cannot be liked")
	}
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return false, err
	}
	item, err := s.find(db, kind, slug)
	if err != nil {
		return false, err
	}
	liked, err := s.catalogRepo.ToggleLike(db, kind, item.resp.ID, profile.ID)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	return liked, nil
}

func (s *CatalogServiceImpl) MarkSold(db *gorm.DB, userID, slug string) (*dto.CatalogItemResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	item, err := s.loadOwned(tx, userID, models.CatalogEquipment, slug)
	if err != nil {
		return nil, err
	}
	equipment := item.model.(*models.Equipment)
	equipment.Sold = true
	if err := s.catalogRepo.Save(tx, equipment); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return equipmentResponse(equipment), nil
}

func (s *CatalogServiceImpl) loadOwned(tx *gorm.DB, userID string, kind models.CatalogKind, slug string) (*catalogItem, error) {
	profile, subject, err := s.subject(tx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.find(tx, kind, slug)
	if err != nil {
		return nil, err
	}

	if item.resp.AuthorID == profile.ID {
		return item, nil
	}
	if kind == models.CatalogVacancy && item.resp.OrganizationID != nil {
		target := auth.Target{OrganizationID: *item.resp.OrganizationID}
		if err := authorize(subject, auth.ActionCreateVacancy, target); err != nil {
			return nil, err
		}
		return item, nil
	}
	return nil, apperrors.ErrPermissionDenied("not_author")
}

func (s *CatalogServiceImpl) find(db *gorm.DB, kind models.CatalogKind, slug string) (*catalogItem, error) {
	switch kind {
	case models.CatalogEquipment:
		m, err := s.catalogRepo.FindEquipment(db, slug)
		if err != nil {
			return nil, handleCatalogError(err)
		}
		return &catalogItem{model: m, resp: equipmentResponse(m), hide: &m.Hide}, nil
	case models.CatalogService:
		m, err := s.catalogRepo.FindService(db, slug)
		if err != nil {
			return nil, handleCatalogError(err)
		}
		return &catalogItem{model: m, resp: serviceResponse(m), hide: &m.Hide}, nil
	case models.CatalogVacancy:
		m, err := s.catalogRepo.FindVacancy(db, slug)
		if err != nil {
			return nil, handleCatalogError(err)
		}
		return &catalogItem{model: m, resp: vacancyResponse(m), hide: &m.Hide}, nil
	}
	return nil, apperrors.ErrItemNotFound
}

func (s *CatalogServiceImpl) subject(db *gorm.DB, userID string) (*models.UserProfile, auth.Subject, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, auth.Subject{}, err
	}
	subject, _, err := s.access.Load(db, profile.ID)
	if err != nil {
		return nil, auth.Subject{}, apperrors.InternalError(err)
	}
	return profile, subject, nil
}

func optionalOrgID(subject auth.Subject) *string {
	if id := activeOrgID(subject); id != "" {
		return &id
	}
	return nil
}

func equipmentResponse(m *models.Equipment) *dto.CatalogItemResponse {
	return &dto.CatalogItemResponse{
		Kind:           models.CatalogEquipment,
		ID:             m.ID,
		Slug:           m.Slug,
		Title:          m.Title,
		Category:       m.Category,
		Price:          m.Price,
		Currency:       m.Currency,
		Description:    m.Description,
		Quantity:       m.Quantity,
		Sold:           m.Sold,
		Hide:           m.Hide,
		AuthorID:       m.AuthorID,
		OrganizationID: m.OrganizationID,
		CreatedAt:      m.CreatedAt,
	}
}

func serviceResponse(m *models.Service) *dto.CatalogItemResponse {
	return &dto.CatalogItemResponse{
		Kind:           models.CatalogService,
		ID:             m.ID,
		Slug:           m.Slug,
		Title:          m.Title,
		Category:       m.Category,
		Price:          m.Price,
		Currency:       m.Currency,
		Description:    m.Description,
		Hide:           m.Hide,
		AuthorID:       m.AuthorID,
		OrganizationID: m.OrganizationID,
		CreatedAt:      m.CreatedAt,
	}
}

func vacancyResponse(m *models.Vacancy) *dto.CatalogItemResponse {
	orgID := m.OrganizationID
	return &dto.CatalogItemResponse{
		Kind:           models.CatalogVacancy,
		ID:             m.ID,
		Slug:           m.Slug,
		Title:          m.Title,
		Price:          m.Salary,
		Currency:       m.Currency,
		Description:    m.Description,
		Hide:           m.Hide,
		AuthorID:       m.AuthorID,
		OrganizationID: &orgID,
		CreatedAt:      m.CreatedAt,
	}
}

func handleCatalogError(err error) error {
	if errors.Is(err, repositories.ErrItemNotFound) {
		return apperrors.ErrItemNotFound
	}
	return internalOr(err)
}
