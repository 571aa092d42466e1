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

const founderJobTitle = "Founder"

type OrganizationService interface {
	CreateOrganization(db *gorm.DB, userID string, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error)
	GetOrganization(db *gorm.DB, userID, slug string) (*dto.OrganizationResponse, error)
	ListMyOrganizations(db *gorm.DB, userID string) ([]*dto.OrganizationResponse, error)
	UpdateOrganization(db *gorm.DB, userID, slug string, req *dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error)
	DeleteOrganization(db *gorm.DB, userID, slug string) error
	ActivateOrganization(db *gorm.DB, userID, slug string) error
	ExitOrganization(db *gorm.DB, userID, slug string) error
}

type OrganizationServiceImpl struct {
	orgRepo      repositories.OrganizationRepository
	jobTitleRepo repositories.JobTitleRepository
	employeeRepo repositories.EmployeeRepository
	profileRepo  repositories.ProfileRepository
	subscription SubscriptionService
	access       *Access
}

func NewOrganizationService(
	orgRepo repositories.OrganizationRepository,
	jobTitleRepo repositories.JobTitleRepository,
	employeeRepo repositories.EmployeeRepository,
	profileRepo repositories.ProfileRepository,
	subscription SubscriptionService,
	access *Access,
) OrganizationService {
	return &OrganizationServiceImpl{
		orgRepo:      orgRepo,
		jobTitleRepo: jobTitleRepo,
		employeeRepo: employeeRepo,
		profileRepo:  profileRepo,
		subscription: subscription,
		access:       access,
	}
}

// CreateOrganization - организация, должность Founder со всеми флагами и запись Employee
// создаются в одной транзакции. Premium может оставить текущую активную организацию.
func (s *OrganizationServiceImpl) CreateOrganization(db *gorm.DB, userID string, req *dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	current, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	// блокировка профиля сериализует параллельные создания под одну квоту
	profile, err := s.profileRepo.FindByIDForUpdate(tx, current.ID)
	if err != nil {
		return nil, handleProfileError(err)
	}

	if err := s.subscription.CheckQuota(tx, profile); err != nil {
		return nil, err
	}

	memberships, err := s.employeeRepo.LockByProfile(tx, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	hasActive := false
	for _, m := range memberships {
		if m.Active {
			hasActive = true
			break
		}
	}

	makeActive := true
	if req.Active != nil && !*req.Active && profile.SubscriptionTier == models.TierPremium && hasActive {
		makeActive = false
	}

	org := &models.Organization{
		Title:       strings.TrimSpace(req.Title),
		FounderID:   profile.ID,
		OwnerID:     profile.ID,
		Logo:        req.Logo,
		Description: req.Description,
		Phone:       req.Phone,
		Active:      makeActive,
	}
	if err := s.orgRepo.Create(tx, org); err != nil {
		return nil, apperrors.InternalError(err)
	}

	founder := &models.JobTitle{
		OrganizationID: org.ID,
		Title:          founderJobTitle,
		IsFounder:      true,
		Flags:          models.AllFlags(),
	}
	if err := s.jobTitleRepo.Create(tx, founder); err != nil {
		return nil, handleOrganizationError(err)
	}

	if makeActive {
		if err := s.employeeRepo.ClearActive(tx, profile.ID); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	employee := &models.Employee{
		ProfileID:      profile.ID,
		OrganizationID: org.ID,
		JobTitleID:     founder.ID,
		Status:         models.EmployeeStatusAuthorized,
		Active:         makeActive,
	}
	if err := s.employeeRepo.Create(tx, employee); err != nil {
		return nil, handleOrganizationError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	org.Owner = profile
	return toOrganizationResponse(org, makeActive), nil
}

func (s *OrganizationServiceImpl) GetOrganization(db *gorm.DB, userID, slug string) (*dto.OrganizationResponse, error) {
	org, err := s.orgRepo.FindBySlug(db, slug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}

	isMyActive := false
	if userID != "" {
		profile, err := resolveProfile(db, s.profileRepo, userID)
		if err != nil {
			return nil, err
		}
		subject, _, err := s.access.Load(db, profile.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		isMyActive = activeOrgID(subject) == org.ID
	}
	return toOrganizationResponse(org, isMyActive), nil
}

// ListMyOrganizations - все организации, где профиль Authorized
func (s *OrganizationServiceImpl) ListMyOrganizations(db *gorm.DB, userID string) ([]*dto.OrganizationResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	subject, _, err := s.access.Load(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	orgs, err := s.orgRepo.ListForProfile(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		result = append(result, toOrganizationResponse(&orgs[i], activeOrgID(subject) == orgs[i].ID))
	}
	return result, nil
}

func (s *OrganizationServiceImpl) UpdateOrganization(db *gorm.DB, userID, slug string, req *dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, org, err := s.loadOwned(tx, userID, slug)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		org.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.Logo != nil {
		org.Logo = req.Logo
	}

	if err := s.orgRepo.Update(tx, org); err != nil {
		return nil, apperrors.InternalError(err)
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toOrganizationResponse(org, activeOrgID(subject) == org.ID), nil
}

// DeleteOrganization - нельзя, пока организация исполнитель хотя бы одного заказа.
// У сотрудников, для которых она была активной, активной становится самая ранняя из оставшихся.
func (s *OrganizationServiceImpl) DeleteOrganization(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	_, org, err := s.loadOwned(tx, userID, slug)
	if err != nil {
		return err
	}

	booked, err := s.orgRepo.CountBookedOrders(tx, org.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if booked > 0 {
		return apperrors.ErrOrganizationHasOrders.WithDetails(map[string]int64{"booked_orders": booked})
	}

	members, err := s.employeeRepo.ListByOrganization(tx, org.ID, models.EmployeeStatusAuthorized)
	if err != nil {
		return apperrors.InternalError(err)
	}
	var affected []string
	for _, m := range members {
		if m.Active {
			affected = append(affected, m.ProfileID)
		}
	}

	if err := s.orgRepo.Delete(tx, org.ID); err != nil {
		return handleOrganizationError(err)
	}

	for _, profileID := range affected {
		if _, err := s.employeeRepo.PromoteEarliest(tx, profileID); err != nil {
			return apperrors.InternalError(err)
		}
	}
	return tx.Commit().Error
}

// ActivateOrganization переключает контекст профиля; записи профиля блокируются
func (s *OrganizationServiceImpl) ActivateOrganization(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return err
	}
	org, err := s.orgRepo.FindBySlug(tx, slug)
	if err != nil {
		return handleOrganizationError(err)
	}

	if _, err := s.employeeRepo.LockByProfile(tx, profile.ID); err != nil {
		return apperrors.InternalError(err)
	}
	employee, err := s.employeeRepo.FindByProfileAndOrg(tx, profile.ID, org.ID, models.EmployeeStatusAuthorized)
	if err != nil {
		if errors.Is(err, repositories.ErrEmployeeNotFound) {
			return apperrors.ErrNotAMember
		}
		return apperrors.InternalError(err)
	}
	if employee.Active {
		return nil
	}

	if err := s.employeeRepo.ClearActive(tx, profile.ID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.employeeRepo.Activate(tx, employee.ID); err != nil {
		return handleOrganizationError(err)
	}
	return tx.Commit().Error
}

// ExitOrganization - владелец выйти не может
func (s *OrganizationServiceImpl) ExitOrganization(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return err
	}
	org, err := s.orgRepo.FindBySlug(tx, slug)
	if err != nil {
		return handleOrganizationError(err)
	}
	if org.OwnerID == profile.ID {
		return apperrors.ErrOwnerCannotLeave
	}

	if _, err := s.employeeRepo.LockByProfile(tx, profile.ID); err != nil {
		return apperrors.InternalError(err)
	}
	employee, err := s.employeeRepo.FindByProfileAndOrg(tx, profile.ID, org.ID, models.EmployeeStatusAuthorized)
	if err != nil {
		if errors.Is(err, repositories.ErrEmployeeNotFound) {
			return apperrors.ErrNotAMember
		}
		return apperrors.InternalError(err)
	}

	if err := removeMembership(tx, s.employeeRepo, employee); err != nil {
		return err
	}
	return tx.Commit().Error
}

// loadOwned - изменять и удалять организацию может только владелец
func (s *OrganizationServiceImpl) loadOwned(tx *gorm.DB, userID, slug string) (*models.UserProfile, *models.Organization, error) {
	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.orgRepo.FindBySlug(tx, slug)
	if err != nil {
		return nil, nil, handleOrganizationError(err)
	}

	subject, _, err := s.access.Load(tx, profile.ID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if err := authorize(subject, auth.ActionManageOrg, auth.Target{OwnerID: org.OwnerID, OrganizationID: org.ID}); err != nil {
		return nil, nil, err
	}
	return profile, org, nil
}

// removeMembership удаляет запись и, если она была активной, продвигает самую раннюю
func removeMembership(tx *gorm.DB, repo repositories.EmployeeRepository, employee *models.Employee) error {
	if err := repo.Delete(tx, employee.ID); err != nil {
		return handleOrganizationError(err)
	}
	if employee.Active {
		if _, err := repo.PromoteEarliest(tx, employee.ProfileID); err != nil {
			return apperrors.InternalError(err)
		}
	}
	return nil
}

func toOrganizationResponse(org *models.Organization, isMyActive bool) *dto.OrganizationResponse {
	resp := &dto.OrganizationResponse{
		ID:          org.ID,
		Slug:        org.Slug,
		Title:       org.Title,
		Description: org.Description,
		Phone:       org.Phone,
		Logo:        org.Logo,
		FounderID:   org.FounderID,
		Active:      org.Active,
		IsMyActive:  isMyActive,
		CreatedAt:   org.CreatedAt,
	}
	if org.Owner != nil {
		owner := toProfileShort(org.Owner)
		resp.Owner = &owner
	}
	return resp
}

func handleOrganizationError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrOrganizationNotFound):
		return apperrors.ErrOrganizationNotFound
	case errors.Is(err, repositories.ErrJobTitleNotFound):
		return apperrors.ErrJobTitleNotFound
	case errors.Is(err, repositories.ErrDuplicateJobTitle):
		return apperrors.ErrDuplicateJobTitle
	case errors.Is(err, repositories.ErrEmployeeNotFound):
		return apperrors.ErrEmployeeNotFound
	case errors.Is(err, repositories.ErrMembershipExists):
		return apperrors.ErrAlreadyMember
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	}
	return internalOr(err)
}
