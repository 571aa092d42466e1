package services

import (
	"errors"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type EmployeeService interface {
	Invite(db *gorm.DB, userID string, req *dto.InviteRequest) (*dto.InviteResponse, error)
	ListMyInvites(db *gorm.DB, userID string) ([]*dto.InviteResponse, error)
	AcceptInvite(db *gorm.DB, userID, orgSlug string) error
	DeclineInvite(db *gorm.DB, userID, orgSlug string) error
	ListEmployees(db *gorm.DB, orgSlug string) ([]*dto.EmployeeResponse, error)
	GetEmployeeDetail(db *gorm.DB, userID, employeeID string) (*dto.EmployeeDetailResponse, error)
	RemoveEmployee(db *gorm.DB, userID, employeeID string) error
	ChangeEmployeeJob(db *gorm.DB, userID, employeeID string, req *dto.ChangeJobRequest) (*dto.EmployeeResponse, error)
}

type EmployeeServiceImpl struct {
	employeeRepo repositories.EmployeeRepository
	orgRepo      repositories.OrganizationRepository
	jobTitleRepo repositories.JobTitleRepository
	profileRepo  repositories.ProfileRepository
	userRepo     repositories.UserRepository
	access       *Access
	bus          *events.Bus
}

func NewEmployeeService(
	employeeRepo repositories.EmployeeRepository,
	orgRepo repositories.OrganizationRepository,
	jobTitleRepo repositories.JobTitleRepository,
	profileRepo repositories.ProfileRepository,
	userRepo repositories.UserRepository,
	access *Access,
	bus *events.Bus,
) EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		orgRepo:      orgRepo,
		jobTitleRepo: jobTitleRepo,
		profileRepo:  profileRepo,
		userRepo:     userRepo,
		access:       access,
		bus:          bus,
	}
}

// Invite - приглашать можно только в свою активную организацию и только
// того, кто нигде не состоит
func (s *EmployeeServiceImpl) Invite(db *gorm.DB, userID string, req *dto.InviteRequest) (*dto.InviteResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	actor, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.FindBySlug(tx, req.OrganizationSlug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}

	subject, _, err := s.access.Load(tx, actor.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := authorize(subject, auth.ActionAddEmployee, auth.Target{OrganizationID: org.ID}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(tx, req.Email)
	if err != nil {
		return nil, handleAuthError(err)
	}
	if user.Profile == nil {
		return nil, apperrors.ErrProfileNotFound
	}
	invitee := user.Profile

	if _, err := s.employeeRepo.LockByProfile(tx, invitee.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	member, err := s.employeeRepo.HasAuthorized(tx, invitee.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if member {
		return nil, apperrors.ErrAlreadyMember
	}
	if _, err := s.employeeRepo.FindByProfileAndOrg(tx, invitee.ID, org.ID, models.EmployeeStatusPendingInvite); err == nil {
		return nil, apperrors.ErrInviteExists
	} else if !errors.Is(err, repositories.ErrEmployeeNotFound) {
		return nil, apperrors.InternalError(err)
	}

	jobTitle, err := s.jobTitleInOrg(tx, req.JobTitleSlug, org.ID)
	if err != nil {
		return nil, err
	}

	invite := &models.Employee{
		ProfileID:      invitee.ID,
		OrganizationID: org.ID,
		JobTitleID:     jobTitle.ID,
		Status:         models.EmployeeStatusPendingInvite,
	}
	if err := s.employeeRepo.Create(tx, invite); err != nil {
		if errors.Is(err, repositories.ErrMembershipExists) {
			return nil, apperrors.ErrInviteExists
		}
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	publish(db, s.bus, events.New(events.MemberInvited, events.MemberInvitedPayload{
		OrganizationID:    org.ID,
		OrganizationSlug:  org.Slug,
		OrganizationTitle: org.Title,
		InviteeProfileID:  invitee.ID,
		InviterProfileID:  actor.ID,
		JobTitle:          jobTitle.Title,
	}))

	return &dto.InviteResponse{
		EmployeeID:   invite.ID,
		Organization: *toOrganizationShort(org),
		JobTitle:     jobTitle.Title,
		CreatedAt:    invite.CreatedAt,
	}, nil
}

func (s *EmployeeServiceImpl) ListMyInvites(db *gorm.DB, userID string) ([]*dto.InviteResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	invites, err := s.employeeRepo.ListInvites(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.InviteResponse, 0, len(invites))
	for _, inv := range invites {
		item := &dto.InviteResponse{
			EmployeeID: inv.ID,
			CreatedAt:  inv.CreatedAt,
		}
		if inv.Organization != nil {
			item.Organization = *toOrganizationShort(inv.Organization)
		}
		if inv.JobTitle != nil {
			item.JobTitle = inv.JobTitle.Title
		}
		result = append(result, item)
	}
	return result, nil
}

// AcceptInvite - запись становится Authorized и активной, остальные приглашения удаляются
func (s *EmployeeServiceImpl) AcceptInvite(db *gorm.DB, userID, orgSlug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, invite, err := s.findInvite(tx, userID, orgSlug)
	if err != nil {
		return err
	}

	if err := s.employeeRepo.ClearActive(tx, profile.ID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.employeeRepo.Authorize(tx, invite.ID); err != nil {
		return handleOrganizationError(err)
	}
	if err := s.employeeRepo.Activate(tx, invite.ID); err != nil {
		return handleOrganizationError(err)
	}
	if err := s.employeeRepo.DeleteInvitesExcept(tx, profile.ID, invite.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return tx.Commit().Error
}

func (s *EmployeeServiceImpl) DeclineInvite(db *gorm.DB, userID, orgSlug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	_, invite, err := s.findInvite(tx, userID, orgSlug)
	if err != nil {
		return err
	}
	if err := s.employeeRepo.Delete(tx, invite.ID); err != nil {
		return handleOrganizationError(err)
	}
	return tx.Commit().Error
}

func (s *EmployeeServiceImpl) ListEmployees(db *gorm.DB, orgSlug string) ([]*dto.EmployeeResponse, error) {
	org, err := s.orgRepo.FindBySlug(db, orgSlug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}
	list, err := s.employeeRepo.ListByOrganization(db, org.ID, models.EmployeeStatusAuthorized)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.EmployeeResponse, 0, len(list))
	for i := range list {
		result = append(result, toEmployeeResponse(&list[i]))
	}
	return result, nil
}

func (s *EmployeeServiceImpl) GetEmployeeDetail(db *gorm.DB, userID, employeeID string) (*dto.EmployeeDetailResponse, error) {
	actor, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.FindByID(db, employeeID)
	if err != nil {
		return nil, handleOrganizationError(err)
	}

	subject, _, err := s.access.Load(db, actor.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	// свою запись можно смотреть всегда
	target := auth.Target{OwnerID: employee.ProfileID, OrganizationID: employee.OrganizationID}
	if err := authorize(subject, auth.ActionEmployeeDetail, target); err != nil {
		return nil, err
	}

	resp := &dto.EmployeeDetailResponse{EmployeeResponse: *toEmployeeResponse(employee)}
	if employee.Profile != nil {
		resp.Phone = employee.Profile.Phone
		if user, err := s.userRepo.FindByID(db, employee.Profile.UserID); err == nil {
			resp.Email = user.Email
		}
	}
	if employee.JobTitle != nil {
		resp.Flags = employee.JobTitle.Flags
	}
	return resp, nil
}

// RemoveEmployee - владельца удалить нельзя
func (s *EmployeeServiceImpl) RemoveEmployee(db *gorm.DB, userID, employeeID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	employee, org, err := s.authorizeOnEmployee(tx, userID, employeeID, auth.ActionRemoveEmployee)
	if err != nil {
		return err
	}
	if employee.ProfileID == org.OwnerID {
		return apperrors.ErrOwnerCannotLeave
	}

	if _, err := s.employeeRepo.LockByProfile(tx, employee.ProfileID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := removeMembership(tx, s.employeeRepo, employee); err != nil {
		return err
	}
	return tx.Commit().Error
}

func (s *EmployeeServiceImpl) ChangeEmployeeJob(db *gorm.DB, userID, employeeID string, req *dto.ChangeJobRequest) (*dto.EmployeeResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	employee, org, err := s.authorizeOnEmployee(tx, userID, employeeID, auth.ActionChangeEmployeeJob)
	if err != nil {
		return nil, err
	}
	if employee.ProfileID == org.OwnerID {
		return nil, apperrors.ErrFounderJobTitle
	}

	jobTitle, err := s.jobTitleInOrg(tx, req.JobTitleSlug, org.ID)
	if err != nil {
		return nil, err
	}
	if jobTitle.IsFounder {
		return nil, apperrors.ErrFounderJobTitle
	}

	if err := s.employeeRepo.ChangeJobTitle(tx, employee.ID, jobTitle.ID); err != nil {
		return nil, handleOrganizationError(err)
	}
	employee.JobTitleID = jobTitle.ID
	employee.JobTitle = jobTitle

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toEmployeeResponse(employee), nil
}

// authorizeOnEmployee - сотрудник должен быть Authorized в активной организации актора
func (s *EmployeeServiceImpl) authorizeOnEmployee(tx *gorm.DB, userID, employeeID string, action auth.Action) (*models.Employee, *models.Organization, error) {
	actor, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	employee, err := s.employeeRepo.FindByID(tx, employeeID)
	if err != nil {
		return nil, nil, handleOrganizationError(err)
	}
	if employee.Status != models.EmployeeStatusAuthorized {
		return nil, nil, apperrors.ErrEmployeeNotFound
	}

	subject, _, err := s.access.Load(tx, actor.ID)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	if err := authorize(subject, action, auth.Target{OrganizationID: employee.OrganizationID}); err != nil {
		return nil, nil, err
	}

	org := employee.Organization
	if org == nil {
		if org, err = s.orgRepo.FindByID(tx, employee.OrganizationID); err != nil {
			return nil, nil, handleOrganizationError(err)
		}
	}
	return employee, org, nil
}

func (s *EmployeeServiceImpl) findInvite(tx *gorm.DB, userID, orgSlug string) (*models.UserProfile, *models.Employee, error) {
	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.orgRepo.FindBySlug(tx, orgSlug)
	if err != nil {
		return nil, nil, handleOrganizationError(err)
	}
	if _, err := s.employeeRepo.LockByProfile(tx, profile.ID); err != nil {
		return nil, nil, apperrors.InternalError(err)
	}
	invite, err := s.employeeRepo.FindByProfileAndOrg(tx, profile.ID, org.ID, models.EmployeeStatusPendingInvite)
	if err != nil {
		if errors.Is(err, repositories.ErrEmployeeNotFound) {
			return nil, nil, apperrors.ErrInviteNotFound
		}
		return nil, nil, apperrors.InternalError(err)
	}
	return profile, invite, nil
}

func (s *EmployeeServiceImpl) jobTitleInOrg(tx *gorm.DB, slug, orgID string) (*models.JobTitle, error) {
	jobTitle, err := s.jobTitleRepo.FindBySlug(tx, slug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}
	if jobTitle.OrganizationID != orgID {
		return nil, apperrors.ErrJobTitleNotFound
	}
	return jobTitle, nil
}

func toEmployeeResponse(e *models.Employee) *dto.EmployeeResponse {
	resp := &dto.EmployeeResponse{
		ID:        e.ID,
		Status:    e.Status,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
	}
	if e.Profile != nil {
		resp.Profile = toProfileShort(e.Profile)
	}
	if e.JobTitle != nil {
		resp.JobTitle = e.JobTitle.Title
		resp.JobTitleSlug = e.JobTitle.Slug
	}
	return resp
}
