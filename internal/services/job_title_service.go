package services

import (
	"strings"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// JobTitleService работает в контексте активной организации актора
type JobTitleService interface {
	ListJobTitles(db *gorm.DB, userID string) ([]*dto.JobTitleResponse, error)
	CreateJobTitle(db *gorm.DB, userID string, req *dto.JobTitleRequest) (*dto.JobTitleResponse, error)
	UpdateJobTitle(db *gorm.DB, userID, slug string, req *dto.JobTitleRequest) (*dto.JobTitleResponse, error)
	DeleteJobTitle(db *gorm.DB, userID, slug string) error
}

type JobTitleServiceImpl struct {
	jobTitleRepo repositories.JobTitleRepository
	profileRepo  repositories.ProfileRepository
	access       *Access
}

func NewJobTitleService(
	jobTitleRepo repositories.JobTitleRepository,
	profileRepo repositories.ProfileRepository,
	access *Access,
) JobTitleService {
	return &JobTitleServiceImpl{
		jobTitleRepo: jobTitleRepo,
		profileRepo:  profileRepo,
		access:       access,
	}
}

func (s *JobTitleServiceImpl) ListJobTitles(db *gorm.DB, userID string) ([]*dto.JobTitleResponse, error) {
	subject, err := s.subject(db, userID)
	if err != nil {
		return nil, err
	}
	orgID := activeOrgID(subject)
	if orgID == "" {
		return nil, apperrors.ErrPermissionDenied(auth.ReasonNoMembership)
	}

	list, err := s.jobTitleRepo.ListByOrganization(db, orgID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	result := make([]*dto.JobTitleResponse, 0, len(list))
	for i := range list {
		result = append(result, toJobTitleResponse(&list[i]))
	}
	return result, nil
}

func (s *JobTitleServiceImpl) CreateJobTitle(db *gorm.DB, userID string, req *dto.JobTitleRequest) (*dto.JobTitleResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	subject, err := s.subject(tx, userID)
	if err != nil {
		return nil, err
	}
	orgID := activeOrgID(subject)
	if err := authorize(subject, auth.ActionCreateJobTitle, auth.Target{OrganizationID: orgID}); err != nil {
		return nil, err
	}

	jobTitle := &models.JobTitle{
		OrganizationID: orgID,
		Title:          strings.TrimSpace(req.Title),
		Flags:          req.JobTitleFlags,
	}
	if err := s.jobTitleRepo.Create(tx, jobTitle); err != nil {
		return nil, handleOrganizationError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toJobTitleResponse(jobTitle), nil
}

// UpdateJobTitle - должность Founder не меняется
func (s *JobTitleServiceImpl) UpdateJobTitle(db *gorm.DB, userID, slug string, req *dto.JobTitleRequest) (*dto.JobTitleResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	jobTitle, err := s.loadForAction(tx, userID, slug, auth.ActionUpdateAccess)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title != jobTitle.Title {
		// slug следует за названием, как у профиля
		newSlug, err := s.jobTitleRepo.UniqueSlug(tx, title, jobTitle.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		jobTitle.Slug = newSlug
	}
	jobTitle.Title = title
	jobTitle.Flags = req.JobTitleFlags
	if err := s.jobTitleRepo.Update(tx, jobTitle); err != nil {
		return nil, handleOrganizationError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return toJobTitleResponse(jobTitle), nil
}

func (s *JobTitleServiceImpl) DeleteJobTitle(db *gorm.DB, userID, slug string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	jobTitle, err := s.loadForAction(tx, userID, slug, auth.ActionRemoveJobTitle)
	if err != nil {
		return err
	}

	inUse, err := s.jobTitleRepo.CountEmployees(tx, jobTitle.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if inUse > 0 {
		return apperrors.ErrJobTitleInUse
	}

	if err := s.jobTitleRepo.Delete(tx, jobTitle.ID); err != nil {
		return handleOrganizationError(err)
	}
	return tx.Commit().Error
}

func (s *JobTitleServiceImpl) loadForAction(tx *gorm.DB, userID, slug string, action auth.Action) (*models.JobTitle, error) {
	subject, err := s.subject(tx, userID)
	if err != nil {
		return nil, err
	}
	jobTitle, err := s.jobTitleRepo.FindBySlug(tx, slug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}
	if err := authorize(subject, action, auth.Target{OrganizationID: jobTitle.OrganizationID}); err != nil {
		return nil, err
	}
	if jobTitle.IsFounder {
		return nil, apperrors.ErrFounderJobTitle
	}
	return jobTitle, nil
}

func (s *JobTitleServiceImpl) subject(db *gorm.DB, userID string) (auth.Subject, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return auth.Subject{}, err
	}
	subject, _, err := s.access.Load(db, profile.ID)
	if err != nil {
		return auth.Subject{}, apperrors.InternalError(err)
	}
	return subject, nil
}

func toJobTitleResponse(jt *models.JobTitle) *dto.JobTitleResponse {
	return &dto.JobTitleResponse{
		ID:             jt.ID,
		Slug:           jt.Slug,
		Title:          jt.Title,
		OrganizationID: jt.OrganizationID,
		IsFounder:      jt.IsFounder,
		JobTitleFlags:  jt.Flags,
	}
}
