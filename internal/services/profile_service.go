package services

import (
	"errors"
	"strings"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ProfileService interface {
	GetMyProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error)
	GetProfileBySlug(db *gorm.DB, slug string) (*dto.ProfileResponse, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type ProfileServiceImpl struct {
	profileRepo  repositories.ProfileRepository
	userRepo     repositories.UserRepository
	employeeRepo repositories.EmployeeRepository
}

func NewProfileService(
	profileRepo repositories.ProfileRepository,
	userRepo repositories.UserRepository,
	employeeRepo repositories.EmployeeRepository,
) ProfileService {
	return &ProfileServiceImpl{
		profileRepo:  profileRepo,
		userRepo:     userRepo,
		employeeRepo: employeeRepo,
	}
}

func (s *ProfileServiceImpl) GetMyProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.buildProfileResponse(db, profile)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleProfileError(err)
	}
	resp.Email = user.Email
	return resp, nil
}

// GetProfileBySlug - публичная карточка, без email
func (s *ProfileServiceImpl) GetProfileBySlug(db *gorm.DB, slug string) (*dto.ProfileResponse, error) {
	profile, err := s.profileRepo.FindBySlug(db, slug)
	if err != nil {
		return nil, handleProfileError(err)
	}
	resp, err := s.buildProfileResponse(db, profile)
	if err != nil {
		return nil, err
	}
	resp.Phone = ""
	resp.SubscriptionExpiresAt = nil
	return resp, nil
}

// UpdateProfile - при смене имени slug пересчитывается
func (s *ProfileServiceImpl) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	profile, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != profile.FirstName {
		profile.FirstName = strings.TrimSpace(*req.FirstName)
		renamed = true
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != profile.LastName {
		profile.LastName = strings.TrimSpace(*req.LastName)
		renamed = true
	}
	if req.MiddleName != nil {
		profile.MiddleName = strings.TrimSpace(*req.MiddleName)
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Gender != nil {
		profile.Gender = *req.Gender
	}
	if req.Birthday != nil {
		profile.Birthday = req.Birthday
	}
	if req.Image != nil {
		profile.Image = req.Image
	}

	if renamed {
		slug, err := s.profileRepo.UniqueSlug(tx, profile.LastName+" "+profile.FirstName, profile.ID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		profile.Slug = slug
	}

	if err := s.profileRepo.UpdateProfile(tx, profile); err != nil {
		return nil, handleProfileError(err)
	}

	resp, err := s.buildProfileResponse(tx, profile)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

func (s *ProfileServiceImpl) buildProfileResponse(db *gorm.DB, profile *models.UserProfile) (*dto.ProfileResponse, error) {
	resp := &dto.ProfileResponse{
		ID:                    profile.ID,
		Slug:                  profile.Slug,
		FirstName:             profile.FirstName,
		LastName:              profile.LastName,
		MiddleName:            profile.MiddleName,
		FullName:              profile.FullName(),
		Image:                 profile.Image,
		Phone:                 profile.Phone,
		Gender:                profile.Gender,
		Birthday:              profile.Birthday,
		SubscriptionTier:      profile.SubscriptionTier,
		SubscriptionExpiresAt: profile.SubscriptionExpiresAt,
		CreatedAt:             profile.CreatedAt,
	}

	employee, err := s.employeeRepo.FindActiveByProfile(db, profile.ID)
	switch {
	case err == nil:
		resp.ActiveOrganization = toOrganizationShort(employee.Organization)
	case errors.Is(err, repositories.ErrEmployeeNotFound):
	default:
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

func handleProfileError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, repositories.ErrProfileNotFound) ||
		errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrNotFound(err)
	}
	return internalOr(err)
}
