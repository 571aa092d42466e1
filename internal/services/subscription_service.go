package services

import (
	"time"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SubscriptionService interface {
	Subscribe(db *gorm.DB, userID string, tier models.SubscriptionTier) (*dto.SubscriptionResponse, error)
	GetSubscription(db *gorm.DB, userID string) (*dto.SubscriptionResponse, error)
	CheckQuota(db *gorm.DB, profile *models.UserProfile) error
}

type SubscriptionServiceImpl struct {
	profileRepo repositories.ProfileRepository
	orgRepo     repositories.OrganizationRepository
	now         Clock
}

func NewSubscriptionService(
	profileRepo repositories.ProfileRepository,
	orgRepo repositories.OrganizationRepository,
) SubscriptionService {
	return &SubscriptionServiceImpl{
		profileRepo: profileRepo,
		orgRepo:     orgRepo,
		now:         time.Now,
	}
}

// Subscribe продлевает срок от max(now, текущий срок). Premium бессрочный, Trial - один раз.
func (s *SubscriptionServiceImpl) Subscribe(db *gorm.DB, userID string, tier models.SubscriptionTier) (*dto.SubscriptionResponse, error) {
	if !tier.Valid() || tier == models.TierNone {
		return nil, apperrors.ErrInvalidTier
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	current, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByIDForUpdate(tx, current.ID)
	if err != nil {
		return nil, handleProfileError(err)
	}

	if tier == models.TierTrial {
		if profile.TrialUsed {
			return nil, apperrors.ErrTrialAlreadyUsed
		}
		profile.TrialUsed = true
	}

	now := s.now()
	window := tier.Limits().Window
	if window == 0 {
		profile.SubscriptionExpiresAt = nil
	} else {
		start := now
		if profile.SubscriptionExpiresAt != nil && profile.SubscriptionExpiresAt.After(now) {
			start = *profile.SubscriptionExpiresAt
		}
		expires := start.Add(window)
		profile.SubscriptionExpiresAt = &expires
	}
	profile.SubscriptionTier = tier

	if err := s.profileRepo.UpdateProfile(tx, profile); err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp, err := s.buildResponse(tx, profile)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

func (s *SubscriptionServiceImpl) GetSubscription(db *gorm.DB, userID string) (*dto.SubscriptionResponse, error) {
	profile, err := resolveProfile(db, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(db, profile)
}

// CheckQuota вызывается внутри транзакции создания организации
func (s *SubscriptionServiceImpl) CheckQuota(db *gorm.DB, profile *models.UserProfile) error {
	limits := profile.SubscriptionTier.Limits()
	if limits.MaxOrganizations == 0 {
		return apperrors.ErrTierDenied
	}

	if profile.SubscriptionTier != models.TierPremium &&
		profile.SubscriptionExpiresAt != nil &&
		!profile.SubscriptionExpiresAt.After(s.now()) {
		return apperrors.ErrSubscriptionExpired
	}

	owned, err := s.orgRepo.CountByOwner(db, profile.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if owned >= int64(limits.MaxOrganizations) {
		return apperrors.ErrQuotaExceeded
	}
	return nil
}

func (s *SubscriptionServiceImpl) buildResponse(db *gorm.DB, profile *models.UserProfile) (*dto.SubscriptionResponse, error) {
	owned, err := s.orgRepo.CountByOwner(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.SubscriptionResponse{
		Tier:               profile.SubscriptionTier,
		ExpiresAt:          profile.SubscriptionExpiresAt,
		MaxOrganizations:   profile.SubscriptionTier.Limits().MaxOrganizations,
		OwnedOrganizations: owned,
	}, nil
}
