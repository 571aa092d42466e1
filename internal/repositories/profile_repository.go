package repositories

import (
	"errors"
	"fmt"

	"orgmarket_backend/internal/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists for this user")
)

type ProfileRepository interface {
	CreateProfile(db *gorm.DB, profile *models.UserProfile) error
	FindByID(db *gorm.DB, id string) (*models.UserProfile, error)
	FindByIDForUpdate(db *gorm.DB, id string) (*models.UserProfile, error)
	FindByUserID(db *gorm.DB, userID string) (*models.UserProfile, error)
	FindBySlug(db *gorm.DB, slug string) (*models.UserProfile, error)
	UpdateProfile(db *gorm.DB, profile *models.UserProfile) error
	UniqueSlug(db *gorm.DB, base, excludeID string) (string, error)
}

type ProfileRepositoryImpl struct{}

func NewProfileRepository() ProfileRepository {
	return &ProfileRepositoryImpl{}
}

func (r *ProfileRepositoryImpl) CreateProfile(db *gorm.DB, profile *models.UserProfile) error {
	var count int64
	if err := db.Model(&models.UserProfile{}).Where("user_id = ?", profile.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrProfileAlreadyExists
	}

	if profile.Slug == "" {
		s, err := r.UniqueSlug(db, profile.LastName+" "+profile.FirstName, "")
		if err != nil {
			return err
		}
		profile.Slug = s
	}
	if profile.SubscriptionTier == "" {
		profile.SubscriptionTier = models.TierNone
	}

	return db.Omit("User").Create(profile).Error
}

func (r *ProfileRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

// FindByIDForUpdate блокирует строку профиля: создание организаций
// одного владельца сериализуется на ней
func (r *ProfileRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := forUpdate(db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) FindBySlug(db *gorm.DB, s string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := db.First(&profile, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) UpdateProfile(db *gorm.DB, profile *models.UserProfile) error {
	return db.Omit("User", "CreatedAt").Save(profile).Error
}

// UniqueSlug - slug из имени; занятый получает числовой суффикс
func (r *ProfileRepositoryImpl) UniqueSlug(db *gorm.DB, base, excludeID string) (string, error) {
	return uniqueSlug(db, &models.UserProfile{}, base, excludeID)
}

// uniqueSlug общий для всех таблиц со столбцом slug
func uniqueSlug(db *gorm.DB, model interface{}, base, excludeID string) (string, error) {
	root := slug.Make(base)
	if root == "" {
		root = "item"
	}

	candidate := root
	for i := 1; ; i++ {
		q := db.Model(model).Where("slug = ?", candidate)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, i)
	}
}
