package repositories

import (
	"errors"
	"strings"
	"time"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrCodeNotFound      = errors.New("confirmation code not found")
)

type UserRepository interface {
	CreateUser(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	SetVerified(db *gorm.DB, userID string) error
	UpdatePassword(db *gorm.DB, userID, hash string) error
	DeleteUser(db *gorm.DB, userID string) error

	// Confirmation codes
	SaveConfirmationCode(db *gorm.DB, profileID, code string, now time.Time) error
	FindConfirmationCode(db *gorm.DB, profileID string) (*models.ConfirmationCode, error)
	DeleteConfirmationCode(db *gorm.DB, profileID string) error
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

// NormalizeEmail - email хранится в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepositoryImpl) CreateUser(db *gorm.DB, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	if err := db.Omit(clause.Associations).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.Preload("Profile").First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Preload("Profile").First(&user, "email = ?", NormalizeEmail(email)).Error
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) SetVerified(db *gorm.DB, userID string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("is_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) UpdatePassword(db *gorm.DB, userID, hash string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser удаляет пользователя вместе со всем, что висит на профиле.
// Вызывается внутри транзакции сервиса.
func (r *UserRepositoryImpl) DeleteUser(db *gorm.DB, userID string) error {
	var profile models.UserProfile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if profile.ID != "" {
		cleanup := []struct {
			model interface{}
			where string
		}{
			{&models.ConfirmationCode{}, "profile_id = ?"},
			{&models.Employee{}, "profile_id = ?"},
			{&models.Notification{}, "recipient_id = ?"},
			{&models.OrderLike{}, "profile_id = ?"},
			{&models.CatalogLike{}, "profile_id = ?"},
		}
		for _, c := range cleanup {
			if err := db.Where(c.where, profile.ID).Delete(c.model).Error; err != nil {
				return err
			}
		}
		if err := db.Delete(&profile).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SaveConfirmationCode - upsert по profile_id, updated_at сбрасывается
func (r *UserRepositoryImpl) SaveConfirmationCode(db *gorm.DB, profileID, code string, now time.Time) error {
	record := models.ConfirmationCode{ProfileID: profileID, Code: code}
	record.CreatedAt = now
	record.UpdatedAt = now

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"code": code, "updated_at": now}),
	}).Create(&record).Error
}

func (r *UserRepositoryImpl) FindConfirmationCode(db *gorm.DB, profileID string) (*models.ConfirmationCode, error) {
	var code models.ConfirmationCode
	if err := db.First(&code, "profile_id = ?", profileID).Error; err != nil {
		return nil, notFound(err, ErrCodeNotFound)
	}
	return &code, nil
}

func (r *UserRepositoryImpl) DeleteConfirmationCode(db *gorm.DB, profileID string) error {
	return db.Where("profile_id = ?", profileID).Delete(&models.ConfirmationCode{}).Error
}
