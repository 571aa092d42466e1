package repositories

import (
	"time"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository - deny-set отозванных refresh токенов в БД
type TokenRepository interface {
	Revoke(db *gorm.DB, token *models.RevokedToken) error
	IsRevoked(db *gorm.DB, jti string) (bool, error)
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)
}

type TokenRepositoryImpl struct{}

func NewTokenRepository() TokenRepository {
	return &TokenRepositoryImpl{}
}

// Revoke идемпотентен: повторный logout того же токена ничего не меняет
func (r *TokenRepositoryImpl) Revoke(db *gorm.DB, token *models.RevokedToken) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(token).Error
}

func (r *TokenRepositoryImpl) IsRevoked(db *gorm.DB, jti string) (bool, error) {
	var count int64
	err := db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func (r *TokenRepositoryImpl) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}
