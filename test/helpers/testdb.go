package helpers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"orgmarket_backend/database"
	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultPassword проходит auth.ValidatePassword
const DefaultPassword = "secret123"

// NewTestDB - отдельная in-memory sqlite база на каждый тест.
// Одно соединение: транзакции сервисов выполняются последовательно.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db), "Миграция тестовой БД")
	return db
}

// CreateUser создает подтвержденного пользователя с профилем и тарифом
func CreateUser(t *testing.T, db *gorm.DB, email string, tier models.SubscriptionTier) (*models.User, *models.UserProfile) {
	t.Helper()

	hash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: hash, IsVerified: true}
	require.NoError(t, db.Create(user).Error)

	name := strings.Split(email, "@")[0]
	profile := &models.UserProfile{
		UserID:           user.ID,
		FirstName:        name,
		LastName:         "Test",
		Slug:             name + "-" + user.ID[:8],
		SubscriptionTier: tier,
	}
	switch tier {
	case models.TierTrial, models.TierBasic:
		expires := time.Now().Add(tier.Limits().Window)
		profile.SubscriptionExpiresAt = &expires
		profile.TrialUsed = tier == models.TierTrial
	}
	require.NoError(t, db.Create(profile).Error)

	user.Profile = profile
	return user, profile
}

// ExpireSubscription сдвигает срок тарифа в прошлое
func ExpireSubscription(t *testing.T, db *gorm.DB, profile *models.UserProfile) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(profile).Update("subscription_expires_at", past).Error)
	profile.SubscriptionExpiresAt = &past
}

// SetArrivedAt подменяет время прибытия заказа для проверки автозавершения
func SetArrivedAt(t *testing.T, db *gorm.DB, slug string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.Order{}).Where("slug = ?", slug).Update("arrived_at", at).Error)
}
