package database

import (
	"fmt"

	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/models"
	chatmodels "orgmarket_backend/internal/models/chat"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect открывает postgres по DSN из конфига
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}
	return db, nil
}

// Models - все таблицы приложения в порядке создания
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserProfile{},
		&models.ConfirmationCode{},
		&models.RevokedToken{},
		&models.Organization{},
		&models.JobTitle{},
		&models.Employee{},
		&models.Order{},
		&models.OrderApplicant{},
		&models.OrderLike{},
		&models.OrderWorker{},
		&models.OrderStatusHistory{},
		&models.Equipment{},
		&models.Service{},
		&models.Vacancy{},
		&models.CatalogLike{},
		&models.Review{},
		&models.Notification{},
		// chat модуль
		&chatmodels.Conversation{},
		&chatmodels.Message{},
	}
}

// membershipIndexes - частичные уникальные индексы, которые gorm-теги не выражают.
// Синтаксис одинаковый для postgres и sqlite.
var membershipIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_one_active
		ON employees (profile_id) WHERE active = true`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_one_authorized
		ON employees (profile_id, organization_id) WHERE status = 'Authorized'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_one_pending
		ON employees (profile_id, organization_id) WHERE status = 'PendingInvite'`,
}

// Migrate выполняет миграцию всех моделей
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range membershipIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create membership index: %w", err)
		}
	}

	logger.Info("AutoMigrate успешно завершен")
	return nil
}
