package workers

import (
	"context"
	"time"

	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/repositories"

	"gorm.io/gorm"
)

// TokenWorker чистит таблицу отозванных токенов: истекший токен и так не пройдет проверку
type TokenWorker struct {
	db     *gorm.DB
	tokens repositories.TokenRepository
	now    func() time.Time
}

func NewTokenWorker(db *gorm.DB, tokens repositories.TokenRepository) *TokenWorker {
	return &TokenWorker{db: db, tokens: tokens, now: time.Now}
}

func (w *TokenWorker) Name() string { return "revoked-token-cleanup" }

func (w *TokenWorker) Run(ctx context.Context) error {
	removed, err := w.tokens.DeleteExpired(w.db.WithContext(ctx), w.now())
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Info("Expired revoked tokens removed", "count", removed)
	}
	return nil
}
