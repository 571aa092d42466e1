package workers

import (
	"context"
	"time"

	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/services"

	"gorm.io/gorm"
)

// OrderWorker автоматически завершает заказы, которые дольше after стоят в статусе Arrived
type OrderWorker struct {
	db     *gorm.DB
	orders services.OrderService
	after  time.Duration
	batch  int
	now    func() time.Time
}

func NewOrderWorker(db *gorm.DB, orders services.OrderService, after time.Duration, batch int) *OrderWorker {
	if batch <= 0 {
		batch = 100
	}
	return &OrderWorker{
		db:     db,
		orders: orders,
		after:  after,
		batch:  batch,
		now:    time.Now,
	}
}

func (w *OrderWorker) Name() string { return "order-auto-finish" }

// Run обрабатывает заказы пачками, пока пачка заполняется целиком
func (w *OrderWorker) Run(ctx context.Context) error {
	cutoff := w.now().Add(-w.after)
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := w.orders.AutoFinish(w.db.WithContext(ctx), cutoff, w.batch)
		total += n
		if err != nil {
			return err
		}
		if n < w.batch {
			break
		}
	}
	if total > 0 {
		logger.Info("Orders auto-finished", "count", total, "cutoff", cutoff)
	}
	return nil
}
