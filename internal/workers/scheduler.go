package workers

import (
	"context"
	"fmt"
	"time"

	"orgmarket_backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Job - фоновая задача, запускаемая по расписанию
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler запускает задачи по cron-выражениям с секундами.
// Задача не стартует, пока предыдущий запуск не закончился.
type Scheduler struct {
	cron        *cron.Cron
	ctx         context.Context
	stopTimeout time.Duration
}

func NewScheduler() *Scheduler {
	log := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		ctx:         context.Background(),
		stopTimeout: 30 * time.Second,
	}
}

// Add регистрирует задачу; вызывать до Run
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		err := job.Run(s.ctx)
		logger.WorkerLog(job.Name(), "run", err, "duration", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
	}
	return nil
}

// Run блокируется до отмены ctx и ждет завершения запущенных задач
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))

	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		logger.Info("Scheduler stopped")
	case <-time.After(s.stopTimeout):
		logger.Warn("Scheduler stop timed out", "timeout", s.stopTimeout.String())
	}
	return nil
}

// cronLogger направляет логи cron в slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
