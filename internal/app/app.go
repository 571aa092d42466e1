package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"orgmarket_backend/database"
	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/cache"
	"orgmarket_backend/internal/config"
	"orgmarket_backend/internal/email"
	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/handlers"
	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/middleware"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/routes"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/storage"
	"orgmarket_backend/internal/validator"
	"orgmarket_backend/internal/workers"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Env == "development")
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Application stopped with error", "error", err)
	}
	logger.Info("Application stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(gormDB); err != nil {
			return err
		}
	}

	redisClient := initializeRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	mailer, err := initializeMailer(cfg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	bus := events.NewBus()
	hub := ws.NewHub()
	hub.RelayChat(bus)

	deps := services.Dependencies{
		DB:            gormDB,
		Tokens:        tokens,
		Mailer:        mailer,
		Storage:       storageInstance,
		Bus:           bus,
		Signaler:      hub,
		RotateRefresh: cfg.JWT.RotateRefresh,
	}
	if redisClient != nil {
		deps.DenyList = cache.NewRedisDenyList(redisClient)
	}
	serviceContainer := services.NewServiceContainer(deps)

	ginRouter := SetupRouter(cfg, gormDB, serviceContainer, hub, tokens)

	scheduler, err := initializeScheduler(gormDB, cfg, serviceContainer)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: ginRouter,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", "timeout", cfg.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if closeErr := mailer.Close(); closeErr != nil {
		logger.Warn("Mail provider close failed", "error", closeErr.Error())
	}
	return err
}

// initializeRedis - redis опционален: без него отзыв токенов проверяется только по БД
func initializeRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Warn("Redis is not configured, token deny-set uses database only")
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis unavailable, token deny-set uses database only", "error", err.Error())
		return nil
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client
}

func initializeMailer(cfg *config.Config) (*email.Mailer, error) {
	templates, err := email.NewTemplateManager(cfg.Email.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	if !cfg.Email.Enabled {
		logger.Warn("Email sending is disabled, letters are written to the log")
		return email.NewMailer(email.NewLogProvider(), templates), nil
	}

	provider, err := email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    cfg.Email.UseTLS,
		Timeout:   cfg.Email.SendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP provider: %w", err)
	}
	return email.NewMailer(provider, templates), nil
}

func initializeScheduler(db *gorm.DB, cfg *config.Config, svc *services.ServiceContainer) (*workers.Scheduler, error) {
	scheduler := workers.NewScheduler()

	orderWorker := workers.NewOrderWorker(db, svc.OrderService, cfg.Scheduler.AutoFinishAfter, cfg.Scheduler.BatchSize)
	if err := scheduler.Add(cfg.Scheduler.AutoFinishSpec, orderWorker); err != nil {
		return nil, err
	}

	tokenWorker := workers.NewTokenWorker(db, repositories.NewTokenRepository())
	if err := scheduler.Add(cfg.Scheduler.TokenCleanupSpec, tokenWorker); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// SetupRouter собирает gin с middleware, HTTP ручками и websocket
func SetupRouter(cfg *config.Config, db *gorm.DB, svc *services.ServiceContainer, hub *ws.Hub, tokens *auth.TokenManager) *gin.Engine {
	router := initializeGinRouter(db, cfg)

	v := validator.New()
	appHandlers := handlers.NewAppHandlers(svc, v)
	wsHandler := ws.NewWebSocketHandler(
		hub, db, tokens,
		svc.ChatService, svc.NotificationService,
		v, cfg.Server.AllowedOrigins,
	)

	routes.RegisterRoutes(
		router, appHandlers, wsHandler,
		middleware.AuthMiddleware(tokens),
		middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute).Handler(),
	)
	return router
}

func initializeGinRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}
