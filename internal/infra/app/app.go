package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/core/port"
	"github.com/ZelseeH/CyberB/internal/infra/config"
	"github.com/ZelseeH/CyberB/internal/infra/database"
	kafkainfra "github.com/ZelseeH/CyberB/internal/infra/kafka"
	"github.com/ZelseeH/CyberB/internal/infra/logger"
	"github.com/ZelseeH/CyberB/internal/infra/security"
	postgresrepo "github.com/ZelseeH/CyberB/internal/repository/postgres"
	"github.com/ZelseeH/CyberB/internal/transport/http/handlers"
	"github.com/ZelseeH/CyberB/internal/transport/http/middleware"
	"github.com/ZelseeH/CyberB/internal/transport/http/routes"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// Application owns the wired service graph and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Postgres.Migrate {
		if err := database.Migrate(ctx, cfg.Postgres, log); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	tokens, err := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	auditRecorder := usecase.NewAuditRecorder(repos.Audit, log)
	lockout := usecase.NewLockoutPolicy(repos.Accounts, cfg.Auth.LockoutCooldown)

	authService := usecase.NewAuthService(repos.Accounts, repos.Settings, tokens, lockout, auditRecorder, eventPublisher, log)
	passwordService := usecase.NewPasswordService(repos.Accounts, repos.Settings, auditRecorder, eventPublisher, cfg.Auth.DefaultPassword, log)
	accountService := usecase.NewAccountService(repos.Accounts, auditRecorder, eventPublisher, cfg.Auth.DefaultPassword, cfg.Auth.AdminUsername, log)
	settingsService := usecase.NewSettingsService(repos.Settings, auditRecorder, log)

	if err := Bootstrap(ctx, cfg.Auth, repos.Accounts, repos.Settings, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Namespace: "cyberb"})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	routes.Register(engine, routes.Dependencies{
		Logger:          log,
		Metrics:         metrics,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Auth:            authService,
		AuthHandler:     handlers.NewAuthHandler(authService, log),
		AccountsHandler: handlers.NewAccountsHandler(accountService, passwordService, log),
		SettingsHandler: handlers.NewSettingsHandler(settingsService),
		LogsHandler:     handlers.NewLogsHandler(auditRecorder),
		HealthHandler:   handlers.NewHealthHandler(pool),
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("close kafka producer", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}
