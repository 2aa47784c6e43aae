// Package app wires configuration, storage, security services and the HTTP
// surface into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/config"
	"github.com/rivon0507/courier-back/internal/events"
	handler "github.com/rivon0507/courier-back/internal/handler/http"
	"github.com/rivon0507/courier-back/internal/infrastructure/database"
	"github.com/rivon0507/courier-back/internal/infrastructure/database/postgres"
	"github.com/rivon0507/courier-back/internal/infrastructure/ratelimit"
	"github.com/rivon0507/courier-back/internal/infrastructure/security"
	"github.com/rivon0507/courier-back/internal/service"
)

// App owns every long-lived resource of the service.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	pool        *pgxpool.Pool
	redisClient *redis.Client
	producer    *events.KafkaProducer
	server      *http.Server
}

// New builds the full dependency graph. Resources acquired before a failure
// are released.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (app *App, err error) {
	app = &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.closeResources()
		}
	}()

	if cfg.Database.AutoMigrate {
		if err = runMigrations(cfg.Database, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	app.pool, err = postgres.NewDBPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	tokenRepo := database.NewPgxRefreshTokenRepository(app.pool)
	userRepo := database.NewPgxUserRepository(app.pool)

	jwtService, err := security.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to init jwt service: %w", err)
	}
	passwordService, err := security.NewArgon2idPasswordService(security.Argon2idParams{
		Memory:      cfg.Security.PasswordHash.Memory,
		Iterations:  cfg.Security.PasswordHash.Iterations,
		Parallelism: cfg.Security.PasswordHash.Parallelism,
		SaltLength:  cfg.Security.PasswordHash.SaltLength,
		KeyLength:   cfg.Security.PasswordHash.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init password service: %w", err)
	}
	tokenHasher := security.NewSHA256TokenHasher()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		app.producer, err = events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Source, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init kafka producer: %w", err)
		}
		publisher = app.producer
	}

	deps := service.SessionServiceDeps{
		Tokens:    tokenRepo,
		Users:     userRepo,
		Verifier:  service.NewCredentialVerifier(userRepo, passwordService, logger),
		Issuer:    jwtService,
		Passwords: passwordService,
		Hasher:    tokenHasher,
		Revoker:   service.NewSessionRevoker(tokenRepo, logger),
		Publisher: publisher,
	}

	if cfg.Redis.Enabled && cfg.Security.LoginLimit.Enabled {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err = app.redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Limiter = ratelimit.NewRedisRateLimiter(app.redisClient, cfg.Security.LoginLimit, logger)
	}

	sessions := service.NewSessionService(deps, cfg.Session.RefreshTokenTTL, logger)

	authHandler := handler.NewAuthHandler(logger, sessions, cfg.Session)
	meHandler := handler.NewMeHandler(logger, userRepo)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(logger, authHandler, meHandler, jwtService)

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// Run serves until SIGINT/SIGTERM, then drains within the shutdown timeout.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting http server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case sig := <-quit:
		a.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
	}
	a.closeResources()
	return nil
}

func (a *App) closeResources() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("failed to close kafka producer", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func runMigrations(cfg config.DatabaseConfig, logger *zap.Logger) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DSN())
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Error("failed to close migration db handle", zap.Error(dbErr))
		}
	}()

	start := time.Now()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database schema up to date")
			return nil
		}
		return err
	}
	logger.Info("migrations applied", zap.Duration("took", time.Since(start)))
	return nil
}
