package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/templui/walletauth/internal/config"
	"github.com/templui/walletauth/internal/db"
	"github.com/templui/walletauth/internal/metrics"
	"github.com/templui/walletauth/internal/middleware"
	"github.com/templui/walletauth/internal/repository"
	"github.com/templui/walletauth/internal/security"
	"github.com/templui/walletauth/internal/service"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Store           repository.Store
	Redis           *redis.Client
	Metrics         *prometheus.Registry
	Limiter         middleware.Limiter
	IdentityService *service.IdentityService
	Sweeper         *service.Sweeper
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	app, err := NewWithDB(cfg, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

// NewWithDB wires the services on top of an already migrated database.
func NewWithDB(cfg *config.Config, database *sqlx.DB) (*App, error) {
	store := repository.NewStore(database)

	hasher, err := security.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %v", err)
	}

	emailSender, err := service.NewEmailSender(service.EmailConfig{
		Provider:     cfg.EmailProvider,
		From:         cfg.EmailFrom,
		AppName:      cfg.AppName,
		TokenExpiry:  cfg.TokenEmailVerifyTTL,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
	}, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email sender: %v", err)
	}

	// Rate limiter: redis when configured so limits hold across instances
	var redisClient *redis.Client
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		err = redisClient.Ping(context.Background()).Err()
		if err != nil {
			slog.Warn("redis not reachable, rate limiter will fail open until it is", "error", err)
		}
		limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, "")
	} else {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	// Services
	tokens := service.NewTokenIssuer(store, cfg.TokenEmailVerifyTTL, cfg.TokenResendInterval)
	verification := service.NewVerificationService(store, tokens)
	wallets := service.NewWalletVerifier(store, cfg.AppName, cfg.WalletChallengeExpiry)
	sessions := service.NewSessionIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	identity := service.NewIdentityService(store, hasher, tokens, verification, wallets, sessions, emailSender, cfg.AppURL)
	sweeper := service.NewSweeper(store, cfg.TokenRetention)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Store:           store,
		Redis:           redisClient,
		Metrics:         metrics.NewRegistry(),
		Limiter:         limiter,
		IdentityService: identity,
		Sweeper:         sweeper,
	}, nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
