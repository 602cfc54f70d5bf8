package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret             string
	JWTExpiry             time.Duration
	PasswordHasher        string // "bcrypt" or "argon2id"
	TokenEmailVerifyTTL   time.Duration
	TokenResendInterval   time.Duration
	WalletChallengeExpiry time.Duration
	TokenRetention        time.Duration

	// Email
	EmailProvider string // "resend", "smtp" or "log"
	EmailFrom     string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string

	// Rate limiting (REDIS_URL switches the limiter from memory to redis)
	RateLimitEnabled  bool
	RedisURL          string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Background sweeper
	SweepInterval time.Duration

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Walletauth"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // Required: base URL for email links
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/walletauth.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:             envRequired("JWT_SECRET"),
		JWTExpiry:             envDuration("JWT_EXPIRY", 168*time.Hour),               // 7 days
		PasswordHasher:        envString("PASSWORD_HASHER", "bcrypt"),
		TokenEmailVerifyTTL:   envDuration("TOKEN_EMAIL_VERIFY_EXPIRY", 24*time.Hour), // 24 hours
		TokenResendInterval:   envDuration("TOKEN_RESEND_INTERVAL", 60*time.Second),
		WalletChallengeExpiry: envDuration("WALLET_CHALLENGE_EXPIRY", 5*time.Minute),
		TokenRetention:        envDuration("TOKEN_RETENTION", 168*time.Hour),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailProvider: envString("EMAIL_PROVIDER", "resend"),
		EmailFrom:     envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey:  envString("RESEND_API_KEY", ""),
		SMTPHost:      envString("SMTP_HOST", ""),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUsername:  envString("SMTP_USERNAME", ""),
		SMTPPassword:  envString("SMTP_PASSWORD", ""),

		// Rate limiting
		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RedisURL:          envString("REDIS_URL", ""),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Minute),

		SweepInterval: envDuration("SWEEP_INTERVAL", 10*time.Minute),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to fall back to log mode for easier local testing.
func validateProduction(cfg *Config) {
	switch cfg.EmailProvider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			slog.Error("production deployment requires RESEND_API_KEY",
				"hint", "set APP_ENV=development for local testing with email log mode")
			os.Exit(1)
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			slog.Error("production deployment requires SMTP_HOST when EMAIL_PROVIDER=smtp")
			os.Exit(1)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		slog.Warn("JWT_SECRET is shorter than 32 bytes")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
