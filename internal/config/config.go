package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName    string
	AppEnv     string
	AppURL     string
	Port       string
	WorkerPort string
	TimeZone   string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string
	AutoMigrate  bool

	// Security
	JWTSecret          string
	JWTAccessExpiry    time.Duration
	JWTRefreshExpiry   time.Duration
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// API
	PageSize    int
	MaxPageSize int

	// Telegram
	TelegramURL     string
	TelegramToken   string
	TelegramTimeout time.Duration

	// Jobs
	ReminderSchedule     string
	InactiveUserSchedule string
	InactiveUserAfter    time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string

	// Storage: S3-compatible when S3_BUCKET is set, local MEDIA_ROOT otherwise
	MediaRoot       string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:    envString("APP_NAME", "Habits"),
		AppEnv:     envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:     envString("APP_URL", "http://localhost:8000"),
		Port:       envString("PORT", "8000"),
		WorkerPort: envString("WORKER_PORT", "8001"),
		TimeZone:   envString("TIME_ZONE", "Europe/Moscow"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/habits.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		AutoMigrate:  envBool("AUTO_MIGRATE", true),

		// Security
		JWTSecret:          envRequired("JWT_SECRET"),
		JWTAccessExpiry:    envDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry:   envDuration("JWT_REFRESH_EXPIRY", 24*time.Hour),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       envFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 5),

		// API
		PageSize:    envInt("PAGE_SIZE", 5),
		MaxPageSize: envInt("MAX_PAGE_SIZE", 10),

		// Telegram
		TelegramURL:     envString("TELEGRAM_URL", "https://api.telegram.org/"),
		TelegramToken:   envString("TELEGRAM_TOKEN", ""),
		TelegramTimeout: envDuration("TELEGRAM_TIMEOUT", 10*time.Second),

		// Jobs
		ReminderSchedule:     envString("REMINDER_SCHEDULE", "* * * * *"),
		InactiveUserSchedule: envString("INACTIVE_USER_SCHEDULE", "0 3 * * *"),
		InactiveUserAfter:    envDuration("INACTIVE_USER_AFTER", 30*24*time.Hour),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		MediaRoot:       envString("MEDIA_ROOT", "./data/media"),
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour),
	}

	if cfg.MaxPageSize < cfg.PageSize {
		slog.Warn("config MAX_PAGE_SIZE below PAGE_SIZE, raising it", "page_size", cfg.PageSize, "max_page_size", cfg.MaxPageSize)
		cfg.MaxPageSize = cfg.PageSize
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email and reminders to run in log-only mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		slog.Error("production deployment requires TELEGRAM_TOKEN")
		os.Exit(1)
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
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
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

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
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

// UseS3 reports whether avatars go to S3-compatible storage.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// Location returns the configured time zone, falling back to UTC when the
// zone database does not know TIME_ZONE.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		slog.Warn("config unknown time zone, using UTC", "time_zone", c.TimeZone, "error", err)
		return time.UTC
	}
	return loc
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded. Safe to log at startup.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:    c.AppName,
		AppEnv:     c.AppEnv,
		AppURL:     c.AppURL,
		Port:       c.Port,
		WorkerPort: c.WorkerPort,
		TimeZone:   c.TimeZone,

		DBDriver: c.DBDriver,

		JWTAccessExpiry:    c.JWTAccessExpiry,
		JWTRefreshExpiry:   c.JWTRefreshExpiry,
		CORSAllowedOrigins: c.CORSAllowedOrigins,

		PageSize:    c.PageSize,
		MaxPageSize: c.MaxPageSize,

		TelegramURL:     c.TelegramURL,
		TelegramTimeout: c.TelegramTimeout,

		ReminderSchedule:     c.ReminderSchedule,
		InactiveUserSchedule: c.InactiveUserSchedule,
		InactiveUserAfter:    c.InactiveUserAfter,

		EmailFrom: c.EmailFrom,

		MediaRoot:  c.MediaRoot,
		S3Region:   c.S3Region,
		S3Bucket:   c.S3Bucket,
		S3Endpoint: c.S3Endpoint,
	}
}
