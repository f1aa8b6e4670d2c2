package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Audit
		Tasks
		Client
		Log
	}

	HTTP struct {
		Port           int32
		Host           string
		AllowedOrigins []string // CORS origins; empty allows any
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret     string
		TokenExpiry   time.Duration // Lifetime of an issued access token
		RefreshWindow time.Duration // How long after expiry a token may still be refreshed
		BcryptCost    int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)

		// Bootstrap admin, created on startup when no users exist
		AdminUsername string
		AdminEmail    string
		AdminPassword string
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Client struct {
		BaseURL            string
		Timeout            time.Duration
		MinRefreshInterval time.Duration // Minimum gap between two refresh attempts
		RefreshMargin      time.Duration // Refresh tokens expiring within this duration
		CheckInterval      time.Duration // Background expiry check period
		TokenFile          string
	}
	Log struct {
		Level  string
		Format string // "json", "console" or "auto"
	}
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")           // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "1h")       // Access token lifetime
	v.SetDefault("auth_refresh_window", "24h")    // Grace period for refresh
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_admin_username", "")
	v.SetDefault("auth_admin_email", "")
	v.SetDefault("auth_admin_password", "")

	// Audit defaults
	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Console client defaults
	v.SetDefault("booklify_base_url", DefaultBaseURL)
	v.SetDefault("booklify_timeout", "30s")
	v.SetDefault("booklify_min_refresh_interval", "30s")
	v.SetDefault("booklify_refresh_margin", "5m")
	v.SetDefault("booklify_check_interval", "30s")
	v.SetDefault("booklify_token_file", DefaultTokenFile)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			RefreshWindow:    v.GetDuration("AUTH_REFRESH_WINDOW"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			AdminUsername:    v.GetString("AUTH_ADMIN_USERNAME"),
			AdminEmail:       v.GetString("AUTH_ADMIN_EMAIL"),
			AdminPassword:    v.GetString("AUTH_ADMIN_PASSWORD"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Client: Client{
			BaseURL:            v.GetString("BOOKLIFY_BASE_URL"),
			Timeout:            v.GetDuration("BOOKLIFY_TIMEOUT"),
			MinRefreshInterval: v.GetDuration("BOOKLIFY_MIN_REFRESH_INTERVAL"),
			RefreshMargin:      v.GetDuration("BOOKLIFY_REFRESH_MARGIN"),
			CheckInterval:      v.GetDuration("BOOKLIFY_CHECK_INTERVAL"),
			TokenFile:          v.GetString("BOOKLIFY_TOKEN_FILE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
