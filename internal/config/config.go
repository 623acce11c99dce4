// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
)

const (
	defaultPort           = "3000"
	defaultDriver         = "postgres"
	defaultTokenTTL       = 7 * 24 * time.Hour
	defaultUserCacheTTL   = 10 * time.Minute
	defaultCompanyName    = "Default Company"
	defaultLoggingConfig  = "<root>=INFO"
	defaultGoogleCallback = "http://localhost:3000/auth/google/callback"
	defaultReminderEvery  = time.Hour
	defaultReminderWindow = 7 * 24 * time.Hour
)

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://localhost:5173",
	}
)

type Config struct {
	Port string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr    string
	UserCacheTTL time.Duration

	ClientURL      string
	AllowedOrigins []string
	CookieDomain   string
	CookieSecure   bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	DiscordWebhookURL string
	SlackWebhookURL   string

	// Deadline reminders run every ReminderInterval for projects ending
	// within ReminderWindow.
	ReminderInterval time.Duration
	ReminderWindow   time.Duration

	DefaultCompanyName string
	LoggingConfig      string
}

// Load builds a Config from environment variables. Call godotenv.Load first
// if a .env file should be honoured.
func Load() (Config, error) {
	cfg := Config{
		Port:               getenv("PORT", defaultPort),
		DatabaseDriver:     strings.ToLower(getenv("DB_DRIVER", defaultDriver)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		ClientURL:          strings.TrimSuffix(getenv("CLIENT_URL", "http://localhost:3001"), "/"),
		CookieDomain:       os.Getenv("DOMAIN"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  getenv("GOOGLE_CALLBACK_URL", defaultGoogleCallback),
		DiscordWebhookURL:  os.Getenv("DISCORD_WEBHOOK_URL"),
		SlackWebhookURL:    os.Getenv("SLACK_WEBHOOK_URL"),
		DefaultCompanyName: getenv("DEFAULT_COMPANY_NAME", defaultCompanyName),
		LoggingConfig:      getenv("LOG_CONFIG", defaultLoggingConfig),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.NotValidf("empty DATABASE_URL")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return Config{}, errors.NotSupportedf("DB_DRIVER %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.NotValidf("empty JWT_SECRET")
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", defaultTokenTTL); err != nil {
		return Config{}, errors.Trace(err)
	}
	if cfg.UserCacheTTL, err = durationEnv("USER_CACHE_TTL", defaultUserCacheTTL); err != nil {
		return Config{}, errors.Trace(err)
	}
	if cfg.ReminderInterval, err = durationEnv("REMINDER_INTERVAL", defaultReminderEvery); err != nil {
		return Config{}, errors.Trace(err)
	}
	if cfg.ReminderWindow, err = durationEnv("DEADLINE_REMINDER_WINDOW", defaultReminderWindow); err != nil {
		return Config{}, errors.Trace(err)
	}

	cfg.CookieSecure = true
	if raw := os.Getenv("COOKIE_SECURE"); raw != "" {
		if cfg.CookieSecure, err = strconv.ParseBool(raw); err != nil {
			return Config{}, errors.NotValidf("COOKIE_SECURE %q", raw)
		}
	}

	cfg.AllowedOrigins = allowedOrigins(cfg.ClientURL)

	return cfg, nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func allowedOrigins(clientURL string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" && !contains(origins, clientURL) {
		origins = append(origins, clientURL)
	}

	if allowed := os.Getenv("ALLOWED_ORIGINS"); allowed != "" {
		for _, origin := range strings.Split(allowed, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" && !contains(origins, trimmed) {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.NotValidf("%s %q", key, raw)
	}
	return d, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
