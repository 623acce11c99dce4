package config

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fundtrack")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("USER_CACHE_TTL", "")
	t.Setenv("CLIENT_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("PORT", "")
	t.Setenv("REMINDER_INTERVAL", "")
	t.Setenv("DEADLINE_REMINDER_WINDOW", "")
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.ReminderWindow)
	assert.Empty(t, cfg.SlackWebhookURL)
	assert.Equal(t, "Default Company", cfg.DefaultCompanyName)
	assert.True(t, cfg.CookieSecure)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3001")
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "  ")

	_, err := Load()
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	_, err = Load()
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.True(t, errors.Is(err, errors.NotSupported), "got %v", err)
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("DEADLINE_REMINDER_WINDOW", "72h")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T0/B0/x")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CLIENT_URL", "https://app.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com, ,https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "https://hooks.slack.com/services/T0/B0/x", cfg.SlackWebhookURL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "https://app.example.com", cfg.ClientURL)

	count := 0
	for _, origin := range cfg.AllowedOrigins {
		if origin == "https://app.example.com" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, cfg.AllowedOrigins, "https://admin.example.com")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_TTL", "soon")

	_, err := Load()
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	setRequired(t)
	t.Setenv("REMINDER_INTERVAL", "-1h")

	_, err = Load()
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}
