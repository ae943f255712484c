package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optiday/internal/model"
)

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL", "DATABASE_URL",
		"DIGEST_INTERVAL_HOURS", "GENERATE_TIMEOUT_SECONDS", "DEFAULT_THEME",
	} {
		t.Setenv(key, values[key])
	}
	if v, ok := values["DIGEST_TIME"]; ok {
		t.Setenv("DIGEST_TIME", v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_TOKEN": "tg", "GEMINI_API_KEY": "key", "DIGEST_TIME": "08:00"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-3-flash-preview", cfg.GeminiModel)
	assert.Equal(t, "optiday.db", cfg.DatabaseURL)
	assert.Equal(t, "08:00", cfg.DigestTime)
	assert.Equal(t, time.Minute, cfg.GenerateTimeout)
	assert.Equal(t, model.ThemeLight, cfg.DefaultTheme)
	assert.Zero(t, cfg.DigestInterval)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_TOKEN":           "tg",
		"API_KEY":                  "fallback",
		"GEMINI_MODEL":             "gemini-2.5-pro",
		"DATABASE_URL":             "data/optiday.db",
		"DIGEST_TIME":              "7:30",
		"DIGEST_INTERVAL_HOURS":    "6",
		"GENERATE_TIMEOUT_SECONDS": "90",
		"DEFAULT_THEME":            "Dark",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, "data/optiday.db", cfg.DatabaseURL)
	assert.Equal(t, "07:30", cfg.DigestTime)
	assert.Equal(t, 6*time.Hour, cfg.DigestInterval)
	assert.Equal(t, 90*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, model.ThemeDark, cfg.DefaultTheme)
}

func TestLoad_EmptyDigestTimeDisablesDaily(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_TOKEN": "tg", "GEMINI_API_KEY": "key", "DIGEST_TIME": ""})
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DigestTime)
}

func TestLoad_Errors(t *testing.T) {
	setEnv(t, map[string]string{"GEMINI_API_KEY": "key", "DIGEST_TIME": "08:00"})
	_, err := Load()
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")

	setEnv(t, map[string]string{"TELEGRAM_TOKEN": "tg", "DIGEST_TIME": "08:00"})
	_, err = Load()
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	setEnv(t, map[string]string{"TELEGRAM_TOKEN": "tg", "GEMINI_API_KEY": "key", "DIGEST_TIME": "noon"})
	_, err = Load()
	assert.ErrorContains(t, err, "DIGEST_TIME")
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 2*time.Hour, parseHours("2"))
	assert.Zero(t, parseHours("-1"))
	assert.Zero(t, parseHours("abc"))
	assert.Equal(t, 5*time.Second, parseSeconds("5"))
	assert.Zero(t, parseSeconds("0"))
}
