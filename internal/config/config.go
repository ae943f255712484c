package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"optiday/internal/model"
)

// Config keeps runtime settings for the planner bot.
type Config struct {
	TelegramToken   string
	GeminiAPIKey    string
	GeminiModel     string
	DatabaseURL     string
	DigestTime      string
	DigestInterval  time.Duration
	GenerateTimeout time.Duration
	DefaultTheme    model.Theme
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:   env("TELEGRAM_TOKEN"),
		GeminiAPIKey:    env("GEMINI_API_KEY"),
		GeminiModel:     env("GEMINI_MODEL"),
		DatabaseURL:     env("DATABASE_URL"),
		DigestTime:      "08:00",
		DigestInterval:  parseHours(env("DIGEST_INTERVAL_HOURS")),
		GenerateTimeout: parseSeconds(env("GENERATE_TIMEOUT_SECONDS")),
		DefaultTheme:    model.Theme(strings.ToLower(env("DEFAULT_THEME"))),
	}

	if raw, ok := os.LookupEnv("DIGEST_TIME"); ok {
		cfg.DigestTime = strings.TrimSpace(raw)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = env("API_KEY")
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-3-flash-preview"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "optiday.db"
	}
	if cfg.GenerateTimeout == 0 {
		cfg.GenerateTimeout = time.Minute
	}
	if !cfg.DefaultTheme.Valid() {
		cfg.DefaultTheme = model.ThemeLight
	}

	if cfg.DigestTime != "" {
		clock, err := model.ParseClock(cfg.DigestTime)
		if err != nil {
			return cfg, fmt.Errorf("DIGEST_TIME: %w", err)
		}
		cfg.DigestTime = clock
	}
	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
