package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optiday/internal/bot"
	"optiday/internal/config"
	"optiday/internal/gemini"
	"optiday/internal/repository"
	"optiday/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	geminiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})
	if err != nil {
		log.Fatalf("gemini: %v", err)
	}

	sessions := service.NewSessionService(
		repository.NewSettingRepository(db),
		repository.NewProfileRepository(db),
		geminiClient,
		geminiClient,
		service.SessionOptions{
			DefaultTheme:    cfg.DefaultTheme,
			GenerateTimeout: cfg.GenerateTimeout,
		},
	)
	digest := service.NewDigestService()

	telegramBot, err := bot.New(cfg.TelegramToken, sessions, digest)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	scheduled, err := scheduler.ScheduleJob("digest", cfg.DigestTime, cfg.DigestInterval, 30*time.Second, telegramBot.SendDigests)
	if err != nil {
		log.Fatalf("schedule digest: %v", err)
	}
	if scheduled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Printf("[info] optiday bot started model=%s", cfg.GeminiModel)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
