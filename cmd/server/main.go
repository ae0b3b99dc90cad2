package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/nobilauto-it/Meta-Leads/internal/adapter/httpapi"
	"github.com/nobilauto-it/Meta-Leads/internal/config"
	"github.com/nobilauto-it/Meta-Leads/internal/infra/bitrix"
	"github.com/nobilauto-it/Meta-Leads/internal/infra/sheets"
	sqliteRepo "github.com/nobilauto-it/Meta-Leads/internal/infra/sqlite"
	"github.com/nobilauto-it/Meta-Leads/internal/infra/telegram"
	"github.com/nobilauto-it/Meta-Leads/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	reps, err := cfg.Representatives()
	if err != nil {
		log.Fatalf("assigned ids error: %v", err)
	}

	watermarkRepo, err := sqliteRepo.NewWatermarkRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("watermark sqlite init error: %v", err)
	}
	historyRepo, err := sqliteRepo.NewHistoryRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("history sqlite init error: %v", err)
	}

	source := sheets.NewClient(cfg.SheetID, cfg.SheetGID)
	crm := bitrix.NewClient(cfg.BitrixWebhookBase, cfg.BitrixSourceID, logger)
	rotator := usecase.NewRotator(reps, logger)

	ingest := usecase.NewIngestUsecase(source, watermarkRepo, historyRepo, rotator, crm, logger)

	// Telegram-оповещения включаются только при заданном токене
	if cfg.TelegramToken != "" {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.AdminChats(), logger)
		if err != nil {
			log.Fatalf("telegram init error: %v", err)
		}
		ingest.SetNotifier(notifier)
	}

	handler := httpapi.NewHandler(ingest, source, crm, logger)
	logger.Info("starting server", "port", cfg.Port)
	if err := handler.Router().Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
