package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ashaworks/internal/amqp"
	"ashaworks/internal/config"
	applog "ashaworks/internal/log"
	"ashaworks/internal/sheets"
	gsheet "ashaworks/internal/sheets/google"
	mem "ashaworks/internal/sheets/memory"
	"ashaworks/internal/storage"
	"ashaworks/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(logger)

	logger.Info("starting ashaworks-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize SQLite repository",
			applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var uploader sheets.ExportUploader
	if cfg.SheetsConfigured() {
		client, err := gsheet.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		uploader = client
		logger.Info("Google Sheets uploader initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		uploader = mem.New()
		logger.Warn("no spreadsheet configured, uploads go to the in-memory store")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, uploader, cfg.SyncBatchSize, logger)

	logger.Info("performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Pending exports stay in the archive; the periodic scan retries.
		logger.Error("startup sync check failed", applog.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeExportSync(gctx, func(msg *amqp.ExportSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPendingExports(gctx); err != nil {
					logger.Error("periodic sync failed", applog.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
