package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ashaworks/internal/amqp"
	"ashaworks/internal/catalog"
	"ashaworks/internal/config"
	apphttp "ashaworks/internal/http"
	applog "ashaworks/internal/log"
	"ashaworks/internal/services"
	"ashaworks/internal/session"
	"ashaworks/internal/storage"
)

func main() {
	// .env for local development; absent in production
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := catalog.NewLoader(cfg.CatalogSources, logger)
	cat, usingFallback := loader.LoadOrFallback(ctx)
	if usingFallback {
		logger.Warn("running on built-in fallback catalog")
	}

	var archive services.ExportArchive
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("failed to initialize SQLite repository",
				applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		archive = repo
		logger.Info("initialized sqlite archive", "path", cfg.SQLiteDBPath)
	default:
		archive = storage.NewMemoryRepository()
		logger.Info("initialized memory archive")
	}

	// AMQP is optional; without it the worker's periodic scan picks up
	// pending exports.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, exports will sync via periodic scan",
				applog.FieldError, err.Error())
		}
	}

	exportService := services.NewExportService(archive, amqpClient, logger)
	defer exportService.Close()

	sess := session.New()
	srv := apphttp.NewServer(":"+cfg.Port, cat, usingFallback, loader, sess, exportService, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("starting ashaworks server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"catalog_version", cat.Version,
		"categories", len(cat.Categories))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
