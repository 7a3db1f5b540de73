package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"velvet/internal/amqp"
	"velvet/internal/config"
	"velvet/internal/log"
	"velvet/internal/mirror"
	"velvet/internal/persist"
	"velvet/internal/services"
	syncgw "velvet/internal/sync"
	"velvet/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting velvet-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := persist.New(cfg.DataBackend, cfg.DataDir, cfg.SQLiteDBPath, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize state store",
			log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var gateway syncgw.Gateway
	if cfg.SyncKey != "" {
		gateway = syncgw.NewKeyValueGateway(cfg.SyncBaseURL)
	} else {
		logger.Info("Sync disabled - no SYNC_KEY provided")
	}

	var sheetsMirror worker.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		m, err := mirror.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err)
			os.Exit(1)
		}
		sheetsMirror = m
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	app, err := services.NewApp(services.Options{
		Store:   store,
		Gateway: gateway,
		SyncKey: cfg.SyncKey,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("Failed to build application", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Load(ctx); err != nil {
		logger.Error("Failed to load state", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeMonthSnapshots(gctx, func(snapshot *amqp.MonthSnapshot) error {
				return app.AdoptMonthSnapshot(gctx, snapshot)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Snapshot consumption failed", log.FieldError, err)
			}
			return err
		})
	}

	pushWorker := worker.NewPushWorker(app, sheetsMirror, cfg.PushInterval, logger)
	g.Go(func() error { return pushWorker.Run(gctx) })

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker group ended", log.FieldError, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := app.PushNow(shutdownCtx); err != nil {
		logger.Warn("Final push failed", log.FieldError, err)
	}

	logger.Info("velvet-worker stopped")
}
