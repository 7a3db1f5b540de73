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

	"velvet/internal/advisor"
	"velvet/internal/amqp"
	"velvet/internal/config"
	"velvet/internal/log"
	"velvet/internal/persist"
	"velvet/internal/services"
	syncgw "velvet/internal/sync"
	"velvet/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentApp})
	log.SetDefault(logger)

	logger.Info("Starting velvet")

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
	if cfg.SyncKey != "" || cfg.SyncBaseURL != "" {
		gateway = syncgw.NewKeyValueGateway(cfg.SyncBaseURL)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without snapshot feed",
				log.FieldError, err)
		} else {
			defer amqpClient.Close()
		}
	}

	adviceLogger := logger.WithComponent(log.ComponentAdvisor)
	adv := advisor.New(cfg.OpenAIKey, cfg.AdviceModel, adviceLogger.Logger)

	opts := services.Options{
		Store:   store,
		Gateway: gateway,
		Advisor: adv,
		SyncKey: cfg.SyncKey,
		Logger:  logger,
	}
	if amqpClient != nil {
		opts.Publisher = amqpClient
	}

	app, err := services.NewApp(opts)
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

	if gateway != nil && cfg.SyncKey == "" {
		key, err := app.EnsureSyncKey(ctx)
		if err != nil {
			logger.Warn("Could not create sync key", log.FieldError, err)
		} else {
			logger.Info("Sync key ready", log.FieldSyncKey, key)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var applier *services.SnapshotApplier
	if amqpClient != nil {
		applier = services.NewSnapshotApplier(app, amqpClient, logger)
		if err := applier.Start(gctx); err != nil {
			logger.Error("Failed to start snapshot applier", log.FieldError, err)
			os.Exit(1)
		}
	}

	pushWorker := worker.NewPushWorker(app, nil, cfg.PushInterval, logger)
	g.Go(func() error { return pushWorker.Run(gctx) })

	// Shutdown on SIGINT/SIGTERM
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

	logger.Info("velvet running",
		log.FieldBackend, cfg.DataBackend,
		"sync_enabled", gateway != nil,
		"amqp_enabled", amqpClient != nil)

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker group ended", log.FieldError, err)
	}

	if applier != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := applier.Stop(shutdownCtx); err != nil {
			logger.Warn("Snapshot applier shutdown error", log.FieldError, err)
		}
	}

	// Final push so the last mutation is never lost on shutdown
	finalCtx, finalCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer finalCancel()
	if err := app.PushNow(finalCtx); err != nil {
		logger.Warn("Final push failed", log.FieldError, err)
	}

	logger.Info("velvet stopped gracefully")
}
