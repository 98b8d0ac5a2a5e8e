package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/backend"
	"pennywise/internal/cli"
	"pennywise/internal/log"
	"pennywise/internal/sheets"
	gsheet "pennywise/internal/sheets/google"
	"pennywise/internal/sheets/memory"
	"pennywise/internal/worker"
)

var configFile = flag.String("config", cli.DefaultConfigPath(), "Path to an optional TOML configuration file")

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	flag.Parse()

	cfg, err := cli.LoadAndValidateConfig(*configFile)
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	cli.PrintBanner(os.Stderr, "mirror worker", cfg)
	logger.Info("Starting pennywise-worker")

	if cfg.DataBackend == backend.MemoryBackend.String() {
		logger.Warn("Memory backend is not shared with other processes, the mirror will stay empty")
	}

	// The worker only reads the store; publishing is left to the writers.
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	bc.AMQPURL = ""
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(context.Background(), bc)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var writer sheets.SnapshotWriter
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	mirror := worker.NewMirrorWorker(store.Persister, writer, logger.WithComponent(log.ComponentWorker).Logger)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - relying on periodic sync only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
	})

	logger.Info("Performing startup sync check...")
	if err := mirror.StartupSyncCheck(ctx); err != nil {
		// Don't exit - continue with normal operation
		logger.Error("Failed startup sync check", "error", err)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumeLedgerEvents(ctx, mirror.HandleLedgerEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	go mirror.RunPeriodic(ctx, cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
