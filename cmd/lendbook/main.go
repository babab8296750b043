package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lendbook/internal/amqp"
	"lendbook/internal/config"
	apphttp "lendbook/internal/http"
	applog "lendbook/internal/log"
	"lendbook/internal/plans"
	"lendbook/internal/report"
	"lendbook/internal/seed"
	"lendbook/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
		Handler: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: applog.ParseLevel(cfg.LogLevel),
		}),
	})
	slog.SetDefault(logger.Logger)

	logger.Info("Starting lendbook")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedOnStartup {
		loader := seed.NewLoader(repo, cfg.SeedDir)
		seeded, err := loader.SeedIfEmpty(ctx)
		if err != nil {
			logger.Error("Startup seeding failed", "error", err, "dir", cfg.SeedDir)
			os.Exit(1)
		}
		if seeded {
			logger.Info("Database seeded", "dir", cfg.SeedDir)
		}
	}

	// Publishing is optional; a missing broker degrades to local-only imports.
	var events plans.EventPublisher
	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, import events disabled", "error", err)
		} else {
			defer client.Close()
			broker = client
			events = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	importer := plans.NewImporter(repo, repo, events)
	performance := report.NewPerformance(repo, repo, repo)
	credits := report.NewCredits(repo)

	srv := apphttp.NewServer(":"+cfg.Port, cfg.APIKey, importer, performance, credits)

	g, gctx := errgroup.WithContext(ctx)
	if broker != nil && cfg.AMQPConsume {
		g.Go(func() error {
			err := broker.ConsumePlanImports(gctx, func(msg *amqp.PlanImportMessage) error {
				logger.Info("Plan import event received", "rows", msg.Rows, "timestamp", msg.Timestamp)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
