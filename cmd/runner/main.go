// Command runner executes one invoice confirmation batch and exits.
// Meant to be driven by cron; exit code 1 signals a run-fatal failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
	"github.com/judev-jbg/confirmation-invoice/internal/pipeline"
	"github.com/judev-jbg/confirmation-invoice/internal/repository"
	"github.com/judev-jbg/confirmation-invoice/internal/services"
	"github.com/judev-jbg/confirmation-invoice/pkg/database"
	"github.com/judev-jbg/confirmation-invoice/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice confirmation batch",
		zap.String("environment", cfg.Environment))

	// Interrupt stops the batch between orders; side effects already
	// committed (emails sent, ledger rows written) stand.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	runRepo := repository.NewRunRepository(db.DB, logger)

	container, err := services.NewContainer(ctx, cfg, logger, pipeline.WithRecorder(runRepo))
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	outcome, err := container.Processor.Run(ctx)
	if err != nil {
		logger.Error("Batch run failed", zap.Error(err))
		os.Exit(1)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		logger.Info("Batch interrupted by user",
			zap.Int("processed", outcome.Processed))
		return
	}

	logger.Info("Batch finished",
		zap.Int("processed", outcome.Processed),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("errored", outcome.Errored),
		zap.Int("skipped", outcome.Skipped))
}
