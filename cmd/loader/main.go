package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/shipdata/loader/internal/application/ingest"
	"github.com/shipdata/loader/internal/application/report"
	"github.com/shipdata/loader/internal/infrastructure/config"
	"github.com/shipdata/loader/internal/infrastructure/logger"
	"github.com/shipdata/loader/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file (default: config.toml in . or ./configs)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log.Level, cfg.Log.Format))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shipment loader",
		zap.String("mode", cfg.Run.Mode),
		zap.String("input_dir", cfg.Input.Dir),
		zap.String("database", cfg.Database.Name),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Load run failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// Create the target database before GORM connects to it
	if err := persistence.EnsureDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		return err
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)

	// Initialize application services
	loadService := ingest.NewService(productRepo, shipmentRepo, db, log)
	summaryService := report.NewSummaryService(productRepo, shipmentRepo, log)

	result, err := loadService.Run(ctx, ingest.Options{
		Mode:         ingest.RunMode(cfg.Run.Mode),
		DirectPath:   cfg.Input.DirectPath(),
		ShipmentPath: cfg.Input.ShipmentPath(),
		RoutePath:    cfg.Input.RoutePath(),
		MaxRowErrors: cfg.Run.MaxRowErrors,
	})
	if err != nil {
		return err
	}

	summary, err := summaryService.GetLoadSummary(ctx, report.SummaryFilter{
		TopN:       cfg.Run.TopProducts,
		SampleSize: cfg.Run.SampleSize,
	})
	if err != nil {
		return fmt.Errorf("failed to build load summary: %w", err)
	}
	summaryService.LogSummary(summary)

	log.Info("Load completed",
		zap.String("run_id", result.RunID),
		zap.Int("shipments_loaded", result.ShipmentsLoaded),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Duration("duration", result.Duration),
	)
	return nil
}
