package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cardops/legit-engine/pkg/adapters/mssql"
	"github.com/cardops/legit-engine/pkg/config"
	"github.com/cardops/legit-engine/pkg/database"
	"github.com/cardops/legit-engine/pkg/logging"
	"github.com/cardops/legit-engine/pkg/repositories"
	"github.com/cardops/legit-engine/pkg/retry"
	"github.com/cardops/legit-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync is best-effort

	logger.Info("starting legit-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("destination", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("warehouse", fmt.Sprintf("%s:%d/%s", cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Destination pool, with migrations applied before the run.
	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.URL(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to connect to destination: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	if err := applyMigrations(cfg, logger); err != nil {
		return err
	}

	// Source warehouse connection, shared by all source repositories.
	warehouse, err := mssql.Open(ctx, &mssql.Config{
		Host:                   cfg.Warehouse.Host,
		Port:                   cfg.Warehouse.Port,
		Database:               cfg.Warehouse.Database,
		Username:               cfg.Warehouse.Username,
		Password:               cfg.Warehouse.Password,
		Encrypt:                cfg.Warehouse.Encrypt,
		TrustServerCertificate: cfg.Warehouse.TrustServerCertificate,
		ConnectionTimeout:      cfg.Warehouse.ConnectionTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %s", logging.SanitizeError(err))
	}
	defer warehouse.Close()

	svc := services.NewConsolidationService(
		repositories.NewLogisticsRepository(warehouse),
		repositories.NewCardholderRepository(warehouse),
		repositories.NewDocumentArchiveRepository(warehouse, cfg.Pipeline.ArchivePartitions),
		repositories.NewIdentityReferenceRepository(warehouse),
		repositories.NewConsolidatedRepository(db),
		services.ConsolidationConfig{
			MainLookbackDays:     cfg.Pipeline.MainLookbackDays,
			ExtendedLookbackDays: cfg.Pipeline.ExtendedLookbackDays,
			PruneIdentityOnly:    cfg.Pipeline.PruneIdentityOnly,
		},
		logger,
	)

	summary, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("consolidation run failed: %s", logging.SanitizeError(err))
	}

	logger.Info("legit-engine finished",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("output_rows", summary.OutputRows))
	return nil
}

// applyMigrations opens a short-lived database/sql handle for the migration
// runner; the pgx pool does not expose one.
func applyMigrations(cfg *config.Config, logger *zap.Logger) error {
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %s", logging.SanitizeError(err))
	}
	defer migrationDB.Close()

	if err := database.RunMigrations(migrationDB, cfg.Pipeline.MigrationsPath, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %s", logging.SanitizeError(err))
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
