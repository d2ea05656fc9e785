package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xxz807/bizledger/internal/ledger/adapter/repo"
	"github.com/xxz807/bizledger/internal/ledger/api"
	"github.com/xxz807/bizledger/internal/ledger/service"
	"github.com/xxz807/bizledger/internal/platform/config"
	"github.com/xxz807/bizledger/internal/platform/database"
	"github.com/xxz807/bizledger/internal/platform/logger"
	"github.com/xxz807/bizledger/internal/platform/server"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bizledger",
	Short: "Customer ledger reconciliation and running-balance service",
	Long: `bizledger merges sales invoices and purchase-order invoices into a
per-customer running-balance ledger, and stores manually entered ledger
entries with transactional balance maintenance.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap 加载配置并初始化基础设施 (Infra)
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	// 2. Logger
	appLogger, err := logger.NewLogger(cfg.Server.Mode)
	if err != nil {
		return nil, nil, nil, err
	}

	// 3. Database
	db, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Logger:          logger.NewGormLogger(appLogger, cfg.Server.Mode),
	})
	if err != nil {
		_ = appLogger.Sync()
		return nil, nil, nil, err
	}
	appLogger.Info("Database connection established", zap.String("driver", cfg.Database.Driver))
	return cfg, appLogger, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	_, appLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer appLogger.Sync() //nolint:errcheck
	defer database.Close(db) //nolint:errcheck

	if err := repo.Migrate(cmd.Context(), db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	appLogger.Info("Schema migrated")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, appLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer appLogger.Sync() //nolint:errcheck
	defer database.Close(db) //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := repo.Migrate(cmd.Context(), db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// 依赖注入 (Wiring)
	// -- Ledger Module --
	entryRepo := repo.NewEntryRepo(db)
	sourceRepo := repo.NewSourceRepo(db)
	viewSvc := service.NewViewService(sourceRepo, appLogger)
	entrySvc := service.NewEntryService(db, entryRepo, appLogger)
	ledgerHandler := api.NewLedgerHandler(viewSvc, entrySvc)

	// 初始化 Server (Gateway)
	srv := server.NewServer(appLogger, server.Options{
		Port:           cfg.Server.Port,
		Mode:           cfg.Server.Mode,
		MetricsEnabled: cfg.Metrics.Enabled,
	}, ledgerHandler)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server startup failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
