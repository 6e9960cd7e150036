package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/api"
	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/database"
	"github.com/jaxxstorm/loansync/internal/logger"
	"github.com/jaxxstorm/loansync/internal/scheduler"
	syncjobpostgres "github.com/jaxxstorm/loansync/internal/syncjob/postgres"
	tenantpostgres "github.com/jaxxstorm/loansync/internal/tenant/postgres"
	"github.com/jaxxstorm/loansync/internal/warehouse/providers/clickhouse"
	"github.com/jaxxstorm/loansync/internal/worker/providers/inprocess"
)

func main() {
	v := config.NewViperInstance()
	if err := config.BindEnvironmentVariables(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind environment variables: %v\n", err)
		os.Exit(1)
	}

	configFile, err := config.FindConfigFile("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to find config file: %v\n", err)
		os.Exit(1)
	}
	if configFile != "" {
		if err := config.LoadConfigFile(v, configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadFromViper(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Scheduler.SetDefaults()

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting loansync server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbProvider, err := database.NewProvider(ctx, &cfg.Database, log)
	if err != nil {
		log.Fatal("failed to initialize metadata database", zap.Error(err))
	}
	defer dbProvider.Close()

	if err := database.RunMigrations(cfg.Database.MigrationConnectionString(), log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	pool, ok := dbProvider.Pool().(*pgxpool.Pool)
	if !ok {
		log.Fatal("metadata database provider is not a pgxpool.Pool")
	}

	tenantRepo, err := tenantpostgres.New(pool, log)
	if err != nil {
		log.Fatal("failed to initialize tenant repository", zap.Error(err))
	}

	jobRepo, err := syncjobpostgres.New(pool, log)
	if err != nil {
		log.Fatal("failed to initialize sync job repository", zap.Error(err))
	}

	warehouseProvider, err := clickhouse.New(ctx, &cfg.Warehouse, log)
	if err != nil {
		log.Fatal("failed to initialize warehouse provider", zap.Error(err))
	}

	if err := warehouseProvider.InitTables(ctx); err != nil {
		log.Fatal("failed to initialize warehouse tables", zap.Error(err))
	}

	pipeline := inprocess.New(jobRepo, tenantRepo, warehouseProvider, &cfg.Upstream, 0, log)

	sched := scheduler.New(tenantRepo, jobRepo, pipeline, &cfg.Upstream, cfg.Scheduler, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	apiServer := api.New(&cfg.HTTP, dbProvider, tenantRepo, jobRepo, sched, log)
	apiServer.SetReadinessChecker(sched)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Error("http server exited unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	if err := sched.Stop(); err != nil {
		log.Error("scheduler shutdown failed", zap.Error(err))
	}

	log.Info("loansync server stopped")
}
