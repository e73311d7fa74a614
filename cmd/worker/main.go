package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/Elhussin/opticsSass/internal/activity"
	"github.com/Elhussin/opticsSass/internal/config"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/db"
	"github.com/Elhussin/opticsSass/internal/logging"
	"github.com/Elhussin/opticsSass/internal/metrics"
	"github.com/Elhussin/opticsSass/internal/registry"
	"github.com/Elhussin/opticsSass/internal/workflow"
)

const taskQueue = "tenant-provisioning"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sharedPool, err := db.NewSharedPool(ctx, cfg.SharedDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to shared store")
	}
	defer sharedPool.Close()

	storeAdminPool, err := db.NewSharedPool(ctx, cfg.StoreAdminDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to store host")
	}
	defer storeAdminPool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	// Schema stores live inside one host database; its name comes from
	// the application store DSN.
	schemaHostDatabase, err := db.DatabaseName(cfg.StoreDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid store database url")
	}

	services := core.NewServices(sharedPool, tc)
	reg := registry.New(services.Tenant, registry.NewRedisCache(redisClient), logger)

	w := worker.New(tc, taskQueue, worker.Options{})

	w.RegisterActivity(activity.NewProvisioning(services, reg, activity.ProvisioningConfig{
		StoreAdmin:          storeAdminPool,
		StoreBaseURL:        cfg.StoreDatabaseURL,
		SchemaHostDatabase:  schemaHostDatabase,
		TenantMigrationsDir: cfg.TenantMigrationsDir,
	}, logger))

	w.RegisterWorkflow(workflow.ProvisionTenantWorkflow)
	w.RegisterWorkflow(workflow.RetryStoreWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}
