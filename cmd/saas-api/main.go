package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/Elhussin/opticsSass/internal/api"
	"github.com/Elhussin/opticsSass/internal/config"
	"github.com/Elhussin/opticsSass/internal/core"
	"github.com/Elhussin/opticsSass/internal/db"
	"github.com/Elhussin/opticsSass/internal/logging"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/registry"
	"github.com/Elhussin/opticsSass/internal/resolver"
	"github.com/Elhussin/opticsSass/internal/router"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-api-key" {
		createAPIKey(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run shared store migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("saas-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		if err := migrateShared(cfg); err != nil {
			logger.Fatal().Err(err).Msg("shared store migration failed")
		}
		logger.Info().Str("dir", cfg.SharedMigrationsDir).Msg("shared store migrated")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sharedPool, err := db.NewSharedPool(ctx, cfg.SharedDatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to shared store")
	}
	defer sharedPool.Close()

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

	reg := registry.New(core.NewTenantService(sharedPool), registry.NewRedisCache(redisClient), logger)
	res := resolver.New(reg, cfg.Development(), logger)
	storeRouter := router.New(core.NewStoreCatalogService(sharedPool), cfg.StoreDatabaseURL, logger)

	srv := api.NewServer(logger, sharedPool, tc, redisClient, reg, res, storeRouter)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting saas API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// migrateShared applies the shared-store migration domains, each checked
// against the migration scope allow-list first.
func migrateShared(cfg *config.Config) error {
	for _, domain := range []string{router.DomainRegistry, router.DomainIdentity} {
		if err := router.CheckMigrationTarget(domain, model.SharedStoreID); err != nil {
			return err
		}
		if err := db.RunMigrations(cfg.SharedDatabaseURL, filepath.Join(cfg.SharedMigrationsDir, domain)); err != nil {
			return fmt.Errorf("migrate shared domain %s: %w", domain, err)
		}
	}
	return nil
}

func createAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	name := fs.String("name", "", "Name for the API key (required)")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: --name is required")
		fmt.Fprintln(os.Stderr, "usage: saas-api create-api-key --name <name>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewSharedPool(ctx, cfg.SharedDatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewAPIKeyService(pool)
	key, rawKey, err := svc.Create(ctx, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", key.Name)
	fmt.Printf("  ID:     %s\n", key.ID)
	fmt.Printf("  Key:    %s\n\n", rawKey)
	fmt.Printf("Save this key, it will not be shown again.\n")
}
