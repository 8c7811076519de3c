package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/api"
	"github.com/coolestnick/Shard-Flip/config"
	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/infrastructure"
	"github.com/coolestnick/Shard-Flip/mirror"
	"github.com/coolestnick/Shard-Flip/observability"
	"github.com/coolestnick/Shard-Flip/repository"
	"github.com/coolestnick/Shard-Flip/repository/memory"
	"github.com/coolestnick/Shard-Flip/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the ledger API
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)
	log.Info("Starting Shard-Flip ledger...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	var db *database.DB
	var uowFactory service.UnitOfWorkFactory
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("Using in-memory store, ledger state will not survive a restart")
		uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore(), eventBus)
	default:
		log.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		uowFactory = repository.NewUnitOfWorkFactory(db, eventBus)
		log.Info("Database connection established successfully")
	}

	// Initialize NATS. Without it transfers are only logged.
	var natsClient *infrastructure.NATSClient
	var treasury service.Treasury = infrastructure.NewLogTreasury()
	if cfg.NATSEnabled {
		natsClient = infrastructure.NewNATSClient("shard-flip", cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}

		eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), metrics)
		if err := eventPublisher.EnsureLedgerEventStream(natsClient); err != nil {
			return fmt.Errorf("failed to ensure ledger event stream: %w", err)
		}
		if err := infrastructure.EnsureTransferStream(natsClient); err != nil {
			return fmt.Errorf("failed to ensure transfer stream: %w", err)
		}
		eventPublisher.Attach(eventBus)
		treasury = infrastructure.NewNATSTreasury(natsClient)
	} else {
		log.Warn("NATS disabled, events stay in-process and transfers are only logged")
	}

	// Initialize services
	ledgerService := service.NewLedgerService(uowFactory, nil, treasury, nil, metrics)
	statsService := service.NewStatsService(uowFactory)

	ledger, err := ledgerService.Init(ctx, cfg.LedgerSettings())
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	log.WithFields(log.Fields{
		"owner":  ledger.Owner,
		"pool":   ledger.PoolBalance,
		"paused": ledger.Paused,
	}).Info("Ledger ready")

	// Redis backs the view cache and the bet rate limit
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connectRedis(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Continuing without view cache and rate limit")
			redisClient = nil
		}
	}

	// The read-model is filled by the mirror process from NATS
	var mirrorReader *mirror.Reader
	if redisClient != nil && cfg.NATSEnabled {
		mirrorReader, err = mirror.NewReader(&mirror.Config{RedisClient: redisClient})
		if err != nil {
			return fmt.Errorf("failed to create mirror reader: %w", err)
		}
	}

	server, err := api.NewServer(api.Options{
		Config:  cfg,
		Ledger:  ledgerService,
		Stats:   statsService,
		Metrics: metrics,
		Redis:   redisClient,
		Mirror:  mirrorReader,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if cache := server.Cache(); cache != nil {
		cache.InvalidateOnLedgerEvents(eventBus)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Infof("Ledger is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server stopped")
		}
	}

	// Cleanup resources
	log.Info("Shutting down ledger...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}
	if db != nil {
		log.Info("Closing database connection...")
		db.Close()
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}
