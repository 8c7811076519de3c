package cmd

import (
	"context"
	"fmt"

	"github.com/coolestnick/Shard-Flip/config"
	"github.com/coolestnick/Shard-Flip/infrastructure"
	"github.com/coolestnick/Shard-Flip/mirror"
	"github.com/coolestnick/Shard-Flip/observability"

	log "github.com/sirupsen/logrus"
)

// RunMirror consumes settled games from NATS into the Redis read-model
func RunMirror(ctx context.Context) error {
	cfg := config.Get()
	configureLogging(cfg)
	log.Info("Starting Shard-Flip stats mirror...")

	if !cfg.NATSEnabled {
		return fmt.Errorf("the stats mirror requires NATS_ENABLED")
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	projector, err := mirror.NewProjector(&mirror.Config{RedisClient: redisClient})
	if err != nil {
		return fmt.Errorf("failed to create projector: %w", err)
	}

	natsClient := infrastructure.NewNATSClient("shard-flip-mirror", cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return err
	}
	defer natsClient.Close()

	mapper := infrastructure.NewEventSubjectMapper()
	if err := natsClient.EnsureStream(infrastructure.LedgerEventStream, "Shard-Flip settlement and admin events", mapper.GetAllSubjects()); err != nil {
		return fmt.Errorf("failed to ensure ledger event stream: %w", err)
	}

	consumer := mirror.NewConsumer(natsClient, projector, metrics)
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down stats mirror...")

	if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}
	return nil
}
