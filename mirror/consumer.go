package mirror

import (
	"context"
	"fmt"

	"github.com/coolestnick/Shard-Flip/infrastructure"
	"github.com/coolestnick/Shard-Flip/observability"

	log "github.com/sirupsen/logrus"
)

// Subscriber delivers messages from a durable subscription
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler infrastructure.MessageHandler) error
}

// Consumer feeds GamePlayed messages from NATS into the projector
type Consumer struct {
	subscriber Subscriber
	projector  *Projector
	metrics    *observability.MetricsProvider
}

// NewConsumer creates a new mirror consumer
func NewConsumer(subscriber Subscriber, projector *Projector, metrics *observability.MetricsProvider) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		projector:  projector,
		metrics:    metrics,
	}
}

// Start subscribes to settled games
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.subscriber.Subscribe(ctx, infrastructure.SubjectGamePlayed, c.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to settled games: %w", err)
	}
	log.WithField("subject", infrastructure.SubjectGamePlayed).Info("Mirror consumer started")
	return nil
}

// Handle applies one GamePlayed message. Returning an error leaves the message
// for redelivery, so only failures a retry could fix are returned.
func (c *Consumer) Handle(ctx context.Context, data []byte) error {
	envelope, event, err := infrastructure.DecodeGamePlayed(data)
	if err != nil {
		log.WithError(err).Error("Dropping malformed game played message")
		return nil
	}
	c.metrics.RecordNATSMessageReceived(envelope.EventType)

	if envelope.EventID != event.EventID() {
		log.WithFields(log.Fields{
			"envelopeId": envelope.EventID,
			"eventId":    event.EventID(),
		}).Warn("Envelope ID does not match event, deduplicating on event")
	}

	applied, err := c.projector.Apply(ctx, event)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"eventId":   event.EventID(),
		"gameIndex": event.GameIndex,
		"applied":   applied,
	}).Debug("Mirrored settled game")
	return nil
}
