package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "shard-flip"

// EventEnvelope is the wire format of every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher forwards committed ledger events to NATS
type NATSEventPublisher struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	metrics       *observability.MetricsProvider
	maxAttempts   int
	retryDelay    time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(publisher MessagePublisher, subjectMapper *EventSubjectMapper, metrics *observability.MetricsProvider) *NATSEventPublisher {
	return &NATSEventPublisher{
		publisher:     publisher,
		subjectMapper: subjectMapper,
		metrics:       metrics,
		maxAttempts:   3,
		retryDelay:    200 * time.Millisecond,
	}
}

// Attach subscribes the publisher to every event on bus
func (p *NATSEventPublisher) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := p.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish event to NATS")
		}
	})
}

// Publish publishes an event to NATS using the appropriate subject.
// The same event always carries the same message ID, so retries cannot duplicate it.
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	for attempt := 1; ; attempt++ {
		err = p.publisher.Publish(ctx, subject, envelope.EventID, data)
		if err == nil {
			break
		}
		if attempt >= p.maxAttempts {
			return fmt.Errorf("failed to publish event to NATS after %d attempts: %w", attempt, err)
		}
		log.WithFields(log.Fields{
			"eventId": envelope.EventID,
			"attempt": attempt,
			"error":   err,
		}).Warn("Retrying event publish")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.retryDelay * time.Duration(attempt)):
		}
	}

	p.metrics.RecordNATSMessagePublished(envelope.EventType)

	log.WithFields(log.Fields{
		"eventType": envelope.EventType,
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}

// EnsureLedgerEventStream ensures the ledger_events stream exists with every event subject
func (p *NATSEventPublisher) EnsureLedgerEventStream(client *NATSClient) error {
	return client.EnsureStream(LedgerEventStream, "Shard-Flip settlement and admin events", p.subjectMapper.GetAllSubjects())
}

// NewEventEnvelope wraps event for the wire. Settled games reuse their
// composite EventID so downstream consumers can dedupe on it.
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	if played, ok := event.(events.GamePlayedEvent); ok {
		envelope.EventID = played.EventID()
		envelope.Timestamp = played.Timestamp
	}
	return envelope, nil
}

// DecodeGamePlayed parses a GamePlayed envelope received from NATS
func DecodeGamePlayed(data []byte) (*EventEnvelope, events.GamePlayedEvent, error) {
	var envelope EventEnvelope
	var event events.GamePlayedEvent

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, event, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if envelope.EventType != string(events.EventTypeGamePlayed) {
		return &envelope, event, fmt.Errorf("unexpected event type %q", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return &envelope, event, fmt.Errorf("failed to unmarshal game played payload: %w", err)
	}
	return &envelope, event, nil
}
