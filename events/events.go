package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coolestnick/Shard-Flip/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeGamePlayed           EventType = "game_played"
	EventTypeFundsDeposited       EventType = "funds_deposited"
	EventTypeFundsWithdrawn       EventType = "funds_withdrawn"
	EventTypeEmergencyWithdrawal  EventType = "emergency_withdrawal"
	EventTypePauseChanged         EventType = "pause_changed"
	EventTypeOwnershipTransferred EventType = "ownership_transferred"
	EventTypeSeedRotated          EventType = "seed_rotated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GamePlayedEvent carries the full outcome of one settled bet.
// It is the only channel through which collaborators learn about new games.
type GamePlayedEvent struct {
	GameIndex      int64           `json:"game_index"`
	Player         string          `json:"player"`
	Stake          int64           `json:"stake"`
	Choice         models.CoinSide `json:"choice"`
	Result         models.CoinSide `json:"result"`
	Won            bool            `json:"won"`
	Payout         int64           `json:"payout"`
	Timestamp      time.Time       `json:"timestamp"`
	ServerSeedHash string          `json:"server_seed_hash"`
	Nonce          int64           `json:"nonce"`
}

func (e GamePlayedEvent) Type() EventType {
	return EventTypeGamePlayed
}

// EventID is the stable dedupe key for at-least-once consumers
func (e GamePlayedEvent) EventID() string {
	return fmt.Sprintf("%s:%d:%d", e.Player, e.Timestamp.UnixNano(), e.GameIndex)
}

// NewGamePlayedEvent builds the event for a settled game record
func NewGamePlayedEvent(game *models.GameRecord) GamePlayedEvent {
	return GamePlayedEvent{
		GameIndex:      game.GameIndex,
		Player:         game.Player,
		Stake:          game.BetAmount,
		Choice:         game.Choice,
		Result:         game.Result,
		Won:            game.Won,
		Payout:         game.Payout,
		Timestamp:      game.PlayedAt,
		ServerSeedHash: game.ServerSeedHash,
		Nonce:          game.Nonce,
	}
}

// FundsDepositedEvent represents value added to the pool
type FundsDepositedEvent struct {
	Sender     string `json:"sender"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
}

func (e FundsDepositedEvent) Type() EventType {
	return EventTypeFundsDeposited
}

// FundsWithdrawnEvent represents an owner withdrawal from the pool
type FundsWithdrawnEvent struct {
	Owner      string `json:"owner"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
}

func (e FundsWithdrawnEvent) Type() EventType {
	return EventTypeFundsWithdrawn
}

// EmergencyWithdrawalEvent represents the pool being drained to the owner
type EmergencyWithdrawalEvent struct {
	Owner  string `json:"owner"`
	Amount int64  `json:"amount"`
}

func (e EmergencyWithdrawalEvent) Type() EventType {
	return EventTypeEmergencyWithdrawal
}

// PauseChangedEvent represents the paused flag toggling
type PauseChangedEvent struct {
	Owner  string `json:"owner"`
	Paused bool   `json:"paused"`
}

func (e PauseChangedEvent) Type() EventType {
	return EventTypePauseChanged
}

// OwnershipTransferredEvent represents a change of owner
type OwnershipTransferredEvent struct {
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
}

func (e OwnershipTransferredEvent) Type() EventType {
	return EventTypeOwnershipTransferred
}

// SeedRotatedEvent publishes a revealed server seed and the next commitment
type SeedRotatedEvent struct {
	RevealedSeed     string `json:"revealed_seed"`
	RevealedSeedHash string `json:"revealed_seed_hash"`
	NextSeedHash     string `json:"next_seed_hash"`
}

func (e SeedRotatedEvent) Type() EventType {
	return EventTypeSeedRotated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds the same handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range AllEventTypes() {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow consumer never holds up settlement
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// AllEventTypes lists every event type the ledger emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeGamePlayed,
		EventTypeFundsDeposited,
		EventTypeFundsWithdrawn,
		EventTypeEmergencyWithdrawal,
		EventTypePauseChanged,
		EventTypeOwnershipTransferred,
		EventTypeSeedRotated,
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
// Nothing reaches the real bus for a rolled back operation.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the queued events in publish order
func (b *TransactionalBus) Pending() []Event {
	out := make([]Event, len(b.pending))
	copy(out, b.pending)
	return out
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// The commit context may already be cancelled by the caller
	eventCtx := context.WithoutCancel(ctx)

	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(eventCtx, ev)
		}
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
