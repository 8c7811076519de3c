package infrastructure

import (
	"fmt"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/models"
)

// Subjects published by the ledger
const (
	SubjectGamePlayed           = "shardflip.games.played"
	SubjectFundsDeposited       = "shardflip.pool.deposited"
	SubjectFundsWithdrawn       = "shardflip.pool.withdrawn"
	SubjectEmergencyWithdrawal  = "shardflip.pool.emergency_withdrawn"
	SubjectPauseChanged         = "shardflip.ledger.paused"
	SubjectOwnershipTransferred = "shardflip.ledger.ownership_transferred"
	SubjectSeedRotated          = "shardflip.fairness.seed_rotated"

	// SubjectTransfersAll matches every outbound transfer subject
	SubjectTransfersAll = "shardflip.transfers.>"
)

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeGamePlayed:           SubjectGamePlayed,
	events.EventTypeFundsDeposited:       SubjectFundsDeposited,
	events.EventTypeFundsWithdrawn:       SubjectFundsWithdrawn,
	events.EventTypeEmergencyWithdrawal:  SubjectEmergencyWithdrawal,
	events.EventTypePauseChanged:         SubjectPauseChanged,
	events.EventTypeOwnershipTransferred: SubjectOwnershipTransferred,
	events.EventTypeSeedRotated:          SubjectSeedRotated,
}

// EventSubjectMapper handles mapping between ledger events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("shardflip.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns every event subject, in event type order
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, subjectsByEventType[t])
	}
	return subjects
}

// TransferSubject is the subject an outbound transfer of kind is published on
func TransferSubject(kind models.MovementKind) string {
	return fmt.Sprintf("shardflip.transfers.%s", kind)
}
