package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	msgID   string
	data    []byte
}

// fakePublisher records publishes and fails the first failures calls
type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	failures int
	calls    int
}

func (f *fakePublisher) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("nats: no response from stream")
	}
	f.messages = append(f.messages, publishedMessage{subject: subject, msgID: msgID, data: data})
	return nil
}

func (f *fakePublisher) snapshot() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

func sampleGame() *models.GameRecord {
	return &models.GameRecord{
		GameIndex:      7,
		Player:         "0x00000000000000000000000000000000000000a1",
		BetAmount:      50,
		Choice:         models.CoinSideHeads,
		Result:         models.CoinSideHeads,
		Won:            true,
		Payout:         100,
		ServerSeedHash: "hash",
		Nonce:          7,
		PlayedAt:       time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestEventSubjectMapper(t *testing.T) {
	m := NewEventSubjectMapper()

	assert.Equal(t, SubjectGamePlayed, m.MapEventToSubject(events.NewGamePlayedEvent(sampleGame())))
	assert.Equal(t, SubjectPauseChanged, m.MapEventToSubject(events.PauseChangedEvent{}))
	assert.Equal(t, events.EventTypeFundsWithdrawn, m.MapSubjectToEventType(SubjectFundsWithdrawn))

	subjects := m.GetAllSubjects()
	assert.Len(t, subjects, len(events.AllEventTypes()))
	assert.NotContains(t, subjects, "")

	assert.Equal(t, "shardflip.transfers.payout_out", TransferSubject(models.MovementKindPayoutOut))
}

func TestNATSEventPublisher_GamePlayedUsesStableID(t *testing.T) {
	fake := &fakePublisher{}
	p := NewNATSEventPublisher(fake, NewEventSubjectMapper(), nil)
	event := events.NewGamePlayedEvent(sampleGame())

	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Publish(context.Background(), event))

	msgs := fake.snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, SubjectGamePlayed, msgs[0].subject)
	assert.Equal(t, event.EventID(), msgs[0].msgID)
	assert.Equal(t, msgs[0].msgID, msgs[1].msgID)

	envelope, decoded, err := DecodeGamePlayed(msgs[0].data)
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, sourceService, envelope.SourceService)
	assert.Equal(t, event.GameIndex, decoded.GameIndex)
	assert.Equal(t, event.Payout, decoded.Payout)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))
}

func TestNATSEventPublisher_RetriesThenGivesUp(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers", func(t *testing.T) {
		fake := &fakePublisher{failures: 2}
		p := NewNATSEventPublisher(fake, NewEventSubjectMapper(), nil)
		p.retryDelay = time.Millisecond

		require.NoError(t, p.Publish(ctx, events.PauseChangedEvent{Paused: true}))
		assert.Len(t, fake.snapshot(), 1)
	})

	t.Run("exhausted", func(t *testing.T) {
		fake := &fakePublisher{failures: 10}
		p := NewNATSEventPublisher(fake, NewEventSubjectMapper(), nil)
		p.retryDelay = time.Millisecond

		assert.Error(t, p.Publish(ctx, events.PauseChangedEvent{Paused: true}))
		assert.Equal(t, 3, fake.calls)
	})
}

func TestNATSEventPublisher_AttachForwardsBusEvents(t *testing.T) {
	fake := &fakePublisher{}
	bus := events.NewBus()
	NewNATSEventPublisher(fake, NewEventSubjectMapper(), nil).Attach(bus)

	bus.Emit(context.Background(), events.FundsDepositedEvent{Sender: "0xa1", Amount: 10, NewBalance: 10})

	require.Eventually(t, func() bool { return len(fake.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, SubjectFundsDeposited, fake.snapshot()[0].subject)
}

func TestDecodeGamePlayed_RejectsOtherEvents(t *testing.T) {
	envelope, err := NewEventEnvelope(events.PauseChangedEvent{Paused: true})
	require.NoError(t, err)
	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	_, _, err = DecodeGamePlayed(data)
	assert.Error(t, err)

	_, _, err = DecodeGamePlayed([]byte("not json"))
	assert.Error(t, err)
}

func TestNATSTreasury_Send(t *testing.T) {
	ctx := context.Background()
	index := int64(3)
	transfer := &models.Transfer{
		ID:        "transfer-1",
		Kind:      models.MovementKindPayoutOut,
		Recipient: "0xa1",
		Amount:    100,
		GameIndex: &index,
	}

	t.Run("published with transfer id", func(t *testing.T) {
		fake := &fakePublisher{}
		require.NoError(t, NewNATSTreasury(fake).Send(ctx, transfer))

		msgs := fake.snapshot()
		require.Len(t, msgs, 1)
		assert.Equal(t, "shardflip.transfers.payout_out", msgs[0].subject)
		assert.Equal(t, "transfer-1", msgs[0].msgID)

		var decoded models.Transfer
		require.NoError(t, json.Unmarshal(msgs[0].data, &decoded))
		assert.Equal(t, int64(100), decoded.Amount)
		assert.Equal(t, int64(3), *decoded.GameIndex)
	})

	t.Run("missing ack is a failure", func(t *testing.T) {
		fake := &fakePublisher{failures: 1}
		assert.Error(t, NewNATSTreasury(fake).Send(ctx, transfer))
	})

	t.Run("zero amount", func(t *testing.T) {
		zero := *transfer
		zero.Amount = 0
		assert.Error(t, NewNATSTreasury(&fakePublisher{}).Send(ctx, &zero))
	})
}
