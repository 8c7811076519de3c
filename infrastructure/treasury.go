package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/models"

	log "github.com/sirupsen/logrus"
)

// NATSTreasury hands outbound transfers to the payout processor through JetStream.
// A transfer counts as sent once the stream has acknowledged it.
type NATSTreasury struct {
	publisher MessagePublisher
	timeout   time.Duration
}

// NewNATSTreasury creates a treasury publishing on shardflip.transfers.<kind>
func NewNATSTreasury(publisher MessagePublisher) *NATSTreasury {
	return &NATSTreasury{
		publisher: publisher,
		timeout:   5 * time.Second,
	}
}

// Send publishes transfer and waits for the stream acknowledgement
func (t *NATSTreasury) Send(ctx context.Context, transfer *models.Transfer) error {
	if transfer.Amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", transfer.Amount)
	}

	data, err := json.Marshal(transfer)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.publisher.Publish(ctx, TransferSubject(transfer.Kind), transfer.ID, data); err != nil {
		return fmt.Errorf("failed to publish transfer %s: %w", transfer.ID, err)
	}

	log.WithFields(log.Fields{
		"transferId": transfer.ID,
		"kind":       transfer.Kind,
		"recipient":  transfer.Recipient,
		"amount":     transfer.Amount,
	}).Info("Transfer published")
	return nil
}

// EnsureTransferStream ensures the ledger_transfers stream exists
func EnsureTransferStream(client *NATSClient) error {
	return client.EnsureStream(TransferStream, "Shard-Flip outbound transfers", []string{SubjectTransfersAll})
}

// LogTreasury accepts every transfer and only logs it. Used when running without NATS.
type LogTreasury struct{}

// NewLogTreasury creates a new log-only treasury
func NewLogTreasury() *LogTreasury {
	return &LogTreasury{}
}

func (LogTreasury) Send(ctx context.Context, transfer *models.Transfer) error {
	log.WithFields(log.Fields{
		"transferId": transfer.ID,
		"kind":       transfer.Kind,
		"recipient":  transfer.Recipient,
		"amount":     transfer.Amount,
	}).Warn("Transfer recorded without a payout processor")
	return nil
}
