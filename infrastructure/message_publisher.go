package infrastructure

import (
	"context"
)

// MessagePublisher defines the interface for publishing messages to a message bus
type MessagePublisher interface {
	// Publish publishes a message to the specified subject. msgID is used by the
	// broker to drop duplicate publishes of the same message.
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error
