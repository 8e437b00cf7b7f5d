package broker

import (
	"context"

	"funnel/pkg/models"
)

// Producer publishes opaque payloads; used for the dead-letter path.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
	Close() error
}

// Consumer exposes the bus subscription as an effectively-infinite
// sequence of raw messages. Delivery is at-least-once; handlers must
// tolerate duplicates and bounded out-of-order arrival.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, msg models.RawMessage) error
