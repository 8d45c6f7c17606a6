package events

import "context"

// NoopConsumer stands in when no Kafka brokers are configured; the worker
// loop still runs but never sees identity events.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}
