package bus

import "context"

// Message is a serialized payload ready for the wire.
// MessageID may be left empty; producers assign one before publishing.
type Message struct {
	Body        []byte
	ContentType string
	MessageID   string
	Headers     map[string]string
}

// Producer abstracts publishing raw messages to the broker.
// The default implementation maps to an AMQP channel; overrides may record
// messages in memory or bridge to another transport.
type Producer interface {
	Publish(ctx context.Context, exchange, routingKey string, msg Message) error
}
