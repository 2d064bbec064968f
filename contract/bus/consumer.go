package bus

import "context"

// Delivery is one message received from the broker.
type Delivery struct {
	Body        []byte
	ContentType string
	MessageID   string
	RoutingKey  string
	Headers     map[string]string
}

// Handler processes one delivery. Returning an error rejects the delivery;
// acknowledgment semantics are the consumer implementation's concern.
type Handler func(ctx context.Context, d Delivery) error

// Consumer abstracts a push subscription on a queue.
// Consume returns after the subscription is established; implementations stop
// dispatching when ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler Handler) error
}
