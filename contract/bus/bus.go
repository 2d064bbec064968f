package bus

import "context"

// Bus is the top-level client resolved by the composer. It is intentionally
// minimal: publishing, consuming, topology access, and lifecycle. Concrete
// behavior is supplied by whatever Producer/Consumer/Topology capabilities
// were registered when the bus was composed.
//
// This interface is intended for consumers that want to depend only on contracts.
type Bus interface {
	// Publish serializes message with the configured Serializer and hands it
	// to the Producer under exchange/routingKey.
	Publish(ctx context.Context, exchange, routingKey string, message any) error

	// Consume subscribes handler to queue. It returns once the subscription is
	// established; delivery dispatch stops when ctx is cancelled.
	Consume(ctx context.Context, queue string, handler Handler) error

	// Topology exposes the declare/bind surface of the composed bus.
	Topology() Topology

	// Lifecycle
	Close() error
}
