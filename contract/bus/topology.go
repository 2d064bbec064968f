package bus

import "context"

// Topology abstracts exchange/queue declaration and binding.
// Declarations are idempotent on the broker side; redeclaring with the same
// arguments is safe.
type Topology interface {
	DeclareExchange(ctx context.Context, name, kind string, durable bool) error
	DeclareQueue(ctx context.Context, name string, durable bool) error
	BindQueue(ctx context.Context, queue, exchange, routingKey string) error
}
