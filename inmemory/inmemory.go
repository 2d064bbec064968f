// Package inmemory provides broker-less capability implementations that
// record what passes through them. Useful in tests and as override examples;
// no connection is ever dialed when these replace the AMQP defaults.
package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
)

// Published is one recorded publication.
type Published struct {
	Exchange   string
	RoutingKey string
	Message    cbus.Message
}

// Producer is a thread-safe in-memory implementation of bus.Producer.
type Producer struct {
	mu       sync.Mutex
	Messages []Published
}

func (p *Producer) Publish(ctx context.Context, exchange, routingKey string, msg cbus.Message) error {
	_ = ctx

	p.mu.Lock()
	p.Messages = append(p.Messages, Published{Exchange: exchange, RoutingKey: routingKey, Message: msg})
	p.mu.Unlock()

	return nil
}

// Consumer is a thread-safe in-memory implementation of bus.Consumer.
// Subscriptions are recorded; tests feed deliveries with Deliver.
type Consumer struct {
	mu       sync.Mutex
	handlers map[string][]cbus.Handler
}

func (c *Consumer) Consume(ctx context.Context, queue string, handler cbus.Handler) error {
	_ = ctx

	c.mu.Lock()
	if c.handlers == nil {
		c.handlers = make(map[string][]cbus.Handler)
	}

	c.handlers[queue] = append(c.handlers[queue], handler)
	c.mu.Unlock()

	return nil
}

// Deliver hands d to every handler subscribed to queue, stopping at the first
// handler error.
func (c *Consumer) Deliver(ctx context.Context, queue string, d cbus.Delivery) error {
	c.mu.Lock()
	handlers := append([]cbus.Handler(nil), c.handlers[queue]...)
	c.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, d); err != nil {
			return err
		}
	}

	return nil
}

// Topology records declarations instead of talking to a broker.
type Topology struct {
	mu        sync.Mutex
	Exchanges []string
	Queues    []string
	Bindings  []string
}

func (t *Topology) DeclareExchange(ctx context.Context, name, kind string, durable bool) error {
	_, _, _ = ctx, kind, durable

	t.mu.Lock()
	t.Exchanges = append(t.Exchanges, name)
	t.mu.Unlock()

	return nil
}

func (t *Topology) DeclareQueue(ctx context.Context, name string, durable bool) error {
	_, _ = ctx, durable

	t.mu.Lock()
	t.Queues = append(t.Queues, name)
	t.mu.Unlock()

	return nil
}

func (t *Topology) BindQueue(ctx context.Context, queue, exchange, routingKey string) error {
	_ = ctx

	t.mu.Lock()
	t.Bindings = append(t.Bindings, queue+"<-"+exchange+":"+routingKey)
	t.mu.Unlock()

	return nil
}

// Adapter bundles the in-memory capabilities for convenient registration.
type Adapter struct {
	Producer
	Consumer
	Topology
}

var (
	_ cbus.Producer = (*Adapter)(nil)
	_ cbus.Consumer = (*Adapter)(nil)
	_ cbus.Topology = (*Adapter)(nil)
)

// New creates a new in-memory adapter instance.
func New() *Adapter { return &Adapter{} }
