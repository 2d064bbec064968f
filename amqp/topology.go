package amqp

import (
	"context"
	"fmt"
	"sync"

	amqp091 "github.com/rabbitmq/amqp091-go"

	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
)

// Topology declares exchanges and queues over a cached channel from the
// connection manager.
type Topology struct {
	mgr ConnectionManager

	mu sync.Mutex
	ch *amqp091.Channel
}

var _ cbus.Topology = (*Topology)(nil)

// NewTopology builds the default topology declarer.
func NewTopology(mgr ConnectionManager) *Topology {
	return &Topology{mgr: mgr}
}

// DeclareExchange implements bus.Topology.
func (t *Topology) DeclareExchange(ctx context.Context, name, kind string, durable bool) error {
	ch, err := t.channel(ctx)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}

	if err := ch.ExchangeDeclare(name, kind, durable, false, false, false, nil); err != nil {
		t.drop(ch)
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}

	return nil
}

// DeclareQueue implements bus.Topology.
func (t *Topology) DeclareQueue(ctx context.Context, name string, durable bool) error {
	ch, err := t.channel(ctx)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}

	if _, err := ch.QueueDeclare(name, durable, false, false, false, nil); err != nil {
		t.drop(ch)
		return fmt.Errorf("declare queue %s: %w", name, err)
	}

	return nil
}

// BindQueue implements bus.Topology.
func (t *Topology) BindQueue(ctx context.Context, queue, exchange, routingKey string) error {
	ch, err := t.channel(ctx)
	if err != nil {
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}

	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		t.drop(ch)
		return fmt.Errorf("bind %s to %s: %w", queue, exchange, err)
	}

	return nil
}

func (t *Topology) channel(ctx context.Context) (*amqp091.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch != nil && !t.ch.IsClosed() {
		return t.ch, nil
	}

	ch, err := t.mgr.Channel(ctx)
	if err != nil {
		return nil, err
	}

	t.ch = ch

	return ch, nil
}

func (t *Topology) drop(ch *amqp091.Channel) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch == ch {
		t.ch = nil
	}

	_ = ch.Close()
}

// Close releases the cached channel.
func (t *Topology) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch == nil {
		return nil
	}

	err := t.ch.Close()
	t.ch = nil

	return err
}
