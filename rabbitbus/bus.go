package rabbitbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
)

// Bus is the default bus.Bus implementation. It owns the finalized connection
// configuration and the capabilities it was composed from; everything it does
// is delegation plus serialization.
type Bus struct {
	cfg        *config.Connection
	serializer cbus.Serializer
	producer   cbus.Producer
	consumer   cbus.Consumer
	topology   cbus.Topology
	logger     *slog.Logger

	closers   []io.Closer
	closeOnce sync.Once
	closeErr  error
}

var _ cbus.Bus = (*Bus)(nil)

// Configuration returns the finalized connection configuration. Read-only.
func (b *Bus) Configuration() *config.Connection { return b.cfg }

// Publish implements bus.Bus.
func (b *Bus) Publish(ctx context.Context, exchange, routingKey string, message any) error {
	if message == nil {
		return argErr("message")
	}

	body, err := b.serializer.Marshal(message)
	if err != nil {
		return err
	}

	msg := cbus.Message{
		Body:        body,
		ContentType: b.serializer.ContentType(),
	}

	return b.producer.Publish(ctx, exchange, routingKey, msg)
}

// Consume implements bus.Bus.
func (b *Bus) Consume(ctx context.Context, queue string, handler cbus.Handler) error {
	if queue == "" {
		return argErr("queue")
	}

	if handler == nil {
		return argErr("handler")
	}

	return b.consumer.Consume(ctx, queue, handler)
}

// Topology implements bus.Bus.
func (b *Bus) Topology() cbus.Topology { return b.topology }

// Close closes every composed dependency that has a lifecycle. Subsequent
// calls return the first result.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		var errs []error

		for _, c := range b.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		b.closeErr = errors.Join(errs...)

		if b.logger != nil {
			b.logger.Debug("bus closed")
		}
	})

	return b.closeErr
}
