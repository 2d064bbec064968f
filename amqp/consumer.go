package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// Consumer subscribes handlers to queues. Each subscription runs on its own
// channel with the configured prefetch applied, so one slow handler cannot
// starve another subscription's window.
type Consumer struct {
	cfg *config.Connection
	mgr ConnectionManager
	log *slog.Logger
}

var _ cbus.Consumer = (*Consumer)(nil)

// NewConsumer builds a consumer over a defaulted, validated configuration.
// logger may be nil.
func NewConsumer(cfg *config.Connection, mgr ConnectionManager, logger *slog.Logger) *Consumer {
	return &Consumer{cfg: cfg, mgr: mgr, log: logger}
}

// Consume implements bus.Consumer. It returns after the subscription is
// established; deliveries are dispatched to handler until ctx is cancelled or
// the channel dies. A handler error rejects the delivery without requeue.
func (c *Consumer) Consume(ctx context.Context, queue string, handler cbus.Handler) error {
	ch, err := c.mgr.Channel(ctx)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, errors.Join(cerr.ErrConsumeFailed, err))
	}

	if err := ch.Qos(int(c.cfg.PrefetchCount), 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %s qos: %w", queue, errors.Join(cerr.ErrConsumeFailed, err))
	}

	tag := "scg-rabbit-bus-" + uuid.NewString()

	deliveries, err := ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %s: %w", queue, errors.Join(cerr.ErrConsumeFailed, err))
	}

	go c.dispatch(ctx, ch, tag, queue, deliveries, handler)

	return nil
}

func (c *Consumer) dispatch(
	ctx context.Context,
	ch *amqp091.Channel,
	tag, queue string,
	deliveries <-chan amqp091.Delivery,
	handler cbus.Handler,
) {
	defer func() {
		_ = ch.Cancel(tag, false)
		_ = ch.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.warn("delivery channel closed", slog.String("queue", queue))
				return
			}

			c.handle(ctx, queue, d, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, queue string, d amqp091.Delivery, handler cbus.Handler) {
	del := cbus.Delivery{
		Body:        d.Body,
		ContentType: d.ContentType,
		MessageID:   d.MessageId,
		RoutingKey:  d.RoutingKey,
		Headers:     stringHeaders(d.Headers),
	}

	if err := handler(ctx, del); err != nil {
		c.warn("handler rejected delivery",
			slog.String("queue", queue), slog.String("messageId", d.MessageId), slog.Any("error", err))

		_ = d.Nack(false, false)

		return
	}

	_ = d.Ack(false)
}

func stringHeaders(t amqp091.Table) map[string]string {
	if len(t) == 0 {
		return nil
	}

	h := make(map[string]string, len(t))
	for k, v := range t {
		h[k] = fmt.Sprint(v)
	}

	return h
}

func (c *Consumer) warn(msg string, args ...any) {
	if c.log != nil {
		c.log.Warn(msg, args...)
	}
}
