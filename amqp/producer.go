package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// Producer publishes messages over a cached channel from the connection
// manager. It honors the configured persistence flag and, when publisher
// confirms are enabled, waits for the broker acknowledgment bounded by the
// configured timeout.
type Producer struct {
	cfg *config.Connection
	mgr ConnectionManager
	log *slog.Logger

	mu sync.Mutex
	ch *amqp091.Channel
}

var _ cbus.Producer = (*Producer)(nil)

// NewProducer builds a producer over a defaulted, validated configuration.
// logger may be nil.
func NewProducer(cfg *config.Connection, mgr ConnectionManager, logger *slog.Logger) *Producer {
	return &Producer{cfg: cfg, mgr: mgr, log: logger}
}

// Publish implements bus.Producer.
func (p *Producer) Publish(ctx context.Context, exchange, routingKey string, msg cbus.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := p.channel(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, errors.Join(cerr.ErrPublishFailed, err))
	}

	pub := p.publishing(msg)

	if p.cfg.PublisherConfirms {
		err = p.publishConfirmed(ctx, ch, exchange, routingKey, pub)
	} else {
		err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, pub)
	}

	if err != nil {
		p.drop(ch)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("publish %s: %w", routingKey, errors.Join(cerr.ErrPublishFailed, err))
	}

	return nil
}

func (p *Producer) publishConfirmed(
	ctx context.Context,
	ch *amqp091.Channel,
	exchange, routingKey string,
	pub amqp091.Publishing,
) error {
	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, pub)
	if err != nil {
		return err
	}

	wait, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	select {
	case <-wait.Done():
		return wait.Err()
	case <-dc.Done():
		if !dc.Acked() {
			return fmt.Errorf("broker nacked delivery %d", dc.DeliveryTag)
		}
	}

	return nil
}

func (p *Producer) publishing(msg cbus.Message) amqp091.Publishing {
	id := msg.MessageID
	if id == "" {
		id = uuid.NewString()
	}

	mode := amqp091.Transient
	if p.cfg.Persistent() {
		mode = amqp091.Persistent
	}

	var headers amqp091.Table
	if len(msg.Headers) > 0 {
		headers = amqp091.Table{}
		for k, v := range msg.Headers {
			headers[k] = v
		}
	}

	return amqp091.Publishing{
		Headers:      headers,
		ContentType:  msg.ContentType,
		DeliveryMode: mode,
		MessageId:    id,
		Body:         msg.Body,
	}
}

// channel returns the cached publish channel, opening one (in confirm mode
// when configured) if necessary.
func (p *Producer) channel(ctx context.Context) (*amqp091.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.mgr.Channel(ctx)
	if err != nil {
		return nil, err
	}

	if p.cfg.PublisherConfirms {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("enable confirms: %w", err)
		}
	}

	p.ch = ch

	return ch, nil
}

// drop discards the cached channel after a failed publish so the next call
// reopens it.
func (p *Producer) drop(ch *amqp091.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == ch {
		p.ch = nil
	}

	_ = ch.Close()

	if p.log != nil {
		p.log.Debug("publish channel dropped")
	}
}

// Close releases the cached channel. The connection itself belongs to the
// manager.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return nil
	}

	err := p.ch.Close()
	p.ch = nil

	return err
}
