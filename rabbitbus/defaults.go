package rabbitbus

import (
	"io"
	"log/slog"

	"github.com/next-trace/scg-rabbit-bus/amqp"
	"github.com/next-trace/scg-rabbit-bus/config"
	"github.com/next-trace/scg-rabbit-bus/connstring"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	"github.com/next-trace/scg-rabbit-bus/registry"
	"github.com/next-trace/scg-rabbit-bus/serialization"
)

// RegisterDefaultServices populates reg with the standard capability set, in
// this order: logger, descriptor parser, serializer, connection manager,
// topology, producer, consumer, bus. It runs before caller overrides are
// applied, so any caller registration for the same capability wins.
func RegisterDefaultServices(reg *registry.Registry) {
	registry.Register(reg, func(*registry.Registry) (*slog.Logger, error) {
		return slog.Default(), nil
	})

	registry.Register(reg, func(*registry.Registry) (cbus.DescriptorParser, error) {
		return connstring.New(), nil
	})

	registry.Register(reg, func(*registry.Registry) (cbus.Serializer, error) {
		return serialization.NewJSON(), nil
	})

	registry.Register(reg, func(r *registry.Registry) (amqp.ConnectionManager, error) {
		cfg, err := registry.Resolve[*config.Connection](r)
		if err != nil {
			return nil, err
		}

		logger, err := registry.Resolve[*slog.Logger](r)
		if err != nil {
			return nil, err
		}

		return amqp.NewConnectionManager(cfg, logger), nil
	})

	registry.Register(reg, func(r *registry.Registry) (cbus.Topology, error) {
		mgr, err := registry.Resolve[amqp.ConnectionManager](r)
		if err != nil {
			return nil, err
		}

		return amqp.NewTopology(mgr), nil
	})

	registry.Register(reg, func(r *registry.Registry) (cbus.Producer, error) {
		cfg, mgr, logger, err := amqpDeps(r)
		if err != nil {
			return nil, err
		}

		return amqp.NewProducer(cfg, mgr, logger), nil
	})

	registry.Register(reg, func(r *registry.Registry) (cbus.Consumer, error) {
		cfg, mgr, logger, err := amqpDeps(r)
		if err != nil {
			return nil, err
		}

		return amqp.NewConsumer(cfg, mgr, logger), nil
	})

	registry.Register(reg, newBus)
}

func amqpDeps(r *registry.Registry) (*config.Connection, amqp.ConnectionManager, *slog.Logger, error) {
	cfg, err := registry.Resolve[*config.Connection](r)
	if err != nil {
		return nil, nil, nil, err
	}

	mgr, err := registry.Resolve[amqp.ConnectionManager](r)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := registry.Resolve[*slog.Logger](r)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, mgr, logger, nil
}

// newBus resolves the bus capability's dependency graph. Resolving the
// configuration first guarantees a defaulting or validation failure surfaces
// here even when every broker-facing capability has been overridden.
func newBus(r *registry.Registry) (cbus.Bus, error) {
	cfg, err := registry.Resolve[*config.Connection](r)
	if err != nil {
		return nil, err
	}

	logger, err := registry.Resolve[*slog.Logger](r)
	if err != nil {
		return nil, err
	}

	serializer, err := registry.Resolve[cbus.Serializer](r)
	if err != nil {
		return nil, err
	}

	producer, err := registry.Resolve[cbus.Producer](r)
	if err != nil {
		return nil, err
	}

	consumer, err := registry.Resolve[cbus.Consumer](r)
	if err != nil {
		return nil, err
	}

	topology, err := registry.Resolve[cbus.Topology](r)
	if err != nil {
		return nil, err
	}

	b := &Bus{
		cfg:        cfg,
		serializer: serializer,
		producer:   producer,
		consumer:   consumer,
		topology:   topology,
		logger:     logger,
	}

	for _, dep := range []any{producer, consumer, topology} {
		if c, ok := dep.(io.Closer); ok {
			b.closers = append(b.closers, c)
		}
	}

	// The shared connection belongs to the manager; close it last. Resolving
	// it here is free of I/O — the manager dials lazily.
	if mgr, err := registry.Resolve[amqp.ConnectionManager](r); err == nil {
		b.closers = append(b.closers, mgr)
	}

	return b, nil
}
