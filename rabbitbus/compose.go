package rabbitbus

import (
	"fmt"
	"strings"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
	"github.com/next-trace/scg-rabbit-bus/registry"
)

// ConfigFactory produces the connection configuration during resolution. It
// receives the registry so the configuration may depend on other registered
// capabilities (the descriptor form resolves its parser this way).
type ConfigFactory func(r *registry.Registry) (*config.Connection, error)

// Override mutates the registry after the defaults are bootstrapped. Its sole
// documented operation is registering capabilities; whatever it registers
// replaces the default registration.
type Override func(r *registry.Registry)

// CreateBus composes a bus from a textual connection descriptor, e.g.
// "host=a.com;port=5672;virtualHost=/;username=guest;password=guest".
// Keys omitted from the descriptor take their documented defaults.
func CreateBus(descriptor string, overrides ...Override) (cbus.Bus, error) {
	if strings.TrimSpace(descriptor) == "" {
		return nil, argErr("descriptor")
	}

	factory := func(r *registry.Registry) (*config.Connection, error) {
		parser, err := registry.Resolve[cbus.DescriptorParser](r)
		if err != nil {
			return nil, err
		}

		return parser.Parse(descriptor)
	}

	return CreateBusFromFactory(factory, overrides...)
}

// CreateBusFromConfiguration composes a bus from a prebuilt configuration.
// The caller's value is copied before defaulting so it is never mutated.
func CreateBusFromConfiguration(cfg *config.Connection, overrides ...Override) (cbus.Bus, error) {
	if cfg == nil {
		return nil, argErr("configuration")
	}

	own := *cfg
	own.Hosts = append([]config.Host(nil), cfg.Hosts...)

	factory := func(*registry.Registry) (*config.Connection, error) { return &own, nil }

	return CreateBusFromFactory(factory, overrides...)
}

// CreateBusFromFactory is the canonical construction path every other form
// reduces to: register the configuration capability, bootstrap the default
// services, apply overrides, resolve the bus.
func CreateBusFromFactory(factory ConfigFactory, overrides ...Override) (cbus.Bus, error) {
	reg := registry.New()

	if err := RegisterBus(reg, factory, overrides...); err != nil {
		return nil, err
	}

	return registry.Resolve[cbus.Bus](reg)
}

// RegisterBus performs the registration half of composition — configuration
// capability, default services, overrides — without resolving the bus, so an
// embedding caller can keep composing against its own registry and resolve
// later.
func RegisterBus(reg *registry.Registry, factory ConfigFactory, overrides ...Override) error {
	if reg == nil {
		return argErr("registry")
	}

	if factory == nil {
		return argErr("configurationFactory")
	}

	registry.Register(reg, func(r *registry.Registry) (*config.Connection, error) {
		cfg, err := factory(r)
		if err != nil {
			return nil, err
		}

		if cfg == nil {
			return nil, argErr("configuration")
		}

		if err := cfg.ApplyDefaults(); err != nil {
			return nil, err
		}

		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		return cfg, nil
	})

	RegisterDefaultServices(reg)

	for _, override := range overrides {
		if override != nil {
			override(reg)
		}
	}

	return nil
}

func argErr(name string) error {
	return fmt.Errorf("argument %s must not be empty: %w", name, cerr.ErrInvalidArgument)
}
