package rabbitbus

import (
	"log/slog"
	"time"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	"github.com/next-trace/scg-rabbit-bus/registry"
)

// Option configures the discrete-parameter construction form. Every
// connection parameter is optional; omitted ones take the same defaults the
// descriptor form does.
type Option func(*busOptions)

type busOptions struct {
	cfg       config.Connection
	port      int
	overrides []Override
}

// CreateBusWithOptions composes a bus from discrete named parameters.
func CreateBusWithOptions(opts ...Option) (cbus.Bus, error) {
	var bo busOptions

	for _, opt := range opts {
		if opt != nil {
			opt(&bo)
		}
	}

	// the port option supplies the port for hosts declared without one
	if bo.port != 0 {
		for i := range bo.cfg.Hosts {
			if bo.cfg.Hosts[i].Port == 0 {
				bo.cfg.Hosts[i].Port = bo.port
			}
		}

		if len(bo.cfg.Hosts) == 0 {
			bo.cfg.Hosts = []config.Host{{Port: bo.port}}
		}
	}

	return CreateBusFromConfiguration(&bo.cfg, bo.overrides...)
}

// WithHost appends a broker host. Repeat for a cluster host list.
func WithHost(name string) Option {
	return func(o *busOptions) { o.cfg.Hosts = append(o.cfg.Hosts, config.Host{Name: name}) }
}

// WithHosts replaces the host list.
func WithHosts(hosts ...config.Host) Option {
	return func(o *busOptions) { o.cfg.Hosts = append([]config.Host(nil), hosts...) }
}

// WithPort sets the port for hosts that do not declare their own.
func WithPort(port int) Option {
	return func(o *busOptions) { o.port = port }
}

// WithVirtualHost sets the virtual host. An explicitly empty value fails
// validation rather than falling back to the default.
func WithVirtualHost(vhost string) Option {
	return func(o *busOptions) { o.cfg.VirtualHost = config.Ptr(vhost) }
}

// WithCredentials sets the broker credentials.
func WithCredentials(username, password string) Option {
	return func(o *busOptions) {
		o.cfg.UserName = config.Ptr(username)
		o.cfg.Password = config.Ptr(password)
	}
}

// WithHeartbeat sets the requested heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(o *busOptions) { o.cfg.RequestedHeartbeat = d }
}

// WithTimeout sets the connect/confirm timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *busOptions) { o.cfg.Timeout = d }
}

// WithConnectInterval sets the pause between connection attempts.
func WithConnectInterval(d time.Duration) Option {
	return func(o *busOptions) { o.cfg.ConnectInterval = d }
}

// WithPrefetchCount sets the per-channel prefetch window.
func WithPrefetchCount(n uint16) Option {
	return func(o *busOptions) { o.cfg.PrefetchCount = n }
}

// WithPublisherConfirms toggles publisher confirms.
func WithPublisherConfirms(enabled bool) Option {
	return func(o *busOptions) { o.cfg.PublisherConfirms = enabled }
}

// WithPersistentMessages toggles persistent delivery mode.
func WithPersistentMessages(enabled bool) Option {
	return func(o *busOptions) { o.cfg.PersistentMessages = config.Ptr(enabled) }
}

// WithOverride appends a registry override, applied after the default
// services are bootstrapped.
func WithOverride(override Override) Option {
	return func(o *busOptions) { o.overrides = append(o.overrides, override) }
}

// WithLogger is a convenience override that registers logger as the logging
// capability for every composed service.
func WithLogger(logger *slog.Logger) Override {
	return func(r *registry.Registry) {
		registry.RegisterInstance(r, logger)
	}
}
