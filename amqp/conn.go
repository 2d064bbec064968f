package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-rabbit-bus/config"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

const (
	maxConnectInterval = 2 * time.Minute
	dialRounds         = 3
)

// ConnectionManager owns the broker connection and hands out channels on it.
// Registered as a capability so callers may substitute their own connection
// handling.
type ConnectionManager interface {
	// Channel opens a fresh channel, dialing the broker first if needed.
	Channel(ctx context.Context) (*amqp091.Channel, error)
	Close() error
}

// Manager is the default ConnectionManager. It does no I/O at construction;
// the first Channel call dials the configured hosts in order, pacing retry
// rounds with exponential backoff seeded from the configured connect interval.
type Manager struct {
	cfg *config.Connection
	log *slog.Logger

	mu     sync.Mutex
	conn   *amqp091.Connection
	closed bool
}

var _ ConnectionManager = (*Manager)(nil)

// NewConnectionManager builds a manager over cfg. The configuration must
// already be defaulted and validated. logger may be nil.
func NewConnectionManager(cfg *config.Connection, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, log: logger}
}

// Channel implements ConnectionManager.
func (m *Manager) Channel(ctx context.Context) (*amqp091.Channel, error) {
	conn, err := m.connection(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return ch, nil
}

func (m *Manager) connection(ctx context.Context) (*amqp091.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("connection manager is closed: %w", cerr.ErrNotConnected)
	}

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}

	m.conn = conn

	return conn, nil
}

// dial tries every configured host per round, sleeping between rounds.
func (m *Manager) dial(ctx context.Context) (*amqp091.Connection, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.cfg.ConnectInterval
	bo.MaxInterval = maxConnectInterval

	var lastErr error

	for round := 0; round < dialRounds; round++ {
		if round > 0 {
			t := time.NewTimer(bo.NextBackOff())
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		for _, h := range m.cfg.Hosts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			conn, err := m.dialHost(h)
			if err != nil {
				lastErr = err

				m.warn("dial failed", slog.String("host", h.Name), slog.Int("port", h.Port), slog.Any("error", err))

				continue
			}

			m.info("connected", slog.String("host", h.Name), slog.Int("port", h.Port))

			return conn, nil
		}
	}

	return nil, fmt.Errorf("dial: %w", joinNotConnected(lastErr))
}

func (m *Manager) dialHost(h config.Host) (*amqp091.Connection, error) {
	return amqp091.DialConfig(brokerURL(m.cfg, h), amqp091.Config{
		Vhost:      m.cfg.VHost(),
		Heartbeat:  m.cfg.RequestedHeartbeat,
		Locale:     "en_US",
		Properties: amqp091.Table{"product": "scg-rabbit-bus"},
		Dial:       amqp091.DefaultDial(m.cfg.Timeout),
	})
}

// Close is idempotent; a closed manager refuses further channels.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	if m.conn != nil {
		err := m.conn.Close()
		m.conn = nil

		return err
	}

	return nil
}

func (m *Manager) info(msg string, args ...any) {
	if m.log != nil {
		m.log.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.log != nil {
		m.log.Warn(msg, args...)
	}
}

// brokerURL renders one host as an AMQP URL. The virtual host travels in
// amqp091.Config rather than the URL path, so no path escaping is needed.
func brokerURL(cfg *config.Connection, h config.Host) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.User(), cfg.Pass()),
		Host:   net.JoinHostPort(h.Name, strconv.Itoa(h.Port)),
	}

	return u.String()
}

func joinNotConnected(err error) error {
	if err == nil {
		return cerr.ErrNotConnected
	}

	return errors.Join(cerr.ErrNotConnected, err)
}
