// Package config defines the broker connection model, its default table, and
// the defaulting/validation pass every construction path funnels through.
package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"

	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// Default table. Applied only to unset fields; see ApplyDefaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 5672
	DefaultVirtualHost     = "/"
	DefaultUserName        = "guest"
	DefaultPassword        = "guest"
	DefaultHeartbeat       = 15 * time.Second
	DefaultTimeout         = 10 * time.Second
	DefaultConnectInterval = 5 * time.Second
	DefaultPrefetchCount   = uint16(50)
)

// Host identifies one broker endpoint. Immutable once constructed; a
// Connection carries an ordered list of them for cluster-aware dialing.
type Host struct {
	Name string
	Port int
}

// Connection is the canonical broker connection configuration.
//
// Fields whose default is not the Go zero value (virtual host, credentials,
// message persistence) are pointers so that "explicitly empty" and "omitted"
// stay distinguishable through the defaulting pass: nil is filled from the
// default table, a pointer to the empty string survives and fails Validate.
// After ApplyDefaults and Validate the value is treated as read-only and
// shared by every component resolved from the same registry.
type Connection struct {
	Hosts              []Host
	VirtualHost        *string
	UserName           *string
	Password           *string
	RequestedHeartbeat time.Duration
	Timeout            time.Duration
	ConnectInterval    time.Duration
	PrefetchCount      uint16
	PublisherConfirms  bool
	PersistentMessages *bool
}

// Ptr returns a pointer to v, for populating the presence-sensitive fields.
func Ptr[T any](v T) *T { return &v }

func defaultConnection() Connection {
	return Connection{
		Hosts:              []Host{{Name: DefaultHost, Port: DefaultPort}},
		VirtualHost:        Ptr(DefaultVirtualHost),
		UserName:           Ptr(DefaultUserName),
		Password:           Ptr(DefaultPassword),
		RequestedHeartbeat: DefaultHeartbeat,
		Timeout:            DefaultTimeout,
		ConnectInterval:    DefaultConnectInterval,
		PrefetchCount:      DefaultPrefetchCount,
		PersistentMessages: Ptr(true),
	}
}

// ApplyDefaults fills every unset field from the default table. It never
// overwrites a set field, so applying it twice yields the same configuration.
func (c *Connection) ApplyDefaults() error {
	d := defaultConnection()

	// mergo merges through non-nil pointers, which would erase an explicitly
	// empty value behind one. The presence-sensitive fields are defaulted by
	// hand and nilled out of the source so the merge leaves them alone.
	if c.VirtualHost == nil {
		c.VirtualHost = d.VirtualHost
	}

	if c.UserName == nil {
		c.UserName = d.UserName
	}

	if c.Password == nil {
		c.Password = d.Password
	}

	if c.PersistentMessages == nil {
		c.PersistentMessages = d.PersistentMessages
	}

	d.VirtualHost, d.UserName, d.Password, d.PersistentMessages = nil, nil, nil, nil

	if err := mergo.Merge(c, d); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}

	// mergo fills the host list as a whole; names and ports omitted on
	// individual entries still need the table default.
	for i := range c.Hosts {
		if c.Hosts[i].Name == "" {
			c.Hosts[i].Name = DefaultHost
		}

		if c.Hosts[i].Port == 0 {
			c.Hosts[i].Port = DefaultPort
		}
	}

	return nil
}

// Validate checks the invariants a defaulted configuration must satisfy.
// The returned error names the first offending field.
func (c *Connection) Validate() error {
	if len(c.Hosts) == 0 {
		return invalid("hosts must not be empty")
	}

	for _, h := range c.Hosts {
		if h.Name == "" {
			return invalid("host must not be empty")
		}

		if h.Port < 0 {
			return invalid("port must not be negative")
		}
	}

	if c.VirtualHost == nil || *c.VirtualHost == "" {
		return invalid("virtualHost must not be empty")
	}

	if c.UserName == nil || *c.UserName == "" {
		return invalid("username must not be empty")
	}

	if c.Password == nil || *c.Password == "" {
		return invalid("password must not be empty")
	}

	if c.RequestedHeartbeat < 0 {
		return invalid("requestedHeartbeat must not be negative")
	}

	if c.Timeout < 0 {
		return invalid("timeout must not be negative")
	}

	if c.ConnectInterval < 0 {
		return invalid("connectIntervalAttempt must not be negative")
	}

	return nil
}

func invalid(reason string) error {
	return fmt.Errorf("connection configuration: %s: %w", reason, cerr.ErrInvalidConfiguration)
}

// Nil-safe accessors for the pointer fields, for use after defaulting.

func (c *Connection) VHost() string {
	if c.VirtualHost == nil {
		return ""
	}

	return *c.VirtualHost
}

func (c *Connection) User() string {
	if c.UserName == nil {
		return ""
	}

	return *c.UserName
}

func (c *Connection) Pass() string {
	if c.Password == nil {
		return ""
	}

	return *c.Password
}

func (c *Connection) Persistent() bool {
	return c.PersistentMessages != nil && *c.PersistentMessages
}
