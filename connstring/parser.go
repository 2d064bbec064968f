// Package connstring parses textual connection descriptors of the form
// "key=value;key=value" into a connection configuration. Parsing applies no
// defaults; that is a separate pass owned by the config package.
package connstring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/next-trace/scg-rabbit-bus/config"
	cbus "github.com/next-trace/scg-rabbit-bus/contract/bus"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

// Recognized descriptor keys, matched case-insensitively.
const (
	keyHost               = "host"
	keyPort               = "port"
	keyVirtualHost        = "virtualhost"
	keyUserName           = "username"
	keyPassword           = "password"
	keyRequestedHeartbeat = "requestedheartbeat"
	keyTimeout            = "timeout"
	keyPublisherConfirms  = "publisherconfirms"
	keyPersistentMessages = "persistentmessages"
	keyPrefetchCount      = "prefetchcount"
)

// Parser is the default descriptor-parser capability.
type Parser struct{}

var _ cbus.DescriptorParser = Parser{}

// New returns the default descriptor parser.
func New() Parser { return Parser{} }

// Parse implements bus.DescriptorParser.
func (Parser) Parse(descriptor string) (*config.Connection, error) {
	return Parse(descriptor)
}

// Parse converts a semicolon-delimited key=value descriptor into a
// configuration. Keys absent from the descriptor are left at their zero
// values. A later occurrence of a key overrides an earlier one.
func Parse(descriptor string) (*config.Connection, error) {
	cfg := &config.Connection{}

	var hostList, port string

	for _, segment := range strings.Split(descriptor, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return nil, malformed(fmt.Sprintf("segment %q is not a key=value pair", segment))
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := apply(cfg, key, value, &hostList, &port); err != nil {
			return nil, err
		}
	}

	if hostList != "" || port != "" {
		hosts, err := parseHosts(hostList, port)
		if err != nil {
			return nil, err
		}

		cfg.Hosts = hosts
	}

	return cfg, nil
}

func apply(cfg *config.Connection, key, value string, hostList, port *string) error {
	switch key {
	case keyHost:
		*hostList = value
	case keyPort:
		*port = value
	case keyVirtualHost:
		cfg.VirtualHost = config.Ptr(value)
	case keyUserName:
		cfg.UserName = config.Ptr(value)
	case keyPassword:
		cfg.Password = config.Ptr(value)
	case keyRequestedHeartbeat:
		return parseDuration(key, value, &cfg.RequestedHeartbeat)
	case keyTimeout:
		return parseDuration(key, value, &cfg.Timeout)
	case keyPublisherConfirms:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return malformed(fmt.Sprintf("%s: %q is not a boolean", key, value))
		}

		cfg.PublisherConfirms = b
	case keyPersistentMessages:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return malformed(fmt.Sprintf("%s: %q is not a boolean", key, value))
		}

		cfg.PersistentMessages = config.Ptr(b)
	case keyPrefetchCount:
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return malformed(fmt.Sprintf("%s: %q is not a 16-bit unsigned integer", key, value))
		}

		cfg.PrefetchCount = uint16(n)
	default:
		return malformed(fmt.Sprintf("unrecognized key %q", key))
	}

	return nil
}

// parseHosts builds the host list from the host key (a comma-separated list
// with optional per-entry ":port") and the port key, which supplies the port
// for entries that carry none.
func parseHosts(hostList, port string) ([]config.Host, error) {
	defaultPort := 0

	if port != "" {
		p, err := parsePort(port)
		if err != nil {
			return nil, err
		}

		defaultPort = p
	}

	if hostList == "" {
		return []config.Host{{Port: defaultPort}}, nil
	}

	entries := strings.Split(hostList, ",")
	hosts := make([]config.Host, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)

		h := config.Host{Name: entry, Port: defaultPort}
		if name, p, ok := strings.Cut(entry, ":"); ok {
			hp, err := parsePort(p)
			if err != nil {
				return nil, err
			}

			h = config.Host{Name: name, Port: hp}
		}

		hosts = append(hosts, h)
	}

	return hosts, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, malformed(fmt.Sprintf("port: %q is not a valid port number", s))
	}

	return int(p), nil
}

// parseDuration accepts a Go duration string or a bare integer in seconds.
func parseDuration(key, value string, out *time.Duration) error {
	if secs, err := strconv.Atoi(value); err == nil {
		*out = time.Duration(secs) * time.Second
		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return malformed(fmt.Sprintf("%s: %q is not a duration", key, value))
	}

	*out = d

	return nil
}

func malformed(reason string) error {
	return fmt.Errorf("descriptor: %s: %w", reason, cerr.ErrMalformedDescriptor)
}
