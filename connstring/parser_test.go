package connstring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-rabbit-bus/config"
	"github.com/next-trace/scg-rabbit-bus/connstring"
	cerr "github.com/next-trace/scg-rabbit-bus/contract/errors"
)

func TestParse_FullDescriptor(t *testing.T) {
	cfg, err := connstring.Parse(
		"host=a.com;port=1234;virtualHost=/x;username=u;password=p;" +
			"requestedHeartbeat=30;timeout=5s;publisherConfirms=true;persistentMessages=false;prefetchCount=10",
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(cfg.Hosts) != 1 || cfg.Hosts[0].Name != "a.com" || cfg.Hosts[0].Port != 1234 {
		t.Fatalf("unexpected hosts: %+v", cfg.Hosts)
	}

	if cfg.VHost() != "/x" || cfg.User() != "u" || cfg.Pass() != "p" {
		t.Fatalf("unexpected identity: %q %q %q", cfg.VHost(), cfg.User(), cfg.Pass())
	}

	if cfg.RequestedHeartbeat != 30*time.Second || cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected durations: %v %v", cfg.RequestedHeartbeat, cfg.Timeout)
	}

	if !cfg.PublisherConfirms || cfg.Persistent() || cfg.PrefetchCount != 10 {
		t.Fatalf("unexpected tuning: %+v", cfg)
	}
}

func TestParse_AppliesNoDefaults(t *testing.T) {
	cfg, err := connstring.Parse("host=10.0.0.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(cfg.Hosts) != 1 || cfg.Hosts[0].Name != "10.0.0.1" || cfg.Hosts[0].Port != 0 {
		t.Fatalf("unexpected hosts: %+v", cfg.Hosts)
	}

	if cfg.VirtualHost != nil || cfg.UserName != nil || cfg.Password != nil {
		t.Fatalf("parser applied identity defaults: %+v", cfg)
	}

	if cfg.RequestedHeartbeat != 0 || cfg.Timeout != 0 || cfg.PrefetchCount != 0 {
		t.Fatalf("parser applied numeric defaults: %+v", cfg)
	}
}

func TestParse_ThenDefaulting(t *testing.T) {
	cfg, err := connstring.Parse("host=10.0.0.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("apply defaults: %v", err)
	}

	if cfg.Hosts[0].Name != "10.0.0.1" || cfg.Hosts[0].Port != 5672 {
		t.Fatalf("unexpected host after defaulting: %+v", cfg.Hosts)
	}

	if cfg.VHost() != "/" || cfg.User() != "guest" || cfg.Pass() != "guest" {
		t.Fatalf("unexpected identity after defaulting: %+v", cfg)
	}

	if cfg.RequestedHeartbeat != 15*time.Second {
		t.Fatalf("unexpected heartbeat: %v", cfg.RequestedHeartbeat)
	}
}

func TestParse_HostVariants(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		hosts      []config.Host
	}{
		{"cluster list", "host=a.com,b.com", []config.Host{{Name: "a.com"}, {Name: "b.com"}}},
		{
			"per-entry port wins",
			"host=a.com:5673,b.com;port=1234",
			[]config.Host{{Name: "a.com", Port: 5673}, {Name: "b.com", Port: 1234}},
		},
		{"port without host", "port=1234", []config.Host{{Port: 1234}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := connstring.Parse(tc.descriptor)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}

			if len(cfg.Hosts) != len(tc.hosts) {
				t.Fatalf("want %d hosts, got %+v", len(tc.hosts), cfg.Hosts)
			}

			for i, h := range tc.hosts {
				if cfg.Hosts[i] != h {
					t.Fatalf("host %d: want %+v, got %+v", i, h, cfg.Hosts[i])
				}
			}
		})
	}
}

func TestParse_CaseInsensitiveKeysAndSeparators(t *testing.T) {
	cfg, err := connstring.Parse("HOST=a.com; VirtualHost=/x ;;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Hosts[0].Name != "a.com" || cfg.VHost() != "/x" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
	}{
		{"no equals", "host"},
		{"unrecognized key", "hosts=a.com"},
		{"bad port", "port=abc"},
		{"bad per-host port", "host=a.com:xyz"},
		{"bad bool", "publisherConfirms=maybe"},
		{"bad duration", "timeout=soon"},
		{"bad prefetch", "prefetchCount=-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := connstring.Parse(tc.descriptor); !errors.Is(err, cerr.ErrMalformedDescriptor) {
				t.Fatalf("want ErrMalformedDescriptor, got %v", err)
			}
		})
	}
}

func TestParse_LastOccurrenceWins(t *testing.T) {
	cfg, err := connstring.Parse("username=first;username=second")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.User() != "second" {
		t.Fatalf("want second, got %q", cfg.User())
	}
}
