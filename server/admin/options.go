package admin

import (
	"fmt"
	"time"

	"github.com/sentrytypes/sentrytypes/dsn"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultListLimit    = 100
)

// config contains all options for the server.
type config struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
	listLimit    int
	version      string

	dsnScheme dsn.Scheme
	dsnHost   string
	dsnPort   uint16
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		listLimit:    defaultListLimit,
	}

	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithReadTimeout configures server read timeout.
func WithReadTimeout(t time.Duration) Option {
	return func(c *config) error {
		c.readTimeout = t
		return nil
	}
}

// WithWriteTimeout configures server write timeout.
func WithWriteTimeout(t time.Duration) Option {
	return func(c *config) error {
		c.writeTimeout = t
		return nil
	}
}

// WithListLimit sets how many events are listed when a request does not
// give a limit.
func WithListLimit(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("list limit must be positive")
		}
		c.listLimit = n
		return nil
	}
}

// WithVersion sets the version string used in /health output.
func WithVersion(ver string) Option {
	return func(c *config) error {
		c.version = ver
		return nil
	}
}

// WithIngestAddress is the public address of the ingest server. When set,
// project keys are returned with the DSN clients should use.
func WithIngestAddress(scheme dsn.Scheme, host string, port uint16) Option {
	return func(c *config) error {
		if host == "" {
			return fmt.Errorf("empty ingest host")
		}
		c.dsnScheme = scheme
		c.dsnHost = host
		c.dsnPort = port
		return nil
	}
}
