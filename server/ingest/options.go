package ingestserver

import (
	"fmt"
	"time"
)

const (
	defaultMaxConns     = 4_000
	defaultMaxEventSize = 1 << 20
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// config contains all options for the server.
type config struct {
	maxConns     int
	maxEventSize int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	version      string
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		maxConns:     defaultMaxConns,
		maxEventSize: defaultMaxEventSize,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}

	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithMaxConnections limits the number of open client connections. Zero
// means no limit.
func WithMaxConnections(maxConnections int) Option {
	return func(c *config) error {
		c.maxConns = maxConnections
		return nil
	}
}

// WithMaxEventSize sets the largest accepted request body, measured after
// decompression.
func WithMaxEventSize(size int64) Option {
	return func(c *config) error {
		if size < 1 {
			return fmt.Errorf("max event size must be positive")
		}
		c.maxEventSize = size
		return nil
	}
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

// WithVersion sets the version string used in /health output.
func WithVersion(ver string) Option {
	return func(c *config) error {
		c.version = ver
		return nil
	}
}
