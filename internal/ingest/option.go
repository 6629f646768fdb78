package ingest

import (
	"fmt"
	"time"
)

const (
	defaultDiskCheckInterval = time.Minute
	defaultPruneInterval     = time.Hour
)

// configIngest contains all options for the ingester.
type configIngest struct {
	clock func() time.Time

	diskDir           string
	freezeAtPercent   float64
	diskCheckInterval time.Duration

	resultsCapacity int

	retention     time.Duration
	pruneInterval time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*configIngest) error

// getOpts creates a configIngest and applies Options to it.
func getOpts(opts []Option) (configIngest, error) {
	cfg := configIngest{
		clock:             time.Now,
		diskCheckInterval: defaultDiskCheckInterval,
		pruneInterval:     defaultPruneInterval,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return configIngest{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClock sets the function used to read the current time.
func WithClock(clock func() time.Time) Option {
	return func(c *configIngest) error {
		if clock == nil {
			return fmt.Errorf("nil clock")
		}
		c.clock = clock
		return nil
	}
}

// WithDiskGuard refuses new events while the file system holding dir is at
// least percent full. A percent of 100 or more disables the guard.
func WithDiskGuard(dir string, percent float64) Option {
	return func(c *configIngest) error {
		if percent < 0 {
			return fmt.Errorf("negative freeze percent %f", percent)
		}
		c.diskDir = dir
		c.freezeAtPercent = percent
		return nil
	}
}

// WithDiskCheckInterval sets how often disk usage is checked.
func WithDiskCheckInterval(interval time.Duration) Option {
	return func(c *configIngest) error {
		if interval <= 0 {
			return fmt.Errorf("disk check interval must be positive")
		}
		c.diskCheckInterval = interval
		return nil
	}
}

// WithResults makes processing outcomes available from Results. Up to
// capacity outcomes are buffered before workers wait for a reader.
func WithResults(capacity int) Option {
	return func(c *configIngest) error {
		if capacity < 1 {
			return fmt.Errorf("results capacity must be at least 1")
		}
		c.resultsCapacity = capacity
		return nil
	}
}

// WithRetention deletes stored events and archived payloads older than
// retention, checking every interval. A zero interval keeps the default.
func WithRetention(retention, interval time.Duration) Option {
	return func(c *configIngest) error {
		if retention < 0 {
			return fmt.Errorf("negative retention")
		}
		c.retention = retention
		if interval > 0 {
			c.pruneInterval = interval
		}
		return nil
	}
}
