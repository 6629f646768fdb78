package client

import (
	"fmt"
	"net/http"
	"time"
)

const (
	defaultRetryMax     = 4
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 30 * time.Second
	defaultUserAgent    = "sentrytypes/1.0"
)

type config struct {
	httpClient   *http.Client
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	userAgent    string
	gzip         bool
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		retryMax:     defaultRetryMax,
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
		userAgent:    defaultUserAgent,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithHTTPClient sets the http.Client requests are sent with.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) error {
		cfg.httpClient = c
		return nil
	}
}

// WithRetries sets how many times a request is retried after a connection
// error, a 429 or a 5xx response.
func WithRetries(max int) Option {
	return func(cfg *config) error {
		if max < 0 {
			return fmt.Errorf("negative retry count")
		}
		cfg.retryMax = max
		return nil
	}
}

// WithRetryWait sets the bounds of the wait between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(cfg *config) error {
		if min > max {
			return fmt.Errorf("minimum retry wait exceeds maximum")
		}
		cfg.retryWaitMin = min
		cfg.retryWaitMax = max
		return nil
	}
}

// WithUserAgent sets the client name sent in the auth header and as the
// User-Agent.
func WithUserAgent(agent string) Option {
	return func(cfg *config) error {
		if agent == "" {
			return fmt.Errorf("empty user agent")
		}
		cfg.userAgent = agent
		return nil
	}
}

// WithGzip compresses request bodies.
func WithGzip(enabled bool) Option {
	return func(cfg *config) error {
		cfg.gzip = enabled
		return nil
	}
}
