package client

import (
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = time.Minute

type config struct {
	httpClient *http.Client
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d error: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClient sets the http.Client used for requests.
func WithClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c != nil {
			cfg.httpClient = c
		}
		return nil
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		cfg.httpClient.Timeout = timeout
		return nil
	}
}
