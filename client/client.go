// Package client sends events to the store endpoint named by a DSN.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/dsn"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

var log = logging.Logger("sentrytypes/client")

// Client sends events to a Sentry compatible server.
type Client struct {
	dsn       *dsn.Dsn
	c         *retryablehttp.Client
	userAgent string
	gzip      bool
}

// New creates a client for the project named by dsnStr.
func New(dsnStr string, options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	d, err := dsn.Parse(dsnStr)
	if err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.retryMax
	rc.RetryWaitMin = opts.retryWaitMin
	rc.RetryWaitMax = opts.retryWaitMax
	rc.Logger = leveledLogger{}
	// Hand back the last response once retries run out so the server's
	// error detail reaches the caller.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.httpClient != nil {
		rc.HTTPClient = opts.httpClient
	}

	return &Client{
		dsn:       d,
		c:         rc,
		userAgent: opts.userAgent,
		gzip:      opts.gzip,
	}, nil
}

// DSN returns the DSN the client sends to.
func (c *Client) DSN() *dsn.Dsn {
	return c.dsn
}

// SendEvent encodes and sends ev. An event without an ID is given one.
func (c *Client) SendEvent(ctx context.Context, ev *v7.Event) (v7.EventID, error) {
	if ev.ID == nil || ev.ID.IsNil() {
		id := v7.NewEventID()
		ev.ID = &id
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return v7.NilEventID, fmt.Errorf("cannot encode event: %w", err)
	}
	return c.Send(ctx, payload)
}

// Send sends a raw JSON event payload and returns the event ID the server
// assigned.
func (c *Client) Send(ctx context.Context, payload []byte) (v7.EventID, error) {
	body := payload
	if c.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return v7.NilEventID, err
		}
		if err := zw.Close(); err != nil {
			return v7.NilEventID, err
		}
		body = buf.Bytes()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.dsn.StoreAPIURL(), body)
	if err != nil {
		return v7.NilEventID, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Sentry-Auth", c.dsn.ToAuth(c.userAgent).String())
	if c.gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return v7.NilEventID, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return v7.NilEventID, err
	}
	if resp.StatusCode != http.StatusOK {
		return v7.NilEventID, apierror.FromResponse(resp.StatusCode, data)
	}

	var out struct {
		ID v7.EventID `json:"id"`
	}
	if err = json.Unmarshal(data, &out); err != nil {
		return v7.NilEventID, fmt.Errorf("cannot decode response: %w", err)
	}
	log.Debugw("Sent event", "event", out.ID, "project", c.dsn.ProjectID())
	return out.ID, nil
}

// leveledLogger sends retryablehttp log output to the package logger.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, keysAndValues...)
}

func (leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func (leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func (leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}
