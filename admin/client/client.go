// Package client is an HTTP client for the admin API of the daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentrytypes/sentrytypes/admin/model"
	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/dsn"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

const (
	eventsPath     = "events"
	keysPath       = "projects/keys"
	logLevelPath   = "config/log/level"
	logSubsysPath  = "config/log/subsystems"
	reloadPath     = "reload"
	prunePath      = "events/prune"
	payloadSegment = "payload"
)

// Client is an http client for the admin API.
type Client struct {
	c       *http.Client
	baseURL *url.URL
}

// New creates a new admin HTTP client.
func New(baseURL string, options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = ""

	return &Client{
		c:       opts.httpClient,
		baseURL: u,
	}, nil
}

// do sends a request and returns the response body when the status is one
// of ok.
func (c *Client) do(ctx context.Context, method string, u *url.URL, in any, ok ...int) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	for _, status := range ok {
		if resp.StatusCode == status {
			return data, nil
		}
	}
	return nil, apierror.FromResponse(resp.StatusCode, data)
}

func (c *Client) getJson(ctx context.Context, u *url.URL, out any) error {
	data, err := c.do(ctx, http.MethodGet, u, nil, http.StatusOK)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// AddKey creates a key pair for a project.
func (c *Client) AddKey(ctx context.Context, projectID dsn.ProjectID, label string) (*model.ProjectKey, error) {
	data, err := c.do(ctx, http.MethodPost, c.baseURL.JoinPath(keysPath),
		model.AddKeyRequest{ProjectID: projectID, Label: label}, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var key model.ProjectKey
	if err = json.Unmarshal(data, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListKeys lists the keys of a project, or of all projects if projectID is
// zero.
func (c *Client) ListKeys(ctx context.Context, projectID dsn.ProjectID) ([]model.ProjectKey, error) {
	u := c.baseURL.JoinPath(keysPath)
	if projectID != 0 {
		u.RawQuery = url.Values{"project": {projectID.String()}}.Encode()
	}
	var keys []model.ProjectKey
	if err := c.getJson(ctx, u, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// GetKey returns a key by its public key.
func (c *Client) GetKey(ctx context.Context, publicKey string) (*model.ProjectKey, error) {
	var key model.ProjectKey
	if err := c.getJson(ctx, c.baseURL.JoinPath(keysPath, publicKey), &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// RemoveKey deletes a key.
func (c *Client) RemoveKey(ctx context.Context, publicKey string) error {
	_, err := c.do(ctx, http.MethodDelete, c.baseURL.JoinPath(keysPath, publicKey), nil, http.StatusOK)
	return err
}

// SetKeyDisabled enables or disables a key.
func (c *Client) SetKeyDisabled(ctx context.Context, publicKey string, disabled bool) (*model.ProjectKey, error) {
	data, err := c.do(ctx, http.MethodPut, c.baseURL.JoinPath(keysPath, publicKey, "disabled"),
		model.SetDisabledRequest{Disabled: disabled}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var key model.ProjectKey
	if err = json.Unmarshal(data, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListEvents lists the latest events of a project. A zero limit uses the
// server default.
func (c *Client) ListEvents(ctx context.Context, projectID dsn.ProjectID, limit int) ([]model.Event, error) {
	u := c.baseURL.JoinPath(eventsPath, projectID.String())
	if limit != 0 {
		u.RawQuery = url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var events []model.Event
	if err := c.getJson(ctx, u, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns a stored event.
func (c *Client) GetEvent(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID) (*model.Event, error) {
	var ev model.Event
	if err := c.getJson(ctx, c.baseURL.JoinPath(eventsPath, projectID.String(), eventID.String()), &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetPayload returns the raw payload an event was received with.
func (c *Client) GetPayload(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID) ([]byte, error) {
	u := c.baseURL.JoinPath(eventsPath, projectID.String(), eventID.String(), payloadSegment)
	return c.do(ctx, http.MethodGet, u, nil, http.StatusOK)
}

// DeleteEvent deletes a stored event and its archived payload.
func (c *Client) DeleteEvent(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID) error {
	u := c.baseURL.JoinPath(eventsPath, projectID.String(), eventID.String())
	_, err := c.do(ctx, http.MethodDelete, u, nil, http.StatusOK)
	return err
}

// Prune deletes events received more than retention ago.
func (c *Client) Prune(ctx context.Context, retention time.Duration) (int, error) {
	u := c.baseURL.JoinPath(prunePath)
	u.RawQuery = url.Values{"retention": {retention.String()}}.Encode()
	data, err := c.do(ctx, http.MethodPost, u, nil, http.StatusOK)
	if err != nil {
		return 0, err
	}
	var resp model.PruneResponse
	if err = json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// ReloadConfig asks the daemon to reload its config file.
func (c *Client) ReloadConfig(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL.JoinPath(reloadPath), nil, http.StatusOK)
	return err
}

// ListLogSubSystems returns the names of the daemon's logging subsystems.
func (c *Client) ListLogSubSystems(ctx context.Context) ([]string, error) {
	var subsystems []string
	if err := c.getJson(ctx, c.baseURL.JoinPath(logSubsysPath), &subsystems); err != nil {
		return nil, err
	}
	return subsystems, nil
}

// SetLogLevels sets the level of the subsystems matched by each key of
// sysLvl, a regular expression, to its value.
func (c *Client) SetLogLevels(ctx context.Context, sysLvl map[string]string) error {
	if len(sysLvl) == 0 {
		return fmt.Errorf("no subsystem levels given")
	}
	q := make(url.Values, len(sysLvl))
	for ss, l := range sysLvl {
		q.Set(ss, l)
	}
	u := c.baseURL.JoinPath(logLevelPath)
	u.RawQuery = q.Encode()
	_, err := c.do(ctx, http.MethodPost, u, nil, http.StatusOK)
	return err
}
