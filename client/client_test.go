package client_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/auth"
	"github.com/sentrytypes/sentrytypes/client"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"github.com/stretchr/testify/require"
)

func testDSN(srvURL string) string {
	return strings.Replace(srvURL, "http://", "http://pub:sec@", 1) + "/42"
}

func TestSendEvent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/42/store/", r.URL.Path)
		require.Equal(t, "test-agent/2.0", r.UserAgent())
		a, err := auth.ParseHeader(r.Header.Get("X-Sentry-Auth"))
		require.NoError(t, err)
		require.Equal(t, "pub", a.Key)
		require.Equal(t, "sec", a.Secret)
		require.Equal(t, "test-agent/2.0", a.Client)

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var ev v7.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		require.Equal(t, "hello", ev.Message)
		require.NotNil(t, ev.ID)
		_, _ = io.WriteString(w, `{"id":"`+ev.ID.String()+`"}`)
	}))
	defer srv.Close()

	c, err := client.New(testDSN(srv.URL),
		client.WithRetryWait(time.Millisecond, 10*time.Millisecond),
		client.WithUserAgent("test-agent/2.0"))
	require.NoError(t, err)
	require.Equal(t, "42", c.DSN().ProjectID().String())

	ev := &v7.Event{Message: "hello"}
	id, err := c.SendEvent(context.Background(), ev)
	require.NoError(t, err)
	require.False(t, id.IsNil())
	require.Equal(t, *ev.ID, id)
	require.Equal(t, int32(2), calls.Load())
}

func TestSendError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"invalid event payload"}`)
	}))
	defer srv.Close()

	c, err := client.New(testDSN(srv.URL), client.WithRetryWait(time.Millisecond, 10*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Send(context.Background(), []byte(`{}`))
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, apierror.Status(err, 0))
	require.Contains(t, err.Error(), "invalid event payload")
	require.Equal(t, int32(1), calls.Load())
}

func TestSendRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := client.New(testDSN(srv.URL),
		client.WithRetries(2),
		client.WithRetryWait(time.Millisecond, 10*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Send(context.Background(), []byte(`{}`))
	require.Equal(t, http.StatusServiceUnavailable, apierror.Status(err, 0))
	require.Equal(t, int32(3), calls.Load())
}

func TestSendGzip(t *testing.T) {
	id := v7.NewEventID()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		zr, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		data, err := io.ReadAll(zr)
		require.NoError(t, err)
		require.JSONEq(t, `{"message":"zipped"}`, string(data))
		_, _ = io.WriteString(w, `{"id":"`+id.String()+`"}`)
	}))
	defer srv.Close()

	c, err := client.New(testDSN(srv.URL), client.WithGzip(true))
	require.NoError(t, err)
	got, err := c.Send(context.Background(), []byte(`{"message":"zipped"}`))
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestOptions(t *testing.T) {
	_, err := client.New("not a dsn")
	require.Error(t, err)

	_, err = client.New("http://pub@localhost/1", client.WithRetryWait(time.Second, time.Millisecond))
	require.Error(t, err)

	_, err = client.New("http://pub@localhost/1", client.WithUserAgent(""))
	require.Error(t, err)
}
