package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
)

func TestServeMetrics(t *testing.T) {
	s, err := New("127.0.0.1:0")
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown(context.Background()))
		require.ErrorIs(t, <-errCh, http.ErrServerClosed)
	})

	stats.Record(context.Background(), EventsStored.M(1), ProjectKeys.M(3))

	url := "http://" + s.Addr().String() + "/metrics"
	require.Eventually(t, func() bool {
		rsp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer rsp.Body.Close()
		body, _ := io.ReadAll(rsp.Body)
		return strings.Contains(string(body), "sentrytypes_registry_project_keys 3") &&
			strings.Contains(string(body), "go_goroutines")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestMsecSince(t *testing.T) {
	require.GreaterOrEqual(t, MsecSince(time.Now().Add(-time.Second)), 1000.0)
}
