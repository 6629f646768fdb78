package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestListLogSubsystems(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/config/log/subsystems", nil)
	rr := httptest.NewRecorder()
	listLogSubSystems(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	want := logging.GetSubsystems()
	sort.Strings(want)
	require.Equal(t, want, got)
	require.Contains(t, got, "sentrytypes/admin")
}

func TestSetLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		query       url.Values
		wantStatus  int
		wantMessage string
		check       func(t *testing.T)
	}{
		{
			name:        "no parameters",
			query:       url.Values{},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "no <subsystem>=<level> query parameters given",
		},
		{
			name:        "unknown level",
			query:       url.Values{".*": {"fish"}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: `unrecognized level: "fish"`,
		},
		{
			name:        "missing level",
			query:       url.Values{"sentrytypes/ingest": {""}},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "no level for subsystem sentrytypes/ingest",
		},
		{
			name:       "all to debug",
			query:      url.Values{".*": {"debug"}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T) {
				for _, ss := range logging.GetSubsystems() {
					requireLevel(t, ss, zapcore.DebugLevel)
				}
			},
		},
		{
			name:       "one subsystem",
			query:      url.Values{"sentrytypes/admin": {"error"}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T) {
				require.False(t, logging.Logger("sentrytypes/admin").Desugar().Core().Enabled(zapcore.InfoLevel))
				requireLevel(t, "sentrytypes/admin", zapcore.ErrorLevel)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/config/log/level?"+tt.query.Encode(), nil)
			rr := httptest.NewRecorder()
			setLogLevel(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			require.Equal(t, tt.wantMessage, strings.TrimSpace(rr.Body.String()))
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func requireLevel(t *testing.T, ss string, level zapcore.Level) {
	require.True(t, logging.Logger(ss).Desugar().Core().Enabled(level), "subsystem %s", ss)
}
