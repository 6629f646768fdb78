package httpserver_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/internal/httpserver"
	"github.com/stretchr/testify/require"
)

func TestMethodOK(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/", nil)
	require.False(t, httpserver.MethodOK(w, r, http.MethodGet, http.MethodPost))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST", w.Header().Get("Allow"))

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	require.True(t, httpserver.MethodOK(w, r, http.MethodGet, http.MethodPost))
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()
	httpserver.HandleError(w, errors.New("bad thing"), "post")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"bad thing"}`, w.Body.String())

	w = httptest.NewRecorder()
	httpserver.HandleError(w, apierror.New(errors.New("secret"), http.StatusServiceUnavailable), "post")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"detail":"Service Unavailable"}`, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}
