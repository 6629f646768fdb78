package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	cause := errors.New("queue full")
	err := apierror.New(cause, http.StatusTooManyRequests)
	require.Equal(t, "queue full", err.Error())
	require.Equal(t, http.StatusTooManyRequests, err.Status())
	require.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("cannot submit: %w", err)
	require.Equal(t, http.StatusTooManyRequests, apierror.Status(wrapped, http.StatusInternalServerError))
	require.Equal(t, http.StatusInternalServerError, apierror.Status(cause, http.StatusInternalServerError))

	require.Equal(t, http.StatusBadRequest, apierror.New(nil, 0).Status())
	require.Equal(t, "Bad Request", apierror.New(nil, 0).Error())
}

func TestFromResponse(t *testing.T) {
	err := apierror.FromResponse(http.StatusUnauthorized, []byte(`{"detail":"unknown key"}`))
	require.Equal(t, "unknown key", err.Error())
	require.Equal(t, http.StatusUnauthorized, apierror.Status(err, 0))

	err = apierror.FromResponse(http.StatusNotFound, []byte("not here\n"))
	require.Equal(t, "not here", err.Error())

	err = apierror.FromResponse(http.StatusServiceUnavailable, nil)
	require.Equal(t, "Service Unavailable", err.Error())
}
