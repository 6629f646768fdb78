// Package apierror carries an HTTP status code along with an error so that
// handlers can report the right response status to API clients.
package apierror

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an error with an associated HTTP status.
type Error struct {
	err    error
	status int
}

// New creates a new Error. If status is zero, http.StatusBadRequest is used.
func New(err error, status int) *Error {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return &Error{
		err:    err,
		status: status,
	}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return http.StatusText(e.status)
}

func (e *Error) Status() int {
	return e.status
}

func (e *Error) Unwrap() error {
	return e.err
}

// Status returns the status carried by err, or def if err is not, and does
// not wrap, an *Error.
func Status(err error, def int) int {
	var apierr *Error
	if errors.As(err, &apierr) {
		return apierr.Status()
	}
	return def
}

// FromResponse makes an Error from an HTTP response status and body. A JSON
// body of the form {"detail": "..."} gives the error text, otherwise the
// trimmed body is used.
func FromResponse(status int, body []byte) error {
	body = bytes.TrimSpace(body)
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		return New(errors.New(detail.Detail), status)
	}
	if len(body) == 0 {
		return New(nil, status)
	}
	return New(errors.New(string(body)), status)
}
