package dsn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrEmptyProjectID   = errors.New("empty project id")
	ErrInvalidProjectID = errors.New("invalid project id")
)

// ProjectID identifies a project on a Sentry server.
type ProjectID uint64

// ParseProjectID parses a decimal project ID.
func ParseProjectID(s string) (ProjectID, error) {
	if s == "" {
		return 0, ErrEmptyProjectID
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidProjectID, s)
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProjectID, s)
	}
	return ProjectID(v), nil
}

func (p ProjectID) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

func (p ProjectID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ProjectID) UnmarshalText(text []byte) error {
	v, err := ParseProjectID(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalJSON writes the project ID as a JSON number.
func (p ProjectID) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a string holding a number.
func (p *ProjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return p.UnmarshalText([]byte(s))
	}
	return p.UnmarshalText(data)
}
