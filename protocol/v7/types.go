package v7

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Map holds free-form data such as extra, tags values or vars.
type Map = map[string]any

// Value is a free-form JSON value.
type Value = any

// EventID identifies an event. It is a UUID that is written as 32 lowercase
// hex characters without hyphens.
type EventID uuid.UUID

// NilEventID is the zero event ID.
var NilEventID EventID

// NewEventID returns a random event ID.
func NewEventID() EventID {
	return EventID(uuid.New())
}

// ParseEventID parses an event ID in simple or hyphenated form.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilEventID, fmt.Errorf("invalid event id %q: %w", s, err)
	}
	return EventID(u), nil
}

// IsNil returns true for the zero event ID.
func (id EventID) IsNil() bool {
	return id == NilEventID
}

// UUID returns the event ID as a UUID.
func (id EventID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the simple form of the ID.
func (id EventID) String() string {
	u := uuid.UUID(id)
	return strings.ReplaceAll(u.String(), "-", "")
}

func (id EventID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EventID) UnmarshalText(text []byte) error {
	parsed, err := ParseEventID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Timestamp is a point in time. It is written as float seconds since the
// epoch and read from either that form or an RFC 3339 string.
type Timestamp time.Time

// NewTimestamp converts t, keeping microsecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Microsecond))
}

// Now returns the current time as a Timestamp.
func Now() *Timestamp {
	ts := NewTimestamp(time.Now())
	return &ts
}

// Time returns the timestamp as a time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339Nano)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	micros := ts.Time().UnixMicro()
	if micros%1e6 == 0 {
		return []byte(strconv.FormatInt(micros/1e6, 10)), nil
	}
	return []byte(strconv.FormatFloat(float64(micros)/1e6, 'f', -1, 64)), nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := parseTimeString(s)
		if err != nil {
			return err
		}
		*ts = Timestamp(t)
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	whole, frac := math.Modf(secs)
	*ts = Timestamp(time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC())
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimeString reads RFC 3339 times. Times without a zone are UTC.
func parseTimeString(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Addr is a memory address. It is written as a 0x prefixed hex string.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Addr) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return a.UnmarshalText([]byte(s))
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid address %s", data)
	}
	*a = Addr(v)
	return nil
}

func (a *Addr) UnmarshalText(text []byte) error {
	s := string(text)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q", text)
	}
	*a = Addr(v)
	return nil
}

// ThreadID identifies a thread, either by number or by name.
type ThreadID struct {
	Int    uint64
	String string
}

// IsString returns true if the ID is a name rather than a number.
func (t ThreadID) IsString() bool {
	return t.String != ""
}

func (t ThreadID) MarshalJSON() ([]byte, error) {
	if t.IsString() {
		return json.Marshal(t.String)
	}
	return []byte(strconv.FormatUint(t.Int, 10)), nil
}

func (t *ThreadID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) != 0 && data[0] == '"' {
		*t = ThreadID{}
		return json.Unmarshal(data, &t.String)
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid thread id %s", data)
	}
	*t = ThreadID{Int: v}
	return nil
}

// AutoIPAddress asks the server to fill in the address the event was
// received from.
const AutoIPAddress IPAddress = "{{auto}}"

var ErrInvalidIPAddress = errors.New("invalid ip address")

// IPAddress is an IP address or AutoIPAddress.
type IPAddress string

// IsAuto returns true if the address is to be filled in by the server.
func (ip IPAddress) IsAuto() bool {
	return ip == AutoIPAddress
}

func (ip IPAddress) MarshalText() ([]byte, error) {
	return []byte(ip), nil
}

func (ip *IPAddress) UnmarshalText(text []byte) error {
	s := string(text)
	if s != string(AutoIPAddress) {
		if _, err := netip.ParseAddr(s); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidIPAddress, s)
		}
	}
	*ip = IPAddress(s)
	return nil
}

// Values is a list that is written as {"values": [...]} and read from that
// form or from a bare array.
type Values[T any] []T

func (v Values[T]) MarshalJSON() ([]byte, error) {
	list := []T(v)
	if list == nil {
		list = []T{}
	}
	return json.Marshal(struct {
		Values []T `json:"values"`
	}{list})
}

func (v *Values[T]) UnmarshalJSON(data []byte) error {
	inner, _ := v.ReshapeJSON(data)
	var list []T
	if err := json.Unmarshal(inner, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

// ReshapeJSON returns the array held by raw along with the object key it
// was found under. A bare array is returned as is.
func (v *Values[T]) ReshapeJSON(raw json.RawMessage) (json.RawMessage, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw, "values"
	}
	var wrapper struct {
		Values json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return raw, "values"
	}
	if len(wrapper.Values) == 0 {
		return json.RawMessage("[]"), "values"
	}
	return wrapper.Values, "values"
}
