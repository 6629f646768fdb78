// Package auth parses and renders the credentials that Sentry clients send
// with every request, either in the X-Sentry-Auth header or as sentry_*
// query parameters.
package auth

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProtocolVersion is the protocol version assumed when a client does not
// state one.
const ProtocolVersion = 7

var (
	ErrNonSentryAuth    = errors.New("non sentry auth")
	ErrInvalidVersion   = errors.New("invalid value for version")
	ErrInvalidTimestamp = errors.New("invalid value for timestamp")
	ErrMissingPublicKey = errors.New("missing public key in auth header")
)

// Auth holds the authentication information of a Sentry client request.
type Auth struct {
	// Timestamp is when the client generated the request, if it said so.
	Timestamp *time.Time
	// Client is the client agent, for example "raven-go/1.0".
	Client string
	// Version is the protocol version the client speaks.
	Version uint16
	// Key is the public key of the project.
	Key string
	// Secret is the secret key. Empty for public clients.
	Secret string
}

// Pair is a single key/value item of auth information.
type Pair struct {
	Key   string
	Value string
}

// ParseHeader parses the value of an X-Sentry-Auth or Authorization header.
func ParseHeader(value string) (Auth, error) {
	value = strings.TrimSpace(value)
	if len(value) < 7 || !strings.EqualFold(value[:7], "sentry ") {
		return Auth{}, ErrNonSentryAuth
	}

	var pairs []Pair
	for _, item := range strings.Split(value[7:], ",") {
		key, val, _ := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: strings.TrimSpace(val)})
	}
	return FromPairs(pairs)
}

// FromQuery builds Auth from the sentry_* parameters of a query string.
func FromQuery(query url.Values) (Auth, error) {
	pairs := make([]Pair, 0, len(query))
	for key, vals := range query {
		if len(vals) == 0 || !strings.HasPrefix(key, "sentry_") {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: vals[0]})
	}
	return FromPairs(pairs)
}

// FromPairs builds Auth from key/value pairs. The sentry_ prefix on keys is
// optional and keys that are not auth keys are ignored.
func FromPairs(pairs []Pair) (Auth, error) {
	a := Auth{
		Version: ProtocolVersion,
	}
	for _, p := range pairs {
		switch strings.TrimPrefix(p.Key, "sentry_") {
		case "timestamp":
			ts, err := parseTimestamp(p.Value)
			if err != nil {
				return Auth{}, err
			}
			a.Timestamp = &ts
		case "client":
			a.Client = p.Value
		case "version":
			ver, err := strconv.ParseUint(p.Value, 10, 16)
			if err != nil {
				return Auth{}, fmt.Errorf("%w: %q", ErrInvalidVersion, p.Value)
			}
			a.Version = uint16(ver)
		case "key":
			a.Key = p.Value
		case "secret":
			a.Secret = p.Value
		}
	}
	if a.Key == "" {
		return Auth{}, ErrMissingPublicKey
	}
	return a, nil
}

// IsPublic returns true if the auth carries no secret key.
func (a Auth) IsPublic() bool {
	return a.Secret == ""
}

// Pairs returns the auth information as key/value pairs in the order used in
// headers.
func (a Auth) Pairs() []Pair {
	pairs := []Pair{
		{"sentry_key", a.Key},
		{"sentry_version", strconv.FormatUint(uint64(a.Version), 10)},
	}
	if a.Timestamp != nil {
		pairs = append(pairs, Pair{"sentry_timestamp", FormatTimestamp(*a.Timestamp)})
	}
	if a.Client != "" {
		pairs = append(pairs, Pair{"sentry_client", a.Client})
	}
	if a.Secret != "" {
		pairs = append(pairs, Pair{"sentry_secret", a.Secret})
	}
	return pairs
}

// String renders the auth as an X-Sentry-Auth header value.
func (a Auth) String() string {
	var b strings.Builder
	b.WriteString("Sentry ")
	for i, p := range a.Pairs() {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Query returns the auth as query parameters.
func (a Auth) Query() url.Values {
	q := make(url.Values, 5)
	for _, p := range a.Pairs() {
		q.Set(p.Key, p.Value)
	}
	return q
}

// FormatTimestamp renders t as seconds since the epoch with up to six
// decimals, the form Sentry clients send. Precision below a microsecond is
// dropped.
func FormatTimestamp(t time.Time) string {
	micros := t.UnixMicro()
	if micros < 0 {
		return strconv.FormatFloat(float64(micros)/1e6, 'f', -1, 64)
	}
	secs, frac := micros/1e6, micros%1e6
	if frac == 0 {
		return strconv.FormatInt(secs, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%06d", secs, frac), "0")
}

// parseDecimalSeconds reads seconds written as digits with an optional
// fraction, exactly to the microsecond.
func parseDecimalSeconds(s string) (time.Time, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || secs < 0 || whole[0] == '+' {
		return time.Time{}, false
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	var micros int64
	if frac != "" {
		if micros, err = strconv.ParseInt(frac+strings.Repeat("0", 6-len(frac)), 10, 64); err != nil || micros < 0 || frac[0] == '+' {
			return time.Time{}, false
		}
	}
	return time.Unix(secs, micros*int64(time.Microsecond)).UTC(), true
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, ok := parseDecimalSeconds(s); ok {
		return ts, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return ts.UTC(), nil
}
