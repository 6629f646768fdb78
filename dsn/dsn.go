// Package dsn parses and renders Sentry DSNs, the URLs that tell a client
// where to send events and which keys to authenticate with.
package dsn

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentrytypes/sentrytypes/auth"
)

var (
	ErrInvalidURL    = errors.New("invalid dsn url")
	ErrNoUsername    = errors.New("no username (public key) in dsn")
	ErrNoProjectID   = errors.New("no project id in dsn")
	ErrInvalidScheme = errors.New("invalid dsn scheme")
)

// ParseError is returned by Parse. It wraps one of the Err values of this
// package so callers can use errors.Is.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse dsn %q: %s", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Scheme is the URL scheme of a DSN.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// DefaultPort returns the port used when a DSN does not name one.
func (s Scheme) DefaultPort() uint16 {
	if s == SchemeHTTPS {
		return 443
	}
	return 80
}

// Dsn is a parsed Sentry DSN.
type Dsn struct {
	scheme    Scheme
	publicKey string
	secretKey string
	host      string
	port      uint16
	path      string
	projectID ProjectID
}

// New assembles a Dsn from its parts. A zero port selects the scheme
// default; path is normalized to begin and end with a slash.
func New(scheme Scheme, publicKey, secretKey, host string, port uint16, path string, projectID ProjectID) (*Dsn, error) {
	if scheme != SchemeHTTP && scheme != SchemeHTTPS {
		return nil, ErrInvalidScheme
	}
	if publicKey == "" {
		return nil, ErrNoUsername
	}
	if host == "" {
		return nil, ErrInvalidURL
	}
	return &Dsn{
		scheme:    scheme,
		publicKey: publicKey,
		secretKey: secretKey,
		host:      host,
		port:      port,
		path:      normalizePath(path),
		projectID: projectID,
	}, nil
}

// Parse parses a DSN string of the form
// {scheme}://{public_key}[:{secret_key}]@{host}[:{port}]{path}/{project_id}.
func Parse(s string) (*Dsn, error) {
	d, err := parse(s)
	if err != nil {
		return nil, &ParseError{Input: s, Err: err}
	}
	return d, nil
}

func parse(s string) (*Dsn, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, err)
	}

	var scheme Scheme
	switch u.Scheme {
	case "http":
		scheme = SchemeHTTP
	case "https":
		scheme = SchemeHTTPS
	default:
		return nil, ErrInvalidScheme
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, ErrNoUsername
	}
	secret, _ := u.User.Password()

	host := u.Hostname()
	if host == "" {
		return nil, ErrInvalidURL
	}
	var port uint16
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bad port %q", ErrInvalidURL, p)
		}
		port = uint16(n)
	}

	path := u.Path
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 || idx == len(path)-1 {
		return nil, ErrNoProjectID
	}
	projectID, err := ParseProjectID(path[idx+1:])
	if err != nil {
		return nil, err
	}

	return &Dsn{
		scheme:    scheme,
		publicKey: u.User.Username(),
		secretKey: secret,
		host:      host,
		port:      port,
		path:      normalizePath(path[:idx]),
		projectID: projectID,
	}, nil
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func (d *Dsn) Scheme() Scheme       { return d.scheme }
func (d *Dsn) PublicKey() string    { return d.publicKey }
func (d *Dsn) SecretKey() string    { return d.secretKey }
func (d *Dsn) Host() string         { return d.host }
func (d *Dsn) Path() string         { return d.path }
func (d *Dsn) ProjectID() ProjectID { return d.projectID }

// Port returns the explicit port of the DSN or the default for its scheme.
func (d *Dsn) Port() uint16 {
	if d.port == 0 {
		return d.scheme.DefaultPort()
	}
	return d.port
}

func (d *Dsn) hostPort() string {
	host := d.host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if d.port == 0 || d.port == d.scheme.DefaultPort() {
		return host
	}
	return host + ":" + strconv.FormatUint(uint64(d.port), 10)
}

// String renders the DSN. The port is left out when it is the scheme
// default.
func (d *Dsn) String() string {
	var b strings.Builder
	b.WriteString(string(d.scheme))
	b.WriteString("://")
	b.WriteString(d.publicKey)
	if d.secretKey != "" {
		b.WriteByte(':')
		b.WriteString(d.secretKey)
	}
	b.WriteByte('@')
	b.WriteString(d.hostPort())
	b.WriteString(d.path)
	b.WriteString(d.projectID.String())
	return b.String()
}

// StoreAPIURL returns the URL of the store endpoint events are sent to.
func (d *Dsn) StoreAPIURL() string {
	return fmt.Sprintf("%s://%s%sapi/%s/store/", d.scheme, d.hostPort(), d.path, d.projectID)
}

// ToAuth returns the auth information a client should send for this DSN.
func (d *Dsn) ToAuth(clientAgent string) auth.Auth {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return auth.Auth{
		Timestamp: &now,
		Client:    clientAgent,
		Version:   auth.ProtocolVersion,
		Key:       d.publicKey,
		Secret:    d.secretKey,
	}
}

func (d *Dsn) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dsn) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
