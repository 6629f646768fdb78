// Package v7 holds the event schema of version 7 of the Sentry protocol.
package v7

import (
	"fmt"
	"strings"
)

// DefaultFingerprint groups an event by the server's default rules.
const DefaultFingerprint = "{{ default }}"

// DefaultPlatform is the platform of events that do not name one.
const DefaultPlatform = "other"

// Event is a single error or message report.
type Event struct {
	ID          *EventID                 `json:"event_id,omitempty"`
	Level       Level                    `json:"level,omitempty"`
	Fingerprint []string                 `json:"fingerprint,omitempty"`
	Culprit     string                   `json:"culprit,omitempty"`
	Transaction string                   `json:"transaction,omitempty"`
	Message     string                   `json:"message,omitempty"`
	LogEntry    *LogEntry                `json:"logentry,omitempty"`
	Logger      string                   `json:"logger,omitempty"`
	Modules     map[string]string        `json:"modules,omitempty"`
	Platform    string                   `json:"platform,omitempty"`
	Timestamp   *Timestamp               `json:"timestamp,omitempty"`
	ServerName  string                   `json:"server_name,omitempty"`
	Release     string                   `json:"release,omitempty"`
	Dist        string                   `json:"dist,omitempty"`
	Repos       map[string]RepoReference `json:"repos,omitempty"`
	Environment string                   `json:"environment,omitempty"`
	User        *User                    `json:"user,omitempty"`
	Request     *Request                 `json:"request,omitempty"`
	Contexts    Contexts                 `json:"contexts,omitempty"`
	Breadcrumbs Values[Breadcrumb]       `json:"breadcrumbs,omitempty"`
	Exception   Values[Exception]        `json:"exception,omitempty"`
	Stacktrace  *Stacktrace              `json:"stacktrace,omitempty"`
	Template    *TemplateInfo            `json:"template,omitempty"`
	Threads     Values[Thread]           `json:"threads,omitempty"`
	Tags        map[string]string        `json:"tags,omitempty"`
	Extra       Map                      `json:"extra,omitempty"`
	DebugMeta   *DebugMeta               `json:"debug_meta,omitempty"`
	Sdk         *ClientSdkInfo           `json:"sdk,omitempty"`
}

// NewEvent returns an event with a fresh ID, the current time and default
// values for level, fingerprint and platform.
func NewEvent() *Event {
	id := NewEventID()
	return &Event{
		ID:          &id,
		Level:       LevelError,
		Fingerprint: []string{DefaultFingerprint},
		Platform:    DefaultPlatform,
		Timestamp:   Now(),
	}
}

// HasDefaultFingerprint returns true if the event is grouped by the default
// rules only.
func (e *Event) HasDefaultFingerprint() bool {
	return len(e.Fingerprint) == 0 ||
		(len(e.Fingerprint) == 1 && e.Fingerprint[0] == DefaultFingerprint)
}

// Title returns a short human readable summary of the event.
func (e *Event) Title() string {
	if e.Message != "" {
		return e.Message
	}
	if e.LogEntry != nil && e.LogEntry.Message != "" {
		return e.LogEntry.Message
	}
	if n := len(e.Exception); n != 0 {
		exc := e.Exception[n-1]
		if exc.Value != nil && *exc.Value != "" {
			return exc.Type + ": " + *exc.Value
		}
		return exc.Type
	}
	return "<unlabeled event>"
}

func (e *Event) String() string {
	var b strings.Builder
	if e.ID != nil {
		b.WriteString(e.ID.String())
	} else {
		b.WriteString("-")
	}
	level := e.Level
	if level == "" {
		level = LevelError
	}
	fmt.Fprintf(&b, " [%s] %s", level, e.Title())
	return b.String()
}
