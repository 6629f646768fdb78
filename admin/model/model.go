// Package model holds the request and response bodies of the admin API.
package model

import (
	"time"

	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

// ProjectKey describes a project key. DSN is set when the admin server knows
// the public address of the ingest server.
type ProjectKey struct {
	ProjectID dsn.ProjectID
	PublicKey string
	SecretKey string
	Label     string `json:",omitempty"`
	Disabled  bool
	Created   time.Time
	DSN       string `json:",omitempty"`
}

// AddKeyRequest asks for a new key pair for a project.
type AddKeyRequest struct {
	ProjectID dsn.ProjectID
	Label     string `json:",omitempty"`
}

// SetDisabledRequest enables or disables a key.
type SetDisabledRequest struct {
	Disabled bool
}

// Event is a stored event.
type Event struct {
	ProjectID dsn.ProjectID
	EventID   string
	Title     string
	Received  time.Time
	Archive   string `json:",omitempty"`
	Event     v7.Event
	Meta      meta.EventMeta `json:",omitempty"`
}

// PruneResponse reports how many events were deleted.
type PruneResponse struct {
	Deleted int
}
