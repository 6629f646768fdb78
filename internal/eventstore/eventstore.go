// Package eventstore keeps processed events so they can be looked up after
// ingestion.
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

var log = logging.Logger("sentrytypes/eventstore")

var ErrNotFound = errors.New("event not found")

// StoredEvent is a processed event together with its metadata.
type StoredEvent struct {
	ProjectID dsn.ProjectID
	Event     v7.Event
	Meta      meta.EventMeta `json:",omitempty"`
	Received  time.Time
	// Archive is the archive path of the raw payload, if it was archived.
	Archive string `json:",omitempty"`
}

// EventID returns the ID of the stored event.
func (s *StoredEvent) EventID() v7.EventID {
	if s.Event.ID == nil {
		return v7.NilEventID
	}
	return *s.Event.ID
}

// Interface is implemented by every event store.
type Interface interface {
	// Put stores an event, replacing any event with the same project and ID.
	Put(ctx context.Context, ev *StoredEvent) error
	// Get returns an event or ErrNotFound.
	Get(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID) (*StoredEvent, error)
	// List returns up to limit events of a project, most recently received
	// first. A limit of zero or less returns all events.
	List(ctx context.Context, projectID dsn.ProjectID, limit int) ([]*StoredEvent, error)
	// Delete removes an event. Deleting a missing event is not an error.
	Delete(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID) error
	// Prune deletes events received before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	// Close releases the store.
	Close() error
}

// New opens the event store described by cfg. dir is the resolved pebble
// directory and is not used by the memory store.
func New(cfg config.EventStore, dir string) (Interface, error) {
	switch cfg.Type {
	case "pebble":
		log.Infow("Event store initializing/opening", "type", cfg.Type, "path", dir)
		return OpenPebble(dir, PebbleOptions(cfg))
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unsupported event store type: %s", cfg.Type)
}
