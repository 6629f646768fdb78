package config

import (
	"time"
)

// Ingest tracks the configuration of event ingestion.
type Ingest struct {
	// AllowedClockSkew is how far in the future an event timestamp may be
	// before it is replaced by the time the event was received.
	AllowedClockSkew Duration
	// DedupCacheSize is the number of recent event IDs remembered to drop
	// events that are submitted more than once.
	DedupCacheSize int
	// MaxBreadcrumbs is the number of breadcrumbs kept per event. Older
	// breadcrumbs are dropped first.
	MaxBreadcrumbs int
	// MaxEventSize is the largest accepted event payload, after
	// decompression.
	MaxEventSize ByteSize
	// MaxMessageLength is the length at which messages are trimmed.
	MaxMessageLength int
	// QueueSize is the number of events that may wait for processing. When
	// the queue is full new events are rejected.
	QueueSize int
	// ShutdownTimeout is how long to wait for queued events to be processed
	// when the daemon stops.
	ShutdownTimeout Duration
	// WorkerCount sets how many events are processed concurrently.
	WorkerCount int
}

// NewIngest returns Ingest with values set to their defaults.
func NewIngest() Ingest {
	return Ingest{
		AllowedClockSkew: Duration(time.Minute),
		DedupCacheSize:   4096,
		MaxBreadcrumbs:   100,
		MaxEventSize:     ByteSize(1 << 20),
		MaxMessageLength: 8192,
		QueueSize:        1024,
		ShutdownTimeout:  Duration(10 * time.Second),
		WorkerCount:      4,
	}
}

// populateUnset replaces zero-values in the config with default values.
func (c *Ingest) populateUnset() {
	def := NewIngest()

	if c.AllowedClockSkew == 0 {
		c.AllowedClockSkew = def.AllowedClockSkew
	}
	if c.DedupCacheSize == 0 {
		c.DedupCacheSize = def.DedupCacheSize
	}
	if c.MaxBreadcrumbs == 0 {
		c.MaxBreadcrumbs = def.MaxBreadcrumbs
	}
	if c.MaxEventSize == 0 {
		c.MaxEventSize = def.MaxEventSize
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = def.MaxMessageLength
	}
	if c.QueueSize == 0 {
		c.QueueSize = def.QueueSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = def.WorkerCount
	}
}
