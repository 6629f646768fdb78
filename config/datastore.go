package config

// Datastore tracks the configuration of the project key datastore.
type Datastore struct {
	// Type is the type of datastore: "levelds" or "memory".
	Type string
	// Dir is the directory where the datastore is kept. If this is not an
	// absolute path then the location is relative to the config directory.
	Dir string
}

// NewDatastore returns Datastore with values set to their defaults.
func NewDatastore() Datastore {
	return Datastore{
		Type: "levelds",
		Dir:  "datastore",
	}
}

// populateUnset replaces zero-values in the config with default values.
func (c *Datastore) populateUnset() {
	def := NewDatastore()

	if c.Type == "" {
		c.Type = def.Type
	}
	if c.Dir == "" {
		c.Dir = def.Dir
	}
}

// EventStore configures where processed events are kept.
type EventStore struct {
	// Type is the type of event store: "pebble" or "memory".
	Type string
	// Dir is the pebble directory. Relative paths are relative to the config
	// directory.
	Dir string
	// Retention is how long events are kept. Zero keeps events forever.
	Retention Duration
	// BlockCacheSize is the size of the pebble block cache.
	BlockCacheSize ByteSize
	// DisableWAL turns off the pebble write-ahead log.
	DisableWAL bool
	// FreezeAtPercent is the disk usage percentage of the event store
	// directory at which new events are refused. Zero disables the check and
	// a value of 100 or more never refuses.
	FreezeAtPercent float64
}

// NewEventStore returns EventStore with values set to their defaults.
func NewEventStore() EventStore {
	return EventStore{
		Type:            "pebble",
		Dir:             "events",
		BlockCacheSize:  ByteSize(64 << 20),
		FreezeAtPercent: 90,
	}
}

// populateUnset replaces zero-values in the config with default values.
func (c *EventStore) populateUnset() {
	def := NewEventStore()

	if c.Type == "" {
		c.Type = def.Type
	}
	if c.Dir == "" {
		c.Dir = def.Dir
	}
	if c.BlockCacheSize == 0 {
		c.BlockCacheSize = def.BlockCacheSize
	}
}
