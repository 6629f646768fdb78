package eventstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

// Key layout:
//
//	e/<project>/<event id>                      -> JSON encoded StoredEvent
//	t/<project>/<received unix nanos><event id> -> empty, orders events by time
const (
	eventPrefix = "e/"
	timePrefix  = "t/"
)

// Pebble is an event store backed by a pebble database.
type Pebble struct {
	db *pebble.DB
}

var _ Interface = (*Pebble)(nil)

// PebbleOptions returns the pebble options used for the event store.
func PebbleOptions(cfg config.EventStore) *pebble.Options {
	opts := &pebble.Options{
		BytesPerSync:                1 << 20, // 1 MiB
		DisableWAL:                  cfg.DisableWAL,
		L0CompactionThreshold:       2,
		L0StopWritesThreshold:       1000,
		LBaseMaxBytes:               64 << 20, // 64 MiB
		MaxConcurrentCompactions:    func() int { return 4 },
		MemTableSize:                16 << 20, // 16 MiB
		MemTableStopWritesThreshold: 4,
		WALBytesPerSync:             1 << 20, // 1 MiB
	}

	const numLevels = 7
	opts.Levels = make([]pebble.LevelOptions, numLevels)
	for i := 0; i < numLevels; i++ {
		l := &opts.Levels[i]
		l.BlockSize = 32 << 10 // 32 KiB
		l.FilterPolicy = bloom.FilterPolicy(10)
		l.FilterType = pebble.TableFilter
		if i > 0 {
			l.TargetFileSize = opts.Levels[i-1].TargetFileSize * 2
		}
		l.EnsureDefaults()
	}
	opts.Levels[numLevels-1].FilterPolicy = nil
	if cfg.BlockCacheSize != 0 {
		opts.Cache = pebble.NewCache(int64(cfg.BlockCacheSize))
	}
	return opts
}

// OpenPebble opens or creates a pebble event store in dir. If opts is nil
// then default pebble options are used.
func OpenPebble(dir string, opts *pebble.Options) (*Pebble, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open event store: %w", err)
	}
	if opts != nil && opts.Cache != nil {
		// The database holds its own reference.
		opts.Cache.Unref()
	}
	return &Pebble{db: db}, nil
}

func projectPrefix(prefix string, projectID dsn.ProjectID) []byte {
	return []byte(prefix + projectID.String() + "/")
}

func eventKey(projectID dsn.ProjectID, eventID v7.EventID) []byte {
	return append(projectPrefix(eventPrefix, projectID), eventID.String()...)
}

func timeKey(projectID dsn.ProjectID, received time.Time, eventID v7.EventID) []byte {
	key := projectPrefix(timePrefix, projectID)
	key = binary.BigEndian.AppendUint64(key, uint64(received.UnixNano()))
	return append(key, eventID[:]...)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *Pebble) Put(_ context.Context, ev *StoredEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("cannot encode event: %w", err)
	}
	eventID := ev.EventID()

	batch := p.db.NewBatch()
	defer batch.Close()

	old, err := p.get(ev.ProjectID, eventID)
	switch {
	case err == nil:
		if err = batch.Delete(timeKey(old.ProjectID, old.Received, eventID), nil); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if err = batch.Set(eventKey(ev.ProjectID, eventID), value, nil); err != nil {
		return err
	}
	if err = batch.Set(timeKey(ev.ProjectID, ev.Received, eventID), nil, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *Pebble) Get(_ context.Context, projectID dsn.ProjectID, eventID v7.EventID) (*StoredEvent, error) {
	return p.get(projectID, eventID)
}

func (p *Pebble) get(projectID dsn.ProjectID, eventID v7.EventID) (*StoredEvent, error) {
	value, closer, err := p.db.Get(eventKey(projectID, eventID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	ev := new(StoredEvent)
	if err = json.Unmarshal(value, ev); err != nil {
		return nil, fmt.Errorf("cannot decode stored event %s: %w", eventID, err)
	}
	return ev, nil
}

func (p *Pebble) List(ctx context.Context, projectID dsn.ProjectID, limit int) ([]*StoredEvent, error) {
	prefix := projectPrefix(timePrefix, projectID)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*StoredEvent
	for iter.Last(); iter.Valid(); iter.Prev() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		key := iter.Key()
		var eventID v7.EventID
		if len(key) != len(prefix)+8+len(eventID) {
			log.Warnw("Skipping malformed index key", "key", key)
			continue
		}
		copy(eventID[:], key[len(prefix)+8:])
		ev, err := p.get(projectID, eventID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, iter.Error()
}

func (p *Pebble) Delete(_ context.Context, projectID dsn.ProjectID, eventID v7.EventID) error {
	ev, err := p.get(projectID, eventID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	batch := p.db.NewBatch()
	defer batch.Close()
	if err = batch.Delete(eventKey(projectID, eventID), nil); err != nil {
		return err
	}
	if err = batch.Delete(timeKey(projectID, ev.Received, eventID), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (p *Pebble) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	prefix := []byte(timePrefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	batch := p.db.NewBatch()
	defer batch.Close()

	limit := uint64(cutoff.UnixNano())
	var pruned int
	for iter.First(); iter.Valid(); iter.Next() {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		key := iter.Key()
		// Skip over "t/<project>/".
		slash := bytes.IndexByte(key[len(prefix):], '/')
		if slash < 0 {
			continue
		}
		rest := key[len(prefix)+slash+1:]
		var eventID v7.EventID
		if len(rest) != 8+len(eventID) {
			continue
		}
		if binary.BigEndian.Uint64(rest[:8]) >= limit {
			continue
		}
		projectID, err := dsn.ParseProjectID(string(key[len(prefix) : len(prefix)+slash]))
		if err != nil {
			continue
		}
		copy(eventID[:], rest[8:])
		if err = batch.Delete(bytes.Clone(key), nil); err != nil {
			return 0, err
		}
		if err = batch.Delete(eventKey(projectID, eventID), nil); err != nil {
			return 0, err
		}
		pruned++
	}
	if err = iter.Error(); err != nil {
		return 0, err
	}
	if pruned == 0 {
		return 0, nil
	}
	if err = batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	log.Infow("Pruned events", "count", pruned, "cutoff", cutoff)
	return pruned, nil
}

// Metrics returns the pebble database metrics.
func (p *Pebble) Metrics() *pebble.Metrics {
	return p.db.Metrics()
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
