package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sentrytypes/sentrytypes/dsn"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

type memKey struct {
	project dsn.ProjectID
	event   v7.EventID
}

// Memory is an event store that keeps events in memory.
type Memory struct {
	events map[memKey]*StoredEvent
	mutex  sync.RWMutex
}

var _ Interface = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{events: make(map[memKey]*StoredEvent)}
}

func (m *Memory) Put(_ context.Context, ev *StoredEvent) error {
	cp := *ev
	m.mutex.Lock()
	m.events[memKey{ev.ProjectID, ev.EventID()}] = &cp
	m.mutex.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, projectID dsn.ProjectID, eventID v7.EventID) (*StoredEvent, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ev, ok := m.events[memKey{projectID, eventID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (m *Memory) List(_ context.Context, projectID dsn.ProjectID, limit int) ([]*StoredEvent, error) {
	m.mutex.RLock()
	var out []*StoredEvent
	for k, ev := range m.events {
		if k.project == projectID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	m.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Received.Equal(out[j].Received) {
			return out[i].Received.After(out[j].Received)
		}
		return out[i].EventID().String() > out[j].EventID().String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, projectID dsn.ProjectID, eventID v7.EventID) error {
	m.mutex.Lock()
	delete(m.events, memKey{projectID, eventID})
	m.mutex.Unlock()
	return nil
}

func (m *Memory) Prune(_ context.Context, cutoff time.Time) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var n int
	for k, ev := range m.events {
		if ev.Received.Before(cutoff) {
			delete(m.events, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error {
	return nil
}
