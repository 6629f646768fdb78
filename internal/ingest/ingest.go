// Package ingest processes submitted event payloads. Payloads are queued
// per project and handled by a pool of workers that decode, normalize,
// deduplicate, archive and store each event.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/channelqueue"
	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/filestore"
	"github.com/sentrytypes/sentrytypes/internal/eventstore"
	"github.com/sentrytypes/sentrytypes/internal/metrics"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	"github.com/sentrytypes/sentrytypes/protocol/lenient"
	"github.com/sentrytypes/sentrytypes/protocol/normalize"
	"github.com/sentrytypes/sentrytypes/protocol/paths"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"go.uber.org/zap"
)

var log = logging.Logger("sentrytypes/ingest")

// Result is the outcome of processing one event.
type Result struct {
	ProjectID dsn.ProjectID
	EventID   v7.EventID
	// Duplicate is true if the event was dropped because it was seen before.
	Duplicate bool
	// MetaErrors is the number of value errors recorded for the event.
	MetaErrors int
	Err        error
}

type job struct {
	projectID dsn.ProjectID
	eventID   v7.EventID
	payload   []byte
	received  time.Time
}

type dedupKey struct {
	projectID dsn.ProjectID
	eventID   v7.EventID
}

// Ingester accepts event payloads and processes them in the background.
type Ingester struct {
	cfg     config.Ingest
	opts    configIngest
	reg     *registry.Registry
	store   eventstore.Interface
	archive *filestore.Archive

	queue   *fairQueue
	dedup   *lru.Cache[dedupKey, struct{}]
	results *channelqueue.ChannelQueue[Result]
	guard   *diskGuard

	closeOnce sync.Once
	closing   chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	waitGroup sync.WaitGroup
}

// New creates an Ingester and starts its workers. archive may be nil, in
// which case raw payloads are not kept.
func New(cfg config.Ingest, reg *registry.Registry, store eventstore.Interface, archive *filestore.Archive, options ...Option) (*Ingester, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	if reg == nil || store == nil {
		return nil, errors.New("ingester requires a registry and an event store")
	}

	dedupSize := cfg.DedupCacheSize
	if dedupSize < 1 {
		dedupSize = 1
	}
	dedup, err := lru.New[dedupKey, struct{}](dedupSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ing := &Ingester{
		cfg:     cfg,
		opts:    opts,
		reg:     reg,
		store:   store,
		archive: archive,
		queue:   newFairQueue(cfg.QueueSize),
		dedup:   dedup,
		closing: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	if opts.resultsCapacity != 0 {
		ing.results = channelqueue.New[Result](opts.resultsCapacity)
	}
	if opts.diskDir != "" && opts.freezeAtPercent > 0 && opts.freezeAtPercent < 100 {
		ing.guard = newDiskGuard(opts.diskDir, opts.freezeAtPercent)
		ing.guard.check(ctx)
		ing.waitGroup.Add(1)
		go ing.runDiskGuard()
	}
	if opts.retention != 0 {
		ing.waitGroup.Add(1)
		go ing.runRetention()
	}

	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		ing.waitGroup.Add(1)
		go ing.worker(i)
	}

	log.Infow("Ingester started", "workers", workers, "queueSize", cfg.QueueSize)
	return ing, nil
}

// Submit validates payload and queues it for processing. It returns the ID
// the event will be stored under: the payload's event_id when that is
// valid, otherwise a new one.
func (ing *Ingester) Submit(ctx context.Context, projectID dsn.ProjectID, payload []byte) (v7.EventID, error) {
	stats.Record(ctx, metrics.PayloadSize.M(int64(len(payload))))

	eventID, err := ing.accept(projectID, payload)
	if err != nil {
		ing.recordRejected(ctx, err)
		return v7.NilEventID, err
	}

	n, err := ing.queue.Push(&job{
		projectID: projectID,
		eventID:   eventID,
		payload:   payload,
		received:  ing.opts.clock(),
	})
	if err != nil {
		ing.recordRejected(ctx, err)
		return v7.NilEventID, err
	}
	stats.Record(ctx, metrics.EventsAccepted.M(1), metrics.QueueLength.M(int64(n)))
	log.Debugw("Queued event", "project", projectID, "event", eventID, "queued", n)
	return eventID, nil
}

func (ing *Ingester) accept(projectID dsn.ProjectID, payload []byte) (v7.EventID, error) {
	select {
	case <-ing.closing:
		return v7.NilEventID, ErrClosed
	default:
	}
	if ing.cfg.MaxEventSize != 0 && uint64(len(payload)) > uint64(ing.cfg.MaxEventSize) {
		return v7.NilEventID, ErrTooLarge
	}
	if !ing.reg.Policy().Allowed(projectID) {
		return v7.NilEventID, registry.ErrProjectNotAllowed
	}
	if ing.guard != nil && ing.guard.Frozen() {
		return v7.NilEventID, ErrDiskFull
	}
	return payloadEventID(payload)
}

// payloadEventID checks that payload is a JSON object and returns its
// event_id, or a new ID if it has none that is valid.
func payloadEventID(payload []byte) (v7.EventID, error) {
	payload = bytes.TrimSpace(payload)
	if !json.Valid(payload) {
		return v7.NilEventID, fmt.Errorf("%w: %s", ErrInvalidPayload, lenient.ErrInvalidJSON)
	}
	keys, vals, err := paths.Members(payload)
	if err != nil {
		return v7.NilEventID, fmt.Errorf("%w: %s", ErrInvalidPayload, err)
	}
	for i, key := range keys {
		if key != "event_id" {
			continue
		}
		var id v7.EventID
		if json.Unmarshal(vals[i], &id) == nil && !id.IsNil() {
			return id, nil
		}
		break
	}
	return v7.NewEventID(), nil
}

func (ing *Ingester) recordRejected(ctx context.Context, err error) {
	var reason string
	switch {
	case errors.Is(err, ErrQueueFull):
		reason = "queue_full"
	case errors.Is(err, ErrTooLarge):
		reason = "too_large"
	case errors.Is(err, ErrInvalidPayload):
		reason = "invalid"
	case errors.Is(err, ErrDiskFull):
		reason = "disk_full"
	case errors.Is(err, registry.ErrProjectNotAllowed):
		reason = "not_allowed"
	default:
		reason = "closed"
	}
	_ = stats.RecordWithOptions(ctx,
		stats.WithTags(tag.Insert(metrics.Reason, reason)),
		stats.WithMeasurements(metrics.EventsRejected.M(1)))
}

// Results returns processing outcomes. It is nil unless the ingester was
// created with WithResults, and it is closed by Close. Once enabled it must
// be read, or the workers stop when its buffer fills.
func (ing *Ingester) Results() <-chan Result {
	if ing.results == nil {
		return nil
	}
	return ing.results.Out()
}

// QueueLength returns the number of events waiting to be processed.
func (ing *Ingester) QueueLength() int {
	return ing.queue.Len()
}

// Close stops accepting events, processes the events already queued, and
// waits for the workers to finish.
func (ing *Ingester) Close() error {
	ing.closeOnce.Do(func() {
		close(ing.closing)
		ing.queue.Close()
		ing.waitGroup.Wait()
		ing.cancel()
		if ing.results != nil {
			ing.results.Close()
		}
		log.Info("Ingester stopped")
	})
	return nil
}

func (ing *Ingester) worker(n int) {
	defer ing.waitGroup.Done()
	zl := log.Desugar().With(zap.Int("worker", n))

	for {
		j, ok := ing.queue.Pop()
		if !ok {
			return
		}
		stats.Record(ing.ctx, metrics.QueueLength.M(int64(ing.queue.Len())))
		res := ing.process(zl, j)
		if ing.results != nil {
			ing.results.In() <- res
		}
	}
}

func (ing *Ingester) process(zl *zap.Logger, j *job) Result {
	start := time.Now()
	res := Result{ProjectID: j.projectID, EventID: j.eventID}

	var ev v7.Event
	em, err := lenient.Decode(j.payload, &ev)
	if err != nil {
		res.Err = processError{stage: stageDecode, err: err}
		ing.recordFailed(stageDecode)
		zl.Error("Cannot decode event", zap.Stringer("event", j.eventID), zap.Error(err))
		return res
	}
	ev.ID = &j.eventID
	normalize.Normalize(&ev, em, normalize.Options{
		MaxMessageLength: ing.cfg.MaxMessageLength,
		MaxBreadcrumbs:   ing.cfg.MaxBreadcrumbs,
		AllowedClockSkew: time.Duration(ing.cfg.AllowedClockSkew),
		Now:              ing.opts.clock,
	})
	res.MetaErrors = em.ErrorCount()

	key := dedupKey{j.projectID, j.eventID}
	if found, _ := ing.dedup.ContainsOrAdd(key, struct{}{}); found {
		res.Duplicate = true
		stats.Record(ing.ctx, metrics.EventsDuplicate.M(1))
		zl.Debug("Dropped duplicate event", zap.Stringer("event", j.eventID), zap.Uint64("project", uint64(j.projectID)))
		return res
	}

	stored := &eventstore.StoredEvent{
		ProjectID: j.projectID,
		Event:     ev,
		Meta:      em,
		Received:  j.received,
	}
	if ing.archive != nil {
		file, err := ing.archive.Save(ing.ctx, j.projectID, j.eventID, j.received, j.payload)
		if err != nil {
			// The event is still stored without its raw payload.
			zl.Error("Cannot archive event payload", zap.Stringer("event", j.eventID), zap.Error(err))
		} else {
			stored.Archive = file.Path
		}
	}

	if err = ing.store.Put(ing.ctx, stored); err != nil {
		ing.dedup.Remove(key)
		res.Err = processError{stage: stageStore, err: err}
		ing.recordFailed(stageStore)
		zl.Error("Cannot store event", zap.Stringer("event", j.eventID), zap.Error(err))
		return res
	}

	stats.Record(ing.ctx,
		metrics.EventsStored.M(1),
		metrics.MetaErrors.M(int64(res.MetaErrors)),
		metrics.ProcessLatency.M(metrics.MsecSince(start)))
	zl.Debug("Stored event",
		zap.Stringer("event", j.eventID),
		zap.Uint64("project", uint64(j.projectID)),
		zap.String("title", ev.Title()),
		zap.Int("metaErrors", res.MetaErrors))
	return res
}

func (ing *Ingester) recordFailed(stage processStage) {
	_ = stats.RecordWithOptions(ing.ctx,
		stats.WithTags(tag.Insert(metrics.Reason, string(stage))),
		stats.WithMeasurements(metrics.EventsFailed.M(1)))
}
