package ingest

import (
	"context"
	"time"
)

// Prune deletes stored events and archived payloads received more than
// retention ago. It returns the number of stored events deleted.
func (ing *Ingester) Prune(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := ing.opts.clock().Add(-retention)
	n, err := ing.store.Prune(ctx, cutoff)
	if err != nil {
		return n, err
	}
	if ing.archive == nil {
		return n, nil
	}

	files, err := ing.archive.PruneAll(ctx, cutoff)
	if err != nil {
		log.Errorw("Cannot prune archived payloads", "err", err)
	} else if files != 0 {
		log.Infow("Pruned archived payloads", "count", files)
	}
	return n, nil
}

func (ing *Ingester) runRetention() {
	defer ing.waitGroup.Done()
	ticker := time.NewTicker(ing.opts.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := ing.Prune(ing.ctx, ing.opts.retention); err != nil {
				log.Errorw("Cannot prune events", "err", err)
			}
		case <-ing.closing:
			return
		}
	}
}
