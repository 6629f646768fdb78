package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sentrytypes/sentrytypes/fsutil/disk"
	"github.com/sentrytypes/sentrytypes/internal/metrics"
	"go.opencensus.io/stats"
)

// diskGuard tracks whether the event store file system is too full to
// accept more events.
type diskGuard struct {
	dir     string
	percent float64
	frozen  atomic.Bool
}

func newDiskGuard(dir string, percent float64) *diskGuard {
	return &diskGuard{
		dir:     dir,
		percent: percent,
	}
}

func (g *diskGuard) Frozen() bool {
	return g.frozen.Load()
}

func (g *diskGuard) check(ctx context.Context) {
	usage, err := disk.Usage(g.dir)
	if err != nil {
		if errors.Is(err, disk.ErrUnsupported) {
			return
		}
		log.Errorw("Cannot check disk usage", "err", err, "dir", g.dir)
		return
	}
	stats.Record(ctx, metrics.PercentUsage.M(usage.Percent))

	frozen := usage.Percent >= g.percent
	if g.frozen.Swap(frozen) != frozen {
		if frozen {
			log.Warnw("Disk usage above limit, refusing new events", "percent", usage.Percent, "limit", g.percent, "dir", g.dir)
		} else {
			log.Infow("Disk usage below limit, accepting events", "percent", usage.Percent, "limit", g.percent)
		}
	}
}

func (ing *Ingester) runDiskGuard() {
	defer ing.waitGroup.Done()
	ticker := time.NewTicker(ing.opts.diskCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ing.guard.check(ing.ctx)
		case <-ing.closing:
			return
		}
	}
}
