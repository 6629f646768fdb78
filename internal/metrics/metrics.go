// Package metrics defines the measures recorded by the daemon and serves
// them in the prometheus format.
package metrics

import (
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Tags
var (
	Reason, _    = tag.NewKey("reason")
	Transport, _ = tag.NewKey("transport")
)

// Measures
var (
	EventsAccepted  = stats.Int64("ingest/accepted", "Number of events queued for processing", stats.UnitDimensionless)
	EventsRejected  = stats.Int64("ingest/rejected", "Number of events refused at submission", stats.UnitDimensionless)
	EventsStored    = stats.Int64("ingest/stored", "Number of events processed and stored", stats.UnitDimensionless)
	EventsDuplicate = stats.Int64("ingest/duplicate", "Number of events dropped as already seen", stats.UnitDimensionless)
	EventsFailed    = stats.Int64("ingest/failed", "Number of events that could not be processed", stats.UnitDimensionless)
	MetaErrors      = stats.Int64("ingest/meta_errors", "Number of value errors recorded while decoding events", stats.UnitDimensionless)
	ProcessLatency  = stats.Float64("ingest/latency", "Time to process one event", stats.UnitMilliseconds)
	QueueLength     = stats.Int64("ingest/queue_length", "Number of events waiting for processing", stats.UnitDimensionless)
	PayloadSize     = stats.Int64("ingest/payload_size", "Size of received event payloads", stats.UnitBytes)
	ProjectKeys     = stats.Int64("registry/project_keys", "Number of registered project keys", stats.UnitDimensionless)
	PercentUsage    = stats.Float64("eventstore/percent_usage", "Percent of disk used by the event store file system", stats.UnitDimensionless)
)

// Views
var (
	acceptedView = &view.View{
		Measure:     EventsAccepted,
		TagKeys:     []tag.Key{Transport},
		Aggregation: view.Count(),
	}
	rejectedView = &view.View{
		Measure:     EventsRejected,
		TagKeys:     []tag.Key{Reason},
		Aggregation: view.Count(),
	}
	storedView = &view.View{
		Measure:     EventsStored,
		Aggregation: view.Count(),
	}
	duplicateView = &view.View{
		Measure:     EventsDuplicate,
		Aggregation: view.Count(),
	}
	failedView = &view.View{
		Measure:     EventsFailed,
		TagKeys:     []tag.Key{Reason},
		Aggregation: view.Count(),
	}
	metaErrorsView = &view.View{
		Measure:     MetaErrors,
		Aggregation: view.Sum(),
	}
	latencyView = &view.View{
		Measure:     ProcessLatency,
		Aggregation: view.Distribution(0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 5000),
	}
	queueLengthView = &view.View{
		Measure:     QueueLength,
		Aggregation: view.LastValue(),
	}
	payloadSizeView = &view.View{
		Measure:     PayloadSize,
		Aggregation: view.Distribution(0, 1<<10, 4<<10, 16<<10, 64<<10, 256<<10, 1<<20),
	}
	projectKeysView = &view.View{
		Measure:     ProjectKeys,
		Aggregation: view.LastValue(),
	}
	percentUsageView = &view.View{
		Measure:     PercentUsage,
		Aggregation: view.LastValue(),
	}
)

// DefaultViews are the views registered by Start.
var DefaultViews = []*view.View{
	acceptedView,
	rejectedView,
	storedView,
	duplicateView,
	failedView,
	metaErrorsView,
	latencyView,
	queueLengthView,
	payloadSizeView,
	projectKeysView,
	percentUsageView,
}

// MsecSince returns the milliseconds elapsed since start.
func MsecSince(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
