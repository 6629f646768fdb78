// Package normalize prepares a decoded event for storage. It fills in
// defaults, corrects timestamps that are too far off and trims values that
// are too large. Every change is recorded in the event metadata.
package normalize

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/paths"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

const (
	// RuleTrimmed marks a value that was shortened.
	RuleTrimmed = "trimmed"
	// RuleClockDrift marks a timestamp that was too far in the future.
	RuleClockDrift = "clock_drift"
	// RulePastTimestamp marks a timestamp that was too old.
	RulePastTimestamp = "past_timestamp"

	ellipsis = "..."
)

const (
	DefaultMaxMessageLength = 8192
	DefaultMaxCulpritLength = 200
	DefaultMaxBreadcrumbs   = 100
	DefaultAllowedClockSkew = time.Minute
	DefaultMaxAge           = 30 * 24 * time.Hour
)

// Options control normalization. Zero values select the defaults.
type Options struct {
	MaxMessageLength int
	MaxCulpritLength int
	MaxBreadcrumbs   int
	AllowedClockSkew time.Duration
	MaxAge           time.Duration
	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxMessageLength <= 0 {
		o.MaxMessageLength = DefaultMaxMessageLength
	}
	if o.MaxCulpritLength <= 0 {
		o.MaxCulpritLength = DefaultMaxCulpritLength
	}
	if o.MaxBreadcrumbs <= 0 {
		o.MaxBreadcrumbs = DefaultMaxBreadcrumbs
	}
	if o.AllowedClockSkew <= 0 {
		o.AllowedClockSkew = DefaultAllowedClockSkew
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Normalize modifies ev in place and records what it changed in em.
func Normalize(ev *v7.Event, em meta.EventMeta, opts Options) {
	opts = opts.withDefaults()
	now := v7.NewTimestamp(opts.Now())

	if ev.ID == nil || ev.ID.IsNil() {
		id := v7.NewEventID()
		ev.ID = &id
	}
	if ev.Level == "" {
		ev.Level = v7.LevelError
	}
	if ev.Platform == "" {
		ev.Platform = v7.DefaultPlatform
	}
	if len(ev.Fingerprint) == 0 {
		ev.Fingerprint = []string{v7.DefaultFingerprint}
	}
	ev.Timestamp = checkTimestamp(ev.Timestamp, now, paths.Root.Key("timestamp"), em, opts)

	trim(&ev.Message, opts.MaxMessageLength, paths.Root.Key("message"), em)
	trim(&ev.Culprit, opts.MaxCulpritLength, paths.Root.Key("culprit"), em)
	trim(&ev.Transaction, opts.MaxCulpritLength, paths.Root.Key("transaction"), em)
	trim(&ev.Logger, opts.MaxCulpritLength, paths.Root.Key("logger"), em)
	if ev.LogEntry != nil {
		trim(&ev.LogEntry.Message, opts.MaxMessageLength, paths.Root.Key("logentry").Key("message"), em)
	}

	normalizeBreadcrumbs(ev, em, opts)

	excs := paths.Root.Key("exception").Key("values")
	for i := range ev.Exception {
		if exc := &ev.Exception[i]; exc.Value != nil {
			trim(exc.Value, opts.MaxMessageLength, excs.Index(i).Key("value"), em)
		}
	}

	for k, v := range ev.Tags {
		if k == "" || v == "" {
			delete(ev.Tags, k)
		}
	}
	if len(ev.Tags) == 0 {
		ev.Tags = nil
	}
}

func normalizeBreadcrumbs(ev *v7.Event, em meta.EventMeta, opts Options) {
	values := paths.Root.Key("breadcrumbs").Key("values")
	if n := len(ev.Breadcrumbs); n > opts.MaxBreadcrumbs {
		drop := n - opts.MaxBreadcrumbs
		// Metadata of the kept breadcrumbs moves with them to their new
		// indexes.
		em.RemoveElements(values.MetaKey(), 0, drop)
		vm := em.At(values.MetaKey())
		vm.SetOriginalLength(n)
		vm.AddRemark(meta.NewRemark(RuleTrimmed, meta.Removed).WithRange(0, drop))
		ev.Breadcrumbs = append(v7.Values[v7.Breadcrumb](nil), ev.Breadcrumbs[drop:]...)
	}
	for i := range ev.Breadcrumbs {
		b := &ev.Breadcrumbs[i]
		p := values.Index(i)
		if b.Type == "" {
			b.Type = v7.DefaultBreadcrumbType
		}
		if b.Level == "" {
			b.Level = v7.LevelInfo
		}
		if b.Timestamp == nil {
			ts := *ev.Timestamp
			b.Timestamp = &ts
		}
		trim(&b.Message, opts.MaxMessageLength, p.Key("message"), em)
	}
}

// checkTimestamp returns ts, or now if ts is unset or out of range.
func checkTimestamp(ts *v7.Timestamp, now v7.Timestamp, p paths.Path, em meta.EventMeta, opts Options) *v7.Timestamp {
	if ts == nil {
		return &now
	}
	t, n := ts.Time(), now.Time()
	switch {
	case t.After(n.Add(opts.AllowedClockSkew)):
		r := meta.NewRemark(RuleClockDrift, meta.Substituted)
		r.Note = fmt.Sprintf("timestamp was %s in the future", t.Sub(n).Round(time.Second))
		em.At(p.MetaKey()).AddRemark(r)
	case t.Before(n.Add(-opts.MaxAge)):
		r := meta.NewRemark(RulePastTimestamp, meta.Substituted)
		r.Note = fmt.Sprintf("timestamp was older than %s", opts.MaxAge)
		em.At(p.MetaKey()).AddRemark(r)
	default:
		return ts
	}
	return &now
}

// trim shortens s to max runes, ending it with an ellipsis.
func trim(s *string, max int, p paths.Path, em meta.EventMeta) {
	n := utf8.RuneCountInString(*s)
	if n <= max {
		return
	}
	keep := max - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	var i, count int
	for i = range *s {
		if count == keep {
			break
		}
		count++
	}
	*s = (*s)[:i] + ellipsis
	vm := em.At(p.MetaKey())
	vm.SetOriginalLength(n)
	vm.AddRemark(meta.NewRemark(RuleTrimmed, meta.Substituted).WithRange(keep, keep+len(ellipsis)))
}
