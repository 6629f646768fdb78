package normalize_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sentrytypes/sentrytypes/protocol/lenient"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/normalize"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func opts() normalize.Options {
	return normalize.Options{
		MaxMessageLength: 10,
		MaxBreadcrumbs:   2,
		Now:              func() time.Time { return fixedNow },
	}
}

func TestDefaults(t *testing.T) {
	ev := &v7.Event{
		Breadcrumbs: v7.Values[v7.Breadcrumb]{{Message: "x"}},
		Tags:        map[string]string{"": "v", "k": ""},
	}
	em := meta.EventMeta{}
	normalize.Normalize(ev, em, opts())

	require.NotNil(t, ev.ID)
	require.Equal(t, v7.LevelError, ev.Level)
	require.Equal(t, v7.DefaultPlatform, ev.Platform)
	require.True(t, ev.HasDefaultFingerprint())
	require.Equal(t, fixedNow, ev.Timestamp.Time())
	require.Equal(t, v7.DefaultBreadcrumbType, ev.Breadcrumbs[0].Type)
	require.Equal(t, v7.LevelInfo, ev.Breadcrumbs[0].Level)
	require.Equal(t, fixedNow, ev.Breadcrumbs[0].Timestamp.Time())
	require.Nil(t, ev.Tags)
	require.Empty(t, em.Paths())
}

func TestTrim(t *testing.T) {
	value := "héllo wörld again"
	ev := &v7.Event{
		Message:   "abcdefghijklmnop",
		Exception: v7.Values[v7.Exception]{{Type: "E", Value: &value}},
	}
	em := meta.EventMeta{}
	normalize.Normalize(ev, em, opts())

	require.Equal(t, "abcdefg...", ev.Message)
	vm := em.Get("message")
	require.NotNil(t, vm)
	require.Equal(t, uint64(16), *vm.OriginalLength)
	require.Equal(t, "trimmed[7:10]", vm.Remarks[0].String())

	require.Equal(t, "héllo w...", *ev.Exception[0].Value)
	require.Equal(t, uint64(17), *em.Get("exception.values.0.value").OriginalLength)
}

func TestMaxBreadcrumbs(t *testing.T) {
	ev := &v7.Event{Breadcrumbs: v7.Values[v7.Breadcrumb]{
		{Message: "1"}, {Message: "2"}, {Message: "3"},
	}}
	em := meta.EventMeta{}
	normalize.Normalize(ev, em, opts())

	require.Len(t, ev.Breadcrumbs, 2)
	require.Equal(t, "2", ev.Breadcrumbs[0].Message)
	vm := em.Get("breadcrumbs.values")
	require.Equal(t, uint64(3), *vm.OriginalLength)
	require.Equal(t, meta.Removed, vm.Remarks[0].Type)
}

func TestMaxBreadcrumbsMovesMetadata(t *testing.T) {
	ev := &v7.Event{Breadcrumbs: v7.Values[v7.Breadcrumb]{
		{Message: "1"}, {Message: "2"}, {Message: "third message"},
	}}
	em := meta.EventMeta{}
	em.AddError("breadcrumbs.values.0", "first")
	em.AddError("breadcrumbs.values.2.category", "third")
	normalize.Normalize(ev, em, opts())

	require.Equal(t, []string{
		"breadcrumbs.values",
		"breadcrumbs.values.1.category",
		"breadcrumbs.values.1.message",
	}, em.Paths())
	require.Equal(t, []string{"third"}, em.Get("breadcrumbs.values.1.category").Errors)
	require.Equal(t, "third m...", ev.Breadcrumbs[1].Message)
	require.Equal(t, uint64(13), *em.Get("breadcrumbs.values.1.message").OriginalLength)
}

func TestDroppedElementKeepsPaths(t *testing.T) {
	var ev v7.Event
	em, err := lenient.Decode([]byte(`{"breadcrumbs": {"values": [false, {"message": "ok ok ok ok ok"}]}}`), &ev)
	require.NoError(t, err)
	o := opts()
	o.MaxMessageLength = 5
	normalize.Normalize(&ev, em, o)

	require.Len(t, ev.Breadcrumbs, 1)
	require.Equal(t, []string{"breadcrumbs.values", "breadcrumbs.values.0.message"}, em.Paths())
	require.Equal(t, []string{"element 0: unexpected boolean"}, em.Get("breadcrumbs.values").Errors)
	require.Empty(t, em.Get("breadcrumbs.values.0.message").Errors)
	require.Equal(t, "trimmed[2:5]", em.Get("breadcrumbs.values.0.message").Remarks[0].String())

	// A bare array uses the same paths as the wrapped form.
	var bare v7.Event
	em, err = lenient.Decode([]byte(`{"breadcrumbs": [false, {"message": "ok ok ok ok ok"}]}`), &bare)
	require.NoError(t, err)
	normalize.Normalize(&bare, em, o)
	require.Equal(t, []string{"breadcrumbs.values", "breadcrumbs.values.0.message"}, em.Paths())
}

func TestEmptyTagsRemoved(t *testing.T) {
	ev := &v7.Event{Tags: map[string]string{"host": "db1", "": "v", "empty": ""}}
	normalize.Normalize(ev, meta.EventMeta{}, opts())
	require.Equal(t, map[string]string{"host": "db1"}, ev.Tags)
}

func TestClockDrift(t *testing.T) {
	future := v7.NewTimestamp(fixedNow.Add(time.Hour))
	ev := &v7.Event{Timestamp: &future}
	em := meta.EventMeta{}
	normalize.Normalize(ev, em, opts())
	require.Equal(t, fixedNow, ev.Timestamp.Time())
	r := em.Get("timestamp").Remarks[0]
	require.Equal(t, normalize.RuleClockDrift, r.Rule)
	require.True(t, strings.Contains(r.Note, "1h0m0s"))

	slight := v7.NewTimestamp(fixedNow.Add(10 * time.Second))
	ev = &v7.Event{Timestamp: &slight}
	em = meta.EventMeta{}
	normalize.Normalize(ev, em, opts())
	require.Equal(t, slight, *ev.Timestamp)
	require.Empty(t, em.Paths())

	old := v7.NewTimestamp(fixedNow.Add(-40 * 24 * time.Hour))
	ev = &v7.Event{Timestamp: &old}
	em = meta.EventMeta{}
	normalize.Normalize(ev, em, opts())
	require.Equal(t, normalize.RulePastTimestamp, em.Get("timestamp").Remarks[0].Rule)
}
