package annotated_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sentrytypes/sentrytypes/protocol/annotated"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/stretchr/testify/require"
)

type values[T any] struct {
	Values []T `json:"values"`
}

type breadcrumb struct {
	Timestamp annotated.Annotated[time.Time] `json:"timestamp"`
	Type      annotated.Annotated[string]    `json:"type"`
	Category  annotated.Annotated[string]    `json:"category"`
}

type event struct {
	ID          annotated.Annotated[uuid.UUID]                                  `json:"event_id"`
	Breadcrumbs annotated.Annotated[values[annotated.Annotated[breadcrumb]]] `json:"breadcrumbs"`
	Tags        map[string]annotated.Annotated[string]                          `json:"tags"`
}

func decodeEvent(t *testing.T, doc string) annotated.Annotated[event] {
	var ev annotated.Annotated[event]
	require.NoError(t, json.Unmarshal([]byte(doc), &ev))
	return ev
}

func TestValidEvent(t *testing.T) {
	ev := decodeEvent(t, `{
		"event_id": "864ee97977bf43ac96d74f7486d138ab",
		"breadcrumbs": {"values":[{"timestamp": "2018-02-08T12:52:12Z"}]}
	}`)
	require.Empty(t, ev.Meta.Errors)
	require.True(t, ev.IsValid())

	e, _ := ev.Get()
	require.Equal(t, "864ee979-77bf-43ac-96d7-4f7486d138ab", e.ID.Value.String())
	crumbs := e.Breadcrumbs.Value.Values
	require.Len(t, crumbs, 1)
	ts, ok := crumbs[0].Value.Timestamp.Get()
	require.True(t, ok)
	require.Equal(t, int64(1518094332), ts.Unix())
	require.False(t, crumbs[0].Value.Type.IsValid())
	require.Equal(t, "default", crumbs[0].Value.Type.GetOr("default"))
}

func TestUnexpectedBreadcrumb(t *testing.T) {
	ev := decodeEvent(t, `{
		"event_id": "864ee97977bf43ac96d74f7486d138ab",
		"breadcrumbs": {"values":[false]}
	}`)
	crumb := ev.Value.Breadcrumbs.Value.Values[0]
	require.False(t, crumb.IsValid())
	require.Equal(t, []string{"unexpected boolean"}, crumb.Meta.Errors)
}

func TestUnexpectedEventID(t *testing.T) {
	ev := decodeEvent(t, `{
		"event_id": 42,
		"breadcrumbs": {"values":[{"timestamp": "2018-02-08T12:52:12Z"}]}
	}`)
	require.Equal(t, []string{"unexpected integer"}, ev.Value.ID.Meta.Errors)
	require.False(t, ev.Value.ID.IsValid())
	require.Len(t, ev.Value.Breadcrumbs.Value.Values, 1)
}

func TestNullIsUnset(t *testing.T) {
	ev := decodeEvent(t, `{"event_id": null}`)
	require.False(t, ev.Value.ID.IsValid())
	require.Empty(t, ev.Value.ID.Meta.Errors)
}

func TestReuseClearsMeta(t *testing.T) {
	var a annotated.Annotated[int]
	require.NoError(t, json.Unmarshal([]byte(`"x"`), &a))
	require.Equal(t, []string{"unexpected string"}, a.Meta.Errors)

	require.NoError(t, json.Unmarshal([]byte(`5`), &a))
	require.Empty(t, a.Meta.Errors)
	require.Equal(t, 5, a.GetOr(0))

	require.NoError(t, json.Unmarshal([]byte(`true`), &a))
	require.Equal(t, []string{"unexpected boolean"}, a.Meta.Errors)
	require.False(t, a.IsValid())
}

func TestMalformedJSON(t *testing.T) {
	var a annotated.Annotated[string]
	require.Error(t, a.UnmarshalJSON([]byte(`{"a":`)))
}

func TestMarshal(t *testing.T) {
	ev := annotated.New(event{
		ID: annotated.New(uuid.MustParse("864ee979-77bf-43ac-96d7-4f7486d138ab")),
	})
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.JSONEq(t, `{"event_id":"864ee979-77bf-43ac-96d7-4f7486d138ab","breadcrumbs":null,"tags":null}`, string(data))

	data, err = json.Marshal(annotated.FromError[int]("broken"))
	require.NoError(t, err)
	require.Equal(t, "null", string(data))
}

func TestCollectAndAttachMeta(t *testing.T) {
	doc := `{
		"event_id": "864ee97977bf43ac96d74f7486d138ab",
		"breadcrumbs": {"values":[false]},
		"tags": {"good": "x", "bad": 1},
		"metadata": {
			"breadcrumbs.values.0": {
				"errors": ["original error"]
			},
			"nowhere": {"errors": ["lost"]}
		}
	}`
	ev := decodeEvent(t, doc)
	payloadMeta, err := meta.ParseMetadata([]byte(doc))
	require.NoError(t, err)

	unused := annotated.AttachMeta(&ev, payloadMeta)
	require.Equal(t, []string{"nowhere"}, unused)
	require.Equal(t, []string{"original error", "unexpected boolean"},
		ev.Value.Breadcrumbs.Value.Values[0].Meta.Errors)

	collected := annotated.CollectMeta(&ev)
	require.Equal(t, []string{"breadcrumbs.values.0", "tags.bad"}, collected.Paths())
	require.Equal(t, []string{"unexpected integer"}, collected.Get("tags.bad").Errors)
}
