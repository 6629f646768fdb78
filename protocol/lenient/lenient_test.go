package lenient_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sentrytypes/sentrytypes/protocol/annotated"
	"github.com/sentrytypes/sentrytypes/protocol/lenient"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	doc := `{
		"event_id": 42,
		"level": 5,
		"timestamp": "yesterday",
		"message": "hello",
		"breadcrumbs": {"values": [false, {"category": "ui"}]},
		"tags": {"a": "b", "n": 1},
		"user": {"id": "1", "plan": "pro"},
		"metadata": {
			"breadcrumbs.values.0": {"errors": ["original error"]}
		}
	}`
	var ev v7.Event
	em, err := lenient.Decode([]byte(doc), &ev)
	require.NoError(t, err)

	require.Equal(t, "hello", ev.Message)
	require.Nil(t, ev.ID)
	require.Nil(t, ev.Timestamp)
	require.Equal(t, v7.Level(""), ev.Level)
	require.Len(t, ev.Breadcrumbs, 1)
	require.Equal(t, "ui", ev.Breadcrumbs[0].Category)
	require.Equal(t, map[string]string{"a": "b"}, ev.Tags)
	require.Equal(t, v7.Map{"plan": "pro"}, ev.User.Other)

	require.Equal(t, []string{"breadcrumbs.values", "event_id", "level", "tags.n", "timestamp"}, em.Paths())
	crumbs := em.Get("breadcrumbs.values")
	require.Equal(t, []string{"element 0: original error", "element 0: unexpected boolean"}, crumbs.Errors)
	require.Equal(t, "invalid_element[0:1]", crumbs.Remarks[0].String())
	require.Equal(t, []string{"unexpected integer"}, em.Get("event_id").Errors)
	require.Equal(t, []string{"unexpected integer"}, em.Get("level").Errors)
	require.Equal(t, []string{"unexpected integer"}, em.Get("tags.n").Errors)
	require.Equal(t, []string{`invalid string: invalid timestamp "yesterday"`}, em.Get("timestamp").Errors)
}

func TestDecodeBareValues(t *testing.T) {
	var ev v7.Event
	em, err := lenient.Decode([]byte(`{"exception": [{"type": "E"}, "oops"]}`), &ev)
	require.NoError(t, err)
	require.Len(t, ev.Exception, 1)
	require.Equal(t, []string{"element 1: unexpected string"}, em.Get("exception.values").Errors)
	require.Nil(t, em.Get("exception.1"))
}

func TestDroppedElementsShiftPaths(t *testing.T) {
	doc := `{
		"exception": {"values": [
			"oops",
			{"type": "A", "thread_id": {"x": 1}},
			null,
			{"type": "B", "module": 5}
		]},
		"metadata": {
			"exception.values.1.type": {"errors": ["from client"]},
			"exception.values.3.module": {"errors": ["from client"]}
		}
	}`
	var ev v7.Event
	em, err := lenient.Decode([]byte(doc), &ev)
	require.NoError(t, err)

	require.Len(t, ev.Exception, 2)
	require.Equal(t, "A", ev.Exception[0].Type)
	require.Equal(t, "B", ev.Exception[1].Type)
	require.Equal(t, []string{
		"exception.values",
		"exception.values.0.thread_id",
		"exception.values.0.type",
		"exception.values.1.module",
	}, em.Paths())
	require.Equal(t, []string{"element 0: unexpected string"}, em.Get("exception.values").Errors)
	require.Len(t, em.Get("exception.values").Remarks, 2)
	require.Equal(t, []string{"unexpected object"}, em.Get("exception.values.0.thread_id").Errors)
	require.Equal(t, []string{"from client"}, em.Get("exception.values.0.type").Errors)
	require.Equal(t, []string{"from client", "unexpected integer"}, em.Get("exception.values.1.module").Errors)
}

func TestScalarTypesRejectContainers(t *testing.T) {
	doc := `{
		"timestamp": {"a": 1},
		"exception": [{"type": "E", "thread_id": [1]}],
		"breadcrumbs": [{"timestamp": [1], "message": "kept"}],
		"threads": [{"id": "main", "crashed": true}],
		"debug_meta": {"images": [{"type": "symbolic", "image_addr": {"hi": 1}, "id": "x"}]}
	}`
	var ev v7.Event
	em, err := lenient.Decode([]byte(doc), &ev)
	require.NoError(t, err)

	require.Nil(t, ev.Timestamp)
	require.Equal(t, []string{"unexpected object"}, em.Get("timestamp").Errors)
	require.Equal(t, []string{"unexpected array"}, em.Get("exception.values.0.thread_id").Errors)
	require.Equal(t, []string{"unexpected array"}, em.Get("breadcrumbs.values.0.timestamp").Errors)
	require.Equal(t, "kept", ev.Breadcrumbs[0].Message)
	require.Equal(t, []string{"unexpected object"}, em.Get("debug_meta.images.0.image_addr").Errors)
	require.Equal(t, "main", ev.Threads[0].ID.String)

	// A value of the right kind that does not parse keeps the parser's
	// message.
	em, err = lenient.Decode([]byte(`{"timestamp": "soon"}`), &ev)
	require.NoError(t, err)
	require.Equal(t, []string{`invalid string: invalid timestamp "soon"`}, em.Get("timestamp").Errors)
}

func TestDecodeContexts(t *testing.T) {
	doc := `{"contexts": {
		"os": {"name": "Linux", "rooted": "yes", "distro": "debian"},
		"browser": {"name": "Firefox"},
		"gpu": {"type": "gpu", "name": "Iris"},
		"primary": {"type": "device", "model": "x1", "battery_level": "full"},
		"broken": 3,
		"odd": {"type": 7, "version": "1"}
	}}`
	var ev v7.Event
	em, err := lenient.Decode([]byte(doc), &ev)
	require.NoError(t, err)

	require.Equal(t, []string{"browser", "gpu", "odd", "os", "primary"}, ev.Contexts.Names())
	osCtx, ok := ev.Contexts["os"].(*v7.OsContext)
	require.True(t, ok)
	require.Equal(t, "Linux", osCtx.Name)
	require.Nil(t, osCtx.Rooted)
	require.Equal(t, v7.Map{"distro": "debian"}, osCtx.Other)
	require.Equal(t, "Firefox", ev.Contexts["browser"].(*v7.BrowserContext).Name)
	require.Equal(t, &v7.OtherContext{Type: "gpu", Data: v7.Map{"name": "Iris"}}, ev.Contexts["gpu"])
	device, ok := ev.Contexts["primary"].(*v7.DeviceContext)
	require.True(t, ok)
	require.Equal(t, "x1", device.Model)
	require.Equal(t, "1", ev.Contexts["odd"].(*v7.OtherContext).Data["version"])

	require.Equal(t, []string{
		"contexts.broken",
		"contexts.odd.type",
		"contexts.os.rooted",
		"contexts.primary.battery_level",
	}, em.Paths())
	require.Equal(t, []string{"unexpected string"}, em.Get("contexts.os.rooted").Errors)
	require.Equal(t, []string{"unexpected string"}, em.Get("contexts.primary.battery_level").Errors)
	require.Equal(t, []string{"unexpected integer"}, em.Get("contexts.broken").Errors)
	require.Equal(t, []string{"unexpected integer"}, em.Get("contexts.odd.type").Errors)
}

func TestDecodeDebugImages(t *testing.T) {
	doc := `{"debug_meta": {"images": [
		{"type": "apple", "name": "libfoo", "image_addr": "0x1000", "image_size": "big", "uuid": "u"},
		false,
		{"type": "elf", "code_file": "/lib/a.so"},
		{"type": "proguard", "uuid": "p"}
	]}}`
	var ev v7.Event
	em, err := lenient.Decode([]byte(doc), &ev)
	require.NoError(t, err)

	images := ev.DebugMeta.Images
	require.Len(t, images, 3)
	apple, ok := images[0].(*v7.AppleDebugImage)
	require.True(t, ok)
	require.Equal(t, v7.Addr(0x1000), apple.ImageAddr)
	require.Zero(t, apple.ImageSize)
	require.Equal(t, &v7.OtherDebugImage{Type: "elf", Data: v7.Map{"code_file": "/lib/a.so"}}, images[1])
	require.Equal(t, "p", images[2].(*v7.ProguardDebugImage).UUID)

	require.Equal(t, []string{"debug_meta.images", "debug_meta.images.0.image_size"}, em.Paths())
	require.Equal(t, []string{"element 1: unexpected boolean"}, em.Get("debug_meta.images").Errors)
	require.Equal(t, []string{"unexpected string"}, em.Get("debug_meta.images.0.image_size").Errors)
}

func TestDecodeWrongRoot(t *testing.T) {
	var ev v7.Event
	em, err := lenient.Decode([]byte(`[1, 2]`), &ev)
	require.NoError(t, err)
	require.Equal(t, []string{"unexpected array"}, em.Get("").Errors)
}

func TestDecodeErrors(t *testing.T) {
	var ev v7.Event
	_, err := lenient.Decode([]byte(`{"message": `), &ev)
	require.ErrorIs(t, err, lenient.ErrInvalidJSON)

	_, err = lenient.Decode([]byte(`{}`), ev)
	require.ErrorIs(t, err, lenient.ErrNotAPointer)
}

type wrapped struct {
	Name  annotated.Annotated[string] `json:"name"`
	Count int                         `json:"count"`
}

func TestDecodeCollectsAnnotated(t *testing.T) {
	var w wrapped
	em, err := lenient.Decode([]byte(`{"name": true, "count": "x"}`), &w)
	require.NoError(t, err)
	require.Equal(t, []string{"unexpected boolean"}, em.Get("name").Errors)
	require.Equal(t, []string{"unexpected string"}, em.Get("count").Errors)
}

func TestValidDocumentMatchesStrictDecode(t *testing.T) {
	doc := []byte(`{
		"event_id": "864ee97977bf43ac96d74f7486d138ab",
		"level": "warning",
		"message": "disk full",
		"fingerprint": ["{{ default }}", "disk"],
		"platform": "go",
		"tags": {"host": "db1"},
		"user": {"id": "7", "email": "ops@example.com", "ip_address": "10.0.0.1"},
		"breadcrumbs": {"values": [{"category": "query", "message": "select 1"}]},
		"exception": {"values": [{"type": "IOError", "value": "no space left", "module": "os"}]},
		"contexts": {
			"os": {"name": "Linux", "distro": "debian"},
			"gpu": {"type": "gpu", "name": "Iris"},
			"primary": {"type": "device", "model": "x1"}
		},
		"debug_meta": {"images": [
			{"type": "symbolic", "name": "a.so", "image_addr": "0x10", "image_size": 4, "id": "i"},
			{"type": "elf", "code_file": "/lib/a.so"}
		]}
	}`)

	var strict, loose v7.Event
	require.NoError(t, json.Unmarshal(doc, &strict))
	em, err := lenient.Decode(doc, &loose)
	require.NoError(t, err)
	require.Empty(t, em)

	if diff := cmp.Diff(strict, loose, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("lenient decode differs from strict decode (-strict +lenient):\n%s", diff)
	}
}
