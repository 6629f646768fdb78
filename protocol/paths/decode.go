package paths

import (
	"encoding/json"
	"reflect"

	"github.com/sentrytypes/sentrytypes/protocol/internal/jsonfield"
)

// IgnoredFunc receives the path of an object key that has no destination in
// the value being decoded.
type IgnoredFunc func(p Path)

// Decode unmarshals data into v with encoding/json and then reports the
// path of every object key that v has no field for. Values that decode
// themselves, maps and interfaces accept every key.
func Decode(data []byte, v any, onIgnored IgnoredFunc) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if onIgnored == nil {
		return nil
	}
	return findIgnored(Root, data, reflect.TypeOf(v), onIgnored)
}

// Ignored returns the paths of all keys in data that v has no field for.
func Ignored(data []byte, v any) ([]Path, error) {
	var ignored []Path
	err := Decode(data, v, func(p Path) {
		ignored = append(ignored, p)
	})
	return ignored, err
}

func findIgnored(p Path, raw json.RawMessage, t reflect.Type, onIgnored IgnoredFunc) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if len(raw) == 0 || jsonfield.HasCustomDecoding(t) {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		if raw[0] != '{' {
			return nil
		}
		fields := jsonfield.Of(t)
		return walkObject(p, raw, func(key string, val json.RawMessage) error {
			fld, ok := fields.Lookup(key)
			if !ok {
				if fields.Flatten == nil {
					onIgnored(p.Key(key))
				}
				return nil
			}
			return findIgnored(p.Key(key), val, fld.Type, onIgnored)
		})
	case reflect.Map:
		if raw[0] != '{' {
			return nil
		}
		return walkObject(p, raw, func(key string, val json.RawMessage) error {
			return findIgnored(p.Key(key), val, t.Elem(), onIgnored)
		})
	case reflect.Slice, reflect.Array:
		if raw[0] != '[' {
			return nil
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return err
		}
		for i, elem := range elems {
			if err := findIgnored(p.Index(i), elem, t.Elem(), onIgnored); err != nil {
				return err
			}
		}
	}
	return nil
}
