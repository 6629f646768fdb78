package v7

import (
	"encoding/json"
	"reflect"

	"github.com/sentrytypes/sentrytypes/protocol/internal/jsonfield"
)

// marshalFlattened writes known as an object and adds the entries of other
// whose keys known does not already use.
func marshalFlattened(known any, other Map) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil || len(other) == 0 {
		return data, err
	}
	var obj map[string]json.RawMessage
	if err = json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for k, v := range other {
		if _, ok := obj[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		obj[k] = raw
	}
	return json.Marshal(obj)
}

// unmarshalFlattened decodes data into known, which must be a pointer to a
// struct, and returns the keys that no field of known accepts.
func unmarshalFlattened(data []byte, known any) (Map, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	fields := jsonfield.Of(reflect.TypeOf(known).Elem())
	var other Map
	for k, raw := range obj {
		if _, ok := fields.Lookup(k); ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if other == nil {
			other = Map{}
		}
		other[k] = v
	}
	return other, nil
}
