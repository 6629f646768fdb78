package paths

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SkipChildren may be returned by a WalkFunc to stop the walk from
// descending into the current array or object.
var SkipChildren = errors.New("skip children")

var ErrNotObject = errors.New("not a json object")

// WalkFunc is called for every value visited by Walk with the value's path
// and raw JSON.
type WalkFunc func(p Path, raw json.RawMessage) error

// Walk visits every value of the JSON document in data, depth first and in
// document order, starting with the document itself.
func Walk(data []byte, fn WalkFunc) error {
	return walk(Root, json.RawMessage(bytes.TrimSpace(data)), fn)
}

func walk(p Path, raw json.RawMessage, fn WalkFunc) error {
	err := fn(p, raw)
	if err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err = json.Unmarshal(raw, &elems); err != nil {
			return fmt.Errorf("at %s: %w", p, err)
		}
		for i, elem := range elems {
			if err = walk(p.Index(i), elem, fn); err != nil {
				return err
			}
		}
	case '{':
		return walkObject(p, raw, func(key string, val json.RawMessage) error {
			return walk(p.Key(key), val, fn)
		})
	}
	return nil
}

// walkObject calls fn for each member of the JSON object in raw, in document
// order.
func walkObject(p Path, raw json.RawMessage, fn func(key string, val json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("at %s: %w", p, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("at %s: %w", p, ErrNotObject)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("at %s: %w", p, err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("at %s: non-string key", p)
		}
		var val json.RawMessage
		if err = dec.Decode(&val); err != nil {
			return fmt.Errorf("at %s: %w", p.Key(key), err)
		}
		if err = fn(key, val); err != nil {
			return err
		}
	}
	return nil
}

// Members returns the members of a JSON object in document order.
func Members(raw []byte) ([]string, []json.RawMessage, error) {
	var keys []string
	var vals []json.RawMessage
	err := walkObject(Root, raw, func(key string, val json.RawMessage) error {
		keys = append(keys, key)
		vals = append(vals, val)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return keys, vals, nil
}
