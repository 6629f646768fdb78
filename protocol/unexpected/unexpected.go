// Package unexpected classifies JSON values by type so that a value of the
// wrong type can be reported instead of failing the whole document.
package unexpected

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Kind names the JSON type of a value.
type Kind string

const (
	Boolean Kind = "boolean"
	Integer Kind = "integer"
	Float   Kind = "float"
	String  Kind = "string"
	Null    Kind = "null"
	Array   Kind = "array"
	Object  Kind = "object"
)

var ErrEmpty = errors.New("no json value")

// Error reports a value of an unexpected JSON type.
type Error struct {
	Kind Kind
}

func (e *Error) Error() string {
	return "unexpected " + string(e.Kind)
}

// Classify returns the Kind of the single JSON value in raw. Nested arrays
// and objects are read completely so that malformed content is an error.
func Classify(raw []byte) (Kind, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	kind, err := classifyNext(dec)
	if err != nil {
		return "", err
	}
	if _, err = dec.Token(); err != io.EOF {
		if err == nil {
			return "", errors.New("trailing data after json value")
		}
		return "", err
	}
	return kind, nil
}

// KindOf is like Classify but reports malformed input as Null. It is
// for values already validated by a json decoder.
func KindOf(raw []byte) Kind {
	kind, err := Classify(raw)
	if err != nil {
		return Null
	}
	return kind
}

// Of returns an *Error for the kind of raw.
func Of(raw []byte) *Error {
	return &Error{Kind: KindOf(raw)}
}

func classifyNext(dec *json.Decoder) (Kind, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return "", ErrEmpty
		}
		return "", err
	}
	switch v := tok.(type) {
	case bool:
		return Boolean, nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return Integer, nil
		}
		if isIntegral(string(v)) {
			return Integer, nil
		}
		return Float, nil
	case string:
		return String, nil
	case nil:
		return Null, nil
	case json.Delim:
		switch v {
		case '[':
			for dec.More() {
				if _, err = classifyNext(dec); err != nil {
					return "", err
				}
			}
			if _, err = dec.Token(); err != nil {
				return "", err
			}
			return Array, nil
		case '{':
			for dec.More() {
				// Key.
				if _, err = dec.Token(); err != nil {
					return "", err
				}
				if _, err = classifyNext(dec); err != nil {
					return "", err
				}
			}
			if _, err = dec.Token(); err != nil {
				return "", err
			}
			return Object, nil
		}
	}
	return "", errors.New("unexpected json token")
}

// isIntegral reports whether a JSON number literal has no fraction or
// exponent, such as an integer too large for int64.
func isIntegral(num string) bool {
	for i := 0; i < len(num); i++ {
		switch num[i] {
		case '.', 'e', 'E':
			return false
		}
	}
	return true
}
