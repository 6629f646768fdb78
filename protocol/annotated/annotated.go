// Package annotated provides a value wrapper that carries metadata and
// decodes leniently: a JSON value that does not fit the wrapped type is
// recorded as an error on the wrapper instead of failing the decode.
//
// The v7 event types do not use Annotated; they are decoded by the lenient
// package, which keeps metadata beside the event. Annotated is for callers
// that define their own types and want metadata stored on each value.
// lenient.Decode collects the metadata of Annotated values it meets.
package annotated

import (
	"bytes"
	"encoding/json"

	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/unexpected"
)

var null = []byte("null")

// Annotated is an optional value of type T together with its metadata.
type Annotated[T any] struct {
	Value *T
	Meta  meta.ValueMeta
}

// New returns an Annotated holding v.
func New[T any](v T) Annotated[T] {
	return Annotated[T]{Value: &v}
}

// FromError returns an Annotated without a value whose metadata holds msg.
func FromError[T any](msg string) Annotated[T] {
	return Annotated[T]{Meta: meta.ValueMeta{Errors: []string{msg}}}
}

// IsValid returns true if a value is set.
func (a Annotated[T]) IsValid() bool {
	return a.Value != nil
}

// Get returns the value and whether it was set.
func (a Annotated[T]) Get() (T, bool) {
	if a.Value == nil {
		var zero T
		return zero, false
	}
	return *a.Value, true
}

// GetOr returns the value, or def if it is not set.
func (a Annotated[T]) GetOr(def T) T {
	if a.Value == nil {
		return def
	}
	return *a.Value
}

// UnmarshalJSON decodes the value. JSON null leaves the value unset. A value
// that cannot be decoded into T leaves the value unset and records an
// "unexpected <kind>" error in the metadata. Value and metadata from an
// earlier decode are discarded.
func (a *Annotated[T]) UnmarshalJSON(data []byte) error {
	*a = Annotated[T]{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, null) {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		kind, cerr := unexpected.Classify(data)
		if cerr != nil {
			return cerr
		}
		a.Meta.AddError((&unexpected.Error{Kind: kind}).Error())
		return nil
	}
	a.Value = v
	return nil
}

// MarshalJSON writes the value, or null if it is not set. Metadata is not
// written inline; see CollectMeta.
func (a Annotated[T]) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return null, nil
	}
	return json.Marshal(a.Value)
}

// MetaCarrier is implemented by Annotated values so that metadata can be
// collected from a tree of values without knowing their types.
type MetaCarrier interface {
	ValueMeta() *meta.ValueMeta
}

// ValueMeta returns a pointer to the metadata of a.
func (a *Annotated[T]) ValueMeta() *meta.ValueMeta {
	return &a.Meta
}
