// Package jsonfield resolves the JSON object keys of Go struct types the way
// encoding/json does, so that decoders walking raw JSON can find the field a
// key belongs to.
package jsonfield

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Field is one JSON-visible field of a struct.
type Field struct {
	Name      string
	Index     []int
	Type      reflect.Type
	OmitEmpty bool
}

// Fields describes the JSON layout of a struct type.
type Fields struct {
	List []Field
	// Flatten is the index of a map[string]any field tagged
	// `sentry:"flatten"` that receives unknown keys, or nil.
	Flatten []int

	byName map[string]int
}

// Lookup returns the field for a JSON key. Like encoding/json it prefers an
// exact match and falls back to a case-insensitive one.
func (f *Fields) Lookup(key string) (Field, bool) {
	if i, ok := f.byName[key]; ok {
		return f.List[i], true
	}
	for _, fld := range f.List {
		if strings.EqualFold(fld.Name, key) {
			return fld, true
		}
	}
	return Field{}, false
}

var cache sync.Map // map[reflect.Type]*Fields

// Of returns the fields of struct type t.
func Of(t reflect.Type) *Fields {
	if f, ok := cache.Load(t); ok {
		return f.(*Fields)
	}
	f := &Fields{byName: make(map[string]int)}
	collect(t, nil, f)
	actual, _ := cache.LoadOrStore(t, f)
	return actual.(*Fields)
}

func collect(t reflect.Type, index []int, f *Fields) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(append([]int(nil), index...), i)

		if sf.Tag.Get("sentry") == "flatten" {
			f.Flatten = idx
			continue
		}

		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collect(ft, idx, f)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, dup := f.byName[name]; dup {
			continue
		}
		f.byName[name] = len(f.List)
		f.List = append(f.List, Field{
			Name:      name,
			Index:     idx,
			Type:      sf.Type,
			OmitEmpty: strings.Contains(opts, "omitempty"),
		})
	}
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// HasCustomDecoding returns true if values of t decode themselves through
// json.Unmarshaler or encoding.TextUnmarshaler.
func HasCustomDecoding(t reflect.Type) bool {
	if t.Implements(jsonUnmarshalerType) || t.Implements(textUnmarshalerType) {
		return true
	}
	pt := reflect.PointerTo(t)
	return pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

// FieldByIndex returns the field of v at index, allocating nil embedded
// pointers on the way.
func FieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

var scalarCache sync.Map // map[reflect.Type]bool

// EncodesAsScalar returns true if the zero value of t encodes as a JSON
// string, number or boolean. Values of such types are never written as
// objects or arrays.
func EncodesAsScalar(t reflect.Type) bool {
	if scalar, ok := scalarCache.Load(t); ok {
		return scalar.(bool)
	}
	var scalar bool
	if data, err := json.Marshal(reflect.New(t).Interface()); err == nil {
		data = bytes.TrimSpace(data)
		if len(data) != 0 {
			switch c := data[0]; {
			case c == '"', c == 't', c == 'f', c == '-', c >= '0' && c <= '9':
				scalar = true
			}
		}
	}
	scalarCache.Store(t, scalar)
	return scalar
}
