// Package lenient decodes JSON into Go values without failing on values of
// the wrong type. Such values are skipped and the problem is recorded in
// the returned metadata at the path of the value.
package lenient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/sentrytypes/sentrytypes/protocol/annotated"
	"github.com/sentrytypes/sentrytypes/protocol/internal/jsonfield"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/paths"
	"github.com/sentrytypes/sentrytypes/protocol/unexpected"
)

// metadataKey is the top-level key that carries metadata in a payload.
const metadataKey = "metadata"

// RuleInvalidElement marks list elements that were removed because they
// could not be decoded. The remark range holds the element's index in the
// payload.
const RuleInvalidElement = "invalid_element"

var (
	ErrInvalidJSON = errors.New("invalid json")
	ErrNotAPointer = errors.New("destination must be a non-nil pointer")

	null             = []byte("null")
	reshaperType     = reflect.TypeOf((*Reshaper)(nil)).Elem()
	unionType        = reflect.TypeOf((*Union)(nil)).Elem()
	flattenValueType = reflect.TypeOf((*any)(nil)).Elem()
)

// Reshaper is implemented by types whose JSON form wraps the value that is
// actually decoded, such as a list written as {"values": [...]}. The
// returned key is the object key the inner value lives under and becomes
// part of the paths of the inner values.
type Reshaper interface {
	ReshapeJSON(raw json.RawMessage) (json.RawMessage, string)
}

// Union is implemented by maps and slices whose elements are interfaces
// holding one of several struct types. Each element is a JSON object that
// names its type under a tag key.
type Union interface {
	// UnionTag returns the object key that names the element type.
	UnionTag() string
	// NewElement returns a pointer to an empty element of type typ. In a
	// map, typ is the element's key when the object has no tag.
	NewElement(typ string) any
}

// Decode decodes data into v, which must be a non-nil pointer. Metadata in
// the top-level "metadata" object of data comes first in the result,
// followed by the problems found while decoding. Only a document that is
// not valid JSON is an error.
func Decode(data []byte, v any) (meta.EventMeta, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, ErrNotAPointer
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}

	em := meta.EventMeta{}
	if len(data) != 0 && data[0] == '{' {
		payload, err := meta.ParseMetadata(data)
		if err != nil {
			return nil, err
		}
		em = payload
	}

	d := &decoder{em: em}
	d.decode(paths.Root, data, rv.Elem())
	em.Merge(annotated.CollectMeta(v))
	em.Compact()
	return em, nil
}

type decoder struct {
	em meta.EventMeta
}

func (d *decoder) unexpected(p paths.Path, raw json.RawMessage) {
	d.em.AddError(p.MetaKey(), unexpected.Of(raw).Error())
}

// decode fills v from raw and reports whether a value was stored.
func (d *decoder) decode(p paths.Path, raw json.RawMessage, v reflect.Value) bool {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, null) {
		v.Set(reflect.Zero(v.Type()))
		return false
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		if !d.decode(p, raw, v.Elem()) {
			v.Set(reflect.Zero(v.Type()))
			return false
		}
		return true
	}

	t := v.Type()
	if v.CanAddr() && v.Addr().Type().Implements(unionType) {
		return d.decodeUnion(p, raw, v, v.Addr().Interface().(Union))
	}
	if v.CanAddr() && v.Addr().Type().Implements(reshaperType) {
		// The inner key is part of the path whether or not the payload
		// used the wrapped form, so paths do not depend on the form.
		inner, key := v.Addr().Interface().(Reshaper).ReshapeJSON(raw)
		if key != "" {
			p = p.Key(key)
		}
		return d.decodeSlice(p, bytes.TrimSpace(inner), v, d.decode)
	}
	if t.Kind() == reflect.Struct && jsonfield.Of(t).Flatten != nil {
		return d.decodeStruct(p, raw, v, "")
	}
	if jsonfield.HasCustomDecoding(t) {
		return d.decodeCustom(p, raw, v)
	}

	switch t.Kind() {
	case reflect.Struct:
		return d.decodeStruct(p, raw, v, "")
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return d.decodeCustom(p, raw, v)
		}
		return d.decodeMap(p, raw, v)
	case reflect.Slice:
		return d.decodeSlice(p, raw, v, d.decode)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			d.unexpected(p, raw)
			return false
		}
	}
	return d.decodeCustom(p, raw, v)
}

// decodeCustom hands raw to encoding/json, which also runs the value's own
// decoding methods. Objects and arrays are not offered to types whose JSON
// form is a string, number or boolean.
func (d *decoder) decodeCustom(p paths.Path, raw json.RawMessage, v reflect.Value) bool {
	kind := unexpected.KindOf(raw)
	if (kind == unexpected.Object || kind == unexpected.Array) && jsonfield.EncodesAsScalar(v.Type()) {
		d.unexpected(p, raw)
		return false
	}

	target := reflect.New(v.Type())
	err := json.Unmarshal(raw, target.Interface())
	if err == nil {
		v.Set(target.Elem())
		return true
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr), kind == unexpected.Boolean, kind == unexpected.Null:
		d.unexpected(p, raw)
	default:
		d.em.AddError(p.MetaKey(), fmt.Sprintf("invalid %s: %s", kind, err))
	}
	return false
}

// decodeStruct fills the fields of v from the members of the object raw.
// The member named skip, if any, is not decoded.
func (d *decoder) decodeStruct(p paths.Path, raw json.RawMessage, v reflect.Value, skip string) bool {
	keys, vals, err := paths.Members(raw)
	if err != nil {
		d.unexpected(p, raw)
		return false
	}
	fields := jsonfield.Of(v.Type())
	var other reflect.Value
	if fields.Flatten != nil {
		other = jsonfield.FieldByIndex(v, fields.Flatten)
	}
	for i, key := range keys {
		if skip != "" && key == skip {
			continue
		}
		fld, ok := fields.Lookup(key)
		if ok {
			d.decode(p.Key(fld.Name), vals[i], jsonfield.FieldByIndex(v, fld.Index))
			continue
		}
		if p.IsRoot() && key == metadataKey {
			continue
		}
		if !other.IsValid() || other.Kind() != reflect.Map {
			continue
		}
		elem := reflect.New(flattenValueType)
		if err := json.Unmarshal(vals[i], elem.Interface()); err != nil {
			continue
		}
		if other.IsNil() {
			other.Set(reflect.MakeMap(other.Type()))
		}
		other.SetMapIndex(reflect.ValueOf(key), elem.Elem().Convert(other.Type().Elem()))
	}
	return true
}

func (d *decoder) decodeMap(p paths.Path, raw json.RawMessage, v reflect.Value) bool {
	keys, vals, err := paths.Members(raw)
	if err != nil {
		d.unexpected(p, raw)
		return false
	}
	t := v.Type()
	if v.IsNil() {
		v.Set(reflect.MakeMapWithSize(t, len(keys)))
	}
	for i, key := range keys {
		elem := reflect.New(t.Elem()).Elem()
		if d.decode(p.Key(key), vals[i], elem) {
			v.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
		}
	}
	return true
}

type elemDecoder func(p paths.Path, raw json.RawMessage, v reflect.Value) bool

// decodeSlice drops elements that cannot be decoded. Each element is
// decoded at the index it will have in the result, and the metadata of a
// dropped element is moved to the list, so metadata keeps pointing at the
// value it belongs to.
func (d *decoder) decodeSlice(p paths.Path, raw json.RawMessage, v reflect.Value, decodeElem elemDecoder) bool {
	if len(raw) == 0 || raw[0] != '[' {
		d.unexpected(p, raw)
		return false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		d.unexpected(p, raw)
		return false
	}
	t := v.Type()
	out := reflect.MakeSlice(t, 0, len(elems))
	for i, elemRaw := range elems {
		k := out.Len()
		elem := reflect.New(t.Elem()).Elem()
		if decodeElem(p.Index(k), elemRaw, elem) {
			out = reflect.Append(out, elem)
			continue
		}
		d.dropElement(p, i, k)
	}
	v.Set(out)
	return true
}

// dropElement records on the list at p that element i of the payload was
// removed. Metadata at its slot k is folded into the list's metadata and
// the metadata of the elements after it moves down one index.
func (d *decoder) dropElement(p paths.Path, i, k int) {
	listKey := p.MetaKey()
	list := d.em.At(listKey)
	if vm := d.em.Get(p.Index(k).MetaKey()); vm != nil {
		for _, msg := range vm.Errors {
			list.AddError(fmt.Sprintf("element %d: %s", i, msg))
		}
	}
	list.AddRemark(meta.NewRemark(RuleInvalidElement, meta.Removed).WithRange(i, i+1))
	d.em.RemoveElements(listKey, k, 1)
}

func (d *decoder) decodeUnion(p paths.Path, raw json.RawMessage, v reflect.Value, u Union) bool {
	t := v.Type()
	switch t.Kind() {
	case reflect.Slice:
		return d.decodeSlice(p, raw, v, func(ep paths.Path, elemRaw json.RawMessage, elem reflect.Value) bool {
			return d.decodeVariant(ep, "", elemRaw, elem, u)
		})
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		keys, vals, err := paths.Members(raw)
		if err != nil {
			d.unexpected(p, raw)
			return false
		}
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(t, len(keys)))
		}
		for i, key := range keys {
			elem := reflect.New(t.Elem()).Elem()
			if d.decodeVariant(p.Key(key), key, vals[i], elem, u) {
				v.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
			}
		}
		return true
	}
	return d.decodeCustom(p, raw, v)
}

// decodeVariant decodes one union element into v. defaultType is used
// when the object has no usable tag.
func (d *decoder) decodeVariant(p paths.Path, defaultType string, raw json.RawMessage, v reflect.Value, u Union) bool {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, null) {
		return false
	}
	keys, vals, err := paths.Members(raw)
	if err != nil {
		d.unexpected(p, raw)
		return false
	}
	tag := u.UnionTag()
	typ := defaultType
	var badTag json.RawMessage
	for i, key := range keys {
		if key != tag {
			continue
		}
		var s string
		if err := json.Unmarshal(vals[i], &s); err != nil {
			badTag = vals[i]
		} else if s != "" {
			typ = s
		}
	}

	ptr := reflect.ValueOf(u.NewElement(typ))
	if !ptr.IsValid() || ptr.Kind() != reflect.Pointer || ptr.IsNil() ||
		ptr.Elem().Kind() != reflect.Struct || !ptr.Type().AssignableTo(v.Type()) {
		d.unexpected(p, raw)
		return false
	}
	if badTag != nil {
		d.unexpected(p.Key(tag), badTag)
	}
	d.decodeStruct(p, raw, ptr.Elem(), tag)
	v.Set(ptr)
	return true
}
