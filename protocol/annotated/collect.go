package annotated

import (
	"reflect"
	"sort"

	"github.com/sentrytypes/sentrytypes/protocol/internal/jsonfield"
	"github.com/sentrytypes/sentrytypes/protocol/meta"
	"github.com/sentrytypes/sentrytypes/protocol/paths"
)

var metaCarrierType = reflect.TypeOf((*MetaCarrier)(nil)).Elem()

type visitFunc func(p paths.Path, vm *meta.ValueMeta)

// CollectMeta gathers the metadata of every Annotated value reachable from
// v, keyed by the JSON path of the value. v should be a pointer.
func CollectMeta(v any) meta.EventMeta {
	em := meta.EventMeta{}
	visit(reflect.ValueOf(v), paths.Root, func(p paths.Path, vm *meta.ValueMeta) {
		em.Add(p.MetaKey(), *vm)
	})
	return em
}

// AttachMeta merges the metadata in em into the Annotated values of v at
// the matching paths. Metadata already on a value is kept first. Paths in em
// that lead to no Annotated value are returned, sorted. v must be a pointer.
func AttachMeta(v any, em meta.EventMeta) []string {
	used := make(map[string]struct{}, len(em))
	visit(reflect.ValueOf(v), paths.Root, func(p paths.Path, vm *meta.ValueMeta) {
		key := p.MetaKey()
		if other := em.Get(key); other != nil {
			// Metadata from the payload comes before errors found while
			// decoding.
			merged := *other
			merged.Errors = append([]string(nil), other.Errors...)
			merged.Remarks = append([]meta.Remark(nil), other.Remarks...)
			merged.Merge(*vm)
			*vm = merged
			used[key] = struct{}{}
		}
	})
	var unused []string
	for key := range em {
		if _, ok := used[key]; !ok {
			unused = append(unused, key)
		}
	}
	sort.Strings(unused)
	return unused
}

func visit(v reflect.Value, p paths.Path, fn visitFunc) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		if v.Type().Implements(metaCarrierType) {
			carrier := v.Interface().(MetaCarrier)
			fn(p, carrier.ValueMeta())
			// Descend into the wrapped value, which is the Value field.
			visit(v.Elem().Field(0), p, fn)
			return
		}
		visit(v.Elem(), p, fn)
		return
	}

	switch v.Kind() {
	case reflect.Struct:
		if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(metaCarrierType) {
			visit(v.Addr(), p, fn)
			return
		}
		if !v.CanAddr() {
			return
		}
		fields := jsonfield.Of(v.Type())
		for _, fld := range fields.List {
			visit(jsonfield.FieldByIndex(v, fld.Index), p.Key(fld.Name), fn)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			visit(v.Index(i), p.Index(i), fn)
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			// Map values are not addressable, so work on a copy and store it
			// back.
			elem := reflect.New(v.Type().Elem()).Elem()
			elem.Set(iter.Value())
			visit(elem, p.Key(iter.Key().String()), fn)
			v.SetMapIndex(iter.Key(), elem)
		}
	case reflect.Interface:
		if !v.IsNil() {
			visit(v.Elem(), p, fn)
		}
	}
}
