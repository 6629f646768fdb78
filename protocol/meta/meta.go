// Package meta holds the metadata that can be attached to any value of an
// event: processing errors, remarks about transformations, and the length a
// value had before it was trimmed.
package meta

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RemarkType says what happened to the remarked range of a value.
type RemarkType string

const (
	// Removed means the range was removed.
	Removed RemarkType = "x"
	// Substituted means the range was replaced.
	Substituted RemarkType = "s"
	// Annotated means the range was left as is and only annotated.
	Annotated RemarkType = "a"
)

// Remark is a note about a rule that was applied to a value, optionally
// restricted to a range of the value.
type Remark struct {
	Rule string     `json:"rule"`
	Type RemarkType `json:"type,omitempty"`
	Note string     `json:"note,omitempty"`
	From *int       `json:"from,omitempty"`
	To   *int       `json:"to,omitempty"`
}

// NewRemark returns a remark for rule that covers the whole value.
func NewRemark(rule string, typ RemarkType) Remark {
	return Remark{Rule: rule, Type: typ}
}

// WithRange returns a copy of r limited to [from, to).
func (r Remark) WithRange(from, to int) Remark {
	r.From = &from
	r.To = &to
	return r
}

func (r Remark) String() string {
	if r.From != nil && r.To != nil {
		return fmt.Sprintf("%s[%d:%d]", r.Rule, *r.From, *r.To)
	}
	return r.Rule
}

// ValueMeta is the metadata of a single value.
type ValueMeta struct {
	Errors         []string `json:"errors,omitempty"`
	Remarks        []Remark `json:"annotations,omitempty"`
	OriginalLength *uint64  `json:"original_length,omitempty"`
}

// IsEmpty returns true if the metadata holds nothing.
func (m *ValueMeta) IsEmpty() bool {
	return m == nil || (len(m.Errors) == 0 && len(m.Remarks) == 0 && m.OriginalLength == nil)
}

// AddError appends an error message.
func (m *ValueMeta) AddError(msg string) {
	m.Errors = append(m.Errors, msg)
}

// AddRemark appends a remark.
func (m *ValueMeta) AddRemark(r Remark) {
	m.Remarks = append(m.Remarks, r)
}

// SetOriginalLength records the length of a value before it was changed.
// Only the first recorded length is kept, since later changes work on an
// already shortened value.
func (m *ValueMeta) SetOriginalLength(n int) {
	if m.OriginalLength != nil {
		return
	}
	l := uint64(n)
	m.OriginalLength = &l
}

// Merge appends the errors and remarks of other to m.
func (m *ValueMeta) Merge(other ValueMeta) {
	m.Errors = append(m.Errors, other.Errors...)
	m.Remarks = append(m.Remarks, other.Remarks...)
	if m.OriginalLength == nil && other.OriginalLength != nil {
		l := *other.OriginalLength
		m.OriginalLength = &l
	}
}

// UnmarshalJSON accepts the keys written by this package as well as the
// short err, rem and len keys.
func (m *ValueMeta) UnmarshalJSON(data []byte) error {
	var aux struct {
		Err            []string `json:"err"`
		Errors         []string `json:"errors"`
		Rem            []Remark `json:"rem"`
		Annotations    []Remark `json:"annotations"`
		Len            *uint64  `json:"len"`
		OriginalLength *uint64  `json:"original_length"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = ValueMeta{
		Errors:  append(aux.Errors, aux.Err...),
		Remarks: append(aux.Annotations, aux.Rem...),
	}
	if aux.OriginalLength != nil {
		m.OriginalLength = aux.OriginalLength
	} else {
		m.OriginalLength = aux.Len
	}
	return nil
}

// EventMeta maps dotted value paths to the metadata of the value at that
// path. The root value is addressed by the empty path.
type EventMeta map[string]*ValueMeta

// Get returns the metadata at path, or nil.
func (em EventMeta) Get(path string) *ValueMeta {
	return em[path]
}

// At returns the metadata at path, creating it if needed.
func (em EventMeta) At(path string) *ValueMeta {
	vm, ok := em[path]
	if !ok {
		vm = &ValueMeta{}
		em[path] = vm
	}
	return vm
}

// AddError appends an error to the metadata at path.
func (em EventMeta) AddError(path, msg string) {
	em.At(path).AddError(msg)
}

// Add merges vm into the metadata at path.
func (em EventMeta) Add(path string, vm ValueMeta) {
	if vm.IsEmpty() {
		return
	}
	em.At(path).Merge(vm)
}

// Merge merges every entry of other into em. Entries of em come first.
func (em EventMeta) Merge(other EventMeta) {
	for path, vm := range other {
		if vm != nil {
			em.Add(path, *vm)
		}
	}
}

// Paths returns the paths that carry metadata, sorted.
func (em EventMeta) Paths() []string {
	paths := make([]string, 0, len(em))
	for path, vm := range em {
		if !vm.IsEmpty() {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// ErrorCount returns the total number of errors over all paths.
func (em EventMeta) ErrorCount() int {
	var n int
	for _, vm := range em {
		if vm != nil {
			n += len(vm.Errors)
		}
	}
	return n
}

// RemoveElements drops the metadata of the n elements starting at index i
// of the list at path list, and renumbers the metadata of the elements
// after them so it follows the elements to their new indexes.
func (em EventMeta) RemoveElements(list string, i, n int) {
	if n <= 0 {
		return
	}
	prefix := list + "."
	if list == "" {
		prefix = ""
	}
	moved := EventMeta{}
	for path, vm := range em {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		seg, tail, nested := strings.Cut(path[len(prefix):], ".")
		idx, err := strconv.ParseUint(seg, 10, 31)
		if err != nil || int(idx) < i {
			continue
		}
		delete(em, path)
		if int(idx) < i+n {
			continue
		}
		newPath := prefix + strconv.Itoa(int(idx)-n)
		if nested {
			newPath += "." + tail
		}
		moved[newPath] = vm
	}
	for path, vm := range moved {
		em[path] = vm
	}
}

// Compact removes entries that hold no metadata.
func (em EventMeta) Compact() {
	for path, vm := range em {
		if vm.IsEmpty() {
			delete(em, path)
		}
	}
}

// ParseMetadata extracts the top-level "metadata" object of a JSON payload.
// A payload without metadata gives an empty EventMeta.
func ParseMetadata(doc []byte) (EventMeta, error) {
	var helper struct {
		Metadata EventMeta `json:"metadata"`
	}
	if err := json.Unmarshal(doc, &helper); err != nil {
		return nil, fmt.Errorf("cannot read metadata: %w", err)
	}
	if helper.Metadata == nil {
		helper.Metadata = EventMeta{}
	}
	helper.Metadata.Compact()
	return helper.Metadata, nil
}
