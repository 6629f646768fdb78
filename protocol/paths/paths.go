// Package paths tracks where a value sits inside a JSON document. Paths are
// rendered as dot separated segments, such as breadcrumbs.values.0, and are
// the keys under which value metadata is stored.
package paths

import (
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	rootSegment segmentKind = iota
	indexSegment
	keySegment
)

// Path is the location of a value in a document. Paths share their parents,
// so deriving a child path is cheap. The zero value is the root.
type Path struct {
	parent *Path
	kind   segmentKind
	index  int
	key    string
}

// Root is the path of the document itself.
var Root = Path{}

// Key returns the path of the value stored under key in the object at p.
func (p Path) Key(key string) Path {
	parent := p
	return Path{parent: &parent, kind: keySegment, key: key}
}

// Index returns the path of element i of the array at p.
func (p Path) Index(i int) Path {
	parent := p
	return Path{parent: &parent, kind: indexSegment, index: i}
}

// IsRoot returns true for the root path.
func (p Path) IsRoot() bool {
	return p.kind == rootSegment
}

// Depth returns the number of segments in the path.
func (p Path) Depth() int {
	var n int
	for cur := &p; cur != nil && cur.kind != rootSegment; cur = cur.parent {
		n++
	}
	return n
}

// Parent returns the path one level up. The parent of the root is the root.
func (p Path) Parent() Path {
	if p.parent == nil {
		return Root
	}
	return *p.parent
}

// Segments returns the rendered segments from the root down.
func (p Path) Segments() []string {
	segs := make([]string, p.Depth())
	i := len(segs) - 1
	for cur := &p; cur != nil && cur.kind != rootSegment; cur = cur.parent {
		segs[i] = cur.segment()
		i--
	}
	return segs
}

func (p *Path) segment() string {
	if p.kind == indexSegment {
		return strconv.Itoa(p.index)
	}
	return p.key
}

// String renders the path. The root is rendered as ".".
func (p Path) String() string {
	if p.IsRoot() {
		return "."
	}
	return strings.Join(p.Segments(), ".")
}

// MetaKey returns the key used for the path in event metadata. It is the
// same as String except that the root is the empty string.
func (p Path) MetaKey() string {
	if p.IsRoot() {
		return ""
	}
	return p.String()
}

// Parse splits a rendered path back into a Path. Segments made only of
// digits become array indexes.
func Parse(s string) Path {
	if s == "" || s == "." {
		return Root
	}
	p := Root
	for _, seg := range strings.Split(s, ".") {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && isDigits(seg) {
			p = p.Index(i)
		} else {
			p = p.Key(seg)
		}
	}
	return p
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
