package kernel

import (
	"fmt"
	"strconv"
	"strings"
)

// TagKind is how an iname is executed.
type TagKind int

const (
	// Sequential inames become counted loops.
	Sequential TagKind = iota
	// Unroll inames are expanded into one copy of the body per value.
	Unroll
	// LocalAxis inames map onto a local (work-item) hardware index.
	LocalAxis
	// GroupAxis inames map onto a group hardware index.
	GroupAxis
	// AutoLocalAxis marks an iname for automatic local-axis assignment. It
	// must be resolved to a LocalAxis before lowering.
	AutoLocalAxis
)

// Tag is the execution tag of one iname.
type Tag struct {
	Kind TagKind
	Axis int
}

// ParseTag parses the textual tag forms "seq", "unr", "l.N", "g.N" and
// "l.auto". The empty string means Sequential.
func ParseTag(s string) (Tag, error) {
	switch s = strings.TrimSpace(s); s {
	case "", "seq", "for":
		return Tag{Kind: Sequential}, nil
	case "unr", "unroll":
		return Tag{Kind: Unroll}, nil
	case "l.auto":
		return Tag{Kind: AutoLocalAxis}, nil
	}
	prefix, num, ok := strings.Cut(s, ".")
	if ok && (prefix == "l" || prefix == "g") {
		if axis, err := strconv.Atoi(num); err == nil && axis >= 0 {
			kind := LocalAxis
			if prefix == "g" {
				kind = GroupAxis
			}
			return Tag{Kind: kind, Axis: axis}, nil
		}
	}
	return Tag{}, fmt.Errorf("%w: %q", ErrUnknownTag, s)
}

// MustParseTag is like ParseTag but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// IsHardware reports whether the iname is mapped onto a hardware index
// rather than a software loop.
func (t Tag) IsHardware() bool {
	return t.Kind == LocalAxis || t.Kind == GroupAxis || t.Kind == AutoLocalAxis
}

// Key identifies the hardware axis; inames with equal keys share one axis.
// Software tags have an empty key.
func (t Tag) Key() string {
	if !t.IsHardware() {
		return ""
	}
	return t.String()
}

func (t Tag) String() string {
	switch t.Kind {
	case Sequential:
		return "seq"
	case Unroll:
		return "unr"
	case LocalAxis:
		return "l." + strconv.Itoa(t.Axis)
	case GroupAxis:
		return "g." + strconv.Itoa(t.Axis)
	case AutoLocalAxis:
		return "l.auto"
	}
	return fmt.Sprintf("tag(%d)", int(t.Kind))
}
