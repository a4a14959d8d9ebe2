package presburger

import (
	"slices"
	"strings"
)

// DimType is the role a name plays in a Space.
type DimType int

const (
	// Param is a symbolic parameter, fixed for the purposes of a query.
	Param DimType = iota
	// SetDim is a set dimension (a loop variable).
	SetDim
)

func (t DimType) String() string {
	if t == Param {
		return "param"
	}
	return "set"
}

// Space is an ordered list of parameter names and set-dimension names.
// A name occurs at most once across both lists.
type Space struct {
	params []string
	dims   []string
}

// NewSpace creates a space. Duplicate names keep their first occurrence.
func NewSpace(params, dims []string) Space {
	var s Space
	for _, p := range params {
		if !s.Has(p) {
			s.params = append(s.params, p)
		}
	}
	for _, d := range dims {
		if !s.Has(d) {
			s.dims = append(s.dims, d)
		}
	}
	return s
}

// Params returns the parameter names in order.
func (s Space) Params() []string { return slices.Clone(s.params) }

// Dims returns the set-dimension names in order.
func (s Space) Dims() []string { return slices.Clone(s.dims) }

// Names returns parameters followed by set dimensions.
func (s Space) Names() []string {
	return append(slices.Clone(s.params), s.dims...)
}

// Find reports the role and position of name.
func (s Space) Find(name string) (DimType, int, bool) {
	if i := slices.Index(s.params, name); i >= 0 {
		return Param, i, true
	}
	if i := slices.Index(s.dims, name); i >= 0 {
		return SetDim, i, true
	}
	return 0, 0, false
}

// Has reports whether name occurs in either role.
func (s Space) Has(name string) bool {
	_, _, ok := s.Find(name)
	return ok
}

// Equal reports whether both spaces list the same names in the same roles
// and order.
func (s Space) Equal(o Space) bool {
	return slices.Equal(s.params, o.params) && slices.Equal(s.dims, o.dims)
}

// ParamSpace returns the space holding only s's parameters.
func (s Space) ParamSpace() Space {
	return Space{params: slices.Clone(s.params)}
}

// MoveToParam moves a set dimension to the end of the parameter list.
// Names that are not set dimensions are left alone.
func (s Space) MoveToParam(name string) Space {
	i := slices.Index(s.dims, name)
	if i < 0 {
		return s
	}
	return Space{
		params: append(slices.Clone(s.params), name),
		dims:   slices.Delete(slices.Clone(s.dims), i, i+1),
	}
}

// MoveToSet moves a parameter to the end of the set-dimension list.
func (s Space) MoveToSet(name string) Space {
	i := slices.Index(s.params, name)
	if i < 0 {
		return s
	}
	return Space{
		params: slices.Delete(slices.Clone(s.params), i, i+1),
		dims:   append(slices.Clone(s.dims), name),
	}
}

// without drops names from either role.
func (s Space) without(names ...string) Space {
	keep := func(list []string) []string {
		var out []string
		for _, n := range list {
			if !slices.Contains(names, n) {
				out = append(out, n)
			}
		}
		return out
	}
	return Space{params: keep(s.params), dims: keep(s.dims)}
}

// union appends o's names that s lacks, keeping o's role for them.
func (s Space) union(o Space) Space {
	u := Space{params: slices.Clone(s.params), dims: slices.Clone(s.dims)}
	for _, p := range o.params {
		if !u.Has(p) {
			u.params = append(u.params, p)
		}
	}
	for _, d := range o.dims {
		if !u.Has(d) {
			u.dims = append(u.dims, d)
		}
	}
	return u
}

// withDims appends unknown names as set dimensions.
func (s Space) withDims(names ...string) Space {
	return s.union(Space{dims: names})
}

func (s Space) String() string {
	var b strings.Builder
	if len(s.params) > 0 {
		b.WriteString("[" + strings.Join(s.params, ", ") + "] -> ")
	}
	b.WriteString("{ [" + strings.Join(s.dims, ", ") + "] }")
	return b.String()
}
