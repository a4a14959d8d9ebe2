package kernel

import "errors"

var (
	// ErrUnknownIname is returned when a name is not a set dimension of any
	// domain of the kernel.
	ErrUnknownIname = errors.New("unknown iname")

	// ErrUnknownTag is returned by ParseTag for unrecognized tag text.
	ErrUnknownTag = errors.New("unknown iname tag")

	// ErrGridSize is returned when hardware axis sizes cannot be derived.
	ErrGridSize = errors.New("cannot determine grid size")
)
