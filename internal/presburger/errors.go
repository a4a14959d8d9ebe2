package presburger

import "errors"

var (
	// ErrSyntax reports a malformed textual set or expression.
	ErrSyntax = errors.New("presburger: syntax error")

	// ErrUnknownName reports a name that does not occur in the relevant space.
	ErrUnknownName = errors.New("presburger: unknown name")

	// ErrSpaceMismatch reports an alignment that would drop names.
	ErrSpaceMismatch = errors.New("presburger: space mismatch")

	// ErrUnbounded reports a dimension without a lower or upper bound.
	ErrUnbounded = errors.New("presburger: unbounded dimension")

	// ErrUnsupported reports a bound that needs a parametric floor or ceiling.
	ErrUnsupported = errors.New("presburger: unsupported non-unit bound")

	// ErrEmpty reports a query on an empty piecewise function.
	ErrEmpty = errors.New("presburger: empty piecewise function")

	// ErrNoStaticBound reports that no single piece bounds all others.
	ErrNoStaticBound = errors.New("presburger: no static bound")
)
