package codegen

import (
	"errors"
	"fmt"
	"strings"
)

// LoweringError is a configuration error that aborts code generation for
// the whole kernel. None of these are transient; the kernel description has
// to change.
type LoweringError struct {
	// Code identifies the error category.
	Code LoweringErrorCode

	// Message is a human-readable description.
	Message string

	// Iname is the offending loop dimension.
	Iname string

	// Axis is the hardware axis key, for hardware errors.
	Axis string

	// Err is the underlying algebra error, if any.
	Err error
}

// LoweringErrorCode categorizes lowering errors.
type LoweringErrorCode string

const (
	// ErrCodeNonConstantTripCount indicates an unrolled iname whose length
	// is not a compile-time constant.
	ErrCodeNonConstantTripCount LoweringErrorCode = "NON_CONSTANT_TRIP_COUNT"

	// ErrCodeAmbiguousPiecewiseBound indicates a bound with several pieces
	// where a single formula is required.
	ErrCodeAmbiguousPiecewiseBound LoweringErrorCode = "AMBIGUOUS_PIECEWISE_BOUND"

	// ErrCodeUnknownHardwareTag indicates a hardware tag the lowerer cannot
	// map onto an axis.
	ErrCodeUnknownHardwareTag LoweringErrorCode = "UNKNOWN_HARDWARE_TAG"

	// ErrCodeAmbiguousSharedHardwareAxis indicates several inames on one
	// hardware axis while that axis is split into slabs.
	ErrCodeAmbiguousSharedHardwareAxis LoweringErrorCode = "AMBIGUOUS_SHARED_HARDWARE_AXIS"
)

// Error implements the error interface.
func (e *LoweringError) Error() string {
	var ctx []string
	if e.Iname != "" {
		ctx = append(ctx, "iname="+e.Iname)
	}
	if e.Axis != "" {
		ctx = append(ctx, "axis="+e.Axis)
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying algebra error.
func (e *LoweringError) Unwrap() error { return e.Err }

func hasCode(err error, code LoweringErrorCode) bool {
	var le *LoweringError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsNonConstantTripCount reports whether err is a NON_CONSTANT_TRIP_COUNT
// lowering error. Uses errors.As to handle wrapped errors.
func IsNonConstantTripCount(err error) bool { return hasCode(err, ErrCodeNonConstantTripCount) }

// IsAmbiguousPiecewiseBound reports whether err is an
// AMBIGUOUS_PIECEWISE_BOUND lowering error.
func IsAmbiguousPiecewiseBound(err error) bool { return hasCode(err, ErrCodeAmbiguousPiecewiseBound) }

// IsUnknownHardwareTag reports whether err is an UNKNOWN_HARDWARE_TAG
// lowering error.
func IsUnknownHardwareTag(err error) bool { return hasCode(err, ErrCodeUnknownHardwareTag) }

// IsAmbiguousSharedHardwareAxis reports whether err is an
// AMBIGUOUS_SHARED_HARDWARE_AXIS lowering error.
func IsAmbiguousSharedHardwareAxis(err error) bool {
	return hasCode(err, ErrCodeAmbiguousSharedHardwareAxis)
}

// NewNonConstantTripCountError creates a LoweringError for an unroll length
// that is not constant.
func NewNonConstantTripCountError(iname string, cause error) *LoweringError {
	return &LoweringError{
		Code:    ErrCodeNonConstantTripCount,
		Message: "length of unrolled loop is not constant",
		Iname:   iname,
		Err:     cause,
	}
}

// NewAmbiguousPiecewiseBoundError creates a LoweringError for a bound that
// does not reduce to one piece.
func NewAmbiguousPiecewiseBoundError(iname, which string, cause error) *LoweringError {
	return &LoweringError{
		Code:    ErrCodeAmbiguousPiecewiseBound,
		Message: which + " bound is piecewise with no single representative",
		Iname:   iname,
		Err:     cause,
	}
}

// NewUnknownHardwareTagError creates a LoweringError for a hardware tag that
// has no axis size.
func NewUnknownHardwareTagError(iname, tag string) *LoweringError {
	return &LoweringError{
		Code:    ErrCodeUnknownHardwareTag,
		Message: fmt.Sprintf("unknown hardware parallel tag %q", tag),
		Iname:   iname,
		Axis:    tag,
	}
}

// NewAmbiguousSharedHardwareAxisError creates a LoweringError for a split
// hardware axis shared with other inames.
func NewAmbiguousSharedHardwareAxisError(iname, axis string, others []string) *LoweringError {
	return &LoweringError{
		Code: ErrCodeAmbiguousSharedHardwareAxis,
		Message: fmt.Sprintf("cannot decompose into slabs while sharing the axis with %s",
			strings.Join(others, ", ")),
		Iname: iname,
		Axis:  axis,
	}
}
