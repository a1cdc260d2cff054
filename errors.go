package geotape

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches exactly one of these
// through errors.Is.
var (
	// ErrInvalidOperation is returned when an operation kind is not one of
	// the seven geometric kinds.
	ErrInvalidOperation = errors.New("geotape: invalid operation")

	// ErrInvalidParameter is returned for wrongly typed, non-finite or
	// out-of-domain parameters.
	ErrInvalidParameter = errors.New("geotape: invalid parameter")

	// ErrDegenerateTransform is returned when a step would produce an empty
	// canvas or collapse the plane (zero scale).
	ErrDegenerateTransform = errors.New("geotape: degenerate transform")
)

// Code is a machine-readable error code for user-facing reporting.
type Code string

// Error codes.
const (
	CodeInvalidOperation    Code = "INVALID_OPERATION"
	CodeInvalidParameter    Code = "INVALID_PARAMETER"
	CodeDegenerateTransform Code = "DEGENERATE_TRANSFORM"
)

// InvalidOperationError reports an operation kind the builder cannot handle.
type InvalidOperationError struct {
	Kind Kind
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("geotape: invalid operation %q", string(e.Kind))
}

// Is matches ErrInvalidOperation.
func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// InvalidParameterError identifies the operation and parameter that failed
// validation or coercion.
type InvalidParameterError struct {
	Op     Kind
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	field := string(e.Op)
	if e.Param != "" {
		field += "." + e.Param
	}
	if e.Value == nil {
		return fmt.Sprintf("geotape: %s: %s", field, e.Reason)
	}
	return fmt.Sprintf("geotape: %s = %v: %s", field, e.Value, e.Reason)
}

// Is matches ErrInvalidParameter.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// DegenerateTransformError reports a step that yields a canvas with a
// non-positive dimension or a zero scale.
type DegenerateTransformError struct {
	Op     Kind
	Width  int
	Height int
	Reason string
}

func (e *DegenerateTransformError) Error() string {
	return fmt.Sprintf("geotape: %s: %s (canvas %dx%d)", e.Op, e.Reason, e.Width, e.Height)
}

// Is matches ErrDegenerateTransform.
func (e *DegenerateTransformError) Is(target error) bool {
	return target == ErrDegenerateTransform
}

// ErrorCode extracts the machine-readable code from err.
// Returns an empty code for errors that did not originate in geotape.
func ErrorCode(err error) Code {
	switch {
	case errors.Is(err, ErrInvalidOperation):
		return CodeInvalidOperation
	case errors.Is(err, ErrInvalidParameter):
		return CodeInvalidParameter
	case errors.Is(err, ErrDegenerateTransform):
		return CodeDegenerateTransform
	default:
		return ""
	}
}

func invalidParam(op Kind, param string, value any, format string, args ...any) error {
	return &InvalidParameterError{Op: op, Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

func degenerate(op Kind, w, h int, format string, args ...any) error {
	return &DegenerateTransformError{Op: op, Width: w, Height: h, Reason: fmt.Sprintf(format, args...)}
}
