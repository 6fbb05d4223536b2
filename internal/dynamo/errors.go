package dynamo

import "errors"

// Domain errors for scenario validation.
var (
	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidValue indicates a NaN or Inf parameter.
	ErrInvalidValue = errors.New("dynamo: invalid value (NaN or Inf detected)")
)

// ParameterError wraps a validation failure with the offending field.
type ParameterError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ParameterError) Error() string {
	return e.Wrapped.Error() + ": " + e.Field
}

func (e *ParameterError) Unwrap() error {
	return e.Wrapped
}
