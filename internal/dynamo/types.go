package dynamo

import (
	"fmt"
	"math"
)

const (
	// Epsilon is the smallest speed treated as physically valid.
	Epsilon = 1e-9

	// Sentinel is returned by domain-guarded functions for speeds at or below Epsilon.
	Sentinel = 1e12
)

// Func is a scalar real function.
type Func func(x float64) float64

// Scenario holds the parameters of one cruise test case.
type Scenario struct {
	C1            float64 `json:"c1" yaml:"c1"`
	C2            float64 `json:"c2" yaml:"c2"`
	V0            float64 `json:"v0" yaml:"v0"`
	Tolerance     float64 `json:"tolerance" yaml:"tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
}

// Validate reports the first parameter outside its domain. The numerical
// routines assume a valid scenario; results for invalid ones are undefined.
func (s Scenario) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"c1", s.C1},
		{"c2", s.C2},
		{"v0", s.V0},
		{"tolerance", s.Tolerance},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ParameterError{Field: f.name, Value: f.value, Wrapped: ErrInvalidValue}
		}
		if f.value <= 0 {
			return &ParameterError{Field: f.name, Value: f.value, Wrapped: ErrParameterBounds}
		}
	}
	if s.MaxIterations < 1 {
		return &ParameterError{Field: "max_iterations", Value: float64(s.MaxIterations), Wrapped: ErrParameterBounds}
	}
	return nil
}

func (s Scenario) String() string {
	return fmt.Sprintf("c1=%.4f c2=%.2f v0=%.2f tol=%g iter=%d", s.C1, s.C2, s.V0, s.Tolerance, s.MaxIterations)
}

// StopReason records why the root solver stopped iterating.
type StopReason int

const (
	StopConverged StopReason = iota
	StopFlatDerivative
	StopLeftDomain
	StopMaxIterations
)

func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "converged"
	case StopFlatDerivative:
		return "flat derivative"
	case StopLeftDomain:
		return "left domain"
	case StopMaxIterations:
		return "iteration budget exhausted"
	default:
		return "unknown"
	}
}

// RootResult is the outcome of a root search. Value is always a usable real
// number; Converged reports whether it met the tolerance.
type RootResult struct {
	Value      float64    `json:"value"`
	Converged  bool       `json:"converged"`
	Iterations int        `json:"iterations"`
	Stop       StopReason `json:"stop"`
}
