// Package dynamo provides the shared primitives of the cruise-speed kernel.
//
// The package defines the value types that flow between the numerical
// routines and the orchestration layer:
//
//   - [Func]: scalar real function handle consumed by the derivative and
//     quadrature routines
//   - [Scenario]: the five parameters of one cruise test case
//   - [RootResult]: value and convergence flag produced by the root solver
//
// It also fixes the domain constants every model shares ([Epsilon],
// [Sentinel]) and the package-level error values returned by validation.
//
// # Example
//
//	s := dynamo.Scenario{C1: 0.1, C2: 200, V0: 5, Tolerance: 1e-6, MaxIterations: 100}
//	if err := s.Validate(); err != nil {
//	    return err
//	}
//	res := optim.Solve(s)
//
// # Thread Safety
//
// Every type here is a plain value. Nothing in the package holds mutable
// state, so scenarios may be evaluated from any number of goroutines; see
// [ParallelFor] for the batch helper used by the evaluator.
package dynamo
