package optim

import (
	"math"

	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/models"
)

// FlatDerivative is the |f'| below which a Newton step is undefined.
const FlatDerivative = 1e-10

// Newton runs Newton-Raphson on the model's characteristic function from v0.
//
// The iteration stops with Converged=false when the derivative is flat, when
// the next iterate leaves the positive half-line, or when maxIter steps pass
// without two iterates closer than tol. In every case Value is a usable real:
// the last iterate that was still inside the domain. Callers needing a valid
// optimum fall back to the model's analytic root.
func Newton(m models.CruiseModel, v0, tol float64, maxIter int) dynamo.RootResult {
	v := v0

	for iter := 0; iter < maxIter; iter++ {
		fVal := m.Characteristic(v)
		dVal := m.CharacteristicDerivative(v)

		if math.Abs(dVal) < FlatDerivative {
			return dynamo.RootResult{Value: v, Iterations: iter, Stop: dynamo.StopFlatDerivative}
		}

		next := v - fVal/dVal
		if next <= 0 {
			return dynamo.RootResult{Value: v, Iterations: iter, Stop: dynamo.StopLeftDomain}
		}

		if math.Abs(next-v) < tol {
			return dynamo.RootResult{Value: next, Converged: true, Iterations: iter + 1, Stop: dynamo.StopConverged}
		}
		v = next
	}

	return dynamo.RootResult{Value: v, Iterations: maxIter, Stop: dynamo.StopMaxIterations}
}

// Solve runs Newton with the scenario's coefficients and limits.
func Solve(s dynamo.Scenario) dynamo.RootResult {
	return Newton(models.FromScenario(s), s.V0, s.Tolerance, s.MaxIterations)
}
