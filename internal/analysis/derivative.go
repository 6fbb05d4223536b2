package analysis

import "github.com/san-kum/cruisesim/internal/dynamo"

// DefaultStep is the stencil spacing used when a non-positive h is given.
const DefaultStep = 0.01

// CenteredDerivative estimates f'(x) with the fourth-order centered stencil
//
//	(−f(x+2h) + 8f(x+h) − 8f(x−h) + f(x−2h)) / 12h
func CenteredDerivative(f dynamo.Func, x, h float64) float64 {
	if h <= 0 {
		h = DefaultStep
	}
	fp1, fm1 := f(x+h), f(x-h)
	fp2, fm2 := f(x+2*h), f(x-2*h)
	return (-fp2 + 8*fp1 - 8*fm1 + fm2) / (12 * h)
}
