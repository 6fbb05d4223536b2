package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

// Trapezoid integrates f over [a, b] with the composite trapezoidal rule on n
// equal panels. n below 1 is treated as a single panel.
func Trapezoid(f dynamo.Func, a, b float64, n int) float64 {
	if n < 1 {
		n = 1
	}
	h := (b - a) / float64(n)

	xs := floats.Span(make([]float64, n+1), a, b)
	sum := 0.5 * (f(xs[0]) + f(xs[n]))
	for _, x := range xs[1:n] {
		sum += f(x)
	}
	return h * sum
}
