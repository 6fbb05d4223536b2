package integrators

import (
	"math"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

// DefaultLevels is the extrapolation table size used when levels is not positive.
const DefaultLevels = 6

// RombergTable builds the levels×levels Richardson table for f over [a, b].
// Row i of column 0 holds the trapezoid estimate on 2^i panels; column k
// cancels the h^(2k) error term. Only the upper-left triangle is filled.
func RombergTable(f dynamo.Func, a, b float64, levels int) [][]float64 {
	if levels <= 0 {
		levels = DefaultLevels
	}

	table := make([][]float64, levels)
	for i := range table {
		table[i] = make([]float64, levels)
		table[i][0] = Trapezoid(f, a, b, 1<<i)
	}

	for k := 1; k < levels; k++ {
		p := math.Pow(4, float64(k))
		for j := 0; j < levels-k; j++ {
			table[j][k] = (p*table[j+1][k-1] - table[j][k-1]) / (p - 1)
		}
	}

	return table
}

// Romberg returns the most extrapolated estimate of the integral of f over
// [a, b]. f must be finite on the whole interval; there is no singularity
// detection.
func Romberg(f dynamo.Func, a, b float64, levels int) float64 {
	if levels <= 0 {
		levels = DefaultLevels
	}
	return RombergTable(f, a, b, levels)[0][levels-1]
}
