package metrics

import (
	"math"

	"github.com/san-kum/cruisesim/internal/experiment"
)

// Summary aggregates a batch of results.
type Summary struct {
	Cases        int
	Converged    int
	Fallbacks    int
	MinEnergy    float64
	MeanEnergy   float64
	MaxEnergy    float64
	MaxRootError float64
	MaxSlopeErr  float64
}

// Summarize computes batch statistics. MaxSlopeErr is the largest gap between
// the numeric and closed-form dP/dv.
func Summarize(results []*experiment.Result) Summary {
	s := Summary{Cases: len(results)}
	if len(results) == 0 {
		return s
	}

	s.MinEnergy = math.Inf(1)
	s.MaxEnergy = math.Inf(-1)
	total := 0.0

	for _, r := range results {
		if r.Root.Converged {
			s.Converged++
		}
		if r.FellBack {
			s.Fallbacks++
		}
		total += r.Energy
		s.MinEnergy = math.Min(s.MinEnergy, r.Energy)
		s.MaxEnergy = math.Max(s.MaxEnergy, r.Energy)
		s.MaxRootError = math.Max(s.MaxRootError, math.Abs(r.Root.Value-r.Analytic)*boolToFloat(r.Root.Converged))
		s.MaxSlopeErr = math.Max(s.MaxSlopeErr, math.Abs(r.DPDV-r.DPDVExact))
	}

	s.MeanEnergy = total / float64(len(results))
	return s
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
