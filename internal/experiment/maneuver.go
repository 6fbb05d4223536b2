package experiment

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Maneuver is a smooth speed transition from Start to Target over
// [0, Duration]. The sin² ramp has zero slope at both ends.
type Maneuver struct {
	Start    float64
	Target   float64
	Duration float64
}

func (m Maneuver) Speed(t float64) float64 {
	s := math.Sin(math.Pi * t / (2.0 * m.Duration))
	return m.Start + (m.Target-m.Start)*s*s
}

// Sample returns n evenly spaced times over [0, Duration] and the speed at
// each. n below 2 is raised to 2 so both endpoints are always present.
func (m Maneuver) Sample(n int) (times, speeds []float64) {
	if n < 2 {
		n = 2
	}
	times = floats.Span(make([]float64, n), 0, m.Duration)
	speeds = make([]float64, n)
	for i, t := range times {
		speeds[i] = m.Speed(t)
	}
	return times, speeds
}
