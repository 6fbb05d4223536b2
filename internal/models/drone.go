package models

import (
	"math"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

// CruiseModel is the drone cruise objective with drag coefficient C1 and
// induced-power coefficient C2. Both must be positive.
type CruiseModel struct {
	C1, C2 float64
}

func NewCruiseModel(c1, c2 float64) CruiseModel {
	return CruiseModel{C1: c1, C2: c2}
}

// FromScenario builds the model for a test case.
func FromScenario(s dynamo.Scenario) CruiseModel {
	return CruiseModel{C1: s.C1, C2: s.C2}
}

// Characteristic returns 2·c1·v − 2·c2/v³, whose positive root is the
// optimal cruise speed. Speeds at or below dynamo.Epsilon yield dynamo.Sentinel.
func (m CruiseModel) Characteristic(v float64) float64 {
	if v <= dynamo.Epsilon {
		return dynamo.Sentinel
	}
	return 2.0*m.C1*v - 2.0*m.C2/(v*v*v)
}

// CharacteristicDerivative returns 2·c1 + 6·c2/v⁴ with the same sentinel policy.
func (m CruiseModel) CharacteristicDerivative(v float64) float64 {
	if v <= dynamo.Epsilon {
		return dynamo.Sentinel
	}
	return 2.0*m.C1 + 6.0*m.C2/(v*v*v*v)
}

// Power returns c1·v³ + c2/v, or 0 for speeds at or below dynamo.Epsilon.
func (m CruiseModel) Power(v float64) float64 {
	if v <= dynamo.Epsilon {
		return 0
	}
	return m.C1*v*v*v + m.C2/v
}

// PowerSeries evaluates Power elementwise.
func (m CruiseModel) PowerSeries(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = m.Power(v)
	}
	return out
}

// PowerSlope is the closed-form dP/dv = 3·c1·v² − c2/v².
func (m CruiseModel) PowerSlope(v float64) float64 {
	if v <= dynamo.Epsilon {
		return 0
	}
	return 3.0*m.C1*v*v - m.C2/(v*v)
}

// AnalyticRoot returns (c2/c1)^(1/4), the exact positive root of Characteristic.
func (m CruiseModel) AnalyticRoot() float64 {
	return math.Pow(m.C2/m.C1, 0.25)
}
