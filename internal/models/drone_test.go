package models

import (
	"math"
	"testing"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

func TestCruiseAnalyticRootIsRoot(t *testing.T) {
	tests := []struct{ c1, c2 float64 }{
		{0.1, 200.0},
		{0.05, 100.0},
		{0.5, 500.0},
		{1.0, 1.0},
		{0.37, 123.4},
	}

	for _, tt := range tests {
		m := NewCruiseModel(tt.c1, tt.c2)
		v := m.AnalyticRoot()
		if v <= 0 {
			t.Fatalf("c1=%g c2=%g: root should be positive, got %f", tt.c1, tt.c2, v)
		}
		// scale by the size of either term so the check is relative
		scale := 2.0 * tt.c1 * v
		if got := m.Characteristic(v); math.Abs(got) > 1e-12*scale {
			t.Errorf("c1=%g c2=%g: characteristic(%f) = %e, want ~0", tt.c1, tt.c2, v, got)
		}
	}
}

func TestCruiseReferenceRoot(t *testing.T) {
	m := NewCruiseModel(0.1, 200.0)
	if got := m.AnalyticRoot(); math.Abs(got-6.68740) > 1e-5 {
		t.Errorf("expected analytic root ~6.68740, got %f", got)
	}
}

func TestCruiseSentinel(t *testing.T) {
	m := NewCruiseModel(0.1, 200.0)

	for _, v := range []float64{0, -1, dynamo.Epsilon, 1e-12} {
		if got := m.Characteristic(v); got != dynamo.Sentinel {
			t.Errorf("characteristic(%g) = %g, want sentinel", v, got)
		}
		if got := m.CharacteristicDerivative(v); got != dynamo.Sentinel {
			t.Errorf("derivative(%g) = %g, want sentinel", v, got)
		}
		if got := m.Power(v); got != 0 {
			t.Errorf("power(%g) = %g, want 0", v, got)
		}
	}
}

func TestCruisePower(t *testing.T) {
	m := NewCruiseModel(0.1, 200.0)

	if got, want := m.Power(2.0), 0.1*8+100.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("power(2) = %f, want %f", got, want)
	}

	vs := []float64{0, 1, 2, 4}
	ps := m.PowerSeries(vs)
	if len(ps) != len(vs) {
		t.Fatalf("expected %d values, got %d", len(vs), len(ps))
	}
	for i, v := range vs {
		if ps[i] != m.Power(v) {
			t.Errorf("series[%d] = %f, scalar = %f", i, ps[i], m.Power(v))
		}
	}
}

func TestCruiseDerivativeMatchesFiniteDifference(t *testing.T) {
	m := NewCruiseModel(0.2, 300.0)
	h := 1e-6

	for _, v := range []float64{1.5, 4.0, 9.0} {
		fd := (m.Characteristic(v+h) - m.Characteristic(v-h)) / (2 * h)
		if got := m.CharacteristicDerivative(v); math.Abs(got-fd) > 1e-5*math.Abs(got) {
			t.Errorf("derivative(%f) = %f, finite difference %f", v, got, fd)
		}
	}
}

func TestCruisePowerSlope(t *testing.T) {
	m := NewCruiseModel(0.1, 200.0)
	v := 3.0
	want := 3*0.1*9 - 200.0/9
	if got := m.PowerSlope(v); math.Abs(got-want) > 1e-12 {
		t.Errorf("slope(%f) = %f, want %f", v, got, want)
	}
}

func TestCruiseIdempotent(t *testing.T) {
	m := NewCruiseModel(0.123, 321.0)
	for _, v := range []float64{0.5, 3.3, 7.1} {
		if m.Characteristic(v) != m.Characteristic(v) || m.Power(v) != m.Power(v) {
			t.Errorf("repeat evaluation at %f differs", v)
		}
	}
}
