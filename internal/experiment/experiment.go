package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/cruisesim/internal/analysis"
	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/integrators"
	"github.com/san-kum/cruisesim/internal/models"
	"github.com/san-kum/cruisesim/internal/optim"
)

// Settings fixes the numerical and maneuver parameters shared by every case
// of a batch.
type Settings struct {
	DiffStep       float64 `json:"diff_step"`
	RombergLevels  int     `json:"romberg_levels"`
	Duration       float64 `json:"duration"`
	StartSpeed     float64 `json:"start_speed"`
	ProfileSamples int     `json:"profile_samples"`
	Workers        int     `json:"workers"`
}

func DefaultSettings() Settings {
	return Settings{
		DiffStep:       analysis.DefaultStep,
		RombergLevels:  integrators.DefaultLevels,
		Duration:       10.0,
		StartSpeed:     1.0,
		ProfileSamples: 200,
		Workers:        1,
	}
}

// Result is the evaluation of a single scenario. Times, Speed and Power are
// samples of the maneuver kept for rendering only.
type Result struct {
	Case      int               `json:"case"`
	Scenario  dynamo.Scenario   `json:"scenario"`
	Root      dynamo.RootResult `json:"root"`
	Optimal   float64           `json:"optimal"`
	Analytic  float64           `json:"analytic"`
	FellBack  bool              `json:"fell_back"`
	DPDV      float64           `json:"dp_dv"`
	DPDVExact float64           `json:"dp_dv_exact"`
	Energy    float64           `json:"energy"`
	Times     []float64         `json:"times"`
	Speed     []float64         `json:"speed"`
	Power     []float64         `json:"power"`
}

// RootError is the distance between the speed used downstream and the
// closed-form optimum.
func (r *Result) RootError() float64 {
	d := r.Optimal - r.Analytic
	if d < 0 {
		return -d
	}
	return d
}

// StartSpeed is the speed at the beginning of the sampled maneuver.
func (r *Result) StartSpeed() float64 {
	if len(r.Speed) == 0 {
		return 0
	}
	return r.Speed[0]
}

// Duration is the time span covered by the sampled maneuver.
func (r *Result) Duration() float64 {
	if len(r.Times) == 0 {
		return 0
	}
	return r.Times[len(r.Times)-1]
}

type Evaluator struct {
	settings Settings
}

// New returns an evaluator. Fields of settings that are unset or out of range
// take their DefaultSettings value.
func New(settings Settings) *Evaluator {
	def := DefaultSettings()
	if settings.DiffStep <= 0 {
		settings.DiffStep = def.DiffStep
	}
	if settings.RombergLevels <= 0 {
		settings.RombergLevels = def.RombergLevels
	}
	if !(settings.Duration > 0) {
		settings.Duration = def.Duration
	}
	if !(settings.StartSpeed > dynamo.Epsilon) {
		settings.StartSpeed = def.StartSpeed
	}
	if settings.ProfileSamples <= 0 {
		settings.ProfileSamples = def.ProfileSamples
	}
	if settings.Workers <= 0 {
		settings.Workers = def.Workers
	}
	return &Evaluator{settings: settings}
}

// Settings returns the effective settings, defaults included.
func (e *Evaluator) Settings() Settings { return e.settings }

// Evaluate solves one scenario. It never fails: a solver that does not
// converge is replaced by the analytic optimum so the maneuver stages always
// receive a valid speed. The scenario must satisfy Validate.
func (e *Evaluator) Evaluate(s dynamo.Scenario) *Result {
	model := models.FromScenario(s)

	root := optim.Newton(model, s.V0, s.Tolerance, s.MaxIterations)
	analytic := model.AnalyticRoot()

	vOpt, fellBack := root.Value, false
	if !root.Converged {
		vOpt, fellBack = analytic, true
	}

	man := Maneuver{Start: e.settings.StartSpeed, Target: vOpt, Duration: e.settings.Duration}
	power := func(t float64) float64 { return model.Power(man.Speed(t)) }

	times, speeds := man.Sample(e.settings.ProfileSamples)

	return &Result{
		Scenario:  s,
		Root:      root,
		Optimal:   vOpt,
		Analytic:  analytic,
		FellBack:  fellBack,
		DPDV:      analysis.CenteredDerivative(model.Power, vOpt, e.settings.DiffStep),
		DPDVExact: model.PowerSlope(vOpt),
		Energy:    integrators.Romberg(power, 0, man.Duration, e.settings.RombergLevels),
		Times:     times,
		Speed:     speeds,
		Power:     model.PowerSeries(speeds),
	}
}

// Run validates and evaluates every scenario, returning results in input
// order. Workers > 1 fans the batch out over goroutines. Cancellation is
// observed between cases.
func (e *Evaluator) Run(ctx context.Context, cases []dynamo.Scenario) ([]*Result, error) {
	for i, s := range cases {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("experiment: case %d: %w", i+1, err)
		}
	}

	start := time.Now()
	results := make([]*Result, len(cases))

	dynamo.ParallelFor(len(cases), e.settings.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if ctx.Err() != nil {
				return
			}
			r := e.Evaluate(cases[i])
			r.Case = i + 1
			results[i] = r
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallbacks := 0
	for _, r := range results {
		if r.FellBack {
			fallbacks++
		}
	}
	slog.Debug("experiment: batch complete",
		"cases", len(cases), "fallbacks", fallbacks, "workers", e.settings.Workers, "elapsed", time.Since(start))

	return results, nil
}
