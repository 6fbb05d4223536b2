package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cruisesim/internal/config"
	"github.com/san-kum/cruisesim/internal/dynamo"
	"github.com/san-kum/cruisesim/internal/experiment"
)

var (
	ErrEmptyPlan     = errors.New("automation: plan has no cases")
	ErrUnknownPreset = errors.New("automation: unknown preset")
)

// Plan describes a scripted batch of scenarios.
type Plan struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Preset      string            `yaml:"preset"`
	Cases       []dynamo.Scenario `yaml:"cases"`
	Grid        *Grid             `yaml:"grid"`
}

// Grid is a cartesian sweep over the model coefficients and start speed.
// Zero Tolerance or MaxIterations take the generator defaults.
type Grid struct {
	C1            []float64 `yaml:"c1"`
	C2            []float64 `yaml:"c2"`
	V0            []float64 `yaml:"v0"`
	Tolerance     float64   `yaml:"tolerance"`
	MaxIterations int       `yaml:"max_iterations"`
}

// LoadPlan loads a plan from a YAML file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("automation: parse %s: %w", path, err)
	}

	if plan.Preset != "" && config.GetPreset(plan.Preset) == nil {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, plan.Preset, config.ListPresets())
	}

	return &plan, nil
}

// Size is the number of scenarios Expand produces.
func (p *Plan) Size() int {
	n := len(p.Cases)
	if p.Grid != nil {
		n += len(p.Grid.C1) * len(p.Grid.C2) * len(p.Grid.V0)
	}
	return n
}

// Expand lists the explicit cases followed by the grid points, c1 varying
// slowest and v0 fastest.
func (p *Plan) Expand() []dynamo.Scenario {
	out := make([]dynamo.Scenario, 0, p.Size())
	out = append(out, p.Cases...)

	g := p.Grid
	if g == nil {
		return out
	}

	tol := g.Tolerance
	if tol == 0 {
		tol = config.DefaultTolerance
	}
	maxIter := g.MaxIterations
	if maxIter == 0 {
		maxIter = config.DefaultMaxIterations
	}

	for _, c1 := range g.C1 {
		for _, c2 := range g.C2 {
			for _, v0 := range g.V0 {
				out = append(out, dynamo.Scenario{C1: c1, C2: c2, V0: v0, Tolerance: tol, MaxIterations: maxIter})
			}
		}
	}
	return out
}

// RunPlan expands and evaluates every scenario of the plan.
func RunPlan(ctx context.Context, plan *Plan, ev *experiment.Evaluator) ([]*experiment.Result, error) {
	cases := plan.Expand()
	if len(cases) == 0 {
		return nil, ErrEmptyPlan
	}

	slog.Info("automation: running plan", "name", plan.Name, "cases", len(cases))

	results, err := ev.Run(ctx, cases)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", plan.Name, err)
	}
	return results, nil
}
