package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

const (
	DefaultCasesFile      = "synthetic_data.txt"
	DefaultDataDir        = ".cruisesim"
	DefaultDiffStep       = 0.01
	DefaultRombergLevels  = 6
	DefaultDuration       = 10.0
	DefaultStartSpeed     = 1.0
	DefaultProfileSamples = 200
	DefaultCases          = 15
	DefaultTolerance      = 1e-6
	DefaultMaxIterations  = 100
)

type Config struct {
	CasesFile  string           `yaml:"cases_file"`
	DataDir    string           `yaml:"data_dir"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Generator  GeneratorConfig  `yaml:"generator"`
}

// EvaluationConfig controls how each scenario is evaluated.
type EvaluationConfig struct {
	// DiffStep is the finite-difference spacing for dP/dv.
	DiffStep float64 `yaml:"diff_step"`
	// RombergLevels is the size of the extrapolation table.
	RombergLevels int `yaml:"romberg_levels"`
	// Duration is the maneuver horizon T.
	Duration float64 `yaml:"duration"`
	// StartSpeed is the speed the maneuver accelerates from.
	StartSpeed     float64 `yaml:"start_speed"`
	ProfileSamples int     `yaml:"profile_samples"`
	// Workers > 1 evaluates cases in parallel.
	Workers int `yaml:"workers"`
}

// GeneratorConfig controls synthetic case generation. Seed 0 means seed from
// the clock.
type GeneratorConfig struct {
	Cases         int     `yaml:"cases"`
	Seed          int64   `yaml:"seed"`
	C1Min         float64 `yaml:"c1_min"`
	C1Max         float64 `yaml:"c1_max"`
	C2Min         float64 `yaml:"c2_min"`
	C2Max         float64 `yaml:"c2_max"`
	V0Min         float64 `yaml:"v0_min"`
	V0Max         float64 `yaml:"v0_max"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

func DefaultEvaluation() EvaluationConfig {
	return EvaluationConfig{
		DiffStep:       DefaultDiffStep,
		RombergLevels:  DefaultRombergLevels,
		Duration:       DefaultDuration,
		StartSpeed:     DefaultStartSpeed,
		ProfileSamples: DefaultProfileSamples,
		Workers:        1,
	}
}

func DefaultGenerator() GeneratorConfig {
	return GeneratorConfig{
		Cases:         DefaultCases,
		C1Min:         0.05,
		C1Max:         0.5,
		C2Min:         100.0,
		C2Max:         500.0,
		V0Min:         1.0,
		V0Max:         15.0,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

func DefaultConfig() *Config {
	return &Config{
		CasesFile:  DefaultCasesFile,
		DataDir:    DefaultDataDir,
		Evaluation: DefaultEvaluation(),
		Generator:  DefaultGenerator(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Evaluation.Validate(); err != nil {
		return err
	}
	return c.Generator.Validate()
}

func (e EvaluationConfig) Validate() error {
	switch {
	case e.DiffStep <= 0:
		return bounds("evaluation.diff_step")
	case e.RombergLevels < 1:
		return bounds("evaluation.romberg_levels")
	case e.Duration <= 0:
		return bounds("evaluation.duration")
	case e.StartSpeed <= dynamo.Epsilon:
		return bounds("evaluation.start_speed")
	case e.ProfileSamples < 2:
		return bounds("evaluation.profile_samples")
	case e.Workers < 0:
		return bounds("evaluation.workers")
	}
	return nil
}

func (g GeneratorConfig) Validate() error {
	switch {
	case g.Cases < 0:
		return bounds("generator.cases")
	case g.C1Min <= 0 || g.C1Max < g.C1Min:
		return bounds("generator.c1_min/c1_max")
	case g.C2Min <= 0 || g.C2Max < g.C2Min:
		return bounds("generator.c2_min/c2_max")
	case g.V0Min <= 0 || g.V0Max < g.V0Min:
		return bounds("generator.v0_min/v0_max")
	case g.Tolerance <= 0:
		return bounds("generator.tolerance")
	case g.MaxIterations < 1:
		return bounds("generator.max_iterations")
	}
	return nil
}

func bounds(field string) error {
	return fmt.Errorf("config: %s: %w", field, dynamo.ErrParameterBounds)
}
