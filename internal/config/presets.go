package config

import "sort"

// Presets are named evaluation settings.
var Presets = map[string]EvaluationConfig{
	"reference": DefaultEvaluation(),
	"fine": {
		DiffStep: 0.001, RombergLevels: 10, Duration: DefaultDuration,
		StartSpeed: DefaultStartSpeed, ProfileSamples: 1000, Workers: 1,
	},
	"coarse": {
		DiffStep: 0.05, RombergLevels: 4, Duration: DefaultDuration,
		StartSpeed: DefaultStartSpeed, ProfileSamples: 50, Workers: 1,
	},
	"long-haul": {
		DiffStep: DefaultDiffStep, RombergLevels: 8, Duration: 60.0,
		StartSpeed: DefaultStartSpeed, ProfileSamples: 600, Workers: 1,
	},
	"fast-start": {
		DiffStep: DefaultDiffStep, RombergLevels: DefaultRombergLevels, Duration: DefaultDuration,
		StartSpeed: 4.0, ProfileSamples: DefaultProfileSamples, Workers: 1,
	},
}

func GetPreset(name string) *EvaluationConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
