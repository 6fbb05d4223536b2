package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/san-kum/cruisesim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CasesFile != DefaultCasesFile {
		t.Errorf("expected cases file %s, got %s", DefaultCasesFile, cfg.CasesFile)
	}
	if cfg.Evaluation.RombergLevels != 6 {
		t.Errorf("expected 6 romberg levels, got %d", cfg.Evaluation.RombergLevels)
	}
	if cfg.Evaluation.DiffStep != 0.01 {
		t.Errorf("expected diff step 0.01, got %f", cfg.Evaluation.DiffStep)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cruise.yaml")
	data := []byte("evaluation:\n  romberg_levels: 8\n  workers: 4\ngenerator:\n  cases: 3\n  seed: 7\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Evaluation.RombergLevels != 8 || cfg.Evaluation.Workers != 4 {
		t.Errorf("evaluation overrides not applied: %+v", cfg.Evaluation)
	}
	if cfg.Evaluation.Duration != DefaultDuration {
		t.Errorf("unset duration should keep default, got %f", cfg.Evaluation.Duration)
	}
	if cfg.Generator.Cases != 3 || cfg.Generator.Seed != 7 {
		t.Errorf("generator overrides not applied: %+v", cfg.Generator)
	}
	if cfg.Generator.C2Max != 500 {
		t.Errorf("unset c2_max should keep default, got %f", cfg.Generator.C2Max)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("evaluation:\n  romberg_levels: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected parameter bounds error, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cruise.yaml")
	cfg := DefaultConfig()
	cfg.Evaluation.StartSpeed = 2.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"diff step", func(c *Config) { c.Evaluation.DiffStep = 0 }},
		{"duration", func(c *Config) { c.Evaluation.Duration = -1 }},
		{"start speed", func(c *Config) { c.Evaluation.StartSpeed = 0 }},
		{"samples", func(c *Config) { c.Evaluation.ProfileSamples = 1 }},
		{"workers", func(c *Config) { c.Evaluation.Workers = -2 }},
		{"c1 range", func(c *Config) { c.Generator.C1Max = 0.01 }},
		{"tolerance", func(c *Config) { c.Generator.Tolerance = 0 }},
		{"iterations", func(c *Config) { c.Generator.MaxIterations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected bounds error, got %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("fine")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.RombergLevels != 10 {
		t.Errorf("expected 10 levels, got %d", p.RombergLevels)
	}

	// presets are handed out as copies
	p.RombergLevels = 2
	if Presets["fine"].RombergLevels != 10 {
		t.Error("mutating a preset copy changed the registry")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if p := GetPreset("nonexistent"); p != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := Presets[name].Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cruise.yaml")
	cases := filepath.Join(dir, "cases.txt")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cases, []byte("0.1 200 5 1e-6 100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			if cfg != nil {
				calls.Add(1)
			}
		}, cases)
	}()

	// keep touching the cases file until the watcher is up and reports it
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(cases, []byte("0.2 300 4 1e-6 100\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if calls.Load() == 0 {
		t.Fatal("watcher never reported a change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watch did not stop after cancel")
	}
}
