// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/reconcile"
)

// writeTemp writes content to a temp file named name and returns its path.
func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_HierarchicalYAML(t *testing.T) {
	t.Parallel()
	yaml := `
project:
  module_path: github.com/org/goals
  binary_dir: build
  main_package: ./cmd/goalsync
goals:
  root: docs/goals
  exclude: [README.md]
tracker:
  repository: org/goals
  tracking_label: T-tracking
  milestone_label_prefix: M-
  docs_url: https://org.github.io/goals
sync:
  commit: true
  sleep_ms: 1000
export:
  dir: out/api
`
	cfg, err := LoadConfig(writeTemp(t, "goalsync.yaml", yaml))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Project.ModulePath != "github.com/org/goals" {
		t.Errorf("ModulePath: got %q", cfg.Project.ModulePath)
	}
	if cfg.Project.BinaryDir != "build" {
		t.Errorf("BinaryDir: got %q, want %q", cfg.Project.BinaryDir, "build")
	}
	if cfg.Goals.Root != "docs/goals" || !reflect.DeepEqual(cfg.Goals.Exclude, []string{"README.md"}) {
		t.Errorf("Goals: got %+v", cfg.Goals)
	}
	if cfg.Tracker.Repository != "org/goals" || cfg.Tracker.TrackingLabel != "T-tracking" || cfg.Tracker.MilestoneLabelPrefix != "M-" {
		t.Errorf("Tracker: got %+v", cfg.Tracker)
	}
	if cfg.Mode() != reconcile.Commit {
		t.Errorf("Mode: got %v, want commit", cfg.Mode())
	}
	if cfg.Pace() != time.Second {
		t.Errorf("Pace: got %v, want 1s", cfg.Pace())
	}
	if cfg.Export.Dir != "out/api" {
		t.Errorf("Export.Dir: got %q", cfg.Export.Dir)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	t.Parallel()
	toml := `
[goals]
root = "goals"

[tracker]
repository = "org/goals"

[sync]
sleep_ms = -1
`
	cfg, err := LoadConfig(writeTemp(t, "goalsync.toml", toml))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Goals.Root != "goals" || cfg.Tracker.Repository != "org/goals" {
		t.Errorf("cfg: got %+v", cfg)
	}
	if cfg.Pace() >= 0 {
		t.Errorf("Pace: got %v, want disabled", cfg.Pace())
	}
	if cfg.Tracker.TrackingLabel != reconcile.DefaultTrackingLabel {
		t.Errorf("TrackingLabel default not applied: %q", cfg.Tracker.TrackingLabel)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeTemp(t, "goalsync.yaml", "project:\n  module_path: github.com/x/y\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Project.BinaryDir != "bin" {
		t.Errorf("BinaryDir default: got %q, want \"bin\"", cfg.Project.BinaryDir)
	}
	if cfg.Goals.Root != "src" {
		t.Errorf("Goals.Root default: got %q, want \"src\"", cfg.Goals.Root)
	}
	if !reflect.DeepEqual(cfg.Goals.Exclude, goals.DefaultExclude) {
		t.Errorf("Goals.Exclude default: got %v", cfg.Goals.Exclude)
	}
	if cfg.Tracker.GhBin != "gh" {
		t.Errorf("GhBin default: got %q", cfg.Tracker.GhBin)
	}
	if cfg.Mode() != reconcile.DryRun {
		t.Errorf("Mode default: got %v, want dry-run", cfg.Mode())
	}
	if cfg.Pace() != reconcile.DefaultPace {
		t.Errorf("Pace default: got %v, want %v", cfg.Pace(), reconcile.DefaultPace)
	}
	if cfg.Export.Dir != filepath.Join("book", "api") {
		t.Errorf("Export.Dir default: got %q", cfg.Export.Dir)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeTemp(t, "bad.yaml", "goals: [unclosed")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if _, err := LoadConfig(writeTemp(t, "bad.toml", "[goals\nroot =")); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestFindConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if got := FindConfig(dir); got != "" {
		t.Errorf("FindConfig on empty dir = %q", got)
	}
	os.WriteFile(filepath.Join(dir, "goalsync.toml"), nil, 0o644)
	os.WriteFile(filepath.Join(dir, "goalsync.yaml"), nil, 0o644)
	if got := FindConfig(dir); got != filepath.Join(dir, "goalsync.yaml") {
		t.Errorf("FindConfig = %q, want the yaml file first", got)
	}
}

// Not parallel: uses t.Setenv.
func TestApplyCommitEnv(t *testing.T) {
	tests := []struct {
		value   string
		start   bool
		want    bool
		wantErr bool
	}{
		{"", false, false, false},
		{"true", false, true, false},
		{"1", false, true, false},
		{"false", true, false, false},
		{"0", false, false, false},
		{"FALSE", false, false, false},
		{"yes", false, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv(EnvCommit, tc.value)
			cfg := DefaultConfig()
			cfg.Sync.Commit = tc.start
			err := cfg.ApplyCommitEnv()
			if (err != nil) != tc.wantErr {
				t.Fatalf("ApplyCommitEnv() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && cfg.Sync.Commit != tc.want {
				t.Errorf("Commit = %v, want %v", cfg.Sync.Commit, tc.want)
			}
			if tc.wantErr && cfg.Sync.Commit {
				t.Error("invalid value switched to commit")
			}
		})
	}
}
