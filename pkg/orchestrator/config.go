// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/reconcile"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// DefaultConfigFiles are looked up, in order, in the working directory when
// no configuration file is named explicitly.
var DefaultConfigFiles = []string{"goalsync.yaml", "goalsync.yml", "goalsync.toml"}

// Config holds all goalsync settings. Callers either construct a Config in
// Go code and pass it to New(), or keep a goalsync.yaml (or .toml) at the
// repository root and call NewFromFile().
type Config struct {
	Project ProjectConfig `yaml:"project" toml:"project" mapstructure:"project"`
	Goals   GoalsConfig   `yaml:"goals" toml:"goals" mapstructure:"goals"`
	Tracker TrackerConfig `yaml:"tracker" toml:"tracker" mapstructure:"tracker"`
	Sync    SyncConfig    `yaml:"sync" toml:"sync" mapstructure:"sync"`
	Export  ExportConfig  `yaml:"export" toml:"export" mapstructure:"export"`
}

// ProjectConfig describes the Go project for the build targets.
type ProjectConfig struct {
	// ModulePath is the Go module path. A github.com path doubles as the
	// fallback tracker repository.
	ModulePath string `yaml:"module_path" toml:"module_path" mapstructure:"module_path"`

	// BinaryName is the name of the compiled binary (default "goalsync").
	BinaryName string `yaml:"binary_name" toml:"binary_name" mapstructure:"binary_name"`

	// BinaryDir is the output directory for compiled binaries (default "bin").
	BinaryDir string `yaml:"binary_dir" toml:"binary_dir" mapstructure:"binary_dir"`

	// MainPackage is the package built by Build and Install
	// (e.g., "./cmd/goalsync"). Empty skips both.
	MainPackage string `yaml:"main_package" toml:"main_package" mapstructure:"main_package"`
}

// GoalsConfig locates the goal documents.
type GoalsConfig struct {
	// Root is the directory holding the milestone directories (default "src").
	Root string `yaml:"root" toml:"root" mapstructure:"root"`

	// Exclude lists file names that are never goal documents
	// (default goals.DefaultExclude).
	Exclude []string `yaml:"exclude" toml:"exclude" mapstructure:"exclude"`
}

// TrackerConfig selects the issue repository and its labels.
type TrackerConfig struct {
	// Repository is the owner/name of the issue repository. When empty it
	// is detected from the git remote or the module path.
	Repository string `yaml:"repository" toml:"repository" mapstructure:"repository"`

	// TrackingLabel marks tracking issues (default "C-tracking-issue").
	TrackingLabel string `yaml:"tracking_label" toml:"tracking_label" mapstructure:"tracking_label"`

	// MilestoneLabelPrefix is prepended to the milestone name to form the
	// milestone label.
	MilestoneLabelPrefix string `yaml:"milestone_label_prefix" toml:"milestone_label_prefix" mapstructure:"milestone_label_prefix"`

	// GhBin is the gh executable (default "gh").
	GhBin string `yaml:"gh_bin" toml:"gh_bin" mapstructure:"gh_bin"`

	// DocsURL is the base URL of the published goal book. Issue bodies
	// link to the goal's page when set.
	DocsURL string `yaml:"docs_url" toml:"docs_url" mapstructure:"docs_url"`
}

// SyncConfig controls reconciliation runs.
type SyncConfig struct {
	// Commit applies changes; false (the default) is a dry run.
	Commit bool `yaml:"commit" toml:"commit" mapstructure:"commit"`

	// SleepMS is the pause after each remote mutation in milliseconds
	// (default 500). A negative value disables pacing.
	SleepMS int `yaml:"sleep_ms" toml:"sleep_ms" mapstructure:"sleep_ms"`
}

// ExportConfig controls the progress data export.
type ExportConfig struct {
	// Dir receives one <milestone>.json per milestone (default "book/api").
	Dir string `yaml:"dir" toml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Project.BinaryName == "" {
		c.Project.BinaryName = "goalsync"
	}
	if c.Project.BinaryDir == "" {
		c.Project.BinaryDir = "bin"
	}
	if c.Goals.Root == "" {
		c.Goals.Root = "src"
	}
	if c.Goals.Exclude == nil {
		c.Goals.Exclude = append([]string(nil), goals.DefaultExclude...)
	}
	if c.Tracker.TrackingLabel == "" {
		c.Tracker.TrackingLabel = reconcile.DefaultTrackingLabel
	}
	if c.Tracker.GhBin == "" {
		c.Tracker.GhBin = tracker.DefaultGhBin
	}
	if c.Sync.SleepMS == 0 {
		c.Sync.SleepMS = int(reconcile.DefaultPace / time.Millisecond)
	}
	if c.Export.Dir == "" {
		c.Export.Dir = filepath.Join("book", "api")
	}
}

// Pace returns the configured pause between remote mutations.
func (c *Config) Pace() time.Duration {
	if c.Sync.SleepMS < 0 {
		return -1
	}
	return time.Duration(c.Sync.SleepMS) * time.Millisecond
}

// EnvCommit, when true, makes the mage goals:issues target commit.
const EnvCommit = "GOALSYNC_COMMIT"

// ApplyCommitEnv sets Sync.Commit from GOALSYNC_COMMIT when the variable is
// set. Values are parsed with strconv.ParseBool; anything else is an error
// so that a typo never turns a dry run into a commit.
func (c *Config) ApplyCommitEnv() error {
	raw, ok := os.LookupEnv(EnvCommit)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	commit, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s=%q: expected true or false", EnvCommit, raw)
	}
	c.Sync.Commit = commit
	return nil
}

// Mode returns the reconciliation mode selected by Sync.Commit.
func (c *Config) Mode() reconcile.Mode {
	if c.Sync.Commit {
		return reconcile.Commit
	}
	return reconcile.DryRun
}

// LoadConfig reads a configuration file and returns a Config with defaults
// applied. Files ending in .toml are decoded as TOML, everything else as
// YAML.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// FindConfig returns the first of DefaultConfigFiles present in dir, or ""
// when there is none.
func FindConfig(dir string) string {
	for _, name := range DefaultConfigFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
