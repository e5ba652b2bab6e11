// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package orchestrator wires configuration, the goal loader, the gh client
// and the reconciliation engine into the operations exposed by the goalsync
// command and the mage targets: Check, Issues, Export and the build
// tooling.
package orchestrator

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// Orchestrator runs goalsync operations for one configuration.
type Orchestrator struct {
	cfg    Config
	out    io.Writer
	client tracker.Client
	runID  string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithOutput sends reports to w instead of standard output.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// WithClient replaces the gh client, e.g. with an in-memory fake.
func WithClient(c tracker.Client) Option {
	return func(o *Orchestrator) { o.client = c }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// New returns an Orchestrator for cfg. Missing settings get their
// defaults.
func New(cfg Config, opts ...Option) *Orchestrator {
	cfg.applyDefaults()
	o := &Orchestrator{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromFile loads the configuration at path and returns an Orchestrator.
func NewFromFile(path string, opts ...Option) (*Orchestrator, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...), nil
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// logf writes an informational line through the global logger.
func logf(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func (o *Orchestrator) loadOptions() goals.LoadOptions {
	return goals.LoadOptions{Exclude: o.cfg.Goals.Exclude}
}

// trackerClient returns the configured client, or a gh client for repo.
func (o *Orchestrator) trackerClient(repo string) tracker.Client {
	if o.client != nil {
		return o.client
	}
	logger := log.Logger.With().Str("component", "gh").Logger()
	return tracker.NewGhClient(tracker.GhConfig{
		Repo:   repo,
		Bin:    o.cfg.Tracker.GhBin,
		Logger: &logger,
	})
}

// repository resolves the owner/name of the issue repository.
// Resolution order:
//  1. tracker.repository if set
//  2. `gh repo view --json nameWithOwner` (reads the git remote)
//  3. project.module_path, then the go.mod module path, when it starts
//     with github.com/
func (o *Orchestrator) repository() (string, error) {
	if o.cfg.Tracker.Repository != "" {
		return o.cfg.Tracker.Repository, nil
	}

	if o.client == nil {
		cmd := exec.Command(o.cfg.Tracker.GhBin, "repo", "view", "--json", "nameWithOwner", "-q", ".nameWithOwner")
		if out, err := cmd.Output(); err == nil {
			if repo := strings.TrimSpace(string(out)); repo != "" {
				return repo, nil
			}
		}
	}

	for _, modPath := range []string{o.cfg.Project.ModulePath, goModModulePath(".")} {
		if repo, ok := githubRepo(modPath); ok {
			return repo, nil
		}
	}
	return "", fmt.Errorf("cannot determine GitHub repo: set tracker.repository in goalsync.yaml or ensure the project has a github.com module path")
}

// githubRepo extracts owner/name from a github.com module path.
func githubRepo(modPath string) (string, bool) {
	rest, ok := strings.CutPrefix(modPath, "github.com/")
	if !ok {
		return "", false
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// goModModulePath reads the module path from the go.mod in repoRoot.
func goModModulePath(repoRoot string) string {
	data, err := os.ReadFile(filepath.Join(repoRoot, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module "))
		}
	}
	return ""
}

// runLogger returns the logger for one operation.
func runLogger(op string) zerolog.Logger {
	return log.Logger.With().Str("op", op).Logger()
}
