// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
)

// Build compiles the goalsync binary. If MainPackage is empty, the target
// is skipped.
func (o *Orchestrator) Build() error {
	if o.cfg.Project.MainPackage == "" {
		logf("build: skipping (no main_package configured)")
		return nil
	}
	outPath := filepath.Join(o.cfg.Project.BinaryDir, o.cfg.Project.BinaryName)
	logf("build: go build -o %s %s", outPath, o.cfg.Project.MainPackage)
	if err := os.MkdirAll(o.cfg.Project.BinaryDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := runTool(binGo, "build", "-o", outPath, o.cfg.Project.MainPackage); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	logf("build: done")
	return nil
}

// Lint runs golangci-lint on the project.
func (o *Orchestrator) Lint() error {
	logf("lint: running golangci-lint")
	if err := runTool(binLint, "run", "./..."); err != nil {
		return fmt.Errorf("golangci-lint: %w", err)
	}
	logf("lint: done")
	return nil
}

// TestUnit runs go test on all packages.
func (o *Orchestrator) TestUnit() error {
	logf("test:unit: running go test ./...")
	if err := runTool(binGo, "test", "./..."); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	logf("test:unit: done")
	return nil
}

// Install runs go install for the main package. If MainPackage is empty,
// the target is skipped.
func (o *Orchestrator) Install() error {
	if o.cfg.Project.MainPackage == "" {
		logf("install: skipping (no main_package configured)")
		return nil
	}
	logf("install: go install %s", o.cfg.Project.MainPackage)
	if err := runTool(binGo, "install", o.cfg.Project.MainPackage); err != nil {
		return fmt.Errorf("go install: %w", err)
	}
	logf("install: done")
	return nil
}

// Clean removes the build artifact directory.
func (o *Orchestrator) Clean() error {
	logf("clean: removing %s", o.cfg.Project.BinaryDir)
	if err := os.RemoveAll(o.cfg.Project.BinaryDir); err != nil {
		return fmt.Errorf("removing %s: %w", o.cfg.Project.BinaryDir, err)
	}
	logf("clean: done")
	return nil
}
