// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"context"

	"github.com/magefile/mage/mg"

	"github.com/mesh-intelligence/goalsync/internal/logging"
	"github.com/mesh-intelligence/goalsync/pkg/orchestrator"
)

// Default target when mage is run without arguments.
var Default = Build

// mainPackage is built and installed when the configuration names none.
const mainPackage = "./cmd/goalsync"

// newOrchestrator loads goalsync.yaml or goalsync.toml from the working
// directory when present and falls back to the defaults.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	logging.ConfigureRuntime(mg.Verbose())
	cfg := orchestrator.DefaultConfig()
	if path := orchestrator.FindConfig("."); path != "" {
		var err error
		if cfg, err = orchestrator.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if cfg.Project.MainPackage == "" {
		cfg.Project.MainPackage = mainPackage
	}
	if err := cfg.ApplyCommitEnv(); err != nil {
		return nil, err
	}
	return orchestrator.New(cfg), nil
}

// Build compiles the goalsync binary.
func Build() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.Build()
}

// Lint runs golangci-lint.
func Lint() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.Lint()
}

// Install installs the goalsync binary into GOPATH/bin.
func Install() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.Install()
}

// Clean removes build artifacts.
func Clean() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.Clean()
}

// Test groups the test targets.
type Test mg.Namespace

// Unit runs the unit tests.
func (Test) Unit() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.TestUnit()
}

// Goals groups the goal document targets.
type Goals mg.Namespace

// Check validates every goal document.
func (Goals) Check() error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	return o.Check()
}

// Issues reconciles tracking issues with the goal documents. Set
// GOALSYNC_COMMIT=true to apply the changes; the default is a dry run.
func (Goals) Issues(ctx context.Context) error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	_, err = o.Issues(ctx)
	return err
}

// Export writes the per-milestone progress files for the goal book.
func (Goals) Export(ctx context.Context) error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	_, err = o.Export(ctx)
	return err
}
