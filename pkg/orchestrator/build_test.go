// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Build ---

func TestBuild_SkipsWhenNoMainPackage(t *testing.T) {
	t.Parallel()
	o := &Orchestrator{cfg: Config{
		Project: ProjectConfig{
			MainPackage: "",
			BinaryDir:   t.TempDir(),
			BinaryName:  "goalsync",
		},
	}}
	if err := o.Build(); err != nil {
		t.Errorf("Build() with empty MainPackage should not error, got: %v", err)
	}
}

func TestBuild_CreatesBinaryDir(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin", "nested")

	o := &Orchestrator{cfg: Config{
		Project: ProjectConfig{
			MainPackage: "nonexistent/package/that/will/fail",
			BinaryDir:   binDir,
			BinaryName:  "goalsync",
		},
	}}

	// The build fails, but the directory is created first.
	_ = o.Build()

	if _, err := os.Stat(binDir); os.IsNotExist(err) {
		t.Error("Build() should create binary directory even on build failure")
	}
}

// --- Install ---

func TestInstall_SkipsWhenNoMainPackage(t *testing.T) {
	t.Parallel()
	o := &Orchestrator{cfg: Config{}}
	if err := o.Install(); err != nil {
		t.Errorf("Install() with empty MainPackage should not error, got: %v", err)
	}
}

// --- Clean ---

func TestClean_RemovesBinaryDir(t *testing.T) {
	t.Parallel()
	binDir := filepath.Join(t.TempDir(), "bin")
	os.MkdirAll(binDir, 0o755)
	os.WriteFile(filepath.Join(binDir, "goalsync"), []byte("binary"), 0o755)

	o := &Orchestrator{cfg: Config{Project: ProjectConfig{BinaryDir: binDir}}}
	if err := o.Clean(); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, err := os.Stat(binDir); !os.IsNotExist(err) {
		t.Error("Clean() should have removed binary directory")
	}
}

func TestClean_NonExistentDir(t *testing.T) {
	t.Parallel()
	o := &Orchestrator{cfg: Config{Project: ProjectConfig{
		BinaryDir: filepath.Join(t.TempDir(), "never", "created"),
	}}}
	if err := o.Clean(); err != nil {
		t.Errorf("Clean() on nonexistent dir should not error, got: %v", err)
	}
}
