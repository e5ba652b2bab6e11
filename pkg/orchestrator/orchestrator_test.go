// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/reconcile"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
	"github.com/mesh-intelligence/goalsync/pkg/tracker/trackertest"
)

const alphaDoc = "---\ntitle: Alpha\nowners: [alice]\nstatus: Proposed\n---\n\nMake alpha happen.\n"

// goalTree creates a goals root holding 2025h1/alpha.md and returns a
// config pointing at it.
func goalTree(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "src")
	if err := os.MkdirAll(filepath.Join(root, "2025h1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "2025h1", "alpha.md"), []byte(alphaDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg Config
	cfg.Goals.Root = root
	cfg.Tracker.Repository = "org/goals"
	cfg.Sync.SleepMS = -1
	cfg.Export.Dir = filepath.Join(dir, "api")
	return cfg
}

func TestIssues_DryRunThenCommit(t *testing.T) {
	t.Parallel()
	cfg := goalTree(t)
	fake := trackertest.New()

	var out bytes.Buffer
	report, err := New(cfg, WithClient(fake), WithOutput(&out), WithRunID("run-1")).Issues(context.Background())
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if report.RunID != "run-1" || report.Mode != reconcile.DryRun {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(out.String(), "would create issue: Alpha\n") {
		t.Errorf("dry run output:\n%s", out.String())
	}
	if len(fake.Mutations()) != 0 {
		t.Errorf("dry run mutated: %+v", fake.Mutations())
	}

	cfg.Sync.Commit = true
	out.Reset()
	if _, err := New(cfg, WithClient(fake), WithOutput(&out)).Issues(context.Background()); err != nil {
		t.Fatalf("Issues commit: %v", err)
	}
	if !strings.Contains(out.String(), "created issue #101: Alpha\n") {
		t.Errorf("commit output:\n%s", out.String())
	}
	gs, err := goals.Load(cfg.Goals.Root, goals.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if gs[0].TrackingIssue != 101 {
		t.Errorf("TrackingIssue = %d, want 101", gs[0].TrackingIssue)
	}
}

func TestIssues_LoadErrorIsFatal(t *testing.T) {
	t.Parallel()
	cfg := goalTree(t)
	os.WriteFile(filepath.Join(cfg.Goals.Root, "2025h1", "broken.md"), []byte("---\ntitle: Broken\n---\n"), 0o644)
	fake := trackertest.New()

	_, err := New(cfg, WithClient(fake), WithOutput(&bytes.Buffer{})).Issues(context.Background())
	var le *goals.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want a LoadError", err)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("tracker contacted after load error: %+v", fake.Calls())
	}
}

func TestIssues_IndexErrorIsFatal(t *testing.T) {
	t.Parallel()
	cfg := goalTree(t)
	fake := trackertest.New()
	fake.Fail = func(string, int, string) error { return tracker.ErrRateLimited }

	_, err := New(cfg, WithClient(fake), WithOutput(&bytes.Buffer{})).Issues(context.Background())
	if !errors.Is(err, tracker.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	cfg := goalTree(t)
	var out bytes.Buffer
	if err := New(cfg, WithOutput(&out)).Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(out.String(), "1 goals") {
		t.Errorf("output = %q", out.String())
	}

	os.WriteFile(filepath.Join(cfg.Goals.Root, "2025h1", "broken.md"), []byte("---\ntitle: Broken\n---\n"), 0o644)
	if err := New(cfg, WithOutput(&out)).Check(); err == nil {
		t.Error("Check should fail on a malformed document")
	}
}

func TestExport(t *testing.T) {
	t.Parallel()
	cfg := goalTree(t)
	fake := trackertest.New(
		tracker.Issue{Number: 5, Title: "Alpha", Body: tracker.FormatMarker("2025h1/alpha") + "\n- [x] one\n- [ ] two\n", Labels: []string{reconcile.DefaultTrackingLabel}},
		tracker.Issue{Number: 6, Title: "Old", State: tracker.StateClosed, Body: tracker.FormatMarker("2024h2/old"), Labels: []string{reconcile.DefaultTrackingLabel}},
	)

	paths, err := New(cfg, WithClient(fake), WithOutput(&bytes.Buffer{})).Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "2024h2.json" || filepath.Base(paths[1]) != "2025h1.json" {
		t.Fatalf("paths = %v", paths)
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	var got tracker.MilestoneData
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Repository != "org/goals" || len(got.Issues) != 1 {
		t.Fatalf("data = %+v", got)
	}
	p := got.Issues[0].Progress
	if got.Issues[0].State != "OPEN" || p.Tracked == nil || p.Tracked.Completed != 1 || p.Tracked.Total != 2 {
		t.Errorf("issue = %+v", got.Issues[0])
	}
	if m := fake.Mutations(); len(m) != 0 {
		t.Errorf("export mutated the tracker: %+v", m)
	}
}

func TestRepository(t *testing.T) {
	t.Parallel()
	fake := trackertest.New()

	o := New(Config{Tracker: TrackerConfig{Repository: "a/b"}}, WithClient(fake))
	if repo, err := o.repository(); err != nil || repo != "a/b" {
		t.Errorf("explicit: %q, %v", repo, err)
	}

	o = New(Config{Project: ProjectConfig{ModulePath: "github.com/org/goals/v2"}}, WithClient(fake))
	if repo, err := o.repository(); err != nil || repo != "org/goals" {
		t.Errorf("module path: %q, %v", repo, err)
	}
}

func TestGithubRepo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"github.com/org/repo", "org/repo", true},
		{"github.com/org/repo/sub/pkg", "org/repo", true},
		{"github.com/org", "", false},
		{"gitlab.com/org/repo", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := githubRepo(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("githubRepo(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestGoModModulePath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if got := goModModulePath(dir); got != "" {
		t.Errorf("no go.mod: got %q", got)
	}
	os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module github.com/org/goals\n\ngo 1.25\n"), 0o644)
	if got := goModModulePath(dir); got != "github.com/org/goals" {
		t.Errorf("got %q", got)
	}
}
