// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"bytes"
	"strings"
	"testing"
)

func TestCheck_AllWellFormed(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeGoalFile(t, root, "2024h2/a.md", alphaDoc)
	writeGoalFile(t, root, "2025h1/b.md", alphaDoc)
	writeGoalFile(t, root, "2025h1/c.md", alphaDoc)

	result, err := Check(root, LoadOptions{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Milestones["2024h2"] != 1 || result.Milestones["2025h1"] != 2 {
		t.Errorf("Milestones = %v", result.Milestones)
	}

	var buf bytes.Buffer
	if err := result.WriteReport(&buf); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), "3 goals") || !strings.Contains(buf.String(), "2025h1: 2 goals") {
		t.Errorf("report = %q", buf.String())
	}
}

func TestCheck_DuplicateTrackingIssue(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	doc := "---\ntitle: A\nowners: alice\nstatus: Accepted\ntracking_issue: 7\n---\n"
	writeGoalFile(t, root, "2025h1/a.md", doc)
	writeGoalFile(t, root, "2025h1/b.md", doc)

	result, err := Check(root, LoadOptions{})
	if err == nil {
		t.Fatal("expected duplicate tracking error")
	}
	if len(result.DuplicateTracking) != 1 || result.DuplicateTracking[0] != "#7: 2025h1/a, 2025h1/b" {
		t.Errorf("DuplicateTracking = %v", result.DuplicateTracking)
	}

	var buf bytes.Buffer
	if err := result.WriteReport(&buf); err == nil {
		t.Error("WriteReport should fail when duplicates exist")
	}
}

func TestCheck_LoadError(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeGoalFile(t, root, "2025h1/a.md", "---\ntitle: A\n---\n")
	if result, err := Check(root, LoadOptions{}); err == nil || result != nil {
		t.Fatalf("Check = (%v, %v), want load error", result, err)
	}
}
