// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mesh-intelligence/goalsync/pkg/tracker"
	"github.com/mesh-intelligence/goalsync/pkg/tracker/trackertest"
)

const label = "C-tracking-issue"

func marked(number int, identity string) tracker.Issue {
	return tracker.Issue{
		Number: number,
		Title:  identity,
		Body:   tracker.FormatMarker(identity) + "\n\nbody",
		State:  tracker.StateOpen,
		Labels: []string{label},
	}
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()
	unmarked := tracker.Issue{Number: 7, Title: "hand made", Labels: []string{label}}
	other := tracker.Issue{Number: 8, Title: "unrelated", Body: tracker.FormatMarker("2025h1/zzz")}
	fake := trackertest.New(marked(3, "2025h1/b"), marked(1, "2025h1/a"), marked(2, "2024h2/c"), unmarked, other)

	idx, err := tracker.BuildIndex(context.Background(), fake, label)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if idx.Len() != 4 {
		t.Errorf("Len = %d, want 4 (label filter)", idx.Len())
	}
	if is, ok := idx.Lookup("2025h1/a"); !ok || is.Number != 1 {
		t.Errorf("Lookup(2025h1/a) = %+v, %v", is, ok)
	}
	if _, ok := idx.Lookup("2025h1/zzz"); ok {
		t.Error("issue without the tracking label should not be indexed")
	}
	if is, ok := idx.ByNumber(7); !ok || is.Title != "hand made" {
		t.Errorf("ByNumber(7) = %+v, %v", is, ok)
	}

	got := idx.ForMilestone("2025h1")
	if len(got) != 2 || got[0].Number != 1 || got[1].Number != 3 {
		t.Errorf("ForMilestone = %+v", got)
	}
	if ms := idx.Milestones(); len(ms) != 2 || ms[0] != "2024h2" || ms[1] != "2025h1" {
		t.Errorf("Milestones = %v", ms)
	}

	all := idx.Issues()
	for i := 1; i < len(all); i++ {
		if all[i-1].Number >= all[i].Number {
			t.Fatalf("Issues not ordered: %+v", all)
		}
	}
}

func TestBuildIndex_ListFailure(t *testing.T) {
	t.Parallel()
	fake := trackertest.New()
	fake.Fail = func(op string, _ int, _ string) error {
		if op == trackertest.OpList {
			return tracker.ErrRateLimited
		}
		return nil
	}
	if _, err := tracker.BuildIndex(context.Background(), fake, label); !errors.Is(err, tracker.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestNewIndex_DuplicateIdentity(t *testing.T) {
	t.Parallel()
	_, err := tracker.NewIndex([]tracker.Issue{marked(1, "2025h1/a"), marked(2, "2025h1/a")})
	if !errors.Is(err, tracker.ErrDuplicateIdentity) {
		t.Errorf("err = %v, want ErrDuplicateIdentity", err)
	}
}
