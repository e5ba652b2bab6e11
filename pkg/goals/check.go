// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// CheckResult holds the outcome of a Check run.
type CheckResult struct {
	Goals      []Goal
	Milestones map[string]int // goals per milestone

	// DuplicateTracking lists issue references claimed by more than one
	// goal, formatted as "#101: 2025h1/a, 2025h1/b".
	DuplicateTracking []string
}

// Check loads every milestone under root and runs the cross-document checks
// that a single-document parse cannot see. A load error is returned as is;
// consistency problems are reported in the result and by a non-nil error.
func Check(root string, opts LoadOptions) (*CheckResult, error) {
	goals, err := Load(root, opts)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		Goals:      goals,
		Milestones: make(map[string]int),
	}
	type ref struct {
		repo   string
		number int
	}
	claims := make(map[ref][]string)
	for _, g := range goals {
		result.Milestones[g.Milestone]++
		if g.TrackingIssue > 0 {
			k := ref{strings.ToLower(g.TrackingRepo), g.TrackingIssue}
			claims[k] = append(claims[k], g.Identity)
		}
	}

	refs := make([]ref, 0, len(claims))
	for k, ids := range claims {
		if len(ids) > 1 {
			refs = append(refs, k)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].repo != refs[j].repo {
			return refs[i].repo < refs[j].repo
		}
		return refs[i].number < refs[j].number
	})
	for _, k := range refs {
		result.DuplicateTracking = append(result.DuplicateTracking,
			fmt.Sprintf("%s#%d: %s", k.repo, k.number, strings.Join(claims[k], ", ")))
	}

	if len(result.DuplicateTracking) > 0 {
		return result, fmt.Errorf("found %d tracking issue(s) claimed by more than one goal", len(result.DuplicateTracking))
	}
	return result, nil
}

// WriteReport prints the result for humans.
func (r *CheckResult) WriteReport(w io.Writer) error {
	if len(r.DuplicateTracking) > 0 {
		fmt.Fprintf(w, "\nTracking issues claimed by more than one goal:\n")
		for _, item := range r.DuplicateTracking {
			fmt.Fprintf(w, "  - %s\n", item)
		}
		return fmt.Errorf("found consistency issues (see above)")
	}

	milestones := make([]string, 0, len(r.Milestones))
	for m := range r.Milestones {
		milestones = append(milestones, m)
	}
	sort.Strings(milestones)

	_, err := fmt.Fprintf(w, "All goal documents are well-formed (%d goals)\n", len(r.Goals))
	for _, m := range milestones {
		fmt.Fprintf(w, "   - %s: %d goals\n", m, r.Milestones[m])
	}
	return err
}
