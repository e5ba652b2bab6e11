// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Index is a read-only snapshot of the tracking issues in a repository,
// keyed by the goal identity in each issue's marker and by issue number.
// Issues without a marker are reachable by number only.
type Index struct {
	byIdentity map[string]Issue
	byNumber   map[int]Issue
}

// BuildIndex lists every issue carrying label and indexes it. Any listing
// failure fails the whole build; a partial index could hide existing issues
// and lead to duplicates.
func BuildIndex(ctx context.Context, c Client, label string) (*Index, error) {
	issues, err := c.ListIssues(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("building issue index: %w", err)
	}
	return NewIndex(issues)
}

// NewIndex indexes issues. Two issues carrying the same marker identity is
// an error: the index cannot say which one belongs to the goal.
func NewIndex(issues []Issue) (*Index, error) {
	idx := &Index{
		byIdentity: make(map[string]Issue, len(issues)),
		byNumber:   make(map[int]Issue, len(issues)),
	}
	var errs []error
	for _, is := range issues {
		idx.byNumber[is.Number] = is
		id, ok := is.MarkerIdentity()
		if !ok {
			continue
		}
		if prev, dup := idx.byIdentity[id]; dup {
			errs = append(errs, fmt.Errorf("%w: %q on #%d and #%d", ErrDuplicateIdentity, id, prev.Number, is.Number))
			continue
		}
		idx.byIdentity[id] = is
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return idx, nil
}

// Lookup returns the issue whose marker names identity.
func (x *Index) Lookup(identity string) (Issue, bool) {
	is, ok := x.byIdentity[identity]
	return is, ok
}

// ByNumber returns the indexed issue with that number.
func (x *Index) ByNumber(number int) (Issue, bool) {
	is, ok := x.byNumber[number]
	return is, ok
}

// Len is the number of indexed issues.
func (x *Index) Len() int { return len(x.byNumber) }

// Issues returns all indexed issues ordered by number.
func (x *Index) Issues() []Issue {
	out := make([]Issue, 0, len(x.byNumber))
	for _, is := range x.byNumber {
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ForMilestone returns the marked issues whose identity lies under
// milestone, ordered by number.
func (x *Index) ForMilestone(milestone string) []Issue {
	prefix := milestone + "/"
	var out []Issue
	for id, is := range x.byIdentity {
		if strings.HasPrefix(id, prefix) {
			out = append(out, is)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Milestones returns the distinct milestones named by marker identities,
// sorted.
func (x *Index) Milestones() []string {
	seen := map[string]bool{}
	for id := range x.byIdentity {
		if i := strings.Index(id, "/"); i > 0 {
			seen[id[:i]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
