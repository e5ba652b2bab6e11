// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package trackertest provides an in-memory tracker.Client for tests.
package trackertest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// Operation names recorded in Call.Op and passed to Fail.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpClose  = "close"
	OpReopen = "reopen"
	OpLabel  = "label"
)

// Call is one recorded client call.
type Call struct {
	Op     string
	Number int
	Title  string
}

// Fake is a tracker.Client backed by a map. It is safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	issues map[int]tracker.Issue
	labels map[string]tracker.Label
	next   int
	calls  []Call

	// Fail, when set, is consulted before each call; a non-nil return is
	// returned by the call without any effect. title is the issue title
	// for create and the label name for label.
	Fail func(op string, number int, title string) error
}

var _ tracker.Client = (*Fake)(nil)

// New returns a Fake holding issues. New issues are numbered from 101, or
// from one past the highest seeded number if that is larger.
func New(issues ...tracker.Issue) *Fake {
	f := &Fake{
		issues: make(map[int]tracker.Issue),
		labels: make(map[string]tracker.Label),
		next:   101,
	}
	for _, is := range issues {
		if is.State == "" {
			is.State = tracker.StateOpen
		}
		f.issues[is.Number] = cloneIssue(is)
		if is.Number >= f.next {
			f.next = is.Number + 1
		}
	}
	return f
}

func (f *Fake) record(op string, number int, title string) error {
	f.calls = append(f.calls, Call{Op: op, Number: number, Title: title})
	if f.Fail != nil {
		return f.Fail(op, number, title)
	}
	return nil
}

// ListIssues implements tracker.Client.
func (f *Fake) ListIssues(_ context.Context, label string) ([]tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpList, 0, label); err != nil {
		return nil, err
	}
	var out []tracker.Issue
	for _, is := range f.sorted() {
		if label == "" || is.HasLabel(label) {
			out = append(out, cloneIssue(is))
		}
	}
	return out, nil
}

// GetIssue implements tracker.Client.
func (f *Fake) GetIssue(_ context.Context, number int) (tracker.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpGet, number, ""); err != nil {
		return tracker.Issue{}, err
	}
	is, ok := f.issues[number]
	if !ok {
		return tracker.Issue{}, fmt.Errorf("issue #%d: %w", number, tracker.ErrNotFound)
	}
	return cloneIssue(is), nil
}

// CreateIssue implements tracker.Client.
func (f *Fake) CreateIssue(_ context.Context, issue tracker.NewIssue) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpCreate, 0, issue.Title); err != nil {
		return 0, err
	}
	n := f.next
	f.next++
	f.issues[n] = tracker.Issue{
		Number: n,
		Title:  issue.Title,
		Body:   issue.Body,
		State:  tracker.StateOpen,
		Labels: slices.Clone(issue.Labels),
		URL:    fmt.Sprintf("https://github.com/example/goals/issues/%d", n),
	}
	return n, nil
}

// UpdateIssue implements tracker.Client.
func (f *Fake) UpdateIssue(_ context.Context, number int, update tracker.IssueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpUpdate, number, update.Title); err != nil {
		return err
	}
	is, ok := f.issues[number]
	if !ok {
		return fmt.Errorf("issue #%d: %w", number, tracker.ErrNotFound)
	}
	if update.Title != "" {
		is.Title = update.Title
	}
	if update.Body != "" {
		is.Body = update.Body
	}
	labels := slices.DeleteFunc(slices.Clone(is.Labels), func(l string) bool {
		return slices.Contains(update.RemoveLabels, l)
	})
	for _, l := range update.AddLabels {
		if !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}
	is.Labels = labels
	f.issues[number] = is
	return nil
}

// CloseIssue implements tracker.Client.
func (f *Fake) CloseIssue(_ context.Context, number int) error {
	return f.setState(OpClose, number, tracker.StateClosed)
}

// ReopenIssue implements tracker.Client.
func (f *Fake) ReopenIssue(_ context.Context, number int) error {
	return f.setState(OpReopen, number, tracker.StateOpen)
}

func (f *Fake) setState(op string, number int, state tracker.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(op, number, ""); err != nil {
		return err
	}
	is, ok := f.issues[number]
	if !ok {
		return fmt.Errorf("issue #%d: %w", number, tracker.ErrNotFound)
	}
	is.State = state
	f.issues[number] = is
	return nil
}

// EnsureLabel implements tracker.Client.
func (f *Fake) EnsureLabel(_ context.Context, label tracker.Label) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(OpLabel, 0, label.Name); err != nil {
		return err
	}
	if _, ok := f.labels[label.Name]; !ok {
		f.labels[label.Name] = label
	}
	return nil
}

// Issue returns a copy of issue number.
func (f *Fake) Issue(number int) (tracker.Issue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	is, ok := f.issues[number]
	return cloneIssue(is), ok
}

// Snapshot returns a copy of every issue ordered by number.
func (f *Fake) Snapshot() []tracker.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted()
	for i := range out {
		out[i] = cloneIssue(out[i])
	}
	return out
}

// Labels returns the names of labels created through EnsureLabel, sorted.
func (f *Fake) Labels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.labels))
	for name := range f.labels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Mutations returns the recorded calls that would change remote state.
func (f *Fake) Mutations() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		switch c.Op {
		case OpCreate, OpUpdate, OpClose, OpReopen, OpLabel:
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Fake) sorted() []tracker.Issue {
	out := make([]tracker.Issue, 0, len(f.issues))
	for _, is := range f.issues {
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func cloneIssue(is tracker.Issue) tracker.Issue {
	is.Labels = slices.Clone(is.Labels)
	return is
}
