// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tracker is the boundary to the remote issue tracker. It defines
// the Client interface the reconciliation engine talks to, a Client backed
// by the gh command-line tool, the identity marker embedded in every
// tracking issue, and the Index built from one listing of the repository.
package tracker

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors returned (wrapped) by Client implementations.
var (
	ErrNotFound          = errors.New("issue not found")
	ErrRateLimited       = errors.New("rate limited by the issue tracker")
	ErrDuplicateIdentity = errors.New("identity claimed by more than one issue")
)

// State is the open/closed state of an issue.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// ParseState maps tracker spellings ("open", "OPEN", "closed") to a State.
func ParseState(s string) State {
	if strings.EqualFold(s, string(StateClosed)) {
		return StateClosed
	}
	return StateOpen
}

// Issue is a snapshot of one remote issue.
type Issue struct {
	Number int
	Title  string
	Body   string
	State  State
	Labels []string
	URL    string
}

// HasLabel reports whether the issue carries label.
func (i Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// MarkerIdentity returns the goal identity recorded in the issue body.
func (i Issue) MarkerIdentity() (string, bool) {
	m, ok := ParseMarker(i.Body)
	if !ok {
		return "", false
	}
	return m.Identity, true
}

// NewIssue is the content of an issue to create.
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// IssueUpdate describes an edit. Empty Title or Body leave the field as is.
type IssueUpdate struct {
	Title        string
	Body         string
	AddLabels    []string
	RemoveLabels []string
}

// Label is a repository label definition.
type Label struct {
	Name        string
	Color       string // six hex digits, no leading #
	Description string
}

// Client is the remote issue tracker as seen by the engine. Every method is
// a single remote call; implementations hold their own repository and
// credentials configuration.
type Client interface {
	// ListIssues returns every issue, open or closed, carrying label.
	ListIssues(ctx context.Context, label string) ([]Issue, error)
	GetIssue(ctx context.Context, number int) (Issue, error)
	CreateIssue(ctx context.Context, issue NewIssue) (int, error)
	UpdateIssue(ctx context.Context, number int, update IssueUpdate) error
	CloseIssue(ctx context.Context, number int) error
	ReopenIssue(ctx context.Context, number int) error
	// EnsureLabel creates the label unless it already exists.
	EnsureLabel(ctx context.Context, label Label) error
}
