// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package goals parses the goal documents of a project-goals tree into
// structured records. A goal document is a markdown file with a YAML
// front-matter block, stored under a milestone directory such as 2025h1:
//
//	---
//	title: Alpha
//	owners: [alice, bob]
//	status: Proposed
//	tracking_issue: 101
//	---
//
//	Summary and motivation...
//
// Loading never touches the network. The only write this package performs
// is WriteTrackingIssue, which records the issue number assigned by a sync
// run back into the document.
package goals

import (
	"fmt"
	"regexp"
	"strings"
)

// Status is the disposition of a goal as recorded in its document.
type Status int

const (
	StatusProposed Status = iota + 1
	StatusAccepted
	StatusInProgress
	StatusCompleted
	StatusNotAccepted
)

var statusNames = map[Status]string{
	StatusProposed:    "Proposed",
	StatusAccepted:    "Accepted",
	StatusInProgress:  "In progress",
	StatusCompleted:   "Completed",
	StatusNotAccepted: "Not accepted",
}

// String returns the display form used in issue bodies and reports.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether the goal is finished one way or another. Tracking
// issues of terminal goals are closed, never created.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNotAccepted
}

// ParseStatus accepts the status spellings found in goal documents. Case,
// spaces, dashes and underscores are ignored, so "In progress",
// "in-progress" and "InProgress" are the same status.
func ParseStatus(raw string) (Status, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(raw)))

	switch key {
	case "proposed":
		return StatusProposed, nil
	case "accepted":
		return StatusAccepted, nil
	case "inprogress":
		return StatusInProgress, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	case "notaccepted", "rejected":
		return StatusNotAccepted, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownStatus, raw)
}

// Goal is one initiative parsed from a goal document.
type Goal struct {
	// Identity is "<milestone>/<path under the milestone without .md>",
	// e.g. "2025h1/alpha". It depends only on where the document lives.
	Identity string

	Title     string
	Milestone string
	Owners    []string
	Status    Status

	// Body is the normalized document text below the front matter.
	Body string

	// TrackingIssue is the issue number recorded in the document, or 0.
	TrackingIssue int

	// TrackingRepo is the owner/name of a qualified reference such as
	// "org/goals#101", or "" when the reference names no repository.
	TrackingRepo string

	// Path is the filesystem path of the document.
	Path string

	// Source is the slash-separated path starting at the milestone
	// directory, e.g. "2025h1/alpha.md".
	Source string
}

var milestonePattern = regexp.MustCompile(`^\d{4}h[12]$`)

// IsMilestone reports whether name is a milestone directory name such as
// "2024h2".
func IsMilestone(name string) bool {
	return milestonePattern.MatchString(name)
}

// identityFor derives a goal identity from its milestone-relative source.
func identityFor(source string) string {
	return strings.TrimSuffix(source, ".md")
}
