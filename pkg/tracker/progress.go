// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker

import (
	"regexp"
	"strings"
)

// Progress summarises how far along a tracking issue is. Exactly one field
// is set. The JSON shape is the one the goal book's progress bars consume.
type Progress struct {
	Tracked *TrackedProgress `json:"Tracked,omitempty"`
	Binary  *BinaryProgress  `json:"Binary,omitempty"`
	Error   *ProgressError   `json:"Error,omitempty"`
}

// TrackedProgress counts checked boxes in the issue body.
type TrackedProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// BinaryProgress means the issue has no checkboxes; the issue state alone
// says whether it is done.
type BinaryProgress struct{}

// ProgressError explains why progress could not be computed.
type ProgressError struct {
	Message string `json:"message"`
}

var checkboxRE = regexp.MustCompile(`(?m)^\s*[-*+]\s+\[([ xX])\]`)

// ProgressOf computes the progress of one issue from its body checkboxes.
func ProgressOf(issue Issue) Progress {
	body := StripMarker(issue.Body)
	boxes := checkboxRE.FindAllStringSubmatch(body, -1)
	if len(boxes) == 0 {
		return Progress{Binary: &BinaryProgress{}}
	}
	p := &TrackedProgress{Total: len(boxes)}
	for _, b := range boxes {
		if strings.EqualFold(b[1], "x") {
			p.Completed++
		}
	}
	return Progress{Tracked: p}
}

// MilestoneData is the per-milestone JSON document published for the goal
// book.
type MilestoneData struct {
	Repository string      `json:"repository"`
	Milestone  string      `json:"milestone"`
	Issues     []IssueData `json:"issues"`
}

// IssueData is one entry of MilestoneData.
type IssueData struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	URL      string   `json:"url,omitempty"`
	State    string   `json:"state"` // OPEN or CLOSED
	Identity string   `json:"identity"`
	Progress Progress `json:"progress"`
}

// BuildMilestoneData collects the marked issues of milestone from idx.
func BuildMilestoneData(repo, milestone string, idx *Index) MilestoneData {
	data := MilestoneData{Repository: repo, Milestone: milestone, Issues: []IssueData{}}
	for _, is := range idx.ForMilestone(milestone) {
		id, _ := is.MarkerIdentity()
		data.Issues = append(data.Issues, IssueData{
			Number:   is.Number,
			Title:    is.Title,
			URL:      is.URL,
			State:    strings.ToUpper(string(is.State)),
			Identity: id,
			Progress: ProgressOf(is),
		})
	}
	return data
}
