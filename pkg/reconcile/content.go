// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package reconcile

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

//go:embed issue_body.tmpl
var issueBodyText string

var issueBodyTmpl = template.Must(template.New("issue_body").Parse(issueBodyText))

// bodyData is the input to issue_body.tmpl.
type bodyData struct {
	Marker    string
	Owners    string
	Milestone string
	Status    string
	Source    string
	DocURL    string
	Body      string
}

// renderBody produces the issue body for g: the identity marker, a metadata
// table and the goal text.
func renderBody(g goals.Goal, docsURL string) (string, error) {
	owners := make([]string, len(g.Owners))
	for i, o := range g.Owners {
		owners[i] = "@" + o
	}
	data := bodyData{
		Marker:    tracker.FormatMarker(g.Identity),
		Owners:    strings.Join(owners, ", "),
		Milestone: g.Milestone,
		Status:    g.Status.String(),
		Source:    g.Source,
		Body:      g.Body,
	}
	if docsURL != "" {
		data.DocURL = strings.TrimRight(docsURL, "/") + "/" + strings.TrimSuffix(g.Source, ".md") + ".html"
	}

	var sb strings.Builder
	if err := issueBodyTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering issue body for %s: %w", g.Identity, err)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// desired is what the remote issue of a goal should look like.
type desired struct {
	title  string
	body   string
	labels []string
}

// Change names reported in Entry.Changes.
const (
	changeTitle  = "title"
	changeBody   = "body"
	changeMarker = "marker"
	changeLabels = "labels"
)

// delta is the difference between an issue and its desired content.
type delta struct {
	changes      []string
	addLabels    []string
	removeLabels []string
}

func (d delta) empty() bool { return len(d.changes) == 0 }

// update turns the delta into the edit that brings the issue in line.
func (d delta) update(want desired) tracker.IssueUpdate {
	u := tracker.IssueUpdate{AddLabels: d.addLabels, RemoveLabels: d.removeLabels}
	if slices.Contains(d.changes, changeTitle) {
		u.Title = want.title
	}
	if slices.Contains(d.changes, changeBody) || slices.Contains(d.changes, changeMarker) {
		u.Body = want.body
	}
	return u
}

// compare diffs issue against want. Bodies are compared after removing the
// marker and normalizing, so formatting-only edits on either side do not
// count. An issue whose marker is missing or older than the current format
// needs its body rewritten. Only labels the tool manages are compared.
func compare(issue tracker.Issue, want desired, labels Labels) delta {
	var d delta
	if strings.TrimSpace(issue.Title) != strings.TrimSpace(want.title) {
		d.changes = append(d.changes, changeTitle)
	}
	have := goals.Normalize(tracker.StripMarker(issue.Body))
	if have != goals.Normalize(tracker.StripMarker(want.body)) {
		d.changes = append(d.changes, changeBody)
	} else if m, ok := tracker.ParseMarker(issue.Body); !ok || m.Version < tracker.MarkerVersion {
		d.changes = append(d.changes, changeMarker)
	}

	for _, l := range want.labels {
		if !issue.HasLabel(l) {
			d.addLabels = append(d.addLabels, l)
		}
	}
	for _, l := range issue.Labels {
		if labels.managed(l) && !slices.Contains(want.labels, l) {
			d.removeLabels = append(d.removeLabels, l)
		}
	}
	if len(d.addLabels) > 0 || len(d.removeLabels) > 0 {
		d.changes = append(d.changes, changeLabels)
	}
	return d
}
