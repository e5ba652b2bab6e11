// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// Action is what the engine decided for one goal.
type Action int

const (
	ActionUpToDate Action = iota
	ActionCreate
	ActionUpdate
	ActionClose
	ActionReopen
	// ActionLink records an existing issue's number in the goal document.
	ActionLink
	// ActionSkip is a finished goal that never had an issue.
	ActionSkip
	// ActionResolve is a goal whose issue could not be determined.
	ActionResolve
	// ActionNotProcessed is a goal not reached before the run stopped.
	ActionNotProcessed
)

var actionNames = [...]string{
	ActionUpToDate:     "up to date",
	ActionCreate:       "create",
	ActionUpdate:       "update",
	ActionClose:        "close",
	ActionReopen:       "reopen",
	ActionLink:         "link",
	ActionSkip:         "skip",
	ActionResolve:      "resolve",
	ActionNotProcessed: "not processed",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// mutating reports whether the action changes remote state.
func (a Action) mutating() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionClose, ActionReopen:
		return true
	}
	return false
}

// Entry is the outcome for one goal.
type Entry struct {
	Identity string
	Title    string
	Source   string
	Action   Action
	// Issue is the tracking issue number, 0 when none exists yet.
	Issue int
	// Applied is set in Commit mode once the change has been made. An
	// entry can be applied and still carry an error from a later step,
	// such as the document write-back after a create.
	Applied bool
	// Changes lists what differs for update and reopen: title, body,
	// marker, labels.
	Changes []string
	Err     error
}

// Failed reports whether the goal needs another run.
func (e Entry) Failed() bool { return e.Err != nil || e.Action == ActionNotProcessed }

// Report is the result of one Reconcile call.
type Report struct {
	RunID    string
	Mode     Mode
	Entries  []Entry
	Duration time.Duration
}

// Failures returns the entries that did not complete.
func (r *Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

// Mutations returns the entries that change remote state: planned ones in
// a dry run, applied ones in a commit run.
func (r *Report) Mutations() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if !e.Action.mutating() {
			continue
		}
		if (r.Mode == DryRun && e.Err == nil) || e.Applied {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies successful entries by action.
func (r *Report) Counts() map[Action]int {
	counts := make(map[Action]int)
	for _, e := range r.Entries {
		if !e.Failed() {
			counts[e.Action]++
		}
	}
	return counts
}

// Line renders the report line of one entry.
func (r *Report) Line(e Entry) string {
	if e.Action == ActionNotProcessed {
		return "not processed: " + e.Title
	}
	if e.Err != nil && !e.Applied {
		return fmt.Sprintf("failed to %s: %s: %v", e.verb(), e.Title, e.Err)
	}
	line := e.outcome(r.Mode)
	if e.Err != nil {
		line += fmt.Sprintf(", but: %v", e.Err)
	}
	return line
}

// verb names the attempted operation in failure lines.
func (e Entry) verb() string {
	switch e.Action {
	case ActionCreate:
		return "create issue"
	case ActionUpdate:
		return fmt.Sprintf("update issue #%d", e.Issue)
	case ActionClose:
		return fmt.Sprintf("close issue #%d", e.Issue)
	case ActionReopen:
		return fmt.Sprintf("reopen issue #%d", e.Issue)
	case ActionLink:
		return fmt.Sprintf("record tracking issue #%d", e.Issue)
	case ActionResolve:
		return "resolve tracking issue"
	}
	return e.Action.String()
}

func (e Entry) outcome(mode Mode) string {
	changes := ""
	if len(e.Changes) > 0 {
		changes = " (" + strings.Join(e.Changes, ", ") + ")"
	}
	if mode == DryRun {
		switch e.Action {
		case ActionCreate:
			return "would create issue: " + e.Title
		case ActionUpdate:
			return fmt.Sprintf("would update issue #%d: %s%s", e.Issue, e.Title, changes)
		case ActionClose:
			return fmt.Sprintf("would close issue #%d: %s", e.Issue, e.Title)
		case ActionReopen:
			return fmt.Sprintf("would reopen issue #%d: %s", e.Issue, e.Title)
		case ActionLink:
			return fmt.Sprintf("would record tracking issue #%d: %s", e.Issue, e.Title)
		}
	} else {
		switch e.Action {
		case ActionCreate:
			return fmt.Sprintf("created issue #%d: %s", e.Issue, e.Title)
		case ActionUpdate:
			return fmt.Sprintf("updated issue #%d: %s%s", e.Issue, e.Title, changes)
		case ActionClose:
			return fmt.Sprintf("closed: %s (#%d)", e.Title, e.Issue)
		case ActionReopen:
			return fmt.Sprintf("reopened: %s (#%d)", e.Title, e.Issue)
		case ActionLink:
			return fmt.Sprintf("linked issue #%d: %s", e.Issue, e.Title)
		}
	}
	switch e.Action {
	case ActionUpToDate:
		return "up to date: " + e.Title
	case ActionSkip:
		return "skipped: " + e.Title + " (no tracking issue needed)"
	}
	return e.Action.String() + ": " + e.Title
}

// summaryOrder fixes the order of the counts in the summary line.
var summaryOrder = []struct {
	action Action
	dry    string
	commit string
}{
	{ActionCreate, "to create", "created"},
	{ActionUpdate, "to update", "updated"},
	{ActionClose, "to close", "closed"},
	{ActionReopen, "to reopen", "reopened"},
	{ActionLink, "to link", "linked"},
	{ActionUpToDate, "up to date", "up to date"},
	{ActionSkip, "skipped", "skipped"},
}

// WriteTo writes one line per goal, a summary, and the failures. Colors
// are used only when w is a terminal.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	re := lipgloss.NewRenderer(w)
	var (
		okStyle   = re.NewStyle().Foreground(lipgloss.Color("#5FAF5F"))
		planStyle = re.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
		dimStyle  = re.NewStyle().Foreground(lipgloss.Color("#888888"))
		failStyle = re.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
		headStyle = re.NewStyle().Bold(true)
	)

	var sb strings.Builder
	for _, e := range r.Entries {
		style := okStyle
		switch {
		case e.Failed():
			style = failStyle
		case e.Action == ActionUpToDate || e.Action == ActionSkip:
			style = dimStyle
		case r.Mode == DryRun:
			style = planStyle
		}
		sb.WriteString(style.Render(r.Line(e)))
		sb.WriteByte('\n')
	}

	counts := r.Counts()
	var parts []string
	for _, s := range summaryOrder {
		if n := counts[s.action]; n > 0 {
			label := s.commit
			if r.Mode == DryRun {
				label = s.dry
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	failures := r.Failures()
	if len(failures) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(failures)))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	sb.WriteString(headStyle.Render(fmt.Sprintf("%s: %d goals: %s", r.Mode, len(r.Entries), strings.Join(parts, ", "))))
	sb.WriteByte('\n')

	if len(failures) > 0 {
		sb.WriteString(failStyle.Render("failures:"))
		sb.WriteByte('\n')
		for _, e := range failures {
			reason := "not processed"
			if e.Err != nil {
				reason = e.Err.Error()
				if tracker.IsRetryable(e.Err) {
					reason += " (retryable)"
				}
			}
			fmt.Fprintf(&sb, "   - %s: %s\n", e.Identity, reason)
		}
		sb.WriteString("rerun command to resume\n")
	} else if r.Mode == DryRun && len(r.Mutations()) > 0 {
		sb.WriteString(dimStyle.Render("dry run: rerun with --commit to apply"))
		sb.WriteByte('\n')
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
