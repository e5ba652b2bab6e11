// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package reconcile maps a loaded goal set onto the tracking issues of a
// repository. For each goal, in order, the engine decides whether its issue
// must be created, updated, closed or reopened, applies the decision in
// Commit mode, and records the outcome in a Report. Every decision is
// recomputed from the documents and the current remote state, so a run
// interrupted or partially failed is completed by running it again.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// ErrConflict marks a goal whose tracking issue cannot be determined
// unambiguously. The engine never mutates a conflicting goal's issue.
var ErrConflict = errors.New("tracking issue conflict")

// Defaults.
const (
	DefaultPace          = 500 * time.Millisecond
	DefaultTrackingLabel = "C-tracking-issue"
)

// Label colors used when the engine creates a missing label.
const (
	trackingLabelColor  = "f5f1fd"
	milestoneLabelColor = "c5def5"
)

// Mode selects whether remote mutations are applied.
type Mode int

const (
	// DryRun reports what would change without any mutating call. It is the
	// zero value.
	DryRun Mode = iota
	// Commit applies the changes.
	Commit
)

func (m Mode) String() string {
	if m == Commit {
		return "commit"
	}
	return "dry-run"
}

// Labels names the labels the engine manages on tracking issues.
type Labels struct {
	// Tracking is carried by every tracking issue and selects the issues
	// the index is built from.
	Tracking string
	// MilestonePrefix is prepended to the milestone name to form the
	// milestone label, e.g. "" gives "2025h1" and "M-" gives "M-2025h1".
	MilestonePrefix string
}

// Milestone returns the label for milestone.
func (l Labels) Milestone(milestone string) string {
	return l.MilestonePrefix + milestone
}

// managed reports whether label is one the engine adds and removes. Labels
// set by people are left alone.
func (l Labels) managed(label string) bool {
	if label == l.Tracking {
		return true
	}
	rest, ok := strings.CutPrefix(label, l.MilestonePrefix)
	return ok && goals.IsMilestone(rest)
}

// Options configures an Engine. The zero value is a dry run with default
// pacing and labels.
type Options struct {
	Mode Mode

	// Repository is the owner/name the client talks to. A document whose
	// tracking reference names another repository is a conflict.
	Repository string

	// Pace is the pause after every remote mutation in Commit mode.
	// Zero means DefaultPace; a negative value disables pacing.
	Pace time.Duration

	Labels Labels

	// DocsURL, when set, is the base URL of the rendered goal book; issue
	// bodies link to the goal's page under it.
	DocsURL string

	// WriteTracking records an issue number in a goal document. Defaults
	// to goals.WriteTrackingIssue.
	WriteTracking func(path string, number int) error

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger

	// RunID tags log lines and the report. Generated when empty.
	RunID string

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine reconciles goals with tracking issues. An Engine holds no state
// between runs.
type Engine struct {
	client tracker.Client
	opts   Options
	log    zerolog.Logger
}

// New returns an engine that talks to client.
func New(client tracker.Client, opts Options) *Engine {
	if opts.Pace == 0 {
		opts.Pace = DefaultPace
	}
	if opts.Labels.Tracking == "" {
		opts.Labels.Tracking = DefaultTrackingLabel
	}
	if opts.WriteTracking == nil {
		opts.WriteTracking = goals.WriteTrackingIssue
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Engine{client: client, opts: opts, log: logger}
}

// sleepContext waits for d, returning early with the context error.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run is the state of one Reconcile call.
type run struct {
	*Engine
	id      string
	log     zerolog.Logger
	claimed map[int]string  // issue number -> identity
	labeled map[string]bool // labels ensured this run
	stopped error           // set when the run must stop
}

// Reconcile processes goals in order against index and returns the report.
// Per-goal failures are recorded in their entries and do not stop the run.
// When ctx is canceled the remaining goals are reported as not processed.
func (e *Engine) Reconcile(ctx context.Context, gs []goals.Goal, index *tracker.Index) *Report {
	id := e.opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	r := &run{
		Engine:  e,
		id:      id,
		log:     e.log.With().Str("run", id).Str("mode", e.opts.Mode.String()).Logger(),
		claimed: make(map[int]string),
		labeled: make(map[string]bool),
	}
	// Labels already on an indexed issue exist in the repository.
	for _, is := range index.Issues() {
		for _, l := range is.Labels {
			r.labeled[l] = true
		}
	}
	report := &Report{RunID: id, Mode: e.opts.Mode, Entries: make([]Entry, 0, len(gs))}
	start := time.Now()
	r.log.Info().Int("goals", len(gs)).Int("issues", index.Len()).Msg("reconciling")

	for _, g := range gs {
		if r.stopped == nil {
			r.stopped = ctx.Err()
		}
		if r.stopped != nil {
			report.Entries = append(report.Entries, newEntry(g, ActionNotProcessed))
			continue
		}
		entry := r.reconcileGoal(ctx, g, index)
		if entry.Err != nil {
			r.log.Warn().Err(entry.Err).Str("goal", g.Identity).Str("action", entry.Action.String()).Msg("goal failed")
		} else {
			r.log.Debug().Str("goal", g.Identity).Str("action", entry.Action.String()).Int("issue", entry.Issue).Msg("goal done")
		}
		report.Entries = append(report.Entries, entry)
	}

	report.Duration = time.Since(start)
	r.log.Info().
		Int("failures", len(report.Failures())).
		Dur("elapsed", report.Duration).
		Msg("reconcile finished")
	return report
}

func newEntry(g goals.Goal, action Action) Entry {
	return Entry{Identity: g.Identity, Title: g.Title, Source: g.Source, Action: action}
}

// reconcileGoal decides and, in Commit mode, applies the action for g.
func (r *run) reconcileGoal(ctx context.Context, g goals.Goal, index *tracker.Index) Entry {
	issue, found, err := r.resolve(ctx, g, index)
	if err != nil {
		e := newEntry(g, ActionResolve)
		e.Issue = g.TrackingIssue
		e.Err = err
		return e
	}

	if !found {
		if g.Status.Terminal() {
			return newEntry(g, ActionSkip)
		}
		return r.create(ctx, g)
	}

	r.claimed[issue.Number] = g.Identity
	if g.Status.Terminal() {
		if issue.State == tracker.StateClosed {
			return r.upToDate(g, issue)
		}
		return r.close(ctx, g, issue)
	}

	want, err := r.desired(g)
	if err != nil {
		e := newEntry(g, ActionUpdate)
		e.Issue = issue.Number
		e.Err = err
		return e
	}
	d := compare(issue, want, r.opts.Labels)
	if issue.State == tracker.StateClosed {
		return r.reopen(ctx, g, issue, want, d)
	}
	if !d.empty() {
		return r.update(ctx, g, issue, want, d)
	}
	return r.upToDate(g, issue)
}

// resolve finds the issue that tracks g. The marker is authoritative; the
// document's tracking reference must agree with it, and is used alone only
// when no issue carries the goal's marker.
func (r *run) resolve(ctx context.Context, g goals.Goal, index *tracker.Index) (tracker.Issue, bool, error) {
	issue, found := index.Lookup(g.Identity)

	if ref := g.TrackingIssue; ref != 0 {
		if g.TrackingRepo != "" && !strings.EqualFold(g.TrackingRepo, r.opts.Repository) {
			return tracker.Issue{}, false, fmt.Errorf("%w: document names %s#%d, which is not an issue of %s",
				ErrConflict, g.TrackingRepo, ref, repoName(r.opts.Repository))
		}
		switch {
		case found && issue.Number != ref:
			return tracker.Issue{}, false, fmt.Errorf("%w: document names #%d but #%d carries the marker for %s",
				ErrConflict, ref, issue.Number, g.Identity)
		case !found:
			var ok bool
			issue, ok = index.ByNumber(ref)
			if !ok {
				// Not in the listing; the tracking label may have been
				// removed by hand.
				fetched, err := r.client.GetIssue(ctx, ref)
				if errors.Is(err, tracker.ErrNotFound) {
					return tracker.Issue{}, false, fmt.Errorf("%w: tracking issue #%d does not exist", ErrConflict, ref)
				}
				if err != nil {
					return tracker.Issue{}, false, err
				}
				if _, marked := fetched.MarkerIdentity(); !marked && !fetched.HasLabel(r.opts.Labels.Tracking) {
					return tracker.Issue{}, false, fmt.Errorf("%w: issue #%d is not a tracking issue", ErrConflict, ref)
				}
				issue = fetched
			}
			if id, marked := issue.MarkerIdentity(); marked && id != g.Identity {
				return tracker.Issue{}, false, fmt.Errorf("%w: tracking issue #%d belongs to %s", ErrConflict, ref, id)
			}
			found = true
		}
	}

	if found {
		if owner, taken := r.claimed[issue.Number]; taken && owner != g.Identity {
			return tracker.Issue{}, false, fmt.Errorf("%w: issue #%d is already tracking %s", ErrConflict, issue.Number, owner)
		}
	}
	return issue, found, nil
}

func repoName(repo string) string {
	if repo == "" {
		return "the configured repository"
	}
	return repo
}

func (r *run) desired(g goals.Goal) (desired, error) {
	body, err := renderBody(g, r.opts.DocsURL)
	if err != nil {
		return desired{}, err
	}
	return desired{
		title:  g.Title,
		body:   body,
		labels: []string{r.opts.Labels.Tracking, r.opts.Labels.Milestone(g.Milestone)},
	}, nil
}

func (r *run) create(ctx context.Context, g goals.Goal) Entry {
	e := newEntry(g, ActionCreate)
	want, err := r.desired(g)
	if err != nil {
		e.Err = err
		return e
	}
	if r.opts.Mode == DryRun {
		return e
	}

	if err := r.ensureLabels(ctx, want.labels); err != nil {
		e.Err = err
		return e
	}
	number, err := r.client.CreateIssue(ctx, tracker.NewIssue{Title: want.title, Body: want.body, Labels: want.labels})
	if err != nil {
		e.Err = err
		return e
	}
	e.Issue = number
	e.Applied = true
	r.claimed[number] = g.Identity
	r.log.Info().Str("goal", g.Identity).Int("issue", number).Msg("created tracking issue")

	if err := r.opts.WriteTracking(g.Path, number); err != nil {
		e.Err = err
	}
	r.pace(ctx)
	return e
}

func (r *run) update(ctx context.Context, g goals.Goal, issue tracker.Issue, want desired, d delta) Entry {
	e := newEntry(g, ActionUpdate)
	e.Issue = issue.Number
	e.Changes = d.changes
	if r.opts.Mode == DryRun {
		return e
	}

	if err := r.ensureLabels(ctx, d.addLabels); err != nil {
		e.Err = err
		return e
	}
	if err := r.client.UpdateIssue(ctx, issue.Number, d.update(want)); err != nil {
		e.Err = err
		return e
	}
	e.Applied = true
	r.pace(ctx)
	e.Err = r.link(g, issue.Number)
	return e
}

func (r *run) close(ctx context.Context, g goals.Goal, issue tracker.Issue) Entry {
	e := newEntry(g, ActionClose)
	e.Issue = issue.Number
	if r.opts.Mode == DryRun {
		return e
	}

	fresh, err := r.client.GetIssue(ctx, issue.Number)
	if err != nil {
		e.Err = err
		return e
	}
	if fresh.State == tracker.StateClosed {
		return r.upToDate(g, fresh)
	}
	if err := r.client.CloseIssue(ctx, issue.Number); err != nil {
		e.Err = err
		return e
	}
	e.Applied = true
	r.pace(ctx)
	e.Err = r.link(g, issue.Number)
	return e
}

// reopen reopens the closed issue of an active goal and brings its content
// up to date in the same step.
func (r *run) reopen(ctx context.Context, g goals.Goal, issue tracker.Issue, want desired, d delta) Entry {
	e := newEntry(g, ActionReopen)
	e.Issue = issue.Number
	e.Changes = d.changes
	if r.opts.Mode == DryRun {
		return e
	}

	fresh, err := r.client.GetIssue(ctx, issue.Number)
	if err != nil {
		e.Err = err
		return e
	}
	if fresh.State == tracker.StateClosed {
		if err := r.client.ReopenIssue(ctx, issue.Number); err != nil {
			e.Err = err
			return e
		}
		e.Applied = true
		r.pace(ctx)
	}

	d = compare(fresh, want, r.opts.Labels)
	e.Changes = d.changes
	if !d.empty() {
		if err := r.ensureLabels(ctx, d.addLabels); err != nil {
			e.Err = err
			return e
		}
		if err := r.client.UpdateIssue(ctx, issue.Number, d.update(want)); err != nil {
			e.Err = err
			return e
		}
		e.Applied = true
		r.pace(ctx)
	}
	if !e.Applied {
		return r.upToDate(g, fresh)
	}
	e.Err = r.link(g, issue.Number)
	return e
}

// upToDate reports an issue that needs no remote change. A document that
// does not yet record the issue number is linked to it.
func (r *run) upToDate(g goals.Goal, issue tracker.Issue) Entry {
	if g.TrackingIssue == issue.Number {
		e := newEntry(g, ActionUpToDate)
		e.Issue = issue.Number
		return e
	}
	e := newEntry(g, ActionLink)
	e.Issue = issue.Number
	if r.opts.Mode == DryRun {
		return e
	}
	if err := r.link(g, issue.Number); err != nil {
		e.Err = err
		return e
	}
	e.Applied = true
	return e
}

// link writes number into the goal document unless it is already there.
func (r *run) link(g goals.Goal, number int) error {
	if g.TrackingIssue == number {
		return nil
	}
	if err := r.opts.WriteTracking(g.Path, number); err != nil {
		return err
	}
	r.log.Info().Str("goal", g.Identity).Int("issue", number).Msg("recorded tracking issue")
	return nil
}

// ensureLabels creates each label once per run before it is first used.
func (r *run) ensureLabels(ctx context.Context, labels []string) error {
	for _, name := range labels {
		if r.labeled[name] {
			continue
		}
		label := tracker.Label{Name: name, Color: milestoneLabelColor, Description: "Goals of milestone " + name}
		if name == r.opts.Labels.Tracking {
			label = tracker.Label{Name: name, Color: trackingLabelColor, Description: "Tracking issue for a project goal"}
		}
		if err := r.client.EnsureLabel(ctx, label); err != nil {
			return err
		}
		r.labeled[name] = true
		r.pace(ctx)
	}
	return nil
}

// pace sleeps after a remote mutation. A canceled context stops the run
// once the current goal is recorded.
func (r *run) pace(ctx context.Context) {
	if r.opts.Pace < 0 {
		return
	}
	if err := r.opts.Sleep(ctx, r.opts.Pace); err != nil {
		r.stopped = err
	}
}
