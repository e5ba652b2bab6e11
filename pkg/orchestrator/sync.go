// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/mesh-intelligence/goalsync/pkg/goals"
	"github.com/mesh-intelligence/goalsync/pkg/reconcile"
	"github.com/mesh-intelligence/goalsync/pkg/tracker"
)

// Check validates every goal document under the goals root and prints a
// summary. It never contacts the issue tracker.
func (o *Orchestrator) Check() error {
	logf("check: validating goal documents in %s", o.cfg.Goals.Root)
	result, err := goals.Check(o.cfg.Goals.Root, o.loadOptions())
	if result == nil {
		return err
	}
	if werr := result.WriteReport(o.out); werr != nil {
		return werr
	}
	return err
}

// Issues reconciles the goal documents with their tracking issues and
// prints the report. Load and index failures are returned as errors;
// per-goal failures are only in the report.
func (o *Orchestrator) Issues(ctx context.Context) (*reconcile.Report, error) {
	gs, err := goals.Load(o.cfg.Goals.Root, o.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("loading goals from %s: %w", o.cfg.Goals.Root, err)
	}
	repo, err := o.repository()
	if err != nil {
		return nil, err
	}
	client := o.trackerClient(repo)

	logf("issues: %d goals, repository %s, mode %s", len(gs), repo, o.cfg.Mode())
	index, err := tracker.BuildIndex(ctx, client, o.cfg.Tracker.TrackingLabel)
	if err != nil {
		return nil, err
	}

	logger := runLogger("issues").With().Str("repo", repo).Logger()
	engine := reconcile.New(client, reconcile.Options{
		Mode:       o.cfg.Mode(),
		Pace:       o.cfg.Pace(),
		Repository: repo,
		Labels: reconcile.Labels{
			Tracking:        o.cfg.Tracker.TrackingLabel,
			MilestonePrefix: o.cfg.Tracker.MilestoneLabelPrefix,
		},
		DocsURL: o.cfg.Tracker.DocsURL,
		Logger:  &logger,
		RunID:   o.runID,
	})
	report := engine.Reconcile(ctx, gs, index)
	if _, err := report.WriteTo(o.out); err != nil {
		return report, fmt.Errorf("writing report: %w", err)
	}
	return report, nil
}

// Export writes <export.dir>/<milestone>.json for every milestone that has
// goal documents or marked tracking issues, and returns the written paths.
func (o *Orchestrator) Export(ctx context.Context) ([]string, error) {
	gs, err := goals.Load(o.cfg.Goals.Root, o.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("loading goals from %s: %w", o.cfg.Goals.Root, err)
	}
	repo, err := o.repository()
	if err != nil {
		return nil, err
	}
	index, err := tracker.BuildIndex(ctx, o.trackerClient(repo), o.cfg.Tracker.TrackingLabel)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, g := range gs {
		seen[g.Milestone] = true
	}
	for _, m := range index.Milestones() {
		seen[m] = true
	}
	milestones := make([]string, 0, len(seen))
	for m := range seen {
		milestones = append(milestones, m)
	}
	sort.Strings(milestones)

	var written []string
	for _, m := range milestones {
		data, err := json.MarshalIndent(tracker.BuildMilestoneData(repo, m, index), "", "  ")
		if err != nil {
			return written, fmt.Errorf("encoding %s: %w", m, err)
		}
		path := filepath.Join(o.cfg.Export.Dir, m+".json")
		if err := writeFileAtomic(path, append(data, '\n')); err != nil {
			return written, err
		}
		written = append(written, path)
		logf("export: wrote %s", path)
	}
	return written, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
