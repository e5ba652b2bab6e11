// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors wrapped by LoadError.
var (
	ErrMissingField       = errors.New("missing required field")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrAmbiguousMilestone = errors.New("ambiguous milestone directory")
	ErrNotMilestone       = errors.New("not a milestone directory")
)

// DefaultExclude lists markdown files inside milestone directories that are
// index pages, not goal documents.
var DefaultExclude = []string{"README.md", "TEMPLATE.md", "goals.md", "not_accepted.md"}

// LoadError describes a malformed goal document or milestone directory.
type LoadError struct {
	Path  string
	Field string // empty when the problem is not tied to one field
	Err   error
}

func (e *LoadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: field %q: %v", e.Path, e.Field, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadOptions tunes which files are considered goal documents.
type LoadOptions struct {
	// Exclude lists file names skipped inside milestone directories.
	// Nil means DefaultExclude.
	Exclude []string
}

func (o LoadOptions) excluded(name string) bool {
	list := o.Exclude
	if list == nil {
		list = DefaultExclude
	}
	for _, ex := range list {
		if strings.EqualFold(ex, name) {
			return true
		}
	}
	return false
}

// Load walks root and parses every goal document found below a milestone
// directory. Directories that are not milestones are descended but their
// own files are ignored. root may itself be a milestone directory.
//
// Every load error found is returned (joined); callers must not use a goal
// set that came back with an error. Goals are sorted by Source.
func Load(root string, opts LoadOptions) ([]Goal, error) {
	var (
		goals []Goal
		errs  []error
		seen  = map[string]string{} // milestone -> directory
	)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !IsMilestone(d.Name()) {
			return nil
		}
		if prev, dup := seen[d.Name()]; dup {
			errs = append(errs, &LoadError{
				Path: path,
				Err:  fmt.Errorf("%w: milestone %s also found at %s", ErrAmbiguousMilestone, d.Name(), prev),
			})
			return filepath.SkipDir
		}
		seen[d.Name()] = path

		found, err := loadMilestone(path, d.Name(), opts)
		goals = append(goals, found...)
		if err != nil {
			errs = append(errs, err)
		}
		return filepath.SkipDir
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sortGoals(goals)
	return goals, nil
}

// LoadDir parses the goal documents of a single milestone directory.
func LoadDir(dir string, opts LoadOptions) ([]Goal, error) {
	milestone := filepath.Base(filepath.Clean(dir))
	if !IsMilestone(milestone) {
		return nil, &LoadError{Path: dir, Err: ErrNotMilestone}
	}
	goals, err := loadMilestone(dir, milestone, opts)
	if err != nil {
		return nil, err
	}
	sortGoals(goals)
	return goals, nil
}

// loadMilestone parses everything below dir. Errors are joined so that one
// pass reports every malformed document.
func loadMilestone(dir, milestone string, opts LoadOptions) ([]Goal, error) {
	var (
		goals []Goal
		errs  []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if IsMilestone(d.Name()) {
				errs = append(errs, &LoadError{
					Path: path,
					Err:  fmt.Errorf("%w: nested inside milestone %s", ErrAmbiguousMilestone, milestone),
				})
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".md" || opts.excluded(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		source := milestone + "/" + filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Path: path, Err: err})
			return nil
		}
		goal, ok, err := parseDocument(milestone, source, data)
		if err != nil {
			errs = append(errs, withPath(err, path))
			return nil
		}
		if !ok {
			return nil
		}
		goal.Path = path
		goals = append(goals, goal)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walking %s: %w", dir, walkErr))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return goals, nil
}

// parseDocument builds a Goal from document bytes. ok is false when the
// document has no front matter and therefore is not a goal document.
func parseDocument(milestone, source string, data []byte) (Goal, bool, error) {
	block, body, ok, err := splitFrontMatter(data)
	if err != nil {
		return Goal{}, true, &LoadError{Err: err}
	}
	if !ok {
		return Goal{}, false, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return Goal{}, true, &LoadError{Err: fmt.Errorf("parsing front matter: %w", err)}
	}

	goal := Goal{
		Identity:  identityFor(source),
		Milestone: milestone,
		Source:    source,
		Body:      Normalize(string(body)),
	}

	if goal.Title, err = scalarValue(&fm.Title); err != nil {
		return Goal{}, true, &LoadError{Field: titleKey, Err: err}
	}
	if goal.Title == "" {
		return Goal{}, true, &LoadError{Field: titleKey, Err: ErrMissingField}
	}

	if goal.Owners, err = parseOwners(&fm.Owners); err != nil {
		return Goal{}, true, &LoadError{Field: ownersKey, Err: err}
	}
	if len(goal.Owners) == 0 {
		return Goal{}, true, &LoadError{Field: ownersKey, Err: ErrMissingField}
	}

	status, err := scalarValue(&fm.Status)
	if err != nil {
		return Goal{}, true, &LoadError{Field: statusKey, Err: err}
	}
	if status == "" {
		return Goal{}, true, &LoadError{Field: statusKey, Err: ErrMissingField}
	}
	if goal.Status, err = ParseStatus(status); err != nil {
		return Goal{}, true, &LoadError{Field: statusKey, Err: err}
	}

	if goal.TrackingRepo, goal.TrackingIssue, err = parseTrackingIssue(&fm.TrackingIssue); err != nil {
		return Goal{}, true, &LoadError{Field: trackingIssueKey, Err: err}
	}
	return goal, true, nil
}

func withPath(err error, path string) error {
	var le *LoadError
	if errors.As(err, &le) && le.Path == "" {
		le.Path = path
		return le
	}
	return &LoadError{Path: path, Err: err}
}

func sortGoals(goals []Goal) {
	sort.Slice(goals, func(i, j int) bool { return goals[i].Source < goals[j].Source })
}
