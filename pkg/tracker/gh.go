// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultGhBin is the gh executable looked up on PATH.
const DefaultGhBin = "gh"

// Runner executes the gh binary with args, feeding stdin when non-nil, and
// returns stdout. Tests substitute a fake.
type Runner func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// GhConfig configures a GhClient. All state lives in this value; nothing is
// read from package globals.
type GhConfig struct {
	Repo   string // owner/name
	Bin    string // defaults to DefaultGhBin
	Logger *zerolog.Logger
	Runner Runner // defaults to running Bin with os/exec
}

// GhClient implements Client with the gh command-line tool. gh owns
// authentication and transport.
type GhClient struct {
	repo string
	bin  string
	log  zerolog.Logger
	run  Runner
}

var _ Client = (*GhClient)(nil)

// NewGhClient returns a client for cfg.Repo.
func NewGhClient(cfg GhConfig) *GhClient {
	c := &GhClient{
		repo: cfg.Repo,
		bin:  cfg.Bin,
		log:  log.Logger,
		run:  cfg.Runner,
	}
	if c.bin == "" {
		c.bin = DefaultGhBin
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	}
	c.log = c.log.With().Str("repo", cfg.Repo).Logger()
	if c.run == nil {
		c.run = c.execGh
	}
	return c
}

// Repo returns the owner/name repository the client talks to.
func (c *GhClient) Repo() string { return c.repo }

// restIssue is the subset of the REST issue payload we read.
type restIssue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
	Labels  []struct {
		Name string `json:"name"`
	} `json:"labels"`
	PullRequest json.RawMessage `json:"pull_request"`
}

func (r restIssue) issue() Issue {
	labels := make([]string, 0, len(r.Labels))
	for _, l := range r.Labels {
		labels = append(labels, l.Name)
	}
	return Issue{
		Number: r.Number,
		Title:  r.Title,
		Body:   r.Body,
		State:  ParseState(r.State),
		Labels: labels,
		URL:    r.HTMLURL,
	}
}

// ListIssues uses the REST endpoint (gh api repos/.../issues) rather than
// gh issue list, because gh issue list goes through the search API, which
// is eventually consistent and can miss issues created moments ago.
func (c *GhClient) ListIssues(ctx context.Context, label string) ([]Issue, error) {
	out, err := c.run(ctx, nil, "api",
		"--method", "GET",
		"--paginate",
		fmt.Sprintf("repos/%s/issues", c.repo),
		"-f", "state=all",
		"-f", "labels="+label,
		"-f", "per_page=100",
	)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}

	// --paginate concatenates one JSON array per page.
	var issues []Issue
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var page []restIssue
		if err := dec.Decode(&page); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("parsing issue listing: %w", err)
		}
		for _, r := range page {
			if len(r.PullRequest) > 0 && string(r.PullRequest) != "null" {
				continue
			}
			issues = append(issues, r.issue())
		}
	}
	c.log.Debug().Int("count", len(issues)).Str("label", label).Msg("listed issues")
	return issues, nil
}

// GetIssue fetches one issue by number.
func (c *GhClient) GetIssue(ctx context.Context, number int) (Issue, error) {
	out, err := c.run(ctx, nil, "api", fmt.Sprintf("repos/%s/issues/%d", c.repo, number))
	if err != nil {
		return Issue{}, fmt.Errorf("fetching issue #%d: %w", number, err)
	}
	var r restIssue
	if err := json.Unmarshal(out, &r); err != nil {
		return Issue{}, fmt.Errorf("parsing issue #%d: %w", number, err)
	}
	return r.issue(), nil
}

// CreateIssue creates an issue and returns its number.
//
// gh issue create does not support --json; it prints the issue URL
// (https://github.com/owner/repo/issues/123) on success.
func (c *GhClient) CreateIssue(ctx context.Context, issue NewIssue) (int, error) {
	args := []string{"issue", "create",
		"--repo", c.repo,
		"--title", issue.Title,
		"--body-file", "-",
	}
	for _, l := range issue.Labels {
		args = append(args, "--label", l)
	}
	out, err := c.run(ctx, []byte(issue.Body), args...)
	if err != nil {
		return 0, fmt.Errorf("creating issue %q: %w", issue.Title, err)
	}

	number, err := parseIssueURL(string(out))
	if err != nil {
		return 0, err
	}
	c.log.Info().Int("issue", number).Str("title", issue.Title).Msg("created issue")
	return number, nil
}

// parseIssueURL extracts the number from gh issue create output.
func parseIssueURL(out string) (int, error) {
	url := strings.TrimSpace(out)
	if i := strings.LastIndex(url, "\n"); i >= 0 {
		url = url[i+1:]
	}
	parts := strings.Split(url, "/")
	number, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("parsing gh issue create output: could not extract number from %q", url)
	}
	return number, nil
}

// UpdateIssue edits title, body and labels in one gh call.
func (c *GhClient) UpdateIssue(ctx context.Context, number int, update IssueUpdate) error {
	args := []string{"issue", "edit", strconv.Itoa(number), "--repo", c.repo}
	if update.Title != "" {
		args = append(args, "--title", update.Title)
	}
	var stdin []byte
	if update.Body != "" {
		args = append(args, "--body-file", "-")
		stdin = []byte(update.Body)
	}
	for _, l := range update.AddLabels {
		args = append(args, "--add-label", l)
	}
	for _, l := range update.RemoveLabels {
		args = append(args, "--remove-label", l)
	}
	if _, err := c.run(ctx, stdin, args...); err != nil {
		return fmt.Errorf("updating issue #%d: %w", number, err)
	}
	c.log.Info().Int("issue", number).Msg("updated issue")
	return nil
}

// CloseIssue closes an issue.
func (c *GhClient) CloseIssue(ctx context.Context, number int) error {
	if _, err := c.run(ctx, nil, "issue", "close", strconv.Itoa(number), "--repo", c.repo); err != nil {
		return fmt.Errorf("closing issue #%d: %w", number, err)
	}
	c.log.Info().Int("issue", number).Msg("closed issue")
	return nil
}

// ReopenIssue reopens a closed issue.
func (c *GhClient) ReopenIssue(ctx context.Context, number int) error {
	if _, err := c.run(ctx, nil, "issue", "reopen", strconv.Itoa(number), "--repo", c.repo); err != nil {
		return fmt.Errorf("reopening issue #%d: %w", number, err)
	}
	c.log.Info().Int("issue", number).Msg("reopened issue")
	return nil
}

// EnsureLabel creates label on the repository. A label that already exists
// is not an error.
func (c *GhClient) EnsureLabel(ctx context.Context, label Label) error {
	args := []string{"label", "create", label.Name, "--repo", c.repo}
	if label.Color != "" {
		args = append(args, "--color", label.Color)
	}
	if label.Description != "" {
		args = append(args, "--description", label.Description)
	}
	_, err := c.run(ctx, nil, args...)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating label %q: %w", label.Name, err)
	}
	c.log.Info().Str("label", label.Name).Msg("created label")
	return nil
}

// execGh is the default Runner.
func (c *GhClient) execGh(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	c.log.Debug().Strs("args", args).Msg("gh")
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, classifyGhError(args, stderr.String(), err)
	}
	return out, nil
}

// classifyGhError wraps a failed gh invocation, attaching ErrRateLimited or
// ErrNotFound when stderr says so.
func classifyGhError(args []string, stderr string, err error) error {
	sub := strings.Join(args[:min(2, len(args))], " ")
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)

	var sentinel error
	switch {
	case strings.Contains(lower, "rate limit"):
		sentinel = ErrRateLimited
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "could not resolve to an issue"),
		strings.Contains(lower, "http 404"):
		sentinel = ErrNotFound
	}
	if sentinel != nil {
		return fmt.Errorf("gh %s: %w: %s: %w", sub, sentinel, msg, err)
	}
	if msg != "" {
		return fmt.Errorf("gh %s: %s: %w", sub, msg, err)
	}
	return fmt.Errorf("gh %s: %w", sub, err)
}

// IsRetryable reports whether err is worth retrying on a later run without
// any change to the inputs.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded)
}
