// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// WriteTrackingIssue records number as the tracking issue of the goal
// document at path. Only the tracking_issue line of the front matter is
// touched (it is inserted before the closing delimiter when absent); every
// other byte, the line endings and the file mode are preserved. The file is
// replaced atomically, so an interrupted write leaves the old document.
func WriteTrackingIssue(path string, number int) error {
	if number <= 0 {
		return fmt.Errorf("writing tracking issue to %s: invalid issue number %d", path, number)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("writing tracking issue: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("writing tracking issue: %w", err)
	}

	updated, err := setTrackingIssue(data, number)
	if err != nil {
		return &LoadError{Path: path, Field: trackingIssueKey, Err: err}
	}
	if bytes.Equal(updated, data) {
		return nil
	}

	if err := atomic.WriteFile(path, bytes.NewReader(updated)); err != nil {
		return fmt.Errorf("writing tracking issue to %s: %w", path, err)
	}
	// Keep the original mode whatever mode the temp file was created with.
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return fmt.Errorf("restoring mode of %s: %w", path, err)
	}
	return nil
}

// setTrackingIssue returns data with the front-matter tracking_issue line
// set to number. The key is located through the parsed front matter, so
// any YAML spelling of it ("tracking_issue :", quoted keys) is rewritten
// in place rather than duplicated.
func setTrackingIssue(data []byte, number int) ([]byte, error) {
	text := string(data)
	bom := ""
	if strings.HasPrefix(text, "\xef\xbb\xbf") {
		bom, text = text[:3], text[3:]
	}
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}

	lines := strings.SplitAfter(text, "\n")
	if len(lines) == 0 || chomp(lines[0]) != "---" {
		return nil, errors.New("document has no front matter")
	}
	closing := -1
	for i := 1; i < len(lines); i++ {
		if line := chomp(lines[i]); line == "---" || line == "..." {
			closing = i
			break
		}
	}
	if closing < 0 {
		return nil, errors.New("front matter is not terminated by ---")
	}

	key, err := trackingIssueNode(strings.Join(lines[1:closing], ""))
	if err != nil {
		return nil, err
	}
	value := trackingIssueKey + ": " + strconv.Itoa(number)

	if key == nil {
		inserted := make([]string, 0, len(lines)+1)
		inserted = append(inserted, lines[:closing]...)
		inserted = append(inserted, value+newline)
		inserted = append(inserted, lines[closing:]...)
		return []byte(bom + strings.Join(inserted, "")), nil
	}

	// Node lines are 1-based within the block; lines[0] is the opening ---.
	i := key.Line
	line := lines[i]
	indent := line[:key.Column-1]
	lines[i] = indent + value + line[len(strings.TrimRight(line, "\r\n")):]
	return []byte(bom + strings.Join(lines, "")), nil
}

// trackingIssueNode returns the key node of the top-level tracking_issue
// entry in a front-matter block, or nil when the block has none.
func trackingIssueNode(block string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is a %s, not a mapping", nodeKindName(m.Kind))
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Value != trackingIssueKey {
			continue
		}
		multiline := v.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0
		if m.Style&yaml.FlowStyle != 0 || multiline || v.Line != k.Line || v.Kind != yaml.ScalarNode {
			return nil, errors.New("tracking_issue must be a single-line entry to be rewritten")
		}
		return k, nil
	}
	return nil, nil
}

// chomp strips the line terminator and trailing blanks.
func chomp(line string) string {
	return strings.TrimRight(line, " \t\r\n")
}
