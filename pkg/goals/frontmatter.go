// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Front-matter keys. trackingIssueKey is also the key rewritten by
// WriteTrackingIssue.
const (
	titleKey         = "title"
	ownersKey        = "owners"
	statusKey        = "status"
	trackingIssueKey = "tracking_issue"
)

// frontMatter holds the raw nodes of the keys we care about. Nodes rather
// than typed fields let us report which field is malformed and accept the
// scalar/sequence variants authors actually write.
type frontMatter struct {
	Title         yaml.Node `yaml:"title"`
	Owners        yaml.Node `yaml:"owners"`
	Status        yaml.Node `yaml:"status"`
	TrackingIssue yaml.Node `yaml:"tracking_issue"`
}

// splitFrontMatter separates a leading "---" delimited block from the rest
// of the document. ok is false when the document has no front matter.
func splitFrontMatter(data []byte) (block, body []byte, ok bool, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, data, false, nil
	}
	rest := data[4:]
	offset := 0
	for {
		end := bytes.IndexByte(rest[offset:], '\n')
		var line []byte
		if end < 0 {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+end]
		}
		if trimmed := bytes.TrimRight(line, " \t"); string(trimmed) == "---" || string(trimmed) == "..." {
			block = rest[:offset]
			if end < 0 {
				return block, nil, true, nil
			}
			return block, rest[offset+end+1:], true, nil
		}
		if end < 0 {
			return nil, nil, true, errors.New("front matter is not terminated by ---")
		}
		offset += end + 1
	}
}

// scalarValue returns the string value of a scalar node. An absent or null
// node yields "".
func scalarValue(n *yaml.Node) (string, error) {
	switch {
	case n.Kind == 0:
		return "", nil
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return "", nil
	case n.Kind == yaml.ScalarNode:
		return strings.TrimSpace(n.Value), nil
	}
	return "", fmt.Errorf("expected a scalar, got %s", nodeKindName(n.Kind))
}

// parseOwners accepts either a YAML sequence or a comma-separated scalar.
// Leading "@" is stripped and duplicates are dropped, keeping first order.
func parseOwners(n *yaml.Node) ([]string, error) {
	var raw []string
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		raw = strings.Split(n.Value, ",")
	case yaml.SequenceNode:
		for i, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("entry %d: expected a scalar, got %s", i, nodeKindName(item.Kind))
			}
			raw = append(raw, item.Value)
		}
	default:
		return nil, fmt.Errorf("expected a list or comma-separated string, got %s", nodeKindName(n.Kind))
	}

	seen := make(map[string]bool, len(raw))
	owners := make([]string, 0, len(raw))
	for _, o := range raw {
		o = strings.TrimPrefix(strings.TrimSpace(o), "@")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		owners = append(owners, o)
	}
	return owners, nil
}

// parseTrackingIssue accepts 101, "#101" and "owner/repo#101". Empty,
// "TBD" and "none" mean the goal has no tracking issue yet. The repository
// of a qualified reference is returned so callers can refuse references
// into other repositories.
func parseTrackingIssue(n *yaml.Node) (repo string, number int, err error) {
	v, err := scalarValue(n)
	if err != nil {
		return "", 0, err
	}
	switch strings.ToLower(v) {
	case "", "tbd", "none", "~":
		return "", 0, nil
	}
	if prefix, num, ok := strings.Cut(v, "#"); ok {
		if prefix != "" {
			owner, name, ok := strings.Cut(prefix, "/")
			if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
				return "", 0, fmt.Errorf("invalid issue reference %q", n.Value)
			}
		}
		repo, v = prefix, num
	}
	number, err = strconv.Atoi(v)
	if err != nil || number <= 0 {
		return "", 0, fmt.Errorf("invalid issue reference %q", n.Value)
	}
	return repo, number, nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "nothing"
}
