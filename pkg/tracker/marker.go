// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkerVersion is the marker format written by FormatMarker.
//
// Version 1 is a hidden HTML comment holding a YAML flow mapping:
//
//	<!-- goalsync: {version: 1, identity: "2025h1/alpha"} -->
//
// Version 0 is the older visible front-matter block at the top of the body:
//
//	---
//	goal_identity: 2025h1/alpha
//	---
//
// ParseMarker reads both, and reads any later version that still carries
// an identity key.
const MarkerVersion = 1

// Marker links an issue to the goal that owns it.
type Marker struct {
	Version  int    `yaml:"version"`
	Identity string `yaml:"identity"`
}

var markerRE = regexp.MustCompile(`(?s)<!--\s*goalsync:\s*(.*?)\s*-->`)

// legacyFrontMatter is the version 0 marker block.
type legacyFrontMatter struct {
	Identity string `yaml:"goal_identity"`
}

// FormatMarker returns the current-version marker line for identity.
func FormatMarker(identity string) string {
	return fmt.Sprintf("<!-- goalsync: {version: %d, identity: %s} -->", MarkerVersion, quoteIdentity(identity))
}

// quoteIdentity renders identity as a YAML double-quoted scalar that can
// sit inside an HTML comment: "--" and ">" never appear in the output.
func quoteIdentity(identity string) string {
	var b strings.Builder
	b.WriteByte('"')
	prev := byte(0)
	for _, r := range identity {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '>':
			b.WriteString(`\x3e`)
		case r == '-' && prev == '-':
			b.WriteString(`\x2d`)
			prev = 'd'
			continue
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
		if r < 0x80 {
			prev = byte(r)
		} else {
			prev = 0
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ParseMarker finds the identity marker in an issue body.
func ParseMarker(body string) (Marker, bool) {
	if m := markerRE.FindStringSubmatch(body); m != nil {
		var mk Marker
		if err := yaml.Unmarshal([]byte(m[1]), &mk); err == nil && mk.Identity != "" {
			return mk, true
		}
	}
	if block, _, ok := splitLegacyBlock(body); ok {
		var fm legacyFrontMatter
		if err := yaml.Unmarshal([]byte(block), &fm); err == nil && fm.Identity != "" {
			return Marker{Version: 0, Identity: fm.Identity}, true
		}
	}
	return Marker{}, false
}

// StripMarker removes every marker form from body so that the rest can be
// compared as content.
func StripMarker(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = markerRE.ReplaceAllString(body, "")
	if block, rest, ok := splitLegacyBlock(body); ok {
		var fm legacyFrontMatter
		if err := yaml.Unmarshal([]byte(block), &fm); err == nil && fm.Identity != "" {
			body = rest
		}
	}
	return body
}

// splitLegacyBlock splits a leading "---" block from body.
func splitLegacyBlock(body string) (block, rest string, ok bool) {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	if !strings.HasPrefix(body, "---\n") {
		return "", body, false
	}
	tail := body[4:]
	idx := strings.Index(tail, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(tail, "\n---") {
			return tail[:len(tail)-4], "", true
		}
		return "", body, false
	}
	return tail[:idx], tail[idx+5:], true
}
