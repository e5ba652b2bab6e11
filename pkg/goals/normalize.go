// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import (
	"regexp"
	"strings"
)

var (
	htmlCommentRE = regexp.MustCompile(`(?s)<!--.*?-->`)
	bulletRE      = regexp.MustCompile(`^(\s*)[*+](\s+)`)
	autolinkRE    = regexp.MustCompile(`<(https?://[^>\s]+)>`)
)

// Normalize canonicalizes markdown text so that formatting-only edits do not
// register as content changes. The rules, applied in order:
//
//   - CRLF and lone CR become LF
//   - HTML comments are removed, repeatedly, until none remain
//   - tabs expand to four spaces and trailing whitespace is stripped
//   - outside fenced code blocks: "*" and "+" bullets become "-",
//     <https://...> autolinks become bare URLs, and runs of blank lines
//     collapse to one
//   - leading and trailing blank lines are trimmed
//
// Normalize is idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripComments(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	prevBlank := false
	for _, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		line = strings.TrimRight(line, " ")

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			prevBlank = false
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if line == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
			out = append(out, line)
			continue
		}
		prevBlank = false
		line = bulletRE.ReplaceAllString(line, "${1}-${2}")
		line = autolinkRE.ReplaceAllString(line, "$1")
		out = append(out, line)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// stripComments removes HTML comments until a pass changes nothing, so
// comment delimiters joined by a removal are removed as well.
func stripComments(text string) string {
	for {
		next := htmlCommentRE.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}
