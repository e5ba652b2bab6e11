// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package goals

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\r\n", "a\nb"},
		{"trailing space", "a  \nb\t\n", "a\nb"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"leading and trailing blanks", "\n\n  \na\n\n", "a"},
		{"bullets", "* one\n+ two\n  * nested", "- one\n- two\n  - nested"},
		{"bold is not a bullet", "**bold** text", "**bold** text"},
		{"autolink", "see <https://example.com/x>", "see https://example.com/x"},
		{"comment", "a <!-- hidden -->b\n<!--\nmulti\n-->\nc", "a b\n\nc"},
		{"tabs", "\tcode", "    code"},
		{
			"fence keeps content",
			"```\n* literal\n\n\n<https://x.y>\n```",
			"```\n* literal\n\n\n<https://x.y>\n```",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_NestedComments(t *testing.T) {
	t.Parallel()
	if got := Normalize("a <!<!-- x -->-- y --> b"); got != "a  b" {
		t.Errorf("Normalize = %q, want %q", got, "a  b")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"# Title\r\n\r\n\r\n* a\t\n+ b  \n\n<https://x.y>\n",
		"```go\nfunc f() {\n\n\n}\n```\n\n\n* tail",
		"<!-- goalsync: {version: 1, identity: 2025h1/a} -->\nbody",
		"a <!<!-- x -->-- y --> b",
		"<<!-- a -->!<!-- b -->-<!-- c -->- nested --> tail",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}
