// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tracker

import (
	"strings"
	"testing"
)

func TestParseMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantID      string
		wantVersion int
	}{
		{"current", FormatMarker("2025h1/alpha") + "\n\nbody", true, "2025h1/alpha", 1},
		{"current mid body", "intro\n" + FormatMarker("2025h1/x/y") + "\nrest", true, "2025h1/x/y", 1},
		{"legacy", "---\ngoal_identity: 2024h2/beta\n---\n\nbody", true, "2024h2/beta", 0},
		{"legacy crlf", "---\r\ngoal_identity: 2024h2/beta\r\n---\r\nbody", true, "2024h2/beta", 0},
		{"legacy without trailing newline", "---\ngoal_identity: 2024h2/beta\n---", true, "2024h2/beta", 0},
		{"other front matter", "---\ntitle: nope\n---\nbody", false, "", 0},
		{"plain comment", "<!-- just a note -->\nbody", false, "", 0},
		{"empty identity", "<!-- goalsync: {version: 1} -->", false, "", 0},
		{"none", "just a body", false, "", 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, ok := ParseMarker(tc.body)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if m.Identity != tc.wantID || m.Version != tc.wantVersion {
				t.Errorf("marker = %+v, want identity %q version %d", m, tc.wantID, tc.wantVersion)
			}
		})
	}
}

func TestFormatMarker_QuotesIdentity(t *testing.T) {
	t.Parallel()
	id := `2025h1/odd "name": here`
	m, ok := ParseMarker(FormatMarker(id))
	if !ok || m.Identity != id {
		t.Errorf("ParseMarker(FormatMarker(%q)) = %+v, %v", id, m, ok)
	}
}

func TestFormatMarker_StaysInsideComment(t *testing.T) {
	t.Parallel()
	for _, id := range []string{
		"2025h1/a-->b",
		"2025h1/x--y",
		"2025h1/---",
		"2025h1/arrow->",
		"2025h1/rust-for-linux",
		"2025h1/tab\there",
		`2025h1/back\slash`,
	} {
		marker := FormatMarker(id)
		if n := strings.Count(marker, "--"); n != 2 {
			t.Errorf("FormatMarker(%q) = %q: %d occurrences of --, want 2", id, marker, n)
		}
		body := marker + "\n\nbody --> text"
		m, ok := ParseMarker(body)
		if !ok || m.Identity != id || m.Version != MarkerVersion {
			t.Errorf("ParseMarker(FormatMarker(%q)) = %+v, %v", id, m, ok)
		}
		if got := StripMarker(body); got != "\n\nbody --> text" {
			t.Errorf("StripMarker left %q", got)
		}
	}
	if got := FormatMarker("2025h1/rust-for-linux"); got != `<!-- goalsync: {version: 1, identity: "2025h1/rust-for-linux"} -->` {
		t.Errorf("plain identity marker = %q", got)
	}
}

func TestStripMarker(t *testing.T) {
	t.Parallel()

	body := FormatMarker("2025h1/alpha") + "\n\n| Owner(s) | @alice |\n"
	got := StripMarker(body)
	if strings.Contains(got, "goalsync") {
		t.Errorf("marker left in %q", got)
	}
	if !strings.Contains(got, "@alice") {
		t.Errorf("content lost: %q", got)
	}

	legacy := "---\ngoal_identity: 2024h2/beta\n---\nbody\n"
	if got := StripMarker(legacy); got != "body\n" {
		t.Errorf("StripMarker(legacy) = %q", got)
	}

	other := "---\ntitle: keep\n---\nbody\n"
	if got := StripMarker(other); got != other {
		t.Errorf("StripMarker changed unrelated front matter: %q", got)
	}
}

func TestIssueMarkerIdentity(t *testing.T) {
	t.Parallel()
	is := Issue{Number: 1, Body: FormatMarker("2025h1/alpha")}
	if id, ok := is.MarkerIdentity(); !ok || id != "2025h1/alpha" {
		t.Errorf("MarkerIdentity = %q, %v", id, ok)
	}
	if _, ok := (Issue{Body: "nothing"}).MarkerIdentity(); ok {
		t.Error("expected no identity")
	}
}

func TestParseState(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]State{
		"open": StateOpen, "OPEN": StateOpen, "closed": StateClosed, "CLOSED": StateClosed, "": StateOpen,
	} {
		if got := ParseState(in); got != want {
			t.Errorf("ParseState(%q) = %q, want %q", in, got, want)
		}
	}
}
