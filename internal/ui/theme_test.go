package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetThemeFallback(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestEveryThemeColoursEveryLinkState(t *testing.T) {
	states := []string{linkIdle, linkBusy, linkReady, linkOffline, linkUnpaired, linkNoTV}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, state := range states {
			if th.LinkColors[state] == "" {
				t.Fatalf("theme %s has no colour for %q", name, state)
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  Netflix ", 10, "Netflix"},
		{"Living room TV", 8, "Livin..."},
		{"abcd", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestListWindow(t *testing.T) {
	cases := []struct {
		selected, n, height int
		start, end          int
	}{
		{0, 3, 10, 0, 3},
		{0, 20, 5, 0, 5},
		{10, 20, 5, 8, 13},
		{19, 20, 5, 15, 20},
	}
	for _, tc := range cases {
		start, end := listWindow(tc.selected, tc.n, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("listWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tc.selected, tc.n, tc.height, start, end, tc.start, tc.end)
		}
	}
}

func TestLevelBar(t *testing.T) {
	if got := levelBar(3, 0, 5); got != "███░░" {
		t.Fatalf("levelBar(3, 0, 5) = %q", got)
	}
	if got := levelBar(9, -2, 2); got != "████" {
		t.Fatalf("levelBar clamps high = %q", got)
	}
	if got := levelBar(0, 0, 0); got != "" {
		t.Fatalf("levelBar empty range = %q", got)
	}
}
