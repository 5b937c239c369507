package format

import "testing"

const red = "\x1b[31m"

func TestWidthIgnoresColor(t *testing.T) {
	for _, s := range []string{
		"needed",
		red + "needed" + ansiReset,
		"\x1b[1;31;40mneeded" + ansiReset,
	} {
		if got := StripAnsi(s); got != "needed" {
			t.Errorf("StripAnsi(%q) = %q", s, got)
		}
		if got := DisplayWidth(s); got != 6 {
			t.Errorf("DisplayWidth(%q) = %d, want 6", s, got)
		}
	}

	if got := DisplayWidth(""); got != 0 {
		t.Errorf("DisplayWidth(\"\") = %d", got)
	}
	if got := DisplayWidth("Fix 世界"); got != 8 {
		t.Errorf("wide runes: DisplayWidth = %d, want 8", got)
	}
}

func TestTruncateToWidth(t *testing.T) {
	subject := "Content view publish fails on large repos"

	tests := []struct {
		name      string
		in        string
		max       int
		want      string
		wantWidth int
	}{
		{name: "fits", in: "katello", max: 20, want: "katello", wantWidth: 7},
		{name: "exact", in: "katello", max: 7, want: "katello", wantWidth: 7},
		{name: "long subject", in: subject, max: 15, want: "Content view...", wantWidth: 15},
		{name: "wide rune not split", in: "日本語です", max: 6, want: "日...", wantWidth: 5},
		{name: "color closed", in: red + "open issue" + ansiReset, max: 7, want: red + "open..." + ansiReset, wantWidth: 7},
		{name: "suffix only", in: "foreman", max: 3, want: "...", wantWidth: 3},
		{name: "partial suffix", in: "foreman", max: 1, want: ".", wantWidth: 1},
		{name: "zero", in: "foreman", max: 0, want: "", wantWidth: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w := TruncateToWidth(tt.in, tt.max)
			if got != tt.want || w != tt.wantWidth {
				t.Errorf("TruncateToWidth(%q, %d) = (%q, %d), want (%q, %d)",
					tt.in, tt.max, got, w, tt.want, tt.wantWidth)
			}
		})
	}
}

func TestFitPadsToColumn(t *testing.T) {
	if got := PadRight("ok", 2, 6); got != "ok    " {
		t.Errorf("PadRight() = %q", got)
	}
	if got := PadRight("overflow", 8, 4); got != "overflow" {
		t.Errorf("PadRight() must not cut, got %q", got)
	}

	colored := red + "abc" + ansiReset
	if got := Fit(colored, 5); got != colored+"  " {
		t.Errorf("Fit(colored) = %q", got)
	}
	if got := Fit("abcdefgh", 6); got != "abc..." {
		t.Errorf("Fit() = %q, want abc...", got)
	}
	for _, s := range []string{"a", "abcdefghijkl", "日本語です"} {
		if w := DisplayWidth(Fit(s, 5)); w != 5 {
			t.Errorf("Fit(%q, 5) width = %d", s, w)
		}
	}
}
