package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/cherrypick/internal/format"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/pick"
	"github.com/spiffcs/cherrypick/internal/stats"
)

func TestRenderBars(t *testing.T) {
	entries := []barEntry{
		{Label: "foreman", Count: 4, Style: summaryRepoStyle},
		{Label: "katello", Count: 2, Style: summaryRepoStyle},
	}

	lines := renderBars(entries, 8)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	first := format.StripAnsi(lines[0])
	if strings.Count(first, "█") != 8 {
		t.Errorf("largest bar should fill the width: %q", first)
	}
	second := format.StripAnsi(lines[1])
	if strings.Count(second, "█") != 4 {
		t.Errorf("half-size bar should have 4 blocks: %q", second)
	}
	if !strings.HasSuffix(second, " 2") {
		t.Errorf("expected count at end of line: %q", second)
	}
}

func TestRenderBarsEmpty(t *testing.T) {
	lines := renderBars(nil, 10)
	if len(lines) != 1 || !strings.Contains(format.StripAnsi(lines[0]), "─") {
		t.Errorf("expected placeholder line, got %q", lines)
	}
}

func TestRepositoryBarsUnknownLast(t *testing.T) {
	bars := repositoryBars(map[string]int{
		model.UnknownRepository: 9,
		"katello":               2,
		"foreman":               2,
		"smart-proxy":           5,
		"hammer":                0,
	})

	var labels []string
	for _, b := range bars {
		labels = append(labels, b.Label)
	}
	want := []string{"smart-proxy", "foreman", "katello", model.UnknownRepository}
	if strings.Join(labels, ",") != strings.Join(want, ",") {
		t.Errorf("repositoryBars() order = %v, want %v", labels, want)
	}
}

func TestRenderSummary(t *testing.T) {
	out := format.StripAnsi(RenderSummary("1.12", pick.Summary{
		Needed:         3,
		Open:           1,
		Bugs:           4,
		BugsMissingURL: 1,
		ByRepository:   map[string]int{"foreman": 3},
	}))

	for _, want := range []string{"1.12", "Needed", "Open", "foreman", "4 bugs, 1 without a Redmine link"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ignored") {
		t.Errorf("zero buckets should be hidden:\n%s", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   int
	}{
		{"empty", nil, 10, 0},
		{"single value", []float64{5}, 10, 1},
		{"ascending", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 8, 8},
		{"constant", []float64{5, 5, 5, 5}, 4, 4},
		{"resampled", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []rune(renderSparkline(tt.values, tt.width))
			if len(got) != tt.want {
				t.Errorf("renderSparkline() length = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRenderSparklineOrder(t *testing.T) {
	got := []rune(renderSparkline([]float64{0, 25, 50, 75, 100}, 5))

	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("expected ascending blocks, got[%d]=%c < got[%d]=%c", i, got[i], i-1, got[i-1])
		}
	}
}

func TestResampleValues(t *testing.T) {
	if got := resampleValues([]float64{1, 2, 3}, 10); len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}

	got := resampleValues([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 values, got %d", len(got))
	}
	if got[0] != 1.5 {
		t.Errorf("expected first resampled value 1.5, got %f", got[0])
	}
}

func TestRenderTrends(t *testing.T) {
	if out := RenderTrends(nil); !strings.Contains(out, "No history") {
		t.Errorf("expected empty-history message, got %q", out)
	}

	now := time.Now()
	out := format.StripAnsi(RenderTrends([]stats.Snapshot{
		{Timestamp: now.Add(-time.Hour), Needed: 8, Open: 2},
		{Timestamp: now, Needed: 3, Open: 1},
	}))
	if !strings.Contains(out, "(2 runs)") {
		t.Errorf("trends missing run count:\n%s", out)
	}
	if !strings.Contains(out, "Needed") || !strings.Contains(out, "  3") {
		t.Errorf("trends missing latest needed count:\n%s", out)
	}
}
