package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spiffcs/cherrypick/internal/format"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/pick"
	"github.com/spiffcs/cherrypick/internal/stats"
)

// barEntry is one labelled bar in a chart.
type barEntry struct {
	Label string
	Count int
	Style lipgloss.Style
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Partial blocks from 1/8 to 8/8 of a cell.
var partialBlocks = []string{"▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}

const (
	// maxBarChars caps bar length on wide terminals.
	maxBarChars = 40

	sparklineWidth = 50
	repoLabelWidth = 24
)

// RenderSummary renders the bucket counts of a report as bar charts: one
// chart for issue outcomes and one for needed cherry-picks per repository.
func RenderSummary(release string, s pick.Summary) string {
	var lines []string

	header := "Cherry-pick summary"
	if release != "" {
		header += " for " + release
	}
	lines = append(lines, "  "+summaryLabelStyle.Render(header), "")

	outcomes := filterZero([]barEntry{
		{"Needed", s.Needed, summaryNeededStyle},
		{"Not needed", s.NotNeeded, summaryDoneStyle},
		{"Ignored", s.Ignored, summaryDimStyle},
		{"Open", s.Open, summaryPendingStyle},
		{"No changesets", s.MissingChangeset, summaryPendingStyle},
	})
	lines = append(lines, "  "+summaryLabelStyle.Render("Issues"))
	lines = append(lines, renderBars(outcomes, maxBarChars)...)

	if len(s.ByRepository) > 0 {
		lines = append(lines, "", "  "+summaryLabelStyle.Render("Needed by repository"))
		lines = append(lines, renderBars(repositoryBars(s.ByRepository), maxBarChars)...)
	}

	if s.Bugs > 0 || s.BugsMissingURL > 0 {
		lines = append(lines, "", "  "+summaryDimStyle.Render(
			fmt.Sprintf("%d bugs, %d without a Redmine link", s.Bugs, s.BugsMissingURL)))
	}

	return strings.Join(lines, "\n") + "\n"
}

// repositoryBars orders repositories by needed count, then name, with the
// unknown bucket always last.
func repositoryBars(byRepo map[string]int) []barEntry {
	entries := make([]barEntry, 0, len(byRepo))
	for name, n := range byRepo {
		label, _ := format.TruncateToWidth(name, repoLabelWidth)
		style := summaryRepoStyle
		if name == model.UnknownRepository {
			style = summaryPendingStyle
		}
		entries = append(entries, barEntry{Label: label, Count: n, Style: style})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		iu, ju := entries[i].Label == model.UnknownRepository, entries[j].Label == model.UnknownRepository
		if iu != ju {
			return ju
		}
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return filterZero(entries)
}

// RenderTrends renders sparklines of needed and open counts across runs.
func RenderTrends(snapshots []stats.Snapshot) string {
	if len(snapshots) == 0 {
		return "  " + summaryDimStyle.Render("No history recorded yet") + "\n"
	}

	const labelCol = 14
	latest := snapshots[len(snapshots)-1]

	lines := []string{
		"  " + summaryLabelStyle.Render("Trends") + "  " + summaryDimStyle.Render(fmt.Sprintf("(%d runs)", len(snapshots))),
	}

	series := []struct {
		label  string
		value  func(stats.Snapshot) int
		latest int
	}{
		{"Needed", func(s stats.Snapshot) int { return s.Needed }, latest.Needed},
		{"Open", func(s stats.Snapshot) int { return s.Open }, latest.Open},
		{"Not needed", func(s stats.Snapshot) int { return s.NotNeeded }, latest.NotNeeded},
	}
	for _, sr := range series {
		values := make([]float64, len(snapshots))
		for i, snap := range snapshots {
			values[i] = float64(sr.value(snap))
		}
		lines = append(lines, fmt.Sprintf("    %-*s%s  %s",
			labelCol, sr.label,
			summarySparkStyle.Render(renderSparkline(values, sparklineWidth)),
			summaryDimStyle.Render(fmt.Sprintf("%d", sr.latest))))
	}

	return strings.Join(lines, "\n") + "\n"
}

func filterZero(entries []barEntry) []barEntry {
	var result []barEntry
	for _, e := range entries {
		if e.Count > 0 {
			result = append(result, e)
		}
	}
	return result
}

// renderBars renders one bar per line, scaled to the largest count, with
// every bar starting at the same column:
//
//	{label padded}  {colored bar}  {count}
func renderBars(entries []barEntry, barWidth int) []string {
	maxCount, maxLabel := 0, 0
	for _, e := range entries {
		maxCount = max(maxCount, e.Count)
		maxLabel = max(maxLabel, format.DisplayWidth(e.Label))
	}
	if maxCount == 0 {
		return []string{summaryDimStyle.Render("    ─")}
	}

	bw := max(min(barWidth, maxBarChars), 4)

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		cells := float64(e.Count) / float64(maxCount) * float64(bw)
		full := int(cells)
		bar := strings.Repeat("█", full)
		if rem := cells - float64(full); rem >= 0.125 {
			bar += partialBlocks[min(int(rem*8), 7)]
		}
		if bar == "" {
			bar = partialBlocks[0]
		}

		label := format.PadRight(e.Label, format.DisplayWidth(e.Label), maxLabel)
		lines = append(lines, fmt.Sprintf("    %s  %s  %d", label, e.Style.Render(bar), e.Count))
	}
	return lines
}

// renderSparkline renders values as block characters, averaging them down
// to width cells when there are more values than cells.
func renderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	sampled := resampleValues(values, width)
	if hi == lo {
		return strings.Repeat(string(sparkBlocks[3]), len(sampled))
	}

	var b strings.Builder
	for _, v := range sampled {
		idx := int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[min(idx, len(sparkBlocks)-1)])
	}
	return b.String()
}

func resampleValues(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}

	result := make([]float64, width)
	step := float64(len(values)) / float64(width)
	for i := range width {
		start := int(float64(i) * step)
		end := min(int(float64(i+1)*step), len(values))
		if start >= end {
			if start < len(values) {
				result[i] = values[start]
			}
			continue
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		result[i] = sum / float64(end-start)
	}
	return result
}
