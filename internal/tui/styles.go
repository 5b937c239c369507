package tui

import "github.com/charmbracelet/lipgloss"

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Progress display.
var (
	taskName = fg("252")
	dim      = fg("240")
	muted    = fg("244")
	failed   = fg("196")
	warning  = fg("214")
	spin     = fg("86")
	footer   = dim.MarginTop(1)
	header   = fg("220").Bold(true)
)

// Summary and trends.
var (
	summaryLabelStyle   = fg("#CBD5E1").Bold(true)
	summaryDimStyle     = fg("#6B7280")
	summaryNeededStyle  = fg("#F87171")
	summaryDoneStyle    = fg("#4ADE80")
	summaryPendingStyle = fg("#FBBF24")
	summaryRepoStyle    = fg("#60A5FA")
	summarySparkStyle   = summaryRepoStyle
)

var statusGlyphs = map[TaskStatus]string{
	StatusPending:  dim.Render("○"),
	StatusComplete: fg("46").Render("✓"),
	StatusError:    failed.Render("✗"),
	StatusSkipped:  dim.Render("−"),
}

// StatusIcon returns the glyph for a status. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	if status == StatusRunning {
		return spin.Render(spinnerFrame)
	}
	if g, ok := statusGlyphs[status]; ok {
		return g
	}
	return statusGlyphs[StatusPending]
}
