package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/cherrypick/internal/constants"
	"github.com/spiffcs/cherrypick/internal/format"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/pick"
)

// Column widths
const (
	colIssue  = 8
	colCommit = 10
	colClosed = 9
	colBug    = 9
	colAssign = 24
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	Links Links
	// Now is the reference time for the closed column. Zero means time.Now.
	Now time.Time
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// cell pads or truncates text to width, then links it.
func cell(text string, width int, url string) string {
	text, visible := format.TruncateToWidth(text, width)
	return format.PadRight(hyperlink(text, url), visible, width)
}

func sectionColor(name string) *color.Color {
	switch name {
	case pick.SectionNeeded:
		return color.New(color.Bold, color.FgRed)
	case pick.SectionNotNeeded:
		return color.New(color.Bold, color.FgGreen)
	case pick.SectionOpen, pick.SectionMissingChangeset, pick.SectionBugsMissingURL:
		return color.New(color.Bold, color.FgYellow)
	default:
		return color.New(color.Bold)
	}
}

// Format outputs the report as one table per section.
func (f *TableFormatter) Format(r *pick.Report, w io.Writer) error {
	if len(r.Sections) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to report.")
		return err
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, sectionColor(s.Name).Sprintf("%s (%d)", s.Name, s.Len()))

		switch {
		case len(s.Groups) > 0:
			for _, g := range s.Groups {
				repo := color.CyanString(g.Repository)
				if g.Repository == model.UnknownRepository {
					repo = color.YellowString("%s (revision not found in any repository)", g.Repository)
				}
				fmt.Fprintf(w, "  %s\n", repo)
				f.writeEntries(w, g.Entries, now, true)
			}
		case len(s.Bugs) > 0:
			f.writeBugs(w, s, withAssignee(s))
		default:
			f.writeEntries(w, s.Entries, now, false)
		}
	}

	printFooterSummary(r.Summary(), w)
	return nil
}

func withAssignee(s pick.Section) bool {
	return s.Name == pick.SectionBugsMissingURL
}

func (f *TableFormatter) writeBugs(w io.Writer, s pick.Section, assignee bool) {
	header := fmt.Sprintf("    %-*s", colBug, "Bug")
	if assignee {
		header += fmt.Sprintf("  %s", "Assigned to")
	}
	fmt.Fprintln(w, color.New(color.Faint).Sprint(header))

	for _, b := range s.Bugs {
		id := strconv.Itoa(b.ID)
		line := "    " + cell(id, colBug, f.Links.Bug(id))
		if assignee {
			line += "  " + cell(b.AssignedTo, colAssign, "")
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func (f *TableFormatter) writeEntries(w io.Writer, entries []pick.Entry, now time.Time, commits bool) {
	header := fmt.Sprintf("    %-*s  ", colIssue, "Issue")
	if commits {
		header += fmt.Sprintf("%-*s  ", colCommit, "Commit")
	}
	header += fmt.Sprintf("%-*s  %-*s  %s", colClosed, "Closed", constants.SubjectColumnWidth, "Subject", "Bug")
	fmt.Fprintln(w, color.New(color.Faint).Sprint(header))

	for _, e := range entries {
		var b strings.Builder
		b.WriteString("    ")
		b.WriteString(cell("#"+strconv.Itoa(e.Redmine.ID), colIssue, f.Links.Issue(e.Redmine.ID)))
		b.WriteString("  ")
		if commits {
			b.WriteString(cell(shortRevision(e.Commit), colCommit, ""))
			b.WriteString("  ")
		}
		b.WriteString(cell(format.Closed(e.Closed, now), colClosed, ""))
		b.WriteString("  ")
		b.WriteString(cell(e.Redmine.Subject, constants.SubjectColumnWidth, ""))
		b.WriteString("  ")
		if e.Bugzilla != nil {
			b.WriteString(hyperlink(e.Bugzilla.ID, f.Links.Bug(e.Bugzilla.ID)))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func shortRevision(rev string) string {
	if len(rev) > colCommit {
		return rev[:colCommit]
	}
	return rev
}

func printFooterSummary(s pick.Summary, w io.Writer) {
	repos := 0
	for name, n := range s.ByRepository {
		if n > 0 && name != model.UnknownRepository {
			repos++
		}
	}

	fmt.Fprintln(w)
	needed := color.RedString("%d cherry-picks needed", s.Needed)
	if s.Needed == 0 {
		needed = color.GreenString("no cherry-picks needed")
	}
	fmt.Fprintf(w, "%s across %d repositories", needed, repos)
	if unknown := s.ByRepository[model.UnknownRepository]; unknown > 0 {
		fmt.Fprintf(w, ", %s", color.YellowString("%d unlocated", unknown))
	}
	if s.Open > 0 {
		fmt.Fprintf(w, ", %d issues still open", s.Open)
	}
	fmt.Fprintln(w)
}
