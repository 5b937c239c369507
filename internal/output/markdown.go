package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spiffcs/cherrypick/internal/pick"
)

// MarkdownFormatter renders the report as a checklist that can be pasted
// into a release tracking issue.
type MarkdownFormatter struct {
	Links Links
}

// Format outputs the report as Markdown.
func (f *MarkdownFormatter) Format(r *pick.Report, w io.Writer) error {
	if len(r.Sections) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to report.")
		return err
	}

	for _, s := range r.Sections {
		fmt.Fprintf(w, "## %s (%d)\n\n", s.Name, s.Len())

		switch {
		case len(s.Groups) > 0:
			for _, g := range s.Groups {
				fmt.Fprintf(w, "### %s\n\n", g.Repository)
				for _, e := range g.Entries {
					fmt.Fprintf(w, "- [ ] %s `%s` %s%s\n", f.issue(e), e.Commit, e.Redmine.Subject, f.bug(e))
				}
				fmt.Fprintln(w)
			}
		case len(s.Bugs) > 0:
			for _, b := range s.Bugs {
				id := strconv.Itoa(b.ID)
				line := "- " + f.link("BZ "+id, f.Links.Bug(id))
				if withAssignee(s) && b.AssignedTo != "" {
					line += " (" + b.AssignedTo + ")"
				}
				fmt.Fprintln(w, line)
			}
			fmt.Fprintln(w)
		default:
			for _, e := range s.Entries {
				fmt.Fprintf(w, "- %s %s%s\n", f.issue(e), e.Redmine.Subject, f.bug(e))
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

func (f *MarkdownFormatter) issue(e pick.Entry) string {
	return f.link("#"+strconv.Itoa(e.Redmine.ID), f.Links.Issue(e.Redmine.ID))
}

func (f *MarkdownFormatter) bug(e pick.Entry) string {
	if e.Bugzilla == nil {
		return ""
	}
	return " (" + f.link("BZ "+e.Bugzilla.ID, f.Links.Bug(e.Bugzilla.ID)) + ")"
}

func (f *MarkdownFormatter) link(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}
