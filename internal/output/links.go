package output

import (
	"fmt"
	"strings"
)

// Links builds tracker URLs for issues and bugs. Empty bases disable links.
type Links struct {
	Redmine  string
	Bugzilla string
}

func links(opts Options) Links {
	return Links{
		Redmine:  strings.TrimSuffix(opts.RedmineURL, "/"),
		Bugzilla: strings.TrimSuffix(opts.BugzillaURL, "/"),
	}
}

// Issue returns the web URL of a Redmine issue.
func (l Links) Issue(id int) string {
	if l.Redmine == "" {
		return ""
	}
	return fmt.Sprintf("%s/issues/%d", l.Redmine, id)
}

// Bug returns the web URL of a Bugzilla bug.
func (l Links) Bug(id string) string {
	if l.Bugzilla == "" || id == "" {
		return ""
	}
	return fmt.Sprintf("%s/show_bug.cgi?id=%s", l.Bugzilla, id)
}
