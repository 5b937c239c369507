package pick

import (
	"sort"
	"time"

	"github.com/spiffcs/cherrypick/internal/model"
)

// Report section names, in the order they appear.
const (
	SectionBugs             = "Bugzilla Bugs"
	SectionBugsMissingURL   = "Bugzilla Bugs Missing Redmine Url"
	SectionOpen             = "Redmine Issues Open"
	SectionMissingChangeset = "Redmine Issues Missing Changeset"
	SectionIgnored          = "Redmine Issues Ignored"
	SectionNotNeeded        = "Redmine Issues Cherrypick Not Needed"
	SectionNeeded           = "Redmine Issues Cherrypick Needed"
)

// SectionOrder lists every section name in report order.
var SectionOrder = []string{
	SectionBugs,
	SectionBugsMissingURL,
	SectionOpen,
	SectionMissingChangeset,
	SectionIgnored,
	SectionNotNeeded,
	SectionNeeded,
}

// Entry is one issue record in a report section.
type Entry struct {
	Closed   *time.Time
	Redmine  model.IssueRef
	Bugzilla *model.ExternalRef
	// Commit is only set for cherry-pick entries.
	Commit string
}

// BugEntry is one defect-tracker record. AssignedTo is only reported in
// the missing URL section.
type BugEntry struct {
	ID         int
	AssignedTo string
}

// RepositoryGroup holds the cherry-pick entries resolved to one repository.
type RepositoryGroup struct {
	Repository string
	Entries    []Entry
}

// Section is a named list of records. Exactly one of Bugs, Entries or
// Groups is populated.
type Section struct {
	Name    string
	Bugs    []BugEntry
	Entries []Entry
	Groups  []RepositoryGroup
}

// Len returns the number of records in the section.
func (s Section) Len() int {
	n := len(s.Bugs) + len(s.Entries)
	for _, g := range s.Groups {
		n += len(g.Entries)
	}
	return n
}

// Report is the ordered result of a run. Sections without records are
// never present.
type Report struct {
	Sections []Section
}

// Section returns the named section.
func (r *Report) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Names returns the section names in order.
func (r *Report) Names() []string {
	names := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		names[i] = s.Name
	}
	return names
}

// AssembleInput is everything collected from a run, before grouping.
type AssembleInput struct {
	Bugs             []model.Bug
	BugsMissingURL   []model.Bug
	Open             []model.TrackedIssue
	MissingChangeset []model.TrackedIssue
	NotNeeded        []model.TrackedIssue
	Actionable       []model.CherryPick
	Ignored          []model.CherryPick
	// CrossReference attaches external references to issue entries.
	CrossReference bool
}

// Assemble builds the report. It is a pure function of its input, so
// assembling the same input twice yields identical reports.
func Assemble(in AssembleInput) *Report {
	report := &Report{}
	add := func(s Section) {
		if s.Len() > 0 {
			report.Sections = append(report.Sections, s)
		}
	}

	add(Section{Name: SectionBugs, Bugs: bugEntries(in.Bugs, false)})
	add(Section{Name: SectionBugsMissingURL, Bugs: bugEntries(in.BugsMissingURL, true)})
	add(Section{Name: SectionOpen, Entries: issueEntries(in.Open, in.CrossReference)})
	add(Section{Name: SectionMissingChangeset, Entries: issueEntries(in.MissingChangeset, in.CrossReference)})
	add(Section{Name: SectionIgnored, Groups: groupPicks(in.Ignored)})
	add(Section{Name: SectionNotNeeded, Entries: issueEntries(in.NotNeeded, in.CrossReference)})
	add(Section{Name: SectionNeeded, Groups: groupPicks(in.Actionable)})

	return report
}

func bugEntries(bugs []model.Bug, withAssignee bool) []BugEntry {
	if len(bugs) == 0 {
		return nil
	}
	entries := make([]BugEntry, len(bugs))
	for i, b := range bugs {
		entries[i] = BugEntry{ID: b.ID}
		if withAssignee {
			entries[i].AssignedTo = b.AssignedTo
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func issueEntries(issues []model.TrackedIssue, crossReference bool) []Entry {
	if len(issues) == 0 {
		return nil
	}
	entries := make([]Entry, len(issues))
	for i, issue := range issues {
		entries[i] = Entry{Closed: issue.ClosedOn, Redmine: issue.Ref()}
		if crossReference && issue.ExternalRef != nil {
			ref := *issue.ExternalRef
			entries[i].Bugzilla = &ref
		}
	}
	sortByClosed(entries)
	return entries
}

// groupPicks groups picks by repository. Groups are ordered by name with
// the unknown repository last; entries within a group by closed time.
func groupPicks(picks []model.CherryPick) []RepositoryGroup {
	if len(picks) == 0 {
		return nil
	}

	var order []string
	byRepo := make(map[string][]Entry)
	for _, p := range picks {
		if _, ok := byRepo[p.Repository]; !ok {
			order = append(order, p.Repository)
		}
		byRepo[p.Repository] = append(byRepo[p.Repository], Entry{
			Closed:   p.Closed,
			Redmine:  p.Issue,
			Bugzilla: p.External,
			Commit:   p.Revision,
		})
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if (a == model.UnknownRepository) != (b == model.UnknownRepository) {
			return b == model.UnknownRepository
		}
		return a < b
	})

	groups := make([]RepositoryGroup, 0, len(order))
	for _, repo := range order {
		entries := byRepo[repo]
		sortByClosed(entries)
		groups = append(groups, RepositoryGroup{Repository: repo, Entries: entries})
	}
	return groups
}

// sortByClosed orders entries by closed time, entries without one first.
// Ties keep their input order.
func sortByClosed(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Closed, entries[j].Closed
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})
}
