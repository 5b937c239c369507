package pick

import (
	"reflect"
	"testing"

	"github.com/spiffcs/cherrypick/internal/model"
)

func pick(repo string, issue, day int, rev string) model.CherryPick {
	return model.CherryPick{
		Repository: repo,
		Issue:      model.IssueRef{ID: issue, Subject: "subject"},
		Revision:   rev,
		Closed:     closedAt(day),
	}
}

func TestAssembleSectionOrderAndOmission(t *testing.T) {
	tests := []struct {
		name string
		in   AssembleInput
		want []string
	}{
		{
			name: "empty input has no sections",
			in:   AssembleInput{},
			want: []string{},
		},
		{
			name: "all sections",
			in: AssembleInput{
				Bugs:             []model.Bug{{ID: 2}},
				BugsMissingURL:   []model.Bug{{ID: 3}},
				Open:             []model.TrackedIssue{{ID: 1, Subject: "a"}},
				MissingChangeset: []model.TrackedIssue{closedIssue(2, 1)},
				NotNeeded:        []model.TrackedIssue{closedIssue(3, 1)},
				Actionable:       []model.CherryPick{pick("core", 4, 1, "a")},
				Ignored:          []model.CherryPick{pick("core", 5, 1, "b")},
			},
			want: SectionOrder,
		},
		{
			name: "only needed picks",
			in:   AssembleInput{Actionable: []model.CherryPick{pick("core", 4, 1, "a")}},
			want: []string{SectionNeeded},
		},
		{
			name: "open and not needed",
			in: AssembleInput{
				NotNeeded: []model.TrackedIssue{closedIssue(3, 1)},
				Open:      []model.TrackedIssue{{ID: 1, Subject: "a"}},
			},
			want: []string{SectionOpen, SectionNotNeeded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Assemble(tt.in)
			if got := report.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sections = %v, want %v", got, tt.want)
			}
			for _, s := range report.Sections {
				if s.Len() == 0 {
					t.Errorf("section %q is empty", s.Name)
				}
				for _, g := range s.Groups {
					if len(g.Entries) == 0 {
						t.Errorf("section %q has empty group %q", s.Name, g.Repository)
					}
				}
			}
		})
	}
}

func TestAssembleGrouping(t *testing.T) {
	in := AssembleInput{
		Actionable: []model.CherryPick{
			pick(model.UnknownRepository, 1, 5, "u1"),
			pick("plugin", 2, 9, "p1"),
			pick("core", 3, 7, "c1"),
			pick("core", 4, 2, "c2"),
			pick("plugin", 5, 9, "p2"),
			pick("agent", 6, 1, "a1"),
			pick("core", 7, 7, "c3"),
		},
	}

	report := Assemble(in)
	section, ok := report.Section(SectionNeeded)
	if !ok {
		t.Fatal("needed section missing")
	}

	var gotRepos []string
	got := map[string][]string{}
	for _, g := range section.Groups {
		gotRepos = append(gotRepos, g.Repository)
		for _, e := range g.Entries {
			got[g.Repository] = append(got[g.Repository], e.Commit)
		}
	}

	if want := []string{"agent", "core", "plugin", model.UnknownRepository}; !reflect.DeepEqual(gotRepos, want) {
		t.Errorf("group order = %v, want %v", gotRepos, want)
	}
	want := map[string][]string{
		"agent":                 {"a1"},
		"core":                  {"c2", "c1", "c3"}, // c1 and c3 tie, input order kept
		"plugin":                {"p1", "p2"},
		model.UnknownRepository: {"u1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	in := AssembleInput{
		Open:       []model.TrackedIssue{{ID: 9, Subject: "a"}, {ID: 8, Subject: "b"}},
		NotNeeded:  []model.TrackedIssue{closedIssue(3, 5), closedIssue(4, 2), closedIssue(5, 5)},
		Actionable: []model.CherryPick{pick("core", 1, 3, "x"), pick("core", 2, 3, "y"), pick("core", 3, 1, "z")},
		Ignored:    []model.CherryPick{pick("plugin", 4, 3, "w")},
	}

	first := Assemble(in)
	second := Assemble(in)
	if !reflect.DeepEqual(first, second) {
		t.Error("Assemble() is not deterministic")
	}

	// Reassembling from the first report's own ordering changes nothing.
	needed, _ := first.Section(SectionNeeded)
	var reordered []model.CherryPick
	for _, g := range needed.Groups {
		for _, e := range g.Entries {
			reordered = append(reordered, model.CherryPick{Repository: g.Repository, Issue: e.Redmine, Revision: e.Commit, Closed: e.Closed})
		}
	}
	again := Assemble(AssembleInput{Actionable: reordered})
	againNeeded, _ := again.Section(SectionNeeded)
	if !reflect.DeepEqual(needed, againNeeded) {
		t.Errorf("reassembly changed order:\n%+v\n%+v", needed, againNeeded)
	}
}

func TestAssembleFlatSections(t *testing.T) {
	in := AssembleInput{
		NotNeeded: []model.TrackedIssue{closedIssue(3, 5), closedIssue(4, 2), closedIssue(5, 5)},
		Open:      []model.TrackedIssue{{ID: 9, Subject: "a"}, {ID: 8, Subject: "b"}},
	}
	report := Assemble(in)

	notNeeded, _ := report.Section(SectionNotNeeded)
	var ids []int
	for _, e := range notNeeded.Entries {
		ids = append(ids, e.Redmine.ID)
		if e.Commit != "" {
			t.Errorf("flat entry %d has commit %q", e.Redmine.ID, e.Commit)
		}
	}
	if want := []int{4, 3, 5}; !reflect.DeepEqual(ids, want) {
		t.Errorf("not needed order = %v, want %v", ids, want)
	}

	open, _ := report.Section(SectionOpen)
	if open.Entries[0].Redmine.ID != 9 || open.Entries[1].Redmine.ID != 8 {
		t.Errorf("open issues reordered: %+v", open.Entries)
	}
}

func TestAssembleBugs(t *testing.T) {
	in := AssembleInput{
		Bugs:           []model.Bug{{ID: 30, AssignedTo: "x"}, {ID: 10}, {ID: 20}},
		BugsMissingURL: []model.Bug{{ID: 20, AssignedTo: "b@example.com"}, {ID: 5, AssignedTo: "a@example.com"}},
	}
	report := Assemble(in)

	bugs, _ := report.Section(SectionBugs)
	if want := []BugEntry{{ID: 10}, {ID: 20}, {ID: 30}}; !reflect.DeepEqual(bugs.Bugs, want) {
		t.Errorf("bugs = %+v, want %+v", bugs.Bugs, want)
	}

	missing, _ := report.Section(SectionBugsMissingURL)
	want := []BugEntry{{ID: 5, AssignedTo: "a@example.com"}, {ID: 20, AssignedTo: "b@example.com"}}
	if !reflect.DeepEqual(missing.Bugs, want) {
		t.Errorf("missing url = %+v, want %+v", missing.Bugs, want)
	}
}

func TestAssembleCrossReference(t *testing.T) {
	issue := closedIssue(1, 1)
	issue.ExternalRef = &model.ExternalRef{ID: "1001", Summary: "crash"}

	for _, enabled := range []bool{true, false} {
		report := Assemble(AssembleInput{MissingChangeset: []model.TrackedIssue{issue}, CrossReference: enabled})
		s, _ := report.Section(SectionMissingChangeset)
		if got := s.Entries[0].Bugzilla != nil; got != enabled {
			t.Errorf("CrossReference=%v: bugzilla present = %v", enabled, got)
		}
	}
}

func TestSummary(t *testing.T) {
	report := Assemble(AssembleInput{
		Bugs:       []model.Bug{{ID: 1}, {ID: 2}},
		Open:       []model.TrackedIssue{{ID: 1, Subject: "a"}},
		Actionable: []model.CherryPick{pick("core", 1, 1, "a"), pick("core", 2, 1, "b"), pick("plugin", 3, 1, "c")},
		Ignored:    []model.CherryPick{pick("core", 4, 1, "d")},
	})

	got := report.Summary()
	want := Summary{
		Bugs:         2,
		Open:         1,
		Ignored:      1,
		Needed:       3,
		ByRepository: map[string]int{"core": 2, "plugin": 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}
