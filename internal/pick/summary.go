package pick

// Summary counts the records in each report bucket.
type Summary struct {
	Bugs             int            `json:"bugs" yaml:"bugs"`
	BugsMissingURL   int            `json:"bugs_missing_url" yaml:"bugs_missing_url"`
	Open             int            `json:"open" yaml:"open"`
	MissingChangeset int            `json:"missing_changeset" yaml:"missing_changeset"`
	Ignored          int            `json:"ignored" yaml:"ignored"`
	NotNeeded        int            `json:"not_needed" yaml:"not_needed"`
	Needed           int            `json:"needed" yaml:"needed"`
	ByRepository     map[string]int `json:"by_repository,omitempty" yaml:"by_repository,omitempty"`
}

// Summary returns the per-section counts of the report. ByRepository
// counts the cherry-picks still needed in each repository.
func (r *Report) Summary() Summary {
	var s Summary
	for _, sec := range r.Sections {
		n := sec.Len()
		switch sec.Name {
		case SectionBugs:
			s.Bugs = n
		case SectionBugsMissingURL:
			s.BugsMissingURL = n
		case SectionOpen:
			s.Open = n
		case SectionMissingChangeset:
			s.MissingChangeset = n
		case SectionIgnored:
			s.Ignored = n
		case SectionNotNeeded:
			s.NotNeeded = n
		case SectionNeeded:
			s.Needed = n
			s.ByRepository = make(map[string]int, len(sec.Groups))
			for _, g := range sec.Groups {
				s.ByRepository[g.Repository] = len(g.Entries)
			}
		}
	}
	return s
}
