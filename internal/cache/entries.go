package cache

import (
	"time"

	"github.com/spiffcs/cherrypick/internal/redmine"
)

// Version should be incremented when the cache format changes
// to invalidate old entries
const Version = 2

// IssueEntry represents a cached Redmine issue with its changesets
type IssueEntry struct {
	Issue    redmine.Issue `json:"issue"`
	CachedAt time.Time     `json:"cachedAt"`
	Version  int           `json:"version"`
}

// ListEntry represents the cached issue list of a project version
type ListEntry struct {
	Project   string          `json:"project"`
	VersionID int             `json:"versionId"`
	Issues    []redmine.Issue `json:"issues"`
	CachedAt  time.Time       `json:"cachedAt"`
	Version   int             `json:"version"`
}

// Stats contains cache statistics
type Stats struct {
	IssueTotal int
	IssueValid int
	ListTotal  int
	ListValid  int
}

// Total returns the number of entries of every type.
func (s *Stats) Total() int {
	return s.IssueTotal + s.ListTotal
}

// Valid returns the number of entries still within their TTL.
func (s *Stats) Valid() int {
	return s.IssueValid + s.ListValid
}
