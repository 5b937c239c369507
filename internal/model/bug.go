package model

import (
	"strconv"
	"strings"
)

// Bug is a defect-tracker record that may point at a tracked issue through
// its URL field.
type Bug struct {
	ID         int    `json:"id"`
	Summary    string `json:"summary,omitempty"`
	Status     string `json:"status,omitempty"`
	URL        string `json:"url"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Whiteboard string `json:"cf_devel_whiteboard,omitempty"`
}

// HasIssueURL returns true when the bug links to a tracked issue.
func (b Bug) HasIssueURL() bool {
	return strings.TrimSpace(b.URL) != ""
}

// ExternalID returns the bug id in the form used by issue cross-references.
func (b Bug) ExternalID() string {
	return strconv.Itoa(b.ID)
}
