// Package model contains domain types for the cherrypick application.
// These types are independent of any tracker or git library.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedIssue is returned when an issue lacks the fields needed to classify it.
var ErrMalformedIssue = errors.New("malformed issue")

// ActionKeywords are the changeset comment prefixes that mark a fix as
// eligible for cherry-picking.
var ActionKeywords = []string{"fixes", "refs"}

// Changeset is a single source-control commit referenced by an issue.
type Changeset struct {
	Revision string `json:"revision"`
	Comments string `json:"comments"`
}

// Actionable reports whether the changeset comment begins with one of the
// ActionKeywords, ignoring case. The keyword must be the first thing in the
// comment.
func (c Changeset) Actionable() bool {
	comment := strings.ToLower(c.Comments)
	for _, kw := range ActionKeywords {
		if strings.HasPrefix(comment, kw) {
			return true
		}
	}
	return false
}

// ExternalRef is the defect-tracker record an issue is cross-referenced with.
type ExternalRef struct {
	ID      string `json:"id" yaml:"id"`
	Summary string `json:"summary" yaml:"summary"`
}

// IssueRef identifies a tracked issue in report entries.
type IssueRef struct {
	ID      int    `json:"id" yaml:"id"`
	Subject string `json:"subject" yaml:"subject"`
}

// TrackedIssue is a work item from the issue tracker together with the
// changesets that were linked to it.
type TrackedIssue struct {
	ID          int          `json:"id"`
	Subject     string       `json:"subject"`
	ClosedOn    *time.Time   `json:"closedOn,omitempty"`
	Changesets  []Changeset  `json:"changesets,omitempty"`
	ExternalRef *ExternalRef `json:"externalRef,omitempty"`
}

// IsOpen returns true when the issue has not been closed.
func (i TrackedIssue) IsOpen() bool {
	return i.ClosedOn == nil
}

// Ref returns the report reference for the issue.
func (i TrackedIssue) Ref() IssueRef {
	return IssueRef{ID: i.ID, Subject: i.Subject}
}

// Validate checks the required fields. Issues are rejected at the source
// boundary so classification never sees a half-populated record.
func (i TrackedIssue) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("%w: missing id (subject %q)", ErrMalformedIssue, i.Subject)
	}
	if strings.TrimSpace(i.Subject) == "" {
		return fmt.Errorf("%w: issue %d has no subject", ErrMalformedIssue, i.ID)
	}
	return nil
}
