package model

import "time"

// UnknownRepository is the repository name given to revisions that no
// configured repository contains.
const UnknownRepository = "unknown"

// CherryPick is a revision that must be applied to the release branch.
type CherryPick struct {
	Repository string       `json:"repository"`
	Issue      IssueRef     `json:"issue"`
	Revision   string       `json:"revision"`
	Closed     *time.Time   `json:"closed,omitempty"`
	External   *ExternalRef `json:"external,omitempty"`
}

// IsUnknown reports whether the revision could not be located.
func (c CherryPick) IsUnknown() bool {
	return c.Repository == UnknownRepository
}
