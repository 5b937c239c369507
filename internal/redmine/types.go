// Package redmine fetches issues and their changesets from a Redmine server.
package redmine

import (
	"encoding/json"
	"strings"
)

// Issue is an issue as returned by the Redmine REST API.
type Issue struct {
	ID           int           `json:"id"`
	Subject      string        `json:"subject"`
	Project      *NamedField   `json:"project,omitempty"`
	Status       *NamedField   `json:"status,omitempty"`
	FixedVersion *NamedField   `json:"fixed_version,omitempty"`
	ClosedOn     string        `json:"closed_on,omitempty"`
	UpdatedOn    string        `json:"updated_on,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	Changesets   []Changeset   `json:"changesets,omitempty"`
}

// NamedField is an {id, name} reference.
type NamedField struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CustomField is a Redmine custom field. Value is a string for single
// value fields and an array for multi-value fields.
type CustomField struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// StringValue returns the field value. For multi-value fields the first
// non-empty value is returned.
func (f CustomField) StringValue() string {
	if len(f.Value) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(f.Value, &single); err == nil {
		return strings.TrimSpace(single)
	}

	var multi []string
	if err := json.Unmarshal(f.Value, &multi); err == nil {
		for _, v := range multi {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Changeset is a repository revision linked to an issue.
type Changeset struct {
	Revision    string `json:"revision"`
	Comments    string `json:"comments"`
	CommittedOn string `json:"committed_on,omitempty"`
}

type issueResponse struct {
	Issue Issue `json:"issue"`
}

type issueListResponse struct {
	Issues     []Issue `json:"issues"`
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

type versionListResponse struct {
	Versions []NamedField `json:"versions"`
}
