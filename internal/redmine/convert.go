package redmine

import (
	"fmt"
	"time"

	"github.com/spiffcs/cherrypick/internal/model"
)

// PendingSummary is the external reference summary used until the
// defect-tracker record has been looked up.
const PendingSummary = "TBD"

// ToTrackedIssue converts an API issue into a model.TrackedIssue. The
// external reference is read from the custom field with id
// externalRefField; zero disables it.
func ToTrackedIssue(raw Issue, externalRefField int) (model.TrackedIssue, error) {
	issue := model.TrackedIssue{
		ID:      raw.ID,
		Subject: raw.Subject,
	}

	if raw.ClosedOn != "" {
		closed, err := time.Parse(time.RFC3339, raw.ClosedOn)
		if err != nil {
			return model.TrackedIssue{}, fmt.Errorf("%w: issue %d has invalid closed_on %q", model.ErrMalformedIssue, raw.ID, raw.ClosedOn)
		}
		issue.ClosedOn = &closed
	}

	for _, cs := range raw.Changesets {
		issue.Changesets = append(issue.Changesets, model.Changeset{
			Revision: cs.Revision,
			Comments: cs.Comments,
		})
	}

	if externalRefField > 0 {
		for _, f := range raw.CustomFields {
			if f.ID != externalRefField {
				continue
			}
			if v := f.StringValue(); v != "" {
				issue.ExternalRef = &model.ExternalRef{ID: v, Summary: PendingSummary}
			}
			break
		}
	}

	if err := issue.Validate(); err != nil {
		return model.TrackedIssue{}, err
	}
	return issue, nil
}
