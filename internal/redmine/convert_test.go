package redmine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spiffcs/cherrypick/internal/model"
)

func TestToTrackedIssue(t *testing.T) {
	closed := time.Date(2016, time.May, 10, 13, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		raw         Issue
		field       int
		wantClosed  *time.Time
		wantRef     *model.ExternalRef
		wantErr     error
		wantChanges int
	}{
		{
			name: "closed with external reference",
			raw: Issue{
				ID: 1, Subject: "a", ClosedOn: "2016-05-10T13:04:05Z",
				CustomFields: []CustomField{
					{ID: 3, Value: json.RawMessage(`"other"`)},
					{ID: 6, Value: json.RawMessage(`"1330000"`)},
				},
				Changesets: []Changeset{{Revision: "abc", Comments: "fixes #1"}},
			},
			field:       6,
			wantClosed:  &closed,
			wantRef:     &model.ExternalRef{ID: "1330000", Summary: PendingSummary},
			wantChanges: 1,
		},
		{
			name: "open issue with empty external field",
			raw: Issue{
				ID: 2, Subject: "b",
				CustomFields: []CustomField{{ID: 6, Value: json.RawMessage(`""`)}},
			},
			field: 6,
		},
		{
			name: "multi-value external field",
			raw: Issue{
				ID: 3, Subject: "c",
				CustomFields: []CustomField{{ID: 9, Value: json.RawMessage(`["", "42"]`)}},
			},
			field:   9,
			wantRef: &model.ExternalRef{ID: "42", Summary: PendingSummary},
		},
		{
			name: "cross reference disabled",
			raw: Issue{
				ID: 4, Subject: "d",
				CustomFields: []CustomField{{ID: 6, Value: json.RawMessage(`"5"`)}},
			},
			field: 0,
		},
		{
			name:    "missing subject",
			raw:     Issue{ID: 5},
			field:   6,
			wantErr: model.ErrMalformedIssue,
		},
		{
			name:    "bad closed_on",
			raw:     Issue{ID: 6, Subject: "f", ClosedOn: "yesterday"},
			field:   6,
			wantErr: model.ErrMalformedIssue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToTrackedIssue(tt.raw, tt.field)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ToTrackedIssue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToTrackedIssue() error: %v", err)
			}

			if (got.ClosedOn == nil) != (tt.wantClosed == nil) ||
				(got.ClosedOn != nil && !got.ClosedOn.Equal(*tt.wantClosed)) {
				t.Errorf("ClosedOn = %v, want %v", got.ClosedOn, tt.wantClosed)
			}
			if (got.ExternalRef == nil) != (tt.wantRef == nil) ||
				(got.ExternalRef != nil && *got.ExternalRef != *tt.wantRef) {
				t.Errorf("ExternalRef = %v, want %v", got.ExternalRef, tt.wantRef)
			}
			if len(got.Changesets) != tt.wantChanges {
				t.Errorf("changesets = %d, want %d", len(got.Changesets), tt.wantChanges)
			}
		})
	}
}
