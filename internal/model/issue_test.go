package model

import (
	"errors"
	"testing"
	"time"
)

func TestChangesetActionable(t *testing.T) {
	tests := []struct {
		comment string
		want    bool
	}{
		{"fixes #123 - crash on start", true},
		{"Fixes #1", true},
		{"REFS #42", true},
		{"  refs #7 leading space", false},
		{"\tFixes #8 tab", false},
		{"fixes", true},
		{"unrelated note", false},
		{"this fixes #9", false},
		{"", false},
		{"ref #3", false},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			got := Changeset{Revision: "abc", Comments: tt.comment}.Actionable()
			if got != tt.want {
				t.Errorf("Actionable(%q) = %v, want %v", tt.comment, got, tt.want)
			}
		})
	}
}

func TestTrackedIssueValidate(t *testing.T) {
	closed := time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		issue   TrackedIssue
		wantErr bool
	}{
		{"valid open", TrackedIssue{ID: 1, Subject: "crash"}, false},
		{"valid closed", TrackedIssue{ID: 2, Subject: "crash", ClosedOn: &closed}, false},
		{"missing id", TrackedIssue{Subject: "crash"}, true},
		{"negative id", TrackedIssue{ID: -4, Subject: "crash"}, true},
		{"blank subject", TrackedIssue{ID: 3, Subject: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.issue.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedIssue) {
					t.Errorf("Validate() error = %v, want ErrMalformedIssue", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestTrackedIssueIsOpen(t *testing.T) {
	closed := time.Now()
	if !(TrackedIssue{ID: 1}).IsOpen() {
		t.Error("expected issue without closed timestamp to be open")
	}
	if (TrackedIssue{ID: 1, ClosedOn: &closed}).IsOpen() {
		t.Error("expected issue with closed timestamp to be closed")
	}
}

func TestBugHasIssueURL(t *testing.T) {
	if (Bug{ID: 1, URL: "  "}).HasIssueURL() {
		t.Error("blank URL should not count as an issue link")
	}
	if !(Bug{ID: 1, URL: "http://projects.theforeman.org/issues/123"}).HasIssueURL() {
		t.Error("expected URL to count as an issue link")
	}
}
