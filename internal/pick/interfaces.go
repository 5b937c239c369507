// Package pick decides which closed tracker issues still need their fixes
// cherry-picked into a release branch and assembles the resulting report.
package pick

import (
	"context"

	"github.com/spiffcs/cherrypick/internal/model"
)

// IssueClassifier defines the interface for classifying a single issue.
// This interface enables mocking classification when testing the engine.
type IssueClassifier interface {
	// Classify places the issue in exactly one outcome bucket.
	Classify(ctx context.Context, issue model.TrackedIssue) (Outcome, error)
}

// Ensure Classifier implements IssueClassifier interface.
var _ IssueClassifier = (*Classifier)(nil)
