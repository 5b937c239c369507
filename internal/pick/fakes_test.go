package pick

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/release"
)

// fakeRepo is an in-memory release.Repository.
type fakeRepo struct {
	name       string
	commits    map[string]bool
	onBranch   []string
	presentErr error
	branchErr  error

	mu            sync.Mutex
	branchQueries []string
}

func (f *fakeRepo) Name() string { return f.name }

func (f *fakeRepo) CommitPresent(_ context.Context, revision string) (bool, error) {
	if f.presentErr != nil {
		return false, f.presentErr
	}
	return f.commits[revision], nil
}

func (f *fakeRepo) CommitMessageOnReleaseBranch(_ context.Context, comment string) (bool, error) {
	f.mu.Lock()
	f.branchQueries = append(f.branchQueries, comment)
	f.mu.Unlock()

	if f.branchErr != nil {
		return false, f.branchErr
	}
	for _, msg := range f.onBranch {
		if strings.Contains(msg, comment) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.branchQueries...)
}

func newEnv(t *testing.T, repos ...release.Repository) *release.Environment {
	t.Helper()
	env, err := release.NewEnvironment(repos...)
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env
}

func closedAt(day int) *time.Time {
	ts := time.Date(2016, time.May, day, 12, 0, 0, 0, time.UTC)
	return &ts
}

func closedIssue(id int, day int, changesets ...model.Changeset) model.TrackedIssue {
	return model.TrackedIssue{
		ID:         id,
		Subject:    "issue " + strings.Repeat("x", id%3+1),
		ClosedOn:   closedAt(day),
		Changesets: changesets,
	}
}

func cs(revision, comment string) model.Changeset {
	return model.Changeset{Revision: revision, Comments: comment}
}
