package pick

import (
	"context"
	"fmt"

	"github.com/spiffcs/cherrypick/internal/release"
)

// InBranch reports whether the change described by comment has already
// landed on the release branch of any of repos.
func InBranch(ctx context.Context, repos []release.Repository, comment string) (bool, error) {
	for _, repo := range repos {
		merged, err := repo.CommitMessageOnReleaseBranch(ctx, comment)
		if err != nil {
			return false, fmt.Errorf("check release branch of repository %s: %w", repo.Name(), err)
		}
		if merged {
			return true, nil
		}
	}
	return false, nil
}
