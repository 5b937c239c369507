package pick

import (
	"context"
	"fmt"

	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/release"
)

// Locate returns the name of the first repository, in configured order,
// that contains revision. A revision found nowhere is reported as
// model.UnknownRepository rather than as an error.
func Locate(ctx context.Context, env *release.Environment, revision string) (string, error) {
	for _, repo := range env.Repositories() {
		present, err := repo.CommitPresent(ctx, revision)
		if err != nil {
			return "", fmt.Errorf("locate revision %s in repository %s: %w", revision, repo.Name(), err)
		}
		if present {
			return repo.Name(), nil
		}
	}
	return model.UnknownRepository, nil
}
