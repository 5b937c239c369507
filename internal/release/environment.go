// Package release models the set of source-control repositories a release
// is built from and answers commit membership questions against them.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/cherrypick/internal/model"
)

// ErrNoRepositories is returned when an environment is built without repositories.
var ErrNoRepositories = errors.New("release environment has no repositories")

// ErrReservedName is returned for a repository named model.UnknownRepository.
var ErrReservedName = fmt.Errorf("repository name %q is reserved", model.UnknownRepository)

// Repository is a named source-control location that can be queried for
// commits. Implementations must be safe for concurrent read-only use.
type Repository interface {
	// Name returns the configured repository name.
	Name() string

	// CommitPresent reports whether the revision exists in the repository.
	CommitPresent(ctx context.Context, revision string) (bool, error)

	// CommitMessageOnReleaseBranch reports whether a commit whose message
	// contains the given comment is reachable from the release branch.
	CommitMessageOnReleaseBranch(ctx context.Context, comment string) (bool, error)
}

// Environment is the ordered set of repositories relevant to a release.
// It is never mutated after construction.
type Environment struct {
	repos  []Repository
	byName map[string]Repository
}

// NewEnvironment creates an environment from repositories in search order.
func NewEnvironment(repos ...Repository) (*Environment, error) {
	if len(repos) == 0 {
		return nil, ErrNoRepositories
	}

	byName := make(map[string]Repository, len(repos))
	for _, r := range repos {
		if r == nil {
			return nil, fmt.Errorf("release environment: nil repository")
		}
		if r.Name() == model.UnknownRepository {
			return nil, ErrReservedName
		}
		if _, dup := byName[r.Name()]; dup {
			return nil, fmt.Errorf("release environment: duplicate repository %q", r.Name())
		}
		byName[r.Name()] = r
	}

	ordered := make([]Repository, len(repos))
	copy(ordered, repos)

	return &Environment{repos: ordered, byName: byName}, nil
}

// Repositories returns the repositories in configured order.
func (e *Environment) Repositories() []Repository {
	out := make([]Repository, len(e.repos))
	copy(out, e.repos)
	return out
}

// Names returns the repository names in configured order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.repos))
	for _, r := range e.repos {
		names = append(names, r.Name())
	}
	return names
}

// Repository returns the repository with the given name.
func (e *Environment) Repository(name string) (Repository, bool) {
	r, ok := e.byName[name]
	return r, ok
}
