package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/spiffcs/cherrypick/internal/log"
)

// GitRepository answers commit questions against a local clone using go-git.
type GitRepository struct {
	name   string
	path   string
	branch string

	// go-git repositories are not safe for concurrent use
	mu   sync.Mutex
	repo *git.Repository

	indexOnce sync.Once
	index     *messageIndex
	indexErr  error
}

var _ Repository = (*GitRepository)(nil)

// OpenGitRepository opens the clone at path. branch is the release branch
// that membership checks walk.
func OpenGitRepository(name, path, branch string) (*GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s at %s: %w", name, path, err)
	}
	return &GitRepository{
		name:   name,
		path:   path,
		branch: branch,
		repo:   repo,
	}, nil
}

// Name returns the configured repository name.
func (r *GitRepository) Name() string {
	return r.name
}

// Path returns the location of the clone on disk.
func (r *GitRepository) Path() string {
	return r.path
}

// CommitPresent reports whether the revision exists in the clone.
// Abbreviated hashes are resolved through the revision parser.
func (r *GitRepository) CommitPresent(ctx context.Context, revision string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	revision = strings.TrimSpace(revision)
	if !isHex(revision) {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(revision) == 40 {
		_, err := r.repo.CommitObject(plumbing.NewHash(revision))
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("lookup %s in %s: %w", revision, r.name, err)
		}
		return true, nil
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		// go-git reports an unresolvable short hash as a missing reference
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve %s in %s: %w", revision, r.name, err)
	}
	if _, err := r.repo.CommitObject(*hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup %s in %s: %w", revision, r.name, err)
	}
	return true, nil
}

// CommitMessageOnReleaseBranch reports whether a commit reachable from the
// release branch carries the comment in its message. The branch history is
// read once per repository.
func (r *GitRepository) CommitMessageOnReleaseBranch(ctx context.Context, comment string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.indexOnce.Do(func() {
		r.index, r.indexErr = r.buildIndex()
	})
	if r.indexErr != nil {
		return false, r.indexErr
	}
	return r.index.contains(comment), nil
}

// buildIndex walks the release branch and records every commit message.
func (r *GitRepository) buildIndex() (*messageIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.branchReference()
	if err != nil {
		return nil, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("log %s in %s: %w", r.branch, r.name, err)
	}
	defer iter.Close()

	idx := &messageIndex{}
	err = iter.ForEach(func(c *object.Commit) error {
		idx.add(c.Message)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s in %s: %w", r.branch, r.name, err)
	}

	log.Debug("indexed release branch", "repo", r.name, "branch", r.branch, "commits", idx.len())
	return idx, nil
}

// branchReference resolves the release branch, preferring the remote ref.
func (r *GitRepository) branchReference() (*plumbing.Reference, error) {
	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName("origin", r.branch), true)
	if err == nil {
		return ref, nil
	}

	ref, err = r.repo.Reference(plumbing.NewBranchReferenceName(r.branch), true)
	if err == nil {
		return ref, nil
	}

	return nil, &BranchNotFoundError{Repo: r.name, Branches: []string{r.branch}}
}

// minAbbrevLen is git's default abbreviation length. Shorter revisions,
// such as Subversion revision numbers, are not looked up as hash prefixes.
const minAbbrevLen = 7

func isHex(s string) bool {
	if len(s) < minAbbrevLen || len(s) > 40 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsGitRepo checks if the path is a git repository.
func IsGitRepo(path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// Clone clones url into path unless a repository already exists there.
func Clone(ctx context.Context, url, path string) error {
	if IsGitRepo(path) {
		log.Debug("repository already cloned", "path", path)
		return nil
	}
	if url == "" {
		return fmt.Errorf("no clone URL configured for %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	log.Info("cloning repository", "url", url, "path", path)
	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{URL: url})
	if err != nil {
		return &GitError{Repo: path, Command: "clone", Output: err.Error()}
	}
	return nil
}

// FetchBranches fetches branches from origin using the git CLI so the user's
// SSH agent and credential helpers apply.
func FetchBranches(ctx context.Context, repoPath string, branches []string) error {
	args := append([]string{"fetch", "origin"}, branches...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := strings.TrimSpace(string(output))
		if strings.Contains(outputStr, "couldn't find remote ref") {
			return &BranchNotFoundError{Repo: repoPath, Branches: branches}
		}
		if outputStr != "" {
			return &GitError{Repo: repoPath, Command: "fetch", Output: outputStr}
		}
		return &GitError{Repo: repoPath, Command: "fetch", Output: "failed to fetch from remote (check network/auth)"}
	}

	return nil
}
