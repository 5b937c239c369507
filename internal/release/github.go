package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/cherrypick/internal/log"
)

// NewGitHubClient creates a GitHub API client. An empty token falls back to
// the GITHUB_TOKEN environment variable; with no token at all the client
// is unauthenticated and subject to the anonymous rate limit.
func NewGitHubClient(ctx context.Context, token string) *gh.Client {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	var base *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		base = oauth2.NewClient(ctx, ts)
	} else {
		log.Warn("GITHUB_TOKEN not set, using unauthenticated GitHub access")
		base = &http.Client{}
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	base.Transport = &rateLimitTransport{base: transport, state: globalRateLimitState}

	return gh.NewClient(base)
}

// GitHubRepository answers commit questions through the GitHub REST API for
// repositories that are not cloned locally.
type GitHubRepository struct {
	name   string
	owner  string
	repo   string
	branch string
	client *gh.Client

	indexOnce sync.Once
	index     *messageIndex
	indexErr  error
}

var _ Repository = (*GitHubRepository)(nil)

// NewGitHubRepository creates a repository for slug ("owner/name").
func NewGitHubRepository(client *gh.Client, name, slug, branch string) (*GitHubRepository, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid GitHub repository %q for %s (expected owner/name)", slug, name)
	}
	return &GitHubRepository{
		name:   name,
		owner:  owner,
		repo:   repo,
		branch: branch,
		client: client,
	}, nil
}

// Name returns the configured repository name.
func (r *GitHubRepository) Name() string {
	return r.name
}

// CommitPresent asks GitHub whether the revision exists in the repository.
func (r *GitHubRepository) CommitPresent(ctx context.Context, revision string) (bool, error) {
	revision = strings.TrimSpace(revision)
	if !isHex(revision) {
		return false, nil
	}

	_, resp, err := r.client.Repositories.GetCommitSHA1(ctx, r.owner, r.repo, revision, "")
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity) {
			return false, nil
		}
		if errors.Is(err, ErrRateLimited) {
			return false, fmt.Errorf("lookup %s in %s: %w", revision, r.name, ErrRateLimited)
		}
		return false, fmt.Errorf("lookup %s in %s/%s: %w", revision, r.owner, r.repo, err)
	}
	return true, nil
}

// CommitMessageOnReleaseBranch reports whether a commit on the release
// branch carries the comment. The branch history is listed once.
func (r *GitHubRepository) CommitMessageOnReleaseBranch(ctx context.Context, comment string) (bool, error) {
	r.indexOnce.Do(func() {
		r.index, r.indexErr = r.buildIndex(ctx)
	})
	if r.indexErr != nil {
		return false, r.indexErr
	}
	return r.index.contains(comment), nil
}

func (r *GitHubRepository) buildIndex(ctx context.Context) (*messageIndex, error) {
	opts := &gh.CommitsListOptions{
		SHA:         r.branch,
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	idx := &messageIndex{}
	for {
		commits, resp, err := r.client.Repositories.ListCommits(ctx, r.owner, r.repo, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return nil, &BranchNotFoundError{Repo: r.name, Branches: []string{r.branch}}
			}
			return nil, fmt.Errorf("list commits on %s in %s/%s: %w", r.branch, r.owner, r.repo, err)
		}

		for _, c := range commits {
			if c.GetCommit() != nil {
				idx.add(c.GetCommit().GetMessage())
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("indexed release branch", "repo", r.name, "branch", r.branch, "commits", idx.len())
	return idx, nil
}
