package release

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/cherrypick/config"
	"github.com/spiffcs/cherrypick/internal/log"
)

// SetupOptions controls how the release environment is prepared.
type SetupOptions struct {
	// Clone missing local repositories from their configured URL.
	Clone bool
	// Fetch the release branch of every local repository from origin.
	Fetch bool
	// ForkUser adds a remote named after the user pointing at their fork.
	ForkUser string
	// GitHubToken authenticates GitHub-backed repositories.
	GitHubToken string
}

// Setup builds the release environment described by cfg. Repositories with
// a GitHub slug are queried through the API; the rest are opened from local
// clones under the namespace directory.
func Setup(ctx context.Context, cfg *config.Config, opts SetupOptions) (*Environment, error) {
	if len(cfg.Repos) == 0 {
		return nil, ErrNoRepositories
	}

	var client *gh.Client
	repos := make([]Repository, 0, len(cfg.Repos))

	for _, rc := range cfg.Repos {
		branch := cfg.BranchFor(rc)

		if rc.GitHub != "" {
			if client == nil {
				client = NewGitHubClient(ctx, opts.GitHubToken)
			}
			repo, err := NewGitHubRepository(client, rc.Name, rc.GitHub, branch)
			if err != nil {
				return nil, err
			}
			repos = append(repos, repo)
			continue
		}

		repoPath := cfg.PathFor(rc)
		if err := prepareClone(ctx, rc, repoPath, branch, opts); err != nil {
			return nil, err
		}

		repo, err := OpenGitRepository(rc.Name, repoPath, branch)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}

	log.Debug("release environment ready", "repos", len(repos))
	return NewEnvironment(repos...)
}

func prepareClone(ctx context.Context, rc config.Repo, repoPath, branch string, opts SetupOptions) error {
	if !IsGitRepo(repoPath) {
		if !opts.Clone {
			return fmt.Errorf("repository %s not found at %s (run setup-environment or pass --clone)", rc.Name, repoPath)
		}
		if err := Clone(ctx, rc.URL, repoPath); err != nil {
			return fmt.Errorf("clone %s: %w", rc.Name, err)
		}
	}

	if opts.ForkUser != "" && rc.URL != "" {
		if err := AddForkRemote(repoPath, opts.ForkUser, rc.URL); err != nil {
			return fmt.Errorf("add fork remote for %s: %w", rc.Name, err)
		}
	}

	if opts.Fetch {
		log.Info("fetching release branch", "repo", rc.Name, "branch", branch)
		if err := FetchBranches(ctx, repoPath, []string{branch}); err != nil {
			return fmt.Errorf("fetch %s: %w", rc.Name, err)
		}
	}

	return nil
}

// AddForkRemote adds a remote named user that points at the user's fork of
// upstream. An existing remote with that name is left untouched.
func AddForkRemote(repoPath, user, upstream string) error {
	forkURL, err := ForkURL(upstream, user)
	if err != nil {
		return err
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return err
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: user,
		URLs: []string{forkURL},
	})
	if errors.Is(err, git.ErrRemoteExists) {
		return nil
	}
	return err
}

// ForkURL rewrites the owner segment of a clone URL to user. Both URL and
// scp-like ("git@host:owner/name.git") forms are accepted.
func ForkURL(upstream, user string) (string, error) {
	if user == "" {
		return "", errors.New("fork user is empty")
	}

	if !strings.Contains(upstream, "://") {
		hostPart, repoPath, ok := strings.Cut(upstream, ":")
		if !ok {
			return "", fmt.Errorf("unsupported clone URL %q", upstream)
		}
		name := path.Base(repoPath)
		if name == "." || name == "/" {
			return "", fmt.Errorf("unsupported clone URL %q", upstream)
		}
		return hostPart + ":" + user + "/" + name, nil
	}

	u, err := url.Parse(upstream)
	if err != nil {
		return "", fmt.Errorf("parse clone URL %q: %w", upstream, err)
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("unsupported clone URL %q", upstream)
	}
	u.Path = "/" + user + "/" + name
	return u.String(), nil
}
