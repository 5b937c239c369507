package release

import "strings"

// GitError provides context for git command failures.
type GitError struct {
	Repo    string
	Command string
	Output  string
}

func (e *GitError) Error() string {
	if e.Repo != "" {
		return e.Repo + ": git " + e.Command + ": " + e.Output
	}
	return "git " + e.Command + ": " + e.Output
}

// BranchNotFoundError indicates the release branch does not exist in a repository.
type BranchNotFoundError struct {
	Repo     string
	Branches []string
}

func (e *BranchNotFoundError) Error() string {
	return "branch not found in " + e.Repo + ": " + strings.Join(e.Branches, ", ")
}
