// Package urlutil provides URL parsing utilities.
package urlutil

import (
	"fmt"
	"strconv"
	"strings"
)

// IssueIDFromURL extracts the tracker issue id from an issue URL.
// URL format: https://projects.theforeman.org/issues/123
// Query strings, fragments and a trailing slash are ignored.
func IssueIDFromURL(issueURL string) (int, error) {
	trimmed := strings.TrimSpace(issueURL)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid issue URL format: %s", issueURL)
	}

	idStr := parts[len(parts)-1]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse issue id from URL %s: %w", issueURL, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid issue id %d in URL %s", id, issueURL)
	}

	return id, nil
}
