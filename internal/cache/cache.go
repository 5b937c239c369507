// Package cache provides on-disk caching for Redmine API responses.
package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/cherrypick/internal/constants"
	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/redmine"
)

// Cacher defines the interface for caching operations.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	// Issue cache
	GetIssue(server string, id int) (*redmine.Issue, bool)
	SetIssue(server string, issue *redmine.Issue) error

	// Version issue list cache
	GetList(server, project string, versionID int) ([]redmine.Issue, bool)
	SetList(server, project string, versionID int, issues []redmine.Issue) error

	Clear() error
	Stats() (*Stats, error)
}

// Ensure Cache implements Cacher interface.
var _ Cacher = (*Cache)(nil)

// Cache stores Redmine issues to avoid repeated API calls
type Cache struct {
	dir string
}

// NewCache creates a cache under the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewCacheAt(filepath.Join(cacheDir, "cherrypick", "redmine"))
}

// NewCacheAt creates a cache rooted at dir.
func NewCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// serverKey turns a server URL into a file name component.
func serverKey(server string) string {
	if u, err := url.Parse(server); err == nil && u.Host != "" {
		server = u.Host + u.Path
	}
	r := strings.NewReplacer("/", "_", ":", "_", "\\", "_")
	return strings.Trim(r.Replace(server), "_")
}

func (c *Cache) issuePath(server string, id int) string {
	return filepath.Join(c.dir, fmt.Sprintf("issue_%s_%d.json", serverKey(server), id))
}

func (c *Cache) listPath(server, project string, versionID int) string {
	return filepath.Join(c.dir, fmt.Sprintf("list_%s_%s_%d.json", serverKey(server), serverKey(project), versionID))
}

// issueTTL bounds how long an entry is kept at all. Callers still compare
// updated_on against the server before trusting an entry.
func issueTTL(issue *redmine.Issue) time.Duration {
	if issue.ClosedOn != "" {
		return constants.ClosedIssueCacheTTL
	}
	return constants.OpenIssueCacheTTL
}

// GetIssue retrieves a cached issue.
func (c *Cache) GetIssue(server string, id int) (*redmine.Issue, bool) {
	if id <= 0 {
		return nil, false
	}

	var entry IssueEntry
	if !c.read(c.issuePath(server, id), &entry) {
		return nil, false
	}

	// Invalidate if cache version doesn't match (format/schema changed)
	if entry.Version != Version {
		log.Debug("cache version mismatch", "cached", entry.Version, "current", Version, "issue", id)
		return nil, false
	}

	if time.Since(entry.CachedAt) > issueTTL(&entry.Issue) {
		return nil, false
	}

	return &entry.Issue, true
}

// SetIssue caches an issue.
func (c *Cache) SetIssue(server string, issue *redmine.Issue) error {
	if issue == nil || issue.ID <= 0 {
		return nil
	}
	return c.write(c.issuePath(server, issue.ID), IssueEntry{
		Issue:    *issue,
		CachedAt: time.Now(),
		Version:  Version,
	})
}

// GetList retrieves the cached issue list of a version.
func (c *Cache) GetList(server, project string, versionID int) ([]redmine.Issue, bool) {
	var entry ListEntry
	if !c.read(c.listPath(server, project, versionID), &entry) {
		return nil, false
	}
	if entry.Version != Version {
		return nil, false
	}
	if time.Since(entry.CachedAt) > constants.IssueListCacheTTL {
		return nil, false
	}
	return entry.Issues, true
}

// SetList caches the issue list of a version.
func (c *Cache) SetList(server, project string, versionID int, issues []redmine.Issue) error {
	return c.write(c.listPath(server, project, versionID), ListEntry{
		Project:   project,
		VersionID: versionID,
		Issues:    issues,
		CachedAt:  time.Now(),
		Version:   Version,
	})
}

func (c *Cache) read(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Trace("discarding unreadable cache entry", "path", path, "error", err)
		return false
	}
	return true
}

func (c *Cache) write(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Clear removes all cached entries
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// Stats returns cache statistics broken down by entry type
func (c *Cache) Stats() (*Stats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	now := time.Now()

	for _, entry := range entries {
		path := filepath.Join(c.dir, entry.Name())
		name := entry.Name()

		switch {
		case strings.HasPrefix(name, "issue_"):
			stats.IssueTotal++
			var e IssueEntry
			if c.read(path, &e) && e.Version == Version && now.Sub(e.CachedAt) <= issueTTL(&e.Issue) {
				stats.IssueValid++
			}
		case strings.HasPrefix(name, "list_"):
			stats.ListTotal++
			var e ListEntry
			if c.read(path, &e) && e.Version == Version && now.Sub(e.CachedAt) <= constants.IssueListCacheTTL {
				stats.ListValid++
			}
		}
	}

	return stats, nil
}
