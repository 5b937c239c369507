// Package source loads the tracked issues of a release from Redmine,
// starting either from a list of Bugzilla bugs or from a Redmine version.
package source

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/cherrypick/internal/cache"
	"github.com/spiffcs/cherrypick/internal/constants"
	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/redmine"
	"github.com/spiffcs/cherrypick/internal/urlutil"
)

// IssueFetcher is the subset of the Redmine client used to load issues.
type IssueFetcher interface {
	GetIssue(ctx context.Context, id int) (*redmine.Issue, error)
	ListIssues(ctx context.Context, project string, versionID int) ([]redmine.Issue, error)
	UpdatedOn(ctx context.Context, ids []int) (map[int]string, error)
	VersionID(ctx context.Context, project, name string) (int, error)
}

// Ensure the Redmine client implements IssueFetcher.
var _ IssueFetcher = (*redmine.Client)(nil)

// ProgressFunc is called as issues are fetched.
type ProgressFunc func(completed, total int)

// Options configures a Source.
type Options struct {
	// Server identifies the Redmine instance in cache keys.
	Server string
	// Cache is optional; nil disables caching.
	Cache cache.Cacher
	// ExternalRefField is the custom field holding the Bugzilla id.
	ExternalRefField int
	Workers          int
	OnProgress       ProgressFunc
}

// Source loads tracked issues.
type Source struct {
	client IssueFetcher
	opts   Options
}

// New creates a Source.
func New(client IssueFetcher, opts Options) *Source {
	if opts.Workers < 1 {
		opts.Workers = constants.DefaultWorkers
	}
	return &Source{client: client, opts: opts}
}

// BugIssues is the result of loading issues from a bug list.
type BugIssues struct {
	// Issues in the order their bugs were listed, without duplicates.
	Issues []model.TrackedIssue
	// MissingURL holds bugs that link to no Redmine issue.
	MissingURL []model.Bug
}

// FromBugs fetches the Redmine issue each bug links to. Cross-references
// get the summary of the bug they point at; issues without their own
// cross-reference field are linked back to the bug they were found from.
func (s *Source) FromBugs(ctx context.Context, bugs []model.Bug) (*BugIssues, error) {
	result := &BugIssues{}
	summaries := make(map[string]string, len(bugs))
	seen := make(map[int]bool)

	var ids []int
	var origin []model.Bug
	for _, bug := range bugs {
		summaries[bug.ExternalID()] = bug.Summary
		if !bug.HasIssueURL() {
			result.MissingURL = append(result.MissingURL, bug)
			continue
		}

		id, err := urlutil.IssueIDFromURL(bug.URL)
		if err != nil {
			return nil, fmt.Errorf("bug %d: %w", bug.ID, err)
		}
		if seen[id] {
			log.Debug("skipping duplicate issue link", "bug", bug.ID, "issue", id)
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		origin = append(origin, bug)
	}

	issues, err := s.fetchAll(ctx, ids, nil)
	if err != nil {
		return nil, err
	}

	for i := range issues {
		ref := issues[i].ExternalRef
		if ref == nil {
			issues[i].ExternalRef = &model.ExternalRef{
				ID:      origin[i].ExternalID(),
				Summary: summaryOrPending(origin[i].Summary),
			}
			continue
		}
		ref.Summary = summaryOrPending(summaries[ref.ID])
	}

	result.Issues = issues
	log.Info("loaded issues from bugs", "bugs", len(bugs), "issues", len(issues), "missing_url", len(result.MissingURL))
	return result, nil
}

// FromVersion loads every issue targeted at the named Redmine version.
func (s *Source) FromVersion(ctx context.Context, project, version string) ([]model.TrackedIssue, error) {
	versionID, err := s.client.VersionID(ctx, project, version)
	if err != nil {
		return nil, err
	}

	// A freshly listed version carries current timestamps; a cached list
	// does not, so fetchAll asks the server.
	var stamps map[int]string
	listed, ok := s.cachedList(project, versionID)
	if !ok {
		listed, err = s.client.ListIssues(ctx, project, versionID)
		if err != nil {
			return nil, err
		}
		if s.opts.Cache != nil {
			if err := s.opts.Cache.SetList(s.opts.Server, project, versionID, listed); err != nil {
				log.Trace("cache write failed", "project", project, "error", err)
			}
		}
	}

	ids := make([]int, len(listed))
	for i, issue := range listed {
		ids[i] = issue.ID
	}
	if !ok {
		stamps = make(map[int]string, len(listed))
		for _, issue := range listed {
			stamps[issue.ID] = issue.UpdatedOn
		}
	}

	issues, err := s.fetchAll(ctx, ids, stamps)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		if ref := issues[i].ExternalRef; ref != nil {
			ref.Summary = summaryOrPending(ref.Summary)
		}
	}

	log.Info("loaded issues from version", "project", project, "version", version, "issues", len(issues))
	return issues, nil
}

func (s *Source) cachedList(project string, versionID int) ([]redmine.Issue, bool) {
	if s.opts.Cache == nil {
		return nil, false
	}
	return s.opts.Cache.GetList(s.opts.Server, project, versionID)
}

// fetchAll fetches and converts issues concurrently, preserving order.
// stamps maps issue ids to their current updated_on; when nil and a cache
// is configured it is looked up first.
func (s *Source) fetchAll(ctx context.Context, ids []int, stamps map[int]string) ([]model.TrackedIssue, error) {
	total := len(ids)
	issues := make([]model.TrackedIssue, total)

	if s.opts.Cache != nil && stamps == nil && total > 0 {
		var err error
		if stamps, err = s.client.UpdatedOn(ctx, ids); err != nil {
			return nil, err
		}
	}

	var completed int32
	s.reportProgress(0, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, id := range ids {
		g.Go(func() error {
			raw, err := s.fetch(gctx, id, stamps[id])
			if err != nil {
				return fmt.Errorf("fetch issue #%d: %w", id, err)
			}
			issue, err := redmine.ToTrackedIssue(*raw, s.opts.ExternalRefField)
			if err != nil {
				return fmt.Errorf("issue #%d: %w", id, err)
			}
			issues[i] = issue
			s.reportProgress(int(atomic.AddInt32(&completed, 1)), total)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return issues, nil
}

// fetch returns the cached issue only while it was last updated at
// updatedOn; anything else goes to the server.
func (s *Source) fetch(ctx context.Context, id int, updatedOn string) (*redmine.Issue, error) {
	if s.opts.Cache != nil && updatedOn != "" {
		if issue, ok := s.opts.Cache.GetIssue(s.opts.Server, id); ok {
			if issue.UpdatedOn == updatedOn {
				log.Trace("cache hit", "issue", id)
				return issue, nil
			}
			log.Trace("cached issue is stale", "issue", id, "cached", issue.UpdatedOn, "current", updatedOn)
		}
	}

	issue, err := s.client.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetIssue(s.opts.Server, issue); err != nil {
			log.Trace("cache write failed", "issue", id, "error", err)
		}
	}
	return issue, nil
}

func (s *Source) reportProgress(completed, total int) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(completed, total)
	}
}

func summaryOrPending(summary string) string {
	if summary == "" || summary == redmine.PendingSummary {
		return redmine.PendingSummary
	}
	return summary
}
