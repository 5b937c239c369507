package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/spiffcs/cherrypick/internal/cache"
	"github.com/spiffcs/cherrypick/internal/model"
	"github.com/spiffcs/cherrypick/internal/redmine"
)

type fakeRedmine struct {
	mu      sync.Mutex
	issues  map[int]redmine.Issue
	gets    map[int]int
	lists   int
	stamps  int
	failGet int
}

func newFakeRedmine() *fakeRedmine {
	return &fakeRedmine{
		issues: map[int]redmine.Issue{
			100: {ID: 100, Subject: "crash", ClosedOn: "2016-05-10T13:04:05Z", UpdatedOn: "2016-05-10T13:04:05Z",
				CustomFields: []redmine.CustomField{{ID: 6, Value: json.RawMessage(`"1"`)}},
				Changesets:   []redmine.Changeset{{Revision: "abc", Comments: "fixes #100"}}},
			200: {ID: 200, Subject: "no bugzilla field", UpdatedOn: "2016-04-01T08:00:00Z"},
			300: {ID: 300, Subject: "other bug", UpdatedOn: "2016-04-02T08:00:00Z", CustomFields: []redmine.CustomField{{ID: 6, Value: json.RawMessage(`"99"`)}}},
		},
		gets: map[int]int{},
	}
}

func (f *fakeRedmine) GetIssue(_ context.Context, id int) (*redmine.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[id]++
	if id == f.failGet {
		return nil, &redmine.APIError{StatusCode: 500, URL: fmt.Sprintf("/issues/%d.json", id)}
	}
	issue, ok := f.issues[id]
	if !ok {
		return nil, &redmine.APIError{StatusCode: 404}
	}
	return &issue, nil
}

func (f *fakeRedmine) ListIssues(_ context.Context, project string, versionID int) ([]redmine.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if project != "katello" || versionID != 7 {
		return nil, fmt.Errorf("unexpected list %s/%d", project, versionID)
	}
	var listed []redmine.Issue
	for _, id := range []int{300, 100} {
		listed = append(listed, redmine.Issue{ID: id, UpdatedOn: f.issues[id].UpdatedOn})
	}
	return listed, nil
}

func (f *fakeRedmine) UpdatedOn(_ context.Context, ids []int) (map[int]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stamps++
	out := make(map[int]string, len(ids))
	for _, id := range ids {
		if issue, ok := f.issues[id]; ok {
			out[id] = issue.UpdatedOn
		}
	}
	return out, nil
}

// update replaces an issue the way an edit on the server would.
func (f *fakeRedmine) update(id int, edit func(*redmine.Issue)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := f.issues[id]
	edit(&issue)
	f.issues[id] = issue
}

func (f *fakeRedmine) VersionID(_ context.Context, project, name string) (int, error) {
	if name != "3.0.0" {
		return 0, fmt.Errorf("version %q not found", name)
	}
	return 7, nil
}

func TestFromBugs(t *testing.T) {
	fake := newFakeRedmine()
	src := New(fake, Options{ExternalRefField: 6, Workers: 2})

	bugs := []model.Bug{
		{ID: 1, Summary: "Login crashes", URL: "https://projects.theforeman.org/issues/100"},
		{ID: 2, Summary: "", URL: ""},
		{ID: 3, Summary: "Second bug", URL: "https://projects.theforeman.org/issues/200/"},
		{ID: 4, Summary: "Duplicate link", URL: "https://projects.theforeman.org/issues/100"},
		{ID: 5, Summary: "Pointing elsewhere", URL: "https://projects.theforeman.org/issues/300"},
	}

	got, err := src.FromBugs(context.Background(), bugs)
	if err != nil {
		t.Fatalf("FromBugs() error: %v", err)
	}

	var ids []int
	for _, issue := range got.Issues {
		ids = append(ids, issue.ID)
	}
	if fmt.Sprint(ids) != "[100 200 300]" {
		t.Errorf("issue ids = %v, want [100 200 300]", ids)
	}
	if len(got.MissingURL) != 1 || got.MissingURL[0].ID != 2 {
		t.Errorf("MissingURL = %+v", got.MissingURL)
	}

	tests := []struct {
		idx         int
		wantID      string
		wantSummary string
	}{
		{0, "1", "Login crashes"},
		{1, "3", "Second bug"},
		{2, "99", "TBD"},
	}
	for _, tt := range tests {
		ref := got.Issues[tt.idx].ExternalRef
		if ref == nil || ref.ID != tt.wantID || ref.Summary != tt.wantSummary {
			t.Errorf("issue %d ExternalRef = %+v, want {%s %s}", got.Issues[tt.idx].ID, ref, tt.wantID, tt.wantSummary)
		}
	}

	if got.Issues[0].ClosedOn == nil || len(got.Issues[0].Changesets) != 1 {
		t.Errorf("issue 100 = %+v", got.Issues[0])
	}
	if fake.gets[100] != 1 {
		t.Errorf("issue 100 fetched %d times, want 1", fake.gets[100])
	}
}

func TestFromBugsErrors(t *testing.T) {
	t.Run("bad url", func(t *testing.T) {
		src := New(newFakeRedmine(), Options{})
		_, err := src.FromBugs(context.Background(), []model.Bug{{ID: 9, URL: "https://example.com/issues/abc"}})
		if err == nil {
			t.Fatal("FromBugs() expected error")
		}
	})

	t.Run("fetch failure aborts", func(t *testing.T) {
		fake := newFakeRedmine()
		fake.failGet = 200
		src := New(fake, Options{})
		_, err := src.FromBugs(context.Background(), []model.Bug{
			{ID: 1, URL: "https://x/issues/100"},
			{ID: 2, URL: "https://x/issues/200"},
		})
		var apiErr *redmine.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("FromBugs() error = %v, want *redmine.APIError", err)
		}
	})

	t.Run("malformed issue", func(t *testing.T) {
		fake := newFakeRedmine()
		fake.issues[400] = redmine.Issue{ID: 400}
		src := New(fake, Options{})
		_, err := src.FromBugs(context.Background(), []model.Bug{{ID: 1, URL: "https://x/issues/400"}})
		if !errors.Is(err, model.ErrMalformedIssue) {
			t.Errorf("FromBugs() error = %v, want ErrMalformedIssue", err)
		}
	})
}

func TestFromVersionUsesCache(t *testing.T) {
	fake := newFakeRedmine()
	c, err := cache.NewCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var progress []int
	var mu sync.Mutex
	src := New(fake, Options{
		Server:           "https://projects.theforeman.org",
		Cache:            c,
		ExternalRefField: 6,
		Workers:          1,
		OnProgress: func(completed, total int) {
			mu.Lock()
			progress = append(progress, completed)
			mu.Unlock()
		},
	})

	for run := 0; run < 2; run++ {
		issues, err := src.FromVersion(context.Background(), "katello", "3.0.0")
		if err != nil {
			t.Fatalf("FromVersion() error: %v", err)
		}
		if len(issues) != 2 || issues[0].ID != 300 || issues[1].ID != 100 {
			t.Fatalf("issues = %+v", issues)
		}
		if ref := issues[0].ExternalRef; ref == nil || ref.ID != "99" || ref.Summary != "TBD" {
			t.Errorf("ExternalRef = %+v", ref)
		}
	}

	if fake.lists != 1 {
		t.Errorf("ListIssues called %d times, want 1", fake.lists)
	}
	// the second run reads a cached list and checks timestamps once
	if fake.stamps != 1 {
		t.Errorf("UpdatedOn called %d times, want 1", fake.stamps)
	}
	if fake.gets[100] != 1 || fake.gets[300] != 1 {
		t.Errorf("GetIssue calls = %v, want one per issue", fake.gets)
	}
	if fmt.Sprint(progress) != "[0 1 2 0 1 2]" {
		t.Errorf("progress = %v", progress)
	}
}

func TestFromVersionUnknown(t *testing.T) {
	src := New(newFakeRedmine(), Options{})
	if _, err := src.FromVersion(context.Background(), "katello", "9.9"); err == nil {
		t.Error("FromVersion() expected error for unknown version")
	}
}

func TestCachedClosedIssueRefetchedWhenUpdated(t *testing.T) {
	fake := newFakeRedmine()
	c, err := cache.NewCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := New(fake, Options{Server: "https://projects.theforeman.org", Cache: c, ExternalRefField: 6})
	bugs := []model.Bug{{ID: 1, Summary: "Login crashes", URL: "https://projects.theforeman.org/issues/100"}}

	load := func() model.TrackedIssue {
		t.Helper()
		got, err := src.FromBugs(context.Background(), bugs)
		if err != nil {
			t.Fatalf("FromBugs() error: %v", err)
		}
		return got.Issues[0]
	}

	if n := len(load().Changesets); n != 1 {
		t.Fatalf("first load: %d changesets, want 1", n)
	}

	t.Run("unchanged issue comes from cache", func(t *testing.T) {
		load()
		if fake.gets[100] != 1 {
			t.Errorf("GetIssue(100) called %d times, want 1", fake.gets[100])
		}
	})

	t.Run("follow-up changeset after close", func(t *testing.T) {
		fake.update(100, func(issue *redmine.Issue) {
			issue.Changesets = append(issue.Changesets, redmine.Changeset{Revision: "def", Comments: "refs #100 follow-up"})
			issue.UpdatedOn = "2016-05-12T09:00:00Z"
		})

		issue := load()
		if len(issue.Changesets) != 2 || issue.Changesets[1].Revision != "def" {
			t.Errorf("changesets = %+v, want the follow-up commit", issue.Changesets)
		}
		if fake.gets[100] != 2 {
			t.Errorf("GetIssue(100) called %d times, want 2", fake.gets[100])
		}
	})
}

func TestNoTimestampLookupWithoutCache(t *testing.T) {
	fake := newFakeRedmine()
	src := New(fake, Options{ExternalRefField: 6})

	if _, err := src.FromBugs(context.Background(), []model.Bug{{ID: 1, URL: "https://x/issues/100"}}); err != nil {
		t.Fatalf("FromBugs() error: %v", err)
	}
	if fake.stamps != 0 {
		t.Errorf("UpdatedOn called %d times without a cache", fake.stamps)
	}
}
