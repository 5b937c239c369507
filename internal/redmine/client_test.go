package redmine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClient(server.URL+"/", "secret-key")
	c.HTTPClient = server.Client()
	return c
}

func TestGetIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/issues/1234.json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("include"); got != "changesets" {
			t.Errorf("include = %q, want changesets", got)
		}
		if got := r.Header.Get("X-Redmine-API-Key"); got != "secret-key" {
			t.Errorf("api key header = %q", got)
		}
		fmt.Fprint(w, `{"issue":{"id":1234,"subject":"Crash on login","closed_on":"2016-05-10T13:04:05Z",
			"custom_fields":[{"id":6,"name":"Bugzilla link","value":"1330000"}],
			"changesets":[{"revision":"abc123","comments":"Fixes #1234 - guard nil"}]}}`)
	})

	c := newTestServer(t, mux)

	issue, err := c.GetIssue(context.Background(), 1234)
	if err != nil {
		t.Fatalf("GetIssue() error: %v", err)
	}
	if issue.ID != 1234 || issue.Subject != "Crash on login" {
		t.Errorf("issue = %+v", issue)
	}
	if len(issue.Changesets) != 1 || issue.Changesets[0].Revision != "abc123" {
		t.Errorf("changesets = %+v", issue.Changesets)
	}
	if got := issue.CustomFields[0].StringValue(); got != "1330000" {
		t.Errorf("custom field = %q", got)
	}
}

func TestGetIssueNotFound(t *testing.T) {
	c := newTestServer(t, http.NotFoundHandler())

	_, err := c.GetIssue(context.Background(), 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetIssue() error = %v, want *APIError", err)
	}
	if !apiErr.NotFound() {
		t.Errorf("NotFound() = false for status %d", apiErr.StatusCode)
	}
}

func TestListIssuesPaginates(t *testing.T) {
	const total = 230
	var requests int

	mux := http.NewServeMux()
	mux.HandleFunc("/projects/katello/issues.json", func(w http.ResponseWriter, r *http.Request) {
		requests++
		q := r.URL.Query()
		if q.Get("fixed_version_id") != "77" || q.Get("status_id") != "*" {
			t.Errorf("query = %v", q)
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		fmt.Fprintf(w, `{"total_count":%d,"offset":%d,"limit":%d,"issues":[`, total, offset, limit)
		for i := offset; i < offset+limit && i < total; i++ {
			if i > offset {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"subject":"issue %d"}`, i+1, i+1)
		}
		fmt.Fprint(w, `]}`)
	})

	c := newTestServer(t, mux)
	issues, err := c.ListIssues(context.Background(), "katello", 77)
	if err != nil {
		t.Fatalf("ListIssues() error: %v", err)
	}
	if len(issues) != total {
		t.Errorf("got %d issues, want %d", len(issues), total)
	}
	if issues[0].ID != 1 || issues[total-1].ID != total {
		t.Errorf("issue order: first %d last %d", issues[0].ID, issues[total-1].ID)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
}

func TestUpdatedOnBatches(t *testing.T) {
	var batches []int

	mux := http.NewServeMux()
	mux.HandleFunc("/issues.json", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status_id") != "*" {
			t.Errorf("status_id = %q, closed issues would be skipped", q.Get("status_id"))
		}
		ids := strings.Split(q.Get("issue_id"), ",")
		batches = append(batches, len(ids))

		fmt.Fprint(w, `{"issues":[`)
		n := 0
		for _, raw := range ids {
			id, _ := strconv.Atoi(raw)
			if id%50 == 0 {
				continue // not visible to this user
			}
			if n > 0 {
				fmt.Fprint(w, ",")
			}
			n++
			fmt.Fprintf(w, `{"id":%d,"updated_on":"2016-05-%02dT10:00:00Z"}`, id, id%28+1)
		}
		fmt.Fprintf(w, `],"total_count":%d}`, n)
	})

	ids := make([]int, 150)
	for i := range ids {
		ids[i] = i + 1
	}

	stamps, err := newTestServer(t, mux).UpdatedOn(context.Background(), ids)
	if err != nil {
		t.Fatalf("UpdatedOn() error: %v", err)
	}
	if fmt.Sprint(batches) != "[100 50]" {
		t.Errorf("batch sizes = %v, want [100 50]", batches)
	}
	if len(stamps) != 147 {
		t.Errorf("got %d stamps, want 147", len(stamps))
	}
	if got := stamps[3]; got != "2016-05-04T10:00:00Z" {
		t.Errorf("stamps[3] = %q", got)
	}
	if _, ok := stamps[100]; ok {
		t.Error("invisible issue should be absent")
	}
}

func TestVersionID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/foreman/versions.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":[{"id":10,"name":"1.11.0"},{"id":11,"name":"1.12.0"}]}`)
	})
	c := newTestServer(t, mux)

	id, err := c.VersionID(context.Background(), "foreman", "1.12.0")
	if err != nil || id != 11 {
		t.Errorf("VersionID() = %d, %v; want 11", id, err)
	}

	if _, err := c.VersionID(context.Background(), "foreman", "9.9"); err == nil {
		t.Error("VersionID() expected error for unknown version")
	}
}

func TestClientWithoutURL(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.GetIssue(context.Background(), 1); err == nil {
		t.Error("GetIssue() expected error without URL")
	}
}
