package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/cherrypick/internal/log"
)

const pageSize = 100

// APIError is returned when Redmine answers with a non-2xx status.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("redmine API returned %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("redmine API returned %d for %s: %s", e.StatusCode, e.URL, body)
}

// NotFound reports whether the resource does not exist.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client provides HTTP access to a Redmine instance.
type Client struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new Redmine client. apiKey may be empty for servers
// that allow anonymous read access.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		URL:    strings.TrimSuffix(baseURL, "/"),
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetIssue fetches a single issue together with its changesets.
func (c *Client) GetIssue(ctx context.Context, id int) (*Issue, error) {
	apiURL := fmt.Sprintf("%s/issues/%d.json?include=changesets", c.URL, id)

	body, err := c.doRequest(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("get issue %d: %w", id, err)
	}

	var result issueResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse issue %d: %w", id, err)
	}

	return &result.Issue, nil
}

// ListIssues returns every issue, open or closed, targeted at the version.
// Listed issues carry no changesets; fetch them with GetIssue.
func (c *Client) ListIssues(ctx context.Context, project string, versionID int) ([]Issue, error) {
	var all []Issue
	offset := 0

	for {
		params := url.Values{
			"fixed_version_id": {strconv.Itoa(versionID)},
			"status_id":        {"*"},
			"sort":             {"id"},
			"offset":           {strconv.Itoa(offset)},
			"limit":            {strconv.Itoa(pageSize)},
		}
		apiURL := fmt.Sprintf("%s/projects/%s/issues.json?%s", c.URL, url.PathEscape(project), params.Encode())

		body, err := c.doRequest(ctx, apiURL)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s: %w", project, err)
		}

		var result issueListResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse issue list: %w", err)
		}

		all = append(all, result.Issues...)
		log.Debug("listed redmine issues", "project", project, "offset", offset, "count", len(result.Issues), "total", result.TotalCount)

		if len(result.Issues) == 0 || offset+len(result.Issues) >= result.TotalCount {
			break
		}
		offset += len(result.Issues)
	}

	return all, nil
}

// UpdatedOn returns the updated_on timestamp of each of the given issues,
// open or closed. Issues the server does not return are absent from the map.
func (c *Client) UpdatedOn(ctx context.Context, ids []int) (map[int]string, error) {
	stamps := make(map[int]string, len(ids))

	for batch := range slices.Chunk(ids, pageSize) {
		idList := make([]string, len(batch))
		for i, id := range batch {
			idList[i] = strconv.Itoa(id)
		}
		params := url.Values{
			"issue_id":  {strings.Join(idList, ",")},
			"status_id": {"*"},
			"limit":     {strconv.Itoa(pageSize)},
		}
		apiURL := fmt.Sprintf("%s/issues.json?%s", c.URL, params.Encode())

		body, err := c.doRequest(ctx, apiURL)
		if err != nil {
			return nil, fmt.Errorf("issue timestamps: %w", err)
		}

		var result issueListResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse issue timestamps: %w", err)
		}
		for _, issue := range result.Issues {
			stamps[issue.ID] = issue.UpdatedOn
		}
	}

	log.Debug("fetched issue timestamps", "requested", len(ids), "found", len(stamps))
	return stamps, nil
}

// VersionID looks up the id of the named project version.
func (c *Client) VersionID(ctx context.Context, project, name string) (int, error) {
	apiURL := fmt.Sprintf("%s/projects/%s/versions.json", c.URL, url.PathEscape(project))

	body, err := c.doRequest(ctx, apiURL)
	if err != nil {
		return 0, fmt.Errorf("list versions for %s: %w", project, err)
	}

	var result versionListResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("parse version list: %w", err)
	}

	for _, v := range result.Versions {
		if v.Name == name {
			return v.ID, nil
		}
	}
	return 0, fmt.Errorf("version %q not found in project %s", name, project)
}

func (c *Client) doRequest(ctx context.Context, apiURL string) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("redmine URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cherrypick")
	if c.APIKey != "" {
		req.Header.Set("X-Redmine-API-Key", c.APIKey)
	}

	log.Trace("redmine request", "url", apiURL)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: apiURL, Body: string(respBody)}
	}

	return respBody, nil
}
