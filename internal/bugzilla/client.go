// Package bugzilla talks to a Bugzilla server over its JSON-RPC interface.
package bugzilla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/model"
)

// DefaultURL is the JSON-RPC endpoint used when none is configured.
const DefaultURL = "https://bugzilla.redhat.com/jsonrpc.cgi"

// defaultFields are requested for every bug lookup.
var defaultFields = []string{"id", "status", "url", "product", "summary", "assigned_to", "cf_devel_whiteboard"}

// RPCError is an error reported by the JSON-RPC layer, or a non-2xx HTTP
// status when Code is zero.
type RPCError struct {
	Method     string
	Code       int
	Message    string
	StatusCode int
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bugzilla %s: error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("bugzilla %s: HTTP %d: %s", e.Method, e.StatusCode, e.Message)
}

// Client provides JSON-RPC access to a Bugzilla instance.
type Client struct {
	URL        string
	Username   string
	Password   string
	HTTPClient *http.Client
}

// NewClient creates a new Bugzilla client. An empty endpoint selects DefaultURL.
func NewClient(endpoint, username, password string) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		URL:      endpoint,
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type rpcRequest struct {
	Method string           `json:"method"`
	Params []map[string]any `json:"params"`
	ID     int              `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type bugsResult struct {
	Bugs []model.Bug `json:"bugs"`
}

// call invokes method. Read-only methods go out as GET requests with the
// parameters in the query string; writes are POSTed.
func (c *Client) call(ctx context.Context, method string, params map[string]any, write bool, out any) error {
	if c.URL == "" {
		return fmt.Errorf("bugzilla URL not configured")
	}

	if c.Username != "" {
		params["Bugzilla_login"] = c.Username
		params["Bugzilla_password"] = c.Password
	}

	var req *http.Request
	var err error
	if write {
		body, merr := json.Marshal(rpcRequest{Method: method, Params: []map[string]any{params}, ID: 1})
		if merr != nil {
			return fmt.Errorf("marshal %s request: %w", method, merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		encoded, merr := json.Marshal([]map[string]any{params})
		if merr != nil {
			return fmt.Errorf("marshal %s params: %w", method, merr)
		}
		q := url.Values{"method": {method}, "params": {string(encoded)}}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"?"+q.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Trace("bugzilla request", "method", method)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RPCError{Method: method, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var rpc rpcResponse
	if err := json.Unmarshal(respBody, &rpc); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if rpc.Error != nil {
		return &RPCError{Method: method, Code: rpc.Error.Code, Message: rpc.Error.Message, StatusCode: resp.StatusCode}
	}

	if out != nil && len(rpc.Result) > 0 {
		if err := json.Unmarshal(rpc.Result, out); err != nil {
			return fmt.Errorf("parse %s result: %w", method, err)
		}
	}
	return nil
}

// GetBugs fetches bugs by id.
func (c *Client) GetBugs(ctx context.Context, ids []int) ([]model.Bug, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var result bugsResult
	err := c.call(ctx, "Bug.get", map[string]any{
		"ids":            ids,
		"include_fields": defaultFields,
	}, false, &result)
	if err != nil {
		return nil, err
	}
	return result.Bugs, nil
}

// BugQuery selects the bugs of a release.
type BugQuery struct {
	Product  string
	Statuses []string
	// Flags that must be set, e.g. "pm_ack+".
	Flags  []string
	Limit  int
	Offset int
}

// BugsForRelease searches for bugs matching the query.
func (c *Client) BugsForRelease(ctx context.Context, q BugQuery) ([]model.Bug, error) {
	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = []string{"POST"}
	}
	// status values are case sensitive
	upper := make([]string, len(statuses))
	for i, s := range statuses {
		upper[i] = strings.ToUpper(s)
	}

	params := map[string]any{
		"query_format":   "advanced",
		"status":         upper,
		"include_fields": defaultFields,
		"limit":          q.Limit,
		"offset":         q.Offset,
	}
	if q.Product != "" {
		params["product"] = q.Product
	}
	for i, flag := range q.Flags {
		n := i + 1
		params[fmt.Sprintf("f%d", n)] = "flagtypes.name"
		params[fmt.Sprintf("o%d", n)] = "equals"
		params[fmt.Sprintf("v%d", n)] = flag
	}

	var result bugsResult
	if err := c.call(ctx, "Bug.search", params, false, &result); err != nil {
		return nil, err
	}
	log.Debug("bugzilla search", "product", q.Product, "statuses", upper, "flags", q.Flags, "found", len(result.Bugs))
	return result.Bugs, nil
}

// NeedsCherryPick returns the bugs whose devel whiteboard carries the
// cherry-pick marker.
func (c *Client) NeedsCherryPick(ctx context.Context) ([]model.Bug, error) {
	var result bugsResult
	err := c.call(ctx, "Bug.search", map[string]any{
		"query_format":   "advanced",
		"f1":             "cf_devel_whiteboard",
		"o1":             "substring",
		"v1":             CherryPickMarker,
		"include_fields": defaultFields,
	}, false, &result)
	if err != nil {
		return nil, err
	}
	return result.Bugs, nil
}

// SetNeedsCherryPick adds the cherry-pick marker to each bug's devel
// whiteboard. It returns the ids that were changed.
func (c *Client) SetNeedsCherryPick(ctx context.Context, ids []int) ([]int, error) {
	return c.updateWhiteboards(ctx, ids, AddMarker)
}

// ClearNeedsCherryPick removes the cherry-pick marker from each bug's
// devel whiteboard. It returns the ids that were changed.
func (c *Client) ClearNeedsCherryPick(ctx context.Context, ids []int) ([]int, error) {
	return c.updateWhiteboards(ctx, ids, RemoveMarker)
}

func (c *Client) updateWhiteboards(ctx context.Context, ids []int, edit func(string) (string, bool)) ([]int, error) {
	bugs, err := c.GetBugs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var changed []int
	for _, bug := range bugs {
		whiteboard, ok := edit(bug.Whiteboard)
		if !ok {
			continue
		}
		err := c.call(ctx, "Bug.update", map[string]any{
			"ids":                 []int{bug.ID},
			"cf_devel_whiteboard": whiteboard,
		}, true, nil)
		if err != nil {
			return changed, fmt.Errorf("update bug %d: %w", bug.ID, err)
		}
		log.Info("updated devel whiteboard", "bug", bug.ID, "whiteboard", whiteboard)
		changed = append(changed, bug.ID)
	}
	return changed, nil
}
