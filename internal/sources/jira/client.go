// Package jira fetches issue tracker tickets together with their status
// transition history from the Jira Cloud REST API.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/devpulse/devpulse/internal/fetch"
	"github.com/devpulse/devpulse/internal/types"
)

type Config struct {
	BaseURL            string
	Email              string
	APIToken           string
	ProjectKey         string
	PageSize           int
	InProgressStatuses []string
	DoneStatuses       []string
}

type Client struct {
	http       *fetch.Client
	baseURL    string
	project    string
	pageSize   int
	inProgress map[string]bool
	done       map[string]bool
}

func NewClient(cfg Config, hc fetch.ClientConfig) *Client {
	header := make(http.Header)
	header.Set("Authorization", fetch.BasicAuth(cfg.Email, cfg.APIToken))
	header.Set("Accept", "application/json")
	hc.Header = header
	return &Client{
		http:       fetch.NewClient(hc),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		project:    cfg.ProjectKey,
		pageSize:   cfg.PageSize,
		inProgress: statusSet(cfg.InProgressStatuses),
		done:       statusSet(cfg.DoneStatuses),
	}
}

func statusSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

type searchResponse struct {
	StartAt    int               `json:"startAt"`
	MaxResults int               `json:"maxResults"`
	Total      int               `json:"total"`
	Issues     []json.RawMessage `json:"issues"`
}

// FetchMonthIssues returns every issue created in the month, oldest first.
// The created window is half-open so neighboring month buckets never
// overlap.
func (c *Client) FetchMonthIssues(ctx context.Context, m types.Month) ([]types.Issue, error) {
	jql := fmt.Sprintf(`project = %s AND created >= "%s" AND created < "%s" ORDER BY created ASC`,
		c.project, m.Start().Format("2006-01-02"), m.End().Format("2006-01-02"))

	raws, err := fetch.CollectOffset(ctx, c.pageSize, func(ctx context.Context, startAt, pageSize int) ([]json.RawMessage, int, error) {
		q := url.Values{
			"jql":        {jql},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
			"expand":     {"changelog"},
			"fields":     {"summary,issuetype,created,status"},
		}
		resp, err := c.http.Do(ctx, fetch.Request{
			Method: http.MethodGet,
			URL:    c.baseURL + "/rest/api/3/search",
			Query:  q,
		})
		if err != nil {
			return nil, 0, err
		}
		var parsed searchResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, 0, fmt.Errorf("parsing issue search page at %d: %w", startAt, err)
		}
		return parsed.Issues, parsed.Total, nil
	})
	if err != nil {
		return nil, err
	}

	issues := make([]types.Issue, 0, len(raws))
	for _, raw := range raws {
		issues = append(issues, c.parseIssue(raw))
	}
	return issues, nil
}

// parseIssue probes the nested issue document. Timestamps that fail to
// parse stay unset; the aggregation stage counts those gaps, it does not
// fail on them.
func (c *Client) parseIssue(raw json.RawMessage) types.Issue {
	doc := gjson.ParseBytes(raw)
	issue := types.Issue{
		Key:     doc.Get("key").String(),
		Summary: doc.Get("fields.summary").String(),
		Type:    doc.Get("fields.issuetype.name").String(),
	}
	if created, err := types.ParseTime(doc.Get("fields.created").String()); err == nil {
		issue.CreatedAt = created
	}
	issue.InProgressAt, issue.DoneAt = c.latestTransitions(doc.Get("changelog.histories"))
	return issue
}

// latestTransitions scans status changes in the changelog. For each bucket
// the latest transition wins, so a reopened ticket measures its final pass.
func (c *Client) latestTransitions(histories gjson.Result) (inProgress, done *types.UTCTime) {
	histories.ForEach(func(_, h gjson.Result) bool {
		at, err := types.ParseTime(h.Get("created").String())
		if err != nil {
			return true
		}
		h.Get("items").ForEach(func(_, item gjson.Result) bool {
			if item.Get("field").String() != "status" {
				return true
			}
			to := item.Get("toString").String()
			if c.inProgress[to] && (inProgress == nil || at.After(inProgress.Time)) {
				t := at
				inProgress = &t
			}
			if c.done[to] && (done == nil || at.After(done.Time)) {
				t := at
				done = &t
			}
			return true
		})
		return true
	})
	return inProgress, done
}
