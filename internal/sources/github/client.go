// Package github fetches pull requests through the GitHub REST API. Listing
// walks newest-first and stops as soon as it leaves the requested month, so
// old repositories do not cost full history scans.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/devpulse/devpulse/internal/fetch"
	"github.com/devpulse/devpulse/internal/logger"
	"github.com/devpulse/devpulse/internal/types"
)

type Config struct {
	BaseURL      string
	Token        string
	Owner        string
	Repositories []string
	PageSize     int
}

type Client struct {
	http     *fetch.Client
	baseURL  string
	owner    string
	repos    []string
	pageSize int
}

func NewClient(cfg Config, hc fetch.ClientConfig) *Client {
	header := make(http.Header)
	header.Set("Authorization", "Bearer "+cfg.Token)
	header.Set("Accept", "application/vnd.github+json")
	hc.Header = header
	return &Client{
		http:     fetch.NewClient(hc),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		owner:    cfg.Owner,
		repos:    cfg.Repositories,
		pageSize: cfg.PageSize,
	}
}

type rawPullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	MergedAt  string `json:"merged_at"`
}

type prDetail struct {
	Comments       int `json:"comments"`
	ReviewComments int `json:"review_comments"`
	Commits        int `json:"commits"`
	ChangedFiles   int `json:"changed_files"`
}

// FetchMonthPullRequests returns every PR created in the month across the
// configured repositories, enriched with review activity counts from the
// per-PR detail endpoint.
func (c *Client) FetchMonthPullRequests(ctx context.Context, m types.Month) ([]types.PullRequest, error) {
	var out []types.PullRequest
	for _, repo := range c.repos {
		prs, err := c.fetchRepoMonth(ctx, repo, m)
		if err != nil {
			return nil, fmt.Errorf("repo %s: %w", repo, err)
		}
		out = append(out, prs...)
	}
	return out, nil
}

func (c *Client) fetchRepoMonth(ctx context.Context, repo string, m types.Month) ([]types.PullRequest, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/pulls", c.baseURL, c.owner, repo)

	raws, err := fetch.CollectCursor(ctx, func(ctx context.Context, page int) ([]rawPullRequest, bool, error) {
		q := url.Values{
			"state":     {"all"},
			"sort":      {"created"},
			"direction": {"desc"},
			"per_page":  {strconv.Itoa(c.pageSize)},
			"page":      {strconv.Itoa(page)},
		}
		resp, err := c.http.Do(ctx, fetch.Request{Method: http.MethodGet, URL: listURL, Query: q})
		if err != nil {
			return nil, false, err
		}
		var prs []rawPullRequest
		if err := json.Unmarshal(resp.Body, &prs); err != nil {
			return nil, false, fmt.Errorf("parsing pull request page %d: %w", page, err)
		}

		var keep []rawPullRequest
		for _, pr := range prs {
			created, err := types.ParseTime(pr.CreatedAt)
			if err != nil {
				logger.Warn("pull request with unparseable created_at", "repo", repo, "number", pr.Number)
				continue
			}
			if !created.Before(m.End()) {
				// Newer than the bucket; keep walking back.
				continue
			}
			if created.Before(m.Start()) {
				// Sorted newest first: nothing older can be in the month.
				return keep, false, nil
			}
			keep = append(keep, pr)
		}
		return keep, len(prs) > 0 && hasNextPage(resp.Header), nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.PullRequest, 0, len(raws))
	for _, raw := range raws {
		detail, err := c.fetchDetail(ctx, repo, raw.Number)
		if err != nil {
			return nil, err
		}
		pr := types.PullRequest{
			Repo:         repo,
			Number:       raw.Number,
			Title:        raw.Title,
			Comments:     detail.Comments + detail.ReviewComments,
			Commits:      detail.Commits,
			ChangedFiles: detail.ChangedFiles,
		}
		if created, err := types.ParseTime(raw.CreatedAt); err == nil {
			pr.CreatedAt = created
		}
		if raw.MergedAt != "" {
			if merged, err := types.ParseTime(raw.MergedAt); err == nil {
				pr.MergedAt = &merged
			}
		}
		out = append(out, pr)
	}
	return out, nil
}

func (c *Client) fetchDetail(ctx context.Context, repo string, number int) (prDetail, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, c.owner, repo, number)
	resp, err := c.http.Do(ctx, fetch.Request{Method: http.MethodGet, URL: u})
	if err != nil {
		return prDetail{}, err
	}
	var detail prDetail
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return prDetail{}, fmt.Errorf("parsing detail for PR #%d: %w", number, err)
	}
	return detail, nil
}

func hasNextPage(h http.Header) bool {
	return strings.Contains(h.Get("Link"), `rel="next"`)
}
