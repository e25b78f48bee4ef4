// Package billing talks to the AI tool vendor's team admin API: per-seat
// usage events for spend analysis and the team member roster.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/devpulse/devpulse/internal/fetch"
	"github.com/devpulse/devpulse/internal/types"
)

type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
}

type Client struct {
	http     *fetch.Client
	baseURL  string
	pageSize int
}

// NewClient wires the admin API credentials into a throttled fetch client.
// The API key rides as the basic-auth username with an empty password.
func NewClient(cfg Config, hc fetch.ClientConfig) *Client {
	header := make(http.Header)
	header.Set("Authorization", fetch.BasicAuth(cfg.APIKey, ""))
	hc.Header = header
	return &Client{
		http:     fetch.NewClient(hc),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
	}
}

type usageEventsResponse struct {
	UsageEvents []rawUsageEvent `json:"usageEvents"`
	Pagination  struct {
		NumPages    int  `json:"numPages"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"pagination"`
}

type rawUsageEvent struct {
	Timestamp      string         `json:"timestamp"`
	UserEmail      string         `json:"userEmail"`
	Model          string         `json:"model"`
	Kind           string         `json:"kind"`
	IsChargeable   bool           `json:"isChargeable"`
	CursorTokenFee float64        `json:"cursorTokenFee"`
	TokenUsage     *rawTokenUsage `json:"tokenUsage"`
}

type rawTokenUsage struct {
	InputTokens        int     `json:"inputTokens"`
	OutputTokens       int     `json:"outputTokens"`
	CacheWriteTokens   int     `json:"cacheWriteTokens"`
	CacheReadTokens    int     `json:"cacheReadTokens"`
	TotalCents         float64 `json:"totalCents"`
	DiscountPercentOff float64 `json:"discountPercentOff"`
}

// FetchMonthUsageEvents pages through /teams/filtered-usage-events for one
// calendar month and returns every event, typed. Filtering down to billable
// events happens at aggregation time, so the cache keeps the full picture.
func (c *Client) FetchMonthUsageEvents(ctx context.Context, m types.Month) ([]types.UsageEvent, error) {
	startMS := m.Start().UnixMilli()
	endMS := m.End().UnixMilli()

	raws, err := fetch.CollectCursor(ctx, func(ctx context.Context, page int) ([]rawUsageEvent, bool, error) {
		payload, err := json.Marshal(map[string]any{
			"startDate": startMS,
			"endDate":   endMS,
			"page":      page,
			"pageSize":  c.pageSize,
		})
		if err != nil {
			return nil, false, err
		}
		resp, err := c.http.Do(ctx, fetch.Request{
			Method: http.MethodPost,
			URL:    c.baseURL + "/teams/filtered-usage-events",
			Body:   payload,
		})
		if err != nil {
			return nil, false, err
		}
		var parsed usageEventsResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil {
			return nil, false, fmt.Errorf("parsing usage events page %d: %w", page, err)
		}
		return parsed.UsageEvents, parsed.Pagination.HasNextPage, nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]types.UsageEvent, 0, len(raws))
	for _, raw := range raws {
		events = append(events, raw.toEvent())
	}
	return events, nil
}

func (r rawUsageEvent) toEvent() types.UsageEvent {
	ev := types.UsageEvent{
		UserEmail:        r.UserEmail,
		Model:            r.Model,
		Kind:             types.ParseUsageKind(r.Kind),
		PlatformFeeCents: r.CursorTokenFee,
		IsChargeable:     r.IsChargeable,
	}
	if ts, err := types.ParseTime(r.Timestamp); err == nil {
		ev.Timestamp = ts
	}
	if tu := r.TokenUsage; tu != nil {
		ev.IsTokenBased = true
		// totalCents is the pre-discount model cost.
		cost := tu.TotalCents
		if tu.DiscountPercentOff > 0 {
			cost *= 1 - tu.DiscountPercentOff/100
		}
		ev.TokenCostCents = cost
		ev.Tokens = types.TokenCounts{
			Input:      tu.InputTokens,
			Output:     tu.OutputTokens,
			CacheWrite: tu.CacheWriteTokens,
			CacheRead:  tu.CacheReadTokens,
		}
	}
	return ev
}

type teamMembersResponse struct {
	TeamMembers []rawTeamMember `json:"teamMembers"`
}

type rawTeamMember struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsRemoved bool   `json:"isRemoved"`
}

// FetchTeamMembers returns the roster sorted by display name. The endpoint
// is a single page.
func (c *Client) FetchTeamMembers(ctx context.Context) ([]types.TeamMember, error) {
	resp, err := c.http.Do(ctx, fetch.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/teams/members",
	})
	if err != nil {
		return nil, err
	}
	var parsed teamMembersResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing team members: %w", err)
	}

	members := make([]types.TeamMember, 0, len(parsed.TeamMembers))
	for _, raw := range parsed.TeamMembers {
		role := raw.Role
		if role == "" {
			role = "member"
		}
		members = append(members, types.TeamMember{
			Name:    raw.Name,
			Email:   raw.Email,
			Role:    role,
			Removed: raw.IsRemoved,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		return displayName(members[i]) < displayName(members[j])
	})
	return members, nil
}

func displayName(m types.TeamMember) string {
	if m.Name != "" {
		return strings.ToLower(m.Name)
	}
	return strings.ToLower(m.Email)
}
