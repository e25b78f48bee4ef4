package calculator

import (
	"sort"

	"github.com/devpulse/devpulse/internal/match"
	"github.com/devpulse/devpulse/internal/types"
)

// DeliveryInput is everything the delivery metrics need: the PR and issue
// records for the analysis window plus the issue-type allow-lists.
type DeliveryInput struct {
	PullRequests    []types.PullRequest
	Issues          []types.Issue
	CycleIssueTypes []string
	BugIssueTypes   []string
}

// ReviewActivity holds per-PR averages over matched merged pull requests.
type ReviewActivity struct {
	AvgComments     float64 `json:"avg_comments"`
	AvgCommits      float64 `json:"avg_commits"`
	AvgChangedFiles float64 `json:"avg_changed_files"`
}

type DeliveryMetrics struct {
	TotalPRs        int     `json:"total_prs"`
	MergedPRs       int     `json:"merged_prs"`
	MatchedPRs      int     `json:"matched_prs"`
	UnmatchedMerged int     `json:"unmatched_merged_prs"`
	MatchRate       float64 `json:"match_rate_pct"`
	TotalIssues     int     `json:"total_issues"`

	LeadTime      DurationStats  `json:"lead_time"`
	CycleTime     DurationStats  `json:"cycle_time"`
	BugResolution DurationStats  `json:"bug_resolution"`
	Review        ReviewActivity `json:"review_activity"`

	// MergedByMonth counts merged PRs per merge month, oldest first, for
	// the trend view.
	MergedByMonth []MonthValue `json:"merged_by_month"`

	Quality *Quality `json:"-"`
}

// Delivery computes lead time, cycle time, bug resolution time and review
// activity for one analysis window. Unmatched PRs stay in the totals but
// never feed duration metrics; malformed records are skipped and counted.
func Delivery(in DeliveryInput) DeliveryMetrics {
	quality := NewQuality()
	ix := match.NewIndex(in.Issues)

	var merged []types.PullRequest
	for _, pr := range in.PullRequests {
		if pr.Merged() {
			merged = append(merged, pr)
		}
	}
	matched, unmatched := match.Split(merged, ix)

	m := DeliveryMetrics{
		TotalPRs:        len(in.PullRequests),
		MergedPRs:       len(merged),
		MatchedPRs:      len(matched),
		UnmatchedMerged: len(unmatched),
		TotalIssues:     len(in.Issues),
		Quality:         quality,
	}
	if len(merged) > 0 {
		m.MatchRate = float64(len(matched)) / float64(len(merged)) * 100
	}

	m.LeadTime, m.Review, m.MergedByMonth = leadTime(matched, quality)
	m.CycleTime = issueDurations(in.Issues, in.CycleIssueTypes, quality, "cycle time")
	m.BugResolution = issueDurations(in.Issues, in.BugIssueTypes, quality, "bug resolution time")
	return m
}

func leadTime(matched []match.Pair, quality *Quality) (DurationStats, ReviewActivity, []MonthValue) {
	var (
		hours    []float64
		comments []float64
		commits  []float64
		files    []float64
		negative int
		byMonth  = make(map[types.Month]float64)
	)
	for _, pair := range matched {
		pr := pair.PR
		if pr.CreatedAt.IsZero() || pr.MergedAt == nil {
			quality.Skip("pull request missing timestamp", "repo", pr.Repo, "number", pr.Number)
			continue
		}
		h := pr.MergedAt.Sub(pr.CreatedAt.Time).Hours()
		if h < 0 {
			negative++
			quality.Skip("negative lead time", "repo", pr.Repo, "number", pr.Number)
			continue
		}
		hours = append(hours, h)
		comments = append(comments, float64(pr.Comments))
		commits = append(commits, float64(pr.Commits))
		files = append(files, float64(pr.ChangedFiles))
		byMonth[types.MonthOf(pr.MergedAt.Time)]++
	}

	review := ReviewActivity{
		AvgComments:     Mean(comments),
		AvgCommits:      Mean(commits),
		AvgChangedFiles: Mean(files),
	}
	return summarize(hours, 0, negative), review, sortedSeries(byMonth)
}

// issueDurations measures latest in-progress to latest done for issues of
// the allow-listed types. Issues with only an in-progress timestamp count
// as still in progress.
func issueDurations(issues []types.Issue, allowTypes []string, quality *Quality, metric string) DurationStats {
	allowed := make(map[string]bool, len(allowTypes))
	for _, t := range allowTypes {
		allowed[t] = true
	}

	var (
		hours      []float64
		inProgress int
		negative   int
	)
	for _, is := range issues {
		if !allowed[is.Type] {
			continue
		}
		switch {
		case is.InProgressAt != nil && is.DoneAt != nil:
			h := is.DoneAt.Sub(is.InProgressAt.Time).Hours()
			if h < 0 {
				negative++
				quality.Skip("negative "+metric, "issue", is.Key)
				continue
			}
			hours = append(hours, h)
		case is.InProgressAt != nil:
			inProgress++
		case is.DoneAt != nil:
			quality.Skip("issue done without in-progress transition", "issue", is.Key)
		}
	}
	return summarize(hours, inProgress, negative)
}

func sortedSeries(byMonth map[types.Month]float64) []MonthValue {
	out := make([]MonthValue, 0, len(byMonth))
	for m, v := range byMonth {
		out = append(out, MonthValue{Month: m, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
