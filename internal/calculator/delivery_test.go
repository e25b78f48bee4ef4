package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/types"
)

func ts(s string) types.UTCTime {
	t, err := types.ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *types.UTCTime {
	t := ts(s)
	return &t
}

func TestDeliveryEndToEnd(t *testing.T) {
	// 2 merged+matched, 1 merged+unmatched, 1 unmerged+matched.
	prs := []types.PullRequest{
		{Repo: "shop", Number: 1, Title: "OA-1: login fix",
			CreatedAt: ts("2025-03-03 10:00:00"), MergedAt: tsp("2025-03-04 10:00:00"),
			Comments: 4, Commits: 2, ChangedFiles: 6},
		{Repo: "shop", Number: 2, Title: "OA-2: signup flow",
			CreatedAt: ts("2025-03-05 10:00:00"), MergedAt: tsp("2025-03-08 10:00:00"),
			Comments: 2, Commits: 4, ChangedFiles: 10},
		{Repo: "shop", Number: 3, Title: "chore: bump deps",
			CreatedAt: ts("2025-03-06 10:00:00"), MergedAt: tsp("2025-03-06 12:00:00")},
		{Repo: "shop", Number: 4, Title: "OA-1: follow-up",
			CreatedAt: ts("2025-03-07 10:00:00")},
	}
	issues := []types.Issue{
		{Key: "OA-1", Type: "Story",
			InProgressAt: tsp("2025-03-03 09:00:00"), DoneAt: tsp("2025-03-04 15:00:00")},
		{Key: "OA-2", Type: "Story",
			InProgressAt: tsp("2025-03-05 09:00:00")},
	}

	m := Delivery(DeliveryInput{
		PullRequests:    prs,
		Issues:          issues,
		CycleIssueTypes: []string{"Story", "Sub-task"},
		BugIssueTypes:   []string{"Bug"},
	})

	assert.Equal(t, 4, m.TotalPRs)
	assert.Equal(t, 3, m.MergedPRs)
	assert.Equal(t, 2, m.MatchedPRs)
	assert.Equal(t, 1, m.UnmatchedMerged)
	assert.Equal(t, 2, m.TotalIssues)
	assert.InDelta(t, 66.67, m.MatchRate, 0.01)

	// Lead times: 24h and 72h.
	require.Equal(t, 2, m.LeadTime.Completed)
	assert.InDelta(t, 48, m.LeadTime.MedianHours, 1e-9)
	assert.InDelta(t, 48, m.LeadTime.MeanHours, 1e-9)

	require.Equal(t, 1, m.CycleTime.Completed)
	assert.Equal(t, 1, m.CycleTime.InProgress)
	assert.InDelta(t, 30, m.CycleTime.MedianHours, 1e-9)

	assert.Equal(t, 0, m.BugResolution.Completed)

	assert.InDelta(t, 3, m.Review.AvgComments, 1e-9)
	assert.InDelta(t, 3, m.Review.AvgCommits, 1e-9)
	assert.InDelta(t, 8, m.Review.AvgChangedFiles, 1e-9)

	require.Len(t, m.MergedByMonth, 1)
	assert.Equal(t, types.Month{Year: 2025, Month: time.March}, m.MergedByMonth[0].Month)
	assert.Equal(t, 2.0, m.MergedByMonth[0].Value)
}

func TestDeliveryExcludesNegativeCycleTime(t *testing.T) {
	issues := []types.Issue{
		// Done before in-progress: clock skew, excluded and counted.
		{Key: "OA-9", Type: "Story",
			InProgressAt: tsp("2025-10-21 13:43:20"), DoneAt: tsp("2025-10-20 13:43:20")},
		{Key: "OA-10", Type: "Story",
			InProgressAt: tsp("2025-10-01 08:00:00"), DoneAt: tsp("2025-10-02 08:00:00")},
	}

	m := Delivery(DeliveryInput{Issues: issues, CycleIssueTypes: []string{"Story"}})

	assert.Equal(t, 1, m.CycleTime.Completed)
	assert.Equal(t, 1, m.CycleTime.Negative)
	assert.InDelta(t, 24, m.CycleTime.MedianHours, 1e-9)
	assert.Equal(t, 1, m.Quality.Total())
}

func TestDeliveryIgnoresDisallowedIssueTypes(t *testing.T) {
	issues := []types.Issue{
		{Key: "OA-1", Type: "Epic",
			InProgressAt: tsp("2025-03-01 08:00:00"), DoneAt: tsp("2025-03-02 08:00:00")},
		{Key: "OA-2", Type: "Bug",
			InProgressAt: tsp("2025-03-01 08:00:00"), DoneAt: tsp("2025-03-03 08:00:00")},
	}

	m := Delivery(DeliveryInput{
		Issues:          issues,
		CycleIssueTypes: []string{"Story"},
		BugIssueTypes:   []string{"Bug"},
	})

	assert.Equal(t, 0, m.CycleTime.Completed)
	require.Equal(t, 1, m.BugResolution.Completed)
	assert.InDelta(t, 48, m.BugResolution.MedianHours, 1e-9)
}

func TestDeliveryNegativeLeadTime(t *testing.T) {
	prs := []types.PullRequest{
		{Repo: "shop", Number: 1, Title: "OA-1: merge before create",
			CreatedAt: ts("2025-03-04 10:00:00"), MergedAt: tsp("2025-03-03 10:00:00")},
	}
	issues := []types.Issue{{Key: "OA-1", Type: "Story"}}

	m := Delivery(DeliveryInput{PullRequests: prs, Issues: issues})

	assert.Equal(t, 1, m.MatchedPRs, "still counted as matched")
	assert.Equal(t, 0, m.LeadTime.Completed)
	assert.Equal(t, 1, m.LeadTime.Negative)
}

func TestDeliveryEmptyInput(t *testing.T) {
	m := Delivery(DeliveryInput{})
	assert.Zero(t, m.TotalPRs)
	assert.Zero(t, m.MatchRate)
	assert.Zero(t, m.LeadTime.MedianHours)
	assert.Empty(t, m.Quality.Lines())
}
