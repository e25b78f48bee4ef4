package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/report"
)

// writeCSV writes one table to dir/name, creating dir as needed.
func writeCSV(dir, name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WriteDeliveryCSV exports the delivery report as CSV tables and returns
// the written paths.
func WriteDeliveryCSV(dir string, rep report.Delivery) ([]string, error) {
	m := rep.Metrics
	metricsRows := [][]string{
		durationCSVRow("lead_time", m.LeadTime),
		durationCSVRow("cycle_time", m.CycleTime),
		durationCSVRow("bug_resolution", m.BugResolution),
	}
	metricsPath, err := writeCSV(dir, "delivery_durations.csv",
		[]string{"metric", "median_hours", "mean_hours", "completed", "in_progress", "negative_excluded"},
		metricsRows)
	if err != nil {
		return nil, err
	}

	summaryPath, err := writeCSV(dir, "delivery_summary.csv",
		[]string{"total_prs", "merged_prs", "matched_prs", "unmatched_merged", "match_rate_pct", "avg_comments", "avg_commits", "avg_files_changed"},
		[][]string{{
			formatCount(m.TotalPRs),
			formatCount(m.MergedPRs),
			formatCount(m.MatchedPRs),
			formatCount(m.UnmatchedMerged),
			fmt.Sprintf("%.2f", m.MatchRate),
			fmt.Sprintf("%.2f", m.Review.AvgComments),
			fmt.Sprintf("%.2f", m.Review.AvgCommits),
			fmt.Sprintf("%.2f", m.Review.AvgChangedFiles),
		}})
	if err != nil {
		return nil, err
	}
	return []string{metricsPath, summaryPath}, nil
}

func durationCSVRow(name string, d calculator.DurationStats) []string {
	return []string{
		name,
		fmt.Sprintf("%.2f", d.MedianHours),
		fmt.Sprintf("%.2f", d.MeanHours),
		formatCount(d.Completed),
		formatCount(d.InProgress),
		formatCount(d.Negative),
	}
}

// WriteBillingCSV exports the spend report as CSV tables and returns the
// written paths.
func WriteBillingCSV(dir string, rep report.Billing) ([]string, error) {
	m := rep.Metrics

	monthRows := make([][]string, 0, len(m.Months))
	for _, ms := range m.Months {
		monthRows = append(monthRows, []string{
			ms.Month.Key(),
			ms.CostCents.StringFixed(2),
			formatCount(ms.Events),
		})
	}
	monthsPath, err := writeCSV(dir, "billing_monthly.csv",
		[]string{"month", "cost_cents", "events"}, monthRows)
	if err != nil {
		return nil, err
	}

	userRows := make([][]string, 0, len(m.TopUsers))
	for i, u := range m.TopUsers {
		userRows = append(userRows, []string{
			formatCount(i + 1),
			u.Email,
			u.CostCents.StringFixed(2),
			formatCount(u.Events),
			u.TopModel,
		})
	}
	usersPath, err := writeCSV(dir, "billing_top_users.csv",
		[]string{"rank", "email", "cost_cents", "events", "top_model"}, userRows)
	if err != nil {
		return nil, err
	}

	modelRows := make([][]string, 0, len(m.TopModels))
	for i, md := range m.TopModels {
		modelRows = append(modelRows, []string{
			formatCount(i + 1),
			md.Model,
			md.CostCents.StringFixed(2),
			formatCount(md.Events),
			formatCount(md.Tokens.Total()),
			formatCount(md.UniqueUsers),
		})
	}
	modelsPath, err := writeCSV(dir, "billing_top_models.csv",
		[]string{"rank", "model", "cost_cents", "events", "tokens", "unique_users"}, modelRows)
	if err != nil {
		return nil, err
	}
	return []string{monthsPath, usersPath, modelsPath}, nil
}

// WriteAdoptionCSV exports the adoption report as CSV tables and returns
// the written paths.
func WriteAdoptionCSV(dir string, rep report.Adoption) ([]string, error) {
	m := rep.Metrics

	topRows := make([][]string, 0, len(m.TopUsers))
	for i, a := range m.TopUsers {
		topRows = append(topRows, []string{
			formatCount(i + 1),
			a.Member.Email,
			a.Member.Name,
			formatCount(a.Events),
			lastActivityLabel(a),
		})
	}
	topPath, err := writeCSV(dir, "adoption_top_users.csv",
		[]string{"rank", "email", "name", "events", "last_activity"}, topRows)
	if err != nil {
		return nil, err
	}

	inactiveRows := make([][]string, 0, len(m.Inactive30)+len(m.NeverUsed))
	for _, a := range m.Inactive30 {
		inactiveRows = append(inactiveRows, []string{a.Member.Email, a.Member.Name, a.Member.Role, lastActivityLabel(a), formatCount(a.DaysInactive)})
	}
	inactivePath, err := writeCSV(dir, "adoption_inactive_30d.csv",
		[]string{"email", "name", "role", "last_activity", "days_inactive"}, inactiveRows)
	if err != nil {
		return nil, err
	}
	return []string{topPath, inactivePath}, nil
}
