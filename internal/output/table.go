package output

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/calculator"
	"github.com/devpulse/devpulse/internal/report"
	"github.com/devpulse/devpulse/internal/types"
)

func monthLabels(months []types.Month) []string {
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Key()
	}
	return labels
}

// Delivery renders the delivery report for the terminal.
func (r *Renderer) Delivery(rep report.Delivery) string {
	var b strings.Builder
	b.WriteString(r.title(rep.Title))
	b.WriteString(r.dim("Window: "+monthRange(monthLabels(rep.Months))) + "\n\n")

	m := rep.Metrics
	b.WriteString(r.section("Pull requests"))
	b.WriteString(r.table(
		[]string{"Total", "Merged", "Matched", "Unmatched merged", "Match rate"},
		[][]string{{
			formatCount(m.TotalPRs),
			formatCount(m.MergedPRs),
			formatCount(m.MatchedPRs),
			formatCount(m.UnmatchedMerged),
			fmt.Sprintf("%.1f%%", m.MatchRate),
		}},
	))
	b.WriteString("\n")

	b.WriteString(r.section("Durations"))
	b.WriteString(r.table(
		[]string{"Metric", "Median", "Mean", "Completed", "In progress", "Negative excluded"},
		[][]string{
			durationRow("Lead time", m.LeadTime),
			durationRow("Cycle time", m.CycleTime),
			durationRow("Bug resolution", m.BugResolution),
		},
	))
	b.WriteString("\n")

	b.WriteString(r.section("Review activity per matched PR"))
	b.WriteString(r.table(
		[]string{"Avg comments", "Avg commits", "Avg files changed"},
		[][]string{{
			fmt.Sprintf("%.1f", m.Review.AvgComments),
			fmt.Sprintf("%.1f", m.Review.AvgCommits),
			fmt.Sprintf("%.1f", m.Review.AvgChangedFiles),
		}},
	))

	if len(rep.MergedTrend) > 0 {
		b.WriteString("\n")
		b.WriteString(r.section("Merged PRs by month"))
		rows := make([][]string, 0, len(rep.MergedTrend))
		for _, p := range rep.MergedTrend {
			delta, pct := formatDelta(p)
			rows = append(rows, []string{p.Month.Key(), fmt.Sprintf("%.0f", p.Value), delta, pct})
		}
		b.WriteString(r.table([]string{"Month", "Merged", "Delta", "Change"}, rows))
	}

	b.WriteString(qualityFooter(r, rep.DataQuality))
	return b.String()
}

func durationRow(name string, d calculator.DurationStats) []string {
	return []string{
		name,
		formatHours(d.MedianHours),
		formatHours(d.MeanHours),
		formatCount(d.Completed),
		formatCount(d.InProgress),
		formatCount(d.Negative),
	}
}

func qualityFooter(r *Renderer, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(r.section("Data quality"))
	for _, line := range lines {
		b.WriteString(r.dim("  "+line) + "\n")
	}
	return b.String()
}

// Billing renders the spend report, including an ASCII trend chart when
// there is more than one month to plot.
func (r *Renderer) Billing(rep report.Billing) string {
	var b strings.Builder
	b.WriteString(r.title(rep.Title))
	b.WriteString(r.dim("Window: "+monthRange(monthLabels(rep.Months))) + "\n\n")

	m := rep.Metrics
	b.WriteString(r.section("Totals"))
	b.WriteString(r.table(
		[]string{"Total spend", "Billable events", "Excluded events"},
		[][]string{{
			formatCents(m.TotalCostCents),
			formatCount(m.BillableEvents),
			formatCount(m.ExcludedEvents),
		}},
	))
	b.WriteString("\n")

	if len(rep.SpendTrend) > 1 {
		values := make([]float64, len(rep.SpendTrend))
		for i, p := range rep.SpendTrend {
			values[i] = p.Value
		}
		b.WriteString(r.section("Monthly spend (USD)"))
		b.WriteString(asciigraph.Plot(values,
			asciigraph.Height(8),
			asciigraph.Width(len(values)*10),
			asciigraph.Caption(monthRange(monthLabels(rep.Months))),
		))
		b.WriteString("\n\n")
	}

	b.WriteString(r.section("Spend by month"))
	monthRows := make([][]string, 0, len(m.Months))
	for i, ms := range m.Months {
		delta, pct := "n/a", "n/a"
		if i < len(rep.SpendTrend) {
			delta, pct = formatDelta(rep.SpendTrend[i])
		}
		monthRows = append(monthRows, []string{
			ms.Month.Key(),
			formatCents(ms.CostCents),
			formatCount(ms.Events),
			delta,
			pct,
		})
	}
	b.WriteString(r.table([]string{"Month", "Spend", "Events", "Delta ($)", "Change"}, monthRows))
	b.WriteString("\n")

	b.WriteString(r.section("Top users by spend"))
	userRows := make([][]string, 0, len(m.TopUsers))
	for i, u := range m.TopUsers {
		userRows = append(userRows, []string{
			formatCount(i + 1),
			u.Email,
			formatCents(u.CostCents),
			formatCount(u.Events),
			u.TopModel,
		})
	}
	b.WriteString(r.table([]string{"#", "User", "Spend", "Events", "Top model"}, userRows))
	b.WriteString("\n")

	b.WriteString(r.section("Top models by spend"))
	modelRows := make([][]string, 0, len(m.TopModels))
	for i, md := range m.TopModels {
		modelRows = append(modelRows, []string{
			formatCount(i + 1),
			md.Model,
			formatCents(md.CostCents),
			formatCount(md.Events),
			formatCount(md.Tokens.Total()),
			formatCount(md.UniqueUsers),
		})
	}
	b.WriteString(r.table([]string{"#", "Model", "Spend", "Events", "Tokens", "Users"}, modelRows))

	for _, md := range m.TopModels {
		if len(md.TopUsers) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(r.section("Top spenders on " + md.Model))
		rows := make([][]string, 0, len(md.TopUsers))
		for i, u := range md.TopUsers {
			rows = append(rows, []string{formatCount(i + 1), u.Email, formatCents(u.CostCents)})
		}
		b.WriteString(r.table([]string{"#", "User", "Spend"}, rows))
	}
	return b.String()
}

// Adoption renders the adoption report.
func (r *Renderer) Adoption(rep report.Adoption) string {
	var b strings.Builder
	b.WriteString(r.title(rep.Title))
	b.WriteString(r.dim("Window: "+monthRange(monthLabels(rep.Months))) + "\n\n")

	m := rep.Metrics
	b.WriteString(r.section("Team"))
	b.WriteString(r.table(
		[]string{"Members", "Seats", "Owners", "Removed", "Active users", "Adoption"},
		[][]string{{
			formatCount(m.TotalMembers),
			formatCount(m.ActiveSeats),
			formatCount(m.Owners),
			formatCount(m.RemovedMembers),
			formatCount(m.ActiveUsers),
			fmt.Sprintf("%.1f%%", m.AdoptionRate),
		}},
	))
	b.WriteString("\n")

	b.WriteString(r.section("Top users by events"))
	topRows := make([][]string, 0, len(m.TopUsers))
	for i, a := range m.TopUsers {
		topRows = append(topRows, []string{
			formatCount(i + 1),
			memberLabel(a.Member),
			formatCount(a.Events),
			lastActivityLabel(a),
		})
	}
	b.WriteString(r.table([]string{"#", "User", "Events", "Last activity"}, topRows))

	for _, group := range []struct {
		label string
		list  []calculator.MemberActivity
	}{
		{"Inactive 30+ days", m.Inactive30},
		{"Inactive 60+ days", m.Inactive60},
		{"Inactive 90+ days", m.Inactive90},
		{"Never used", m.NeverUsed},
	} {
		if len(group.list) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(r.section(group.label))
		rows := make([][]string, 0, len(group.list))
		for _, a := range group.list {
			rows = append(rows, []string{memberLabel(a.Member), a.Member.Role, lastActivityLabel(a)})
		}
		b.WriteString(r.table([]string{"User", "Role", "Last activity"}, rows))
	}

	if len(rep.ActiveTrend) > 0 {
		b.WriteString("\n")
		b.WriteString(r.section("Active users by month"))
		rows := make([][]string, 0, len(rep.ActiveTrend))
		for _, p := range rep.ActiveTrend {
			delta, pct := formatDelta(p)
			rows = append(rows, []string{p.Month.Key(), fmt.Sprintf("%.0f", p.Value), delta, pct})
		}
		b.WriteString(r.table([]string{"Month", "Active", "Delta", "Change"}, rows))
	}
	return b.String()
}

// Status renders the cache inventory.
func (r *Renderer) Status(dir string, entries []cache.Entry) string {
	var b strings.Builder
	b.WriteString(r.title("Cache Status"))
	b.WriteString(r.dim("Directory: "+dir) + "\n\n")

	if len(entries) == 0 {
		b.WriteString("No cached months. Run a report command to fetch data.\n")
		return b.String()
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Source,
			e.Month.Key(),
			formatCount(e.Records),
			e.FetchedAt.UTC().Format(types.TimeLayout),
			formatBytes(e.Size),
		})
	}
	b.WriteString(r.table([]string{"Source", "Month", "Records", "Fetched at", "Size"}, rows))
	return b.String()
}

func memberLabel(m types.TeamMember) string {
	if m.Name != "" {
		return fmt.Sprintf("%s <%s>", m.Name, m.Email)
	}
	return m.Email
}

func lastActivityLabel(a calculator.MemberActivity) string {
	if a.LastActivity == nil {
		return "never"
	}
	return a.LastActivity.String()
}
