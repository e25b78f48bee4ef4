package output

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/devpulse/devpulse/internal/report"
)

// htmlPage is the data model behind the dashboard template: a row of
// summary cards followed by table sections.
type htmlPage struct {
	Title       string
	GeneratedAt string
	Window      string
	Cards       []htmlCard
	Sections    []htmlSection
}

type htmlCard struct {
	Label string
	Value string
}

type htmlSection struct {
	Title   string
	Headers []string
	Rows    [][]string
	Notes   []string
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2933; }
  h1 { margin-bottom: 0.25rem; }
  .meta { color: #616e7c; margin-bottom: 1.5rem; }
  .cards { display: flex; flex-wrap: wrap; gap: 1rem; margin-bottom: 2rem; }
  .card { border: 1px solid #d3dce6; border-radius: 8px; padding: 1rem 1.5rem; min-width: 10rem; }
  .card .value { font-size: 1.6rem; font-weight: 600; }
  .card .label { color: #616e7c; font-size: 0.85rem; }
  table { border-collapse: collapse; margin-bottom: 2rem; }
  th, td { border: 1px solid #d3dce6; padding: 0.4rem 0.8rem; text-align: right; }
  th { background: #f0f4f8; }
  td:first-child, th:first-child { text-align: left; }
  .notes { color: #616e7c; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.Window}} &middot; generated {{.GeneratedAt}}</p>
<div class="cards">
{{- range .Cards}}
  <div class="card"><div class="value">{{.Value}}</div><div class="label">{{.Label}}</div></div>
{{- end}}
</div>
{{- range .Sections}}
<h2>{{.Title}}</h2>
<table>
  <tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
  <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- range .Notes}}
<p class="notes">{{.}}</p>
{{- end}}
{{- end}}
</body>
</html>
`))

func writeHTML(dir, name string, page htmlPage) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := pageTemplate.Execute(f, page); err != nil {
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}
	return path, nil
}

// WriteDeliveryHTML writes the delivery dashboard and returns its path.
func WriteDeliveryHTML(dir string, rep report.Delivery) (string, error) {
	m := rep.Metrics
	page := htmlPage{
		Title:       rep.Title,
		GeneratedAt: rep.GeneratedAt.String(),
		Window:      monthRange(monthLabels(rep.Months)),
		Cards: []htmlCard{
			{Label: "Median lead time", Value: formatHours(m.LeadTime.MedianHours)},
			{Label: "Median cycle time", Value: formatHours(m.CycleTime.MedianHours)},
			{Label: "Merged PRs", Value: formatCount(m.MergedPRs)},
			{Label: "Match rate", Value: fmt.Sprintf("%.1f%%", m.MatchRate)},
		},
		Sections: []htmlSection{
			{
				Title:   "Durations",
				Headers: []string{"Metric", "Median", "Mean", "Completed", "In progress", "Negative excluded"},
				Rows: [][]string{
					durationRow("Lead time", m.LeadTime),
					durationRow("Cycle time", m.CycleTime),
					durationRow("Bug resolution", m.BugResolution),
				},
				Notes: rep.DataQuality,
			},
			{
				Title:   "Review activity per matched PR",
				Headers: []string{"Avg comments", "Avg commits", "Avg files changed"},
				Rows: [][]string{{
					fmt.Sprintf("%.1f", m.Review.AvgComments),
					fmt.Sprintf("%.1f", m.Review.AvgCommits),
					fmt.Sprintf("%.1f", m.Review.AvgChangedFiles),
				}},
			},
		},
	}
	if len(rep.MergedTrend) > 0 {
		rows := make([][]string, 0, len(rep.MergedTrend))
		for _, p := range rep.MergedTrend {
			delta, pct := formatDelta(p)
			rows = append(rows, []string{p.Month.Key(), fmt.Sprintf("%.0f", p.Value), delta, pct})
		}
		page.Sections = append(page.Sections, htmlSection{
			Title:   "Merged PRs by month",
			Headers: []string{"Month", "Merged", "Delta", "Change"},
			Rows:    rows,
		})
	}
	return writeHTML(dir, "delivery.html", page)
}

// WriteBillingHTML writes the spend dashboard and returns its path.
func WriteBillingHTML(dir string, rep report.Billing) (string, error) {
	m := rep.Metrics

	monthRows := make([][]string, 0, len(m.Months))
	for i, ms := range m.Months {
		delta, pct := "n/a", "n/a"
		if i < len(rep.SpendTrend) {
			delta, pct = formatDelta(rep.SpendTrend[i])
		}
		monthRows = append(monthRows, []string{ms.Month.Key(), formatCents(ms.CostCents), formatCount(ms.Events), delta, pct})
	}
	userRows := make([][]string, 0, len(m.TopUsers))
	for i, u := range m.TopUsers {
		userRows = append(userRows, []string{formatCount(i + 1), u.Email, formatCents(u.CostCents), formatCount(u.Events), u.TopModel})
	}
	modelRows := make([][]string, 0, len(m.TopModels))
	for i, md := range m.TopModels {
		modelRows = append(modelRows, []string{formatCount(i + 1), md.Model, formatCents(md.CostCents), formatCount(md.Events), formatCount(md.UniqueUsers)})
	}

	page := htmlPage{
		Title:       rep.Title,
		GeneratedAt: rep.GeneratedAt.String(),
		Window:      monthRange(monthLabels(rep.Months)),
		Cards: []htmlCard{
			{Label: "Total spend", Value: formatCents(m.TotalCostCents)},
			{Label: "Billable events", Value: formatCount(m.BillableEvents)},
			{Label: "Months analyzed", Value: formatCount(len(m.Months))},
		},
		Sections: []htmlSection{
			{Title: "Spend by month", Headers: []string{"Month", "Spend", "Events", "Delta ($)", "Change"}, Rows: monthRows},
			{Title: "Top users by spend", Headers: []string{"#", "User", "Spend", "Events", "Top model"}, Rows: userRows},
			{Title: "Top models by spend", Headers: []string{"#", "Model", "Spend", "Events", "Users"}, Rows: modelRows},
		},
	}
	for _, md := range m.TopModels {
		if len(md.TopUsers) == 0 {
			continue
		}
		rows := make([][]string, 0, len(md.TopUsers))
		for i, u := range md.TopUsers {
			rows = append(rows, []string{formatCount(i + 1), u.Email, formatCents(u.CostCents)})
		}
		page.Sections = append(page.Sections, htmlSection{
			Title:   "Top spenders on " + md.Model,
			Headers: []string{"#", "User", "Spend"},
			Rows:    rows,
		})
	}
	return writeHTML(dir, "billing.html", page)
}

// WriteAdoptionHTML writes the adoption dashboard and returns its path.
func WriteAdoptionHTML(dir string, rep report.Adoption) (string, error) {
	m := rep.Metrics

	topRows := make([][]string, 0, len(m.TopUsers))
	for i, a := range m.TopUsers {
		topRows = append(topRows, []string{formatCount(i + 1), memberLabel(a.Member), formatCount(a.Events), lastActivityLabel(a)})
	}
	inactiveRows := make([][]string, 0, len(m.Inactive30))
	for _, a := range m.Inactive30 {
		inactiveRows = append(inactiveRows, []string{memberLabel(a.Member), a.Member.Role, lastActivityLabel(a)})
	}

	page := htmlPage{
		Title:       rep.Title,
		GeneratedAt: rep.GeneratedAt.String(),
		Window:      monthRange(monthLabels(rep.Months)),
		Cards: []htmlCard{
			{Label: "Team members", Value: formatCount(m.TotalMembers)},
			{Label: "Active users", Value: formatCount(m.ActiveUsers)},
			{Label: "Adoption", Value: fmt.Sprintf("%.1f%%", m.AdoptionRate)},
			{Label: "Never used", Value: formatCount(len(m.NeverUsed))},
		},
		Sections: []htmlSection{
			{Title: "Top users by events", Headers: []string{"#", "User", "Events", "Last activity"}, Rows: topRows},
			{Title: "Inactive 30+ days", Headers: []string{"User", "Role", "Last activity"}, Rows: inactiveRows},
		},
	}
	return writeHTML(dir, "adoption.html", page)
}
