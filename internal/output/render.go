// Package output renders assembled reports for the terminal and for files:
// bordered tables on stdout, CSV exports and a static HTML dashboard.
package output

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"

	"github.com/devpulse/devpulse/internal/calculator"
)

// Renderer produces terminal output for reports. NoColor strips the
// lipgloss styling for pipes and dumb terminals.
type Renderer struct {
	NoColor bool
}

func NewRenderer(noColor bool) *Renderer {
	return &Renderer{NoColor: noColor}
}

func (r *Renderer) title(text string) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder())
	if !r.NoColor {
		style = style.BorderForeground(lipgloss.Color("240")).Foreground(lipgloss.Color("205"))
	}
	return style.Render(text) + "\n\n"
}

func (r *Renderer) section(text string) string {
	style := lipgloss.NewStyle().Bold(true)
	if !r.NoColor {
		style = style.Foreground(lipgloss.Color("36"))
	}
	return style.Render(text) + "\n"
}

func (r *Renderer) dim(text string) string {
	if r.NoColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(text)
}

// table renders one bordered table to a string. Headers keep their given
// case; rows align right by default since most cells are numeric.
func (r *Renderer) table(headers []string, rows [][]string) string {
	var buf bytes.Buffer
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return buf.String()
}

func formatCents(cents decimal.Decimal) string {
	return "$" + cents.Div(decimal.NewFromInt(100)).StringFixed(2)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1f h (%.1f d)", h, h/24)
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}

// formatDelta renders a trend movement; the first month and divisions by a
// zero previous month come through as "n/a".
func formatDelta(p calculator.TrendPoint) (delta, pct string) {
	delta, pct = "n/a", "n/a"
	if p.Delta != nil {
		delta = fmt.Sprintf("%+.2f", *p.Delta)
	}
	if p.PctChange != nil {
		pct = fmt.Sprintf("%+.1f%%", *p.PctChange)
	}
	return delta, pct
}

func formatBytes(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func monthRange(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	if len(labels) == 1 {
		return labels[0]
	}
	return labels[0] + " to " + labels[len(labels)-1]
}
