// Package monitor provides the live cache status view behind
// `devpulse status --watch`: a full-screen table of month artifacts that
// reloads the inventory on a tick.
package monitor

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/devpulse/devpulse/internal/cache"
	"github.com/devpulse/devpulse/internal/types"
)

// staleAfter is where the freshness gradient bottoms out: artifacts older
// than this render fully "stale" colored.
const staleAfter = 45 * 24 * time.Hour

type Options struct {
	Dir      string
	Interval time.Duration
	NoColor  bool
}

type model struct {
	opts       Options
	entries    []cache.Entry
	err        error
	lastUpdate time.Time
	width      int
	height     int
	quitting   bool
}

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tickMsg(time.Now()) },
		tea.WindowSize(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		entries, err := cache.Inventory(m.opts.Dir)
		m.entries = entries
		m.err = err
		m.lastUpdate = time.Now()
		return m, tickCmd(m.opts.Interval)
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit.", m.err)
	}

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
	table.Header([]string{"Source", "Month", "Records", "Fetched at", "Age"})

	now := time.Now()
	for _, e := range m.entries {
		age := now.Sub(e.FetchedAt)
		table.Append([]string{
			e.Source,
			e.Month.Key(),
			fmt.Sprintf("%d", e.Records),
			e.FetchedAt.UTC().Format(types.TimeLayout),
			m.ageCell(age),
		})
	}
	table.Render()

	title := lipgloss.NewStyle().Bold(true)
	if !m.opts.NoColor {
		title = title.Foreground(lipgloss.Color("205"))
	}
	footerStyle := lipgloss.NewStyle()
	if !m.opts.NoColor {
		footerStyle = footerStyle.Foreground(lipgloss.Color("240"))
	}
	footer := footerStyle.Render(
		fmt.Sprintf("refreshing every %ds | %d artifacts | press q to quit",
			int(m.opts.Interval.Seconds()), len(m.entries)))

	var b strings.Builder
	b.WriteString(title.Render("devpulse cache — " + m.opts.Dir))
	b.WriteString("\n\n")
	if len(m.entries) == 0 {
		b.WriteString("No cached months yet.\n\n")
	} else {
		b.WriteString(buf.String())
		b.WriteString("\n")
	}
	b.WriteString(footer)
	return b.String()
}

// ageCell renders an artifact's age, colored along a fresh-to-stale
// gradient so old months stand out at a glance.
func (m model) ageCell(age time.Duration) string {
	label := formatAge(age)
	if m.opts.NoColor {
		return label
	}

	t := float64(age) / float64(staleAfter)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	fresh, _ := colorful.Hex("#34d399")
	stale, _ := colorful.Hex("#f87171")
	c := fresh.BlendLuv(stale, t).Clamped()
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(label)
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// Start runs the live view until the user quits. Requires a TTY.
func Start(opts Options) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("the live view requires an interactive terminal (TTY)")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	p := tea.NewProgram(model{opts: opts}, tea.WithAltScreen())
	go func() {
		<-sigChan
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
