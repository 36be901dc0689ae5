package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreapp "aspectwatch/internal/core/app"
	"aspectwatch/internal/engine/aspects"
	"aspectwatch/internal/engine/sky"
	"aspectwatch/internal/engine/summary"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	closeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)
)

func trendStyle(t aspects.Trend) lipgloss.Style {
	switch t {
	case aspects.Positive:
		return positiveStyle
	case aspects.Negative:
		return negativeStyle
	case aspects.Neutral:
		return neutralStyle
	default:
		return statusStyle
	}
}

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

// controller is the part of the session the UI drives.
type controller interface {
	Nudge(ctx context.Context, steps int) (bool, error)
	CycleFilter() (string, error)
}

type sidePanel int

const (
	panelPositions sidePanel = iota
	panelSummary
)

type model struct {
	list       list.Model
	ctrl       controller
	panel      sidePanel
	snapshot   *coreapp.Snapshot
	status     string
	err        error
	lastUpdate time.Time
}

type updateMsg struct {
	update coreapp.Update
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := handleKeyActions(msg, m); handled {
			return next, cmd
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize((msg.Width-h)*3/5, msg.Height-v-4)
	case updateMsg:
		m.status = msg.update.Status
		m.err = msg.update.Err
		m.lastUpdate = time.Now()
		if msg.update.Snapshot != nil {
			m.snapshot = msg.update.Snapshot
			m.list.SetItems(aspectItems(m.snapshot))
			m.list.Title = listTitle(m.snapshot)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func aspectItems(snap *coreapp.Snapshot) []list.Item {
	closeSet := make(map[[2]sky.Body]bool, len(snap.Close))
	for _, a := range snap.Close {
		closeSet[[2]sky.Body{a.A, a.B}] = true
	}

	items := make([]list.Item, 0, len(snap.Filtered))
	for _, a := range snap.Filtered {
		title := fmt.Sprintf("%s - %s  %s  %s", a.A, a.B, a.Name, trendStyle(a.Trend).Render(string(a.Trend)))
		desc := fmt.Sprintf("separation %.2f° | target %g° | deviation %.2f°", a.Separation, a.Angle, a.Deviation)
		if closeSet[[2]sky.Body{a.A, a.B}] {
			desc += " | " + closeStyle.Render("close")
		}
		items = append(items, item{title: title, desc: desc})
	}
	return items
}

func listTitle(snap *coreapp.Snapshot) string {
	if snap.Filter == "" || snap.Filter == aspects.AllBodies {
		return fmt.Sprintf("Aspects (%d)", len(snap.Filtered))
	}
	return fmt.Sprintf("Aspects for %s (%d of %d)", snap.Filter, len(snap.Filtered), len(snap.Aspects))
}

func (m model) View() string {
	header := titleStyle("Aspect Monitor") + "\n"
	if m.snapshot != nil {
		t := m.snapshot.Totals()
		header += fmt.Sprintf("%s | JD %.4f | ayanamsa %.4f° | orb %.1f° | %s %s %s\n",
			m.snapshot.Moment.Format("2006-01-02 15:04 UTC"),
			m.snapshot.JulianDay,
			m.snapshot.Ayanamsa,
			m.snapshot.Orb,
			positiveStyle.Render(fmt.Sprintf("%d positive", t.Positive)),
			negativeStyle.Render(fmt.Sprintf("%d negative", t.Negative)),
			neutralStyle.Render(fmt.Sprintf("%d neutral", t.Neutral)),
		)
	}

	status := statusStyle.Render(m.status)
	if m.err != nil {
		status = negativeStyle.Render(m.status)
	} else if m.snapshot != nil && len(m.snapshot.Close) > 0 {
		status = closeStyle.Render(m.status)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), panelStyle.Render(m.sidePanelView()))
	keys := statusStyle.Render("+/- nudge time | f cycle filter | tab positions/summary | q quit")
	return docStyle.Render(header + status + "\n\n" + body + "\n" + keys)
}

func (m model) sidePanelView() string {
	if m.snapshot == nil {
		return statusStyle.Render("Waiting for first computation...")
	}

	var b strings.Builder
	switch m.panel {
	case panelSummary:
		b.WriteString("Summary\n")
		b.WriteString(fmt.Sprintf("%-8s %5s %4s %4s %4s\n", "Body", "Total", "+", "-", "="))
		for _, r := range summary.Dense(m.snapshot.Summary, sky.Bodies) {
			b.WriteString(fmt.Sprintf("%-8s %5d %4d %4d %4d\n", r.Body, r.Total, r.Positive, r.Negative, r.Neutral))
		}
	default:
		b.WriteString("Positions (sidereal)\n")
		for _, p := range m.snapshot.Positions {
			b.WriteString(fmt.Sprintf("%-8s %7.2f°\n", p.Body, p.Longitude))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func initialModel(ctrl controller) model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Aspects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return model{
		list:       l,
		ctrl:       ctrl,
		status:     "computing...",
		lastUpdate: time.Now(),
	}
}
