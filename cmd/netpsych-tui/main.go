package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/netpsych/netpsych/pkg/report"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2)

	warnTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	overviewView view = iota
	centralityView
	edgesView
	viewCount
)

var viewNames = [viewCount]string{"Overview", "Centrality", "Edges"}

type keyMap struct {
	Tab  key.Binding
	Sort key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "cycle sort column"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Sort, k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var centralityColumns = []string{"strength", "expected influence", "closeness", "betweenness"}

type model struct {
	analysis *report.Analysis

	view       view
	sortColumn int
	centrality table.Model
	edges      table.Model
	help       help.Model
}

func newModel(a *report.Analysis) model {
	m := model{
		analysis: a,
		help:     help.New(),
	}
	m.centrality = m.centralityTable()
	m.edges = edgeTable(a)
	return m
}

func (m model) centralityTable() table.Model {
	cols := []table.Column{
		{Title: "Item", Width: 10},
		{Title: "Strength", Width: 10},
		{Title: "Exp. infl", Width: 10},
		{Title: "Closeness", Width: 10},
		{Title: "Betweenness", Width: 12},
	}

	metrics := append([]nodeRow(nil), nodeRows(m.analysis)...)
	col := m.sortColumn
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Scores[col] > metrics[j].Scores[col]
	})

	rows := make([]table.Row, len(metrics))
	for i, nm := range metrics {
		rows[i] = table.Row{
			nm.Label,
			fmt.Sprintf("%.3f", nm.Scores[0]),
			fmt.Sprintf("%.3f", nm.Scores[1]),
			fmt.Sprintf("%.3f", nm.Scores[2]),
			fmt.Sprintf("%.3f", nm.Scores[3]),
		}
	}

	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true))
	t.SetHeight(15)
	return t
}

// nodeRow keeps the four centrality scores indexable so one sort routine
// serves every column.
type nodeRow struct {
	Label  string
	Scores [4]float64
}

func nodeRows(a *report.Analysis) []nodeRow {
	if a.Centrality == nil {
		return nil
	}
	rows := make([]nodeRow, len(a.Centrality.Metrics))
	for i, nm := range a.Centrality.Metrics {
		rows[i] = nodeRow{
			Label:  nm.Label,
			Scores: [4]float64{nm.Strength, nm.ExpectedInfluence, nm.Closeness, nm.Betweenness},
		}
	}
	return rows
}

func edgeTable(a *report.Analysis) table.Model {
	cols := []table.Column{
		{Title: "Edge", Width: 14},
		{Title: "Weight", Width: 9},
		{Title: "Lower", Width: 9},
		{Title: "Upper", Width: 9},
		{Title: "Zero?", Width: 7},
	}

	var rows []table.Row
	if a.Network != nil {
		labels := a.Network.Labels()
		intervals := map[[2]int]int{}
		if a.Bootstrap != nil {
			for i, iv := range a.Bootstrap.Intervals {
				intervals[[2]int{iv.From, iv.To}] = i
			}
		}

		edges := a.Network.EdgeList()
		sort.SliceStable(edges, func(i, j int) bool {
			return abs(edges[i].Weight) > abs(edges[j].Weight)
		})

		for _, e := range edges {
			lower, upper, crossesZero := "-", "-", "-"
			if idx, ok := intervals[[2]int{e.From, e.To}]; ok {
				iv := a.Bootstrap.Intervals[idx]
				lower = fmt.Sprintf("%.3f", iv.Lower)
				upper = fmt.Sprintf("%.3f", iv.Upper)
				if iv.Lower <= 0 && iv.Upper >= 0 {
					crossesZero = "yes"
				} else {
					crossesZero = "no"
				}
			}
			rows = append(rows, table.Row{
				labels[e.From] + " — " + labels[e.To],
				fmt.Sprintf("%+.3f", e.Weight),
				lower, upper, crossesZero,
			})
		}
	}

	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true))
	t.SetHeight(15)
	return t
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Tab):
			m.view = (m.view + 1) % viewCount
			return m, nil
		case key.Matches(msg, keys.Sort):
			if m.view == centralityView {
				m.sortColumn = (m.sortColumn + 1) % len(centralityColumns)
				m.centrality = m.centralityTable()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.view {
	case centralityView:
		m.centrality, cmd = m.centrality.Update(msg)
	case edgesView:
		m.edges, cmd = m.edges.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🧠 netpsych results — " + m.analysis.RunID))
	b.WriteString("\n")

	tabs := make([]string, viewCount)
	for i, name := range viewNames {
		if view(i) == m.view {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = inactiveTabStyle.Render(name)
		}
	}
	b.WriteString(contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...)))
	b.WriteString("\n")

	switch m.view {
	case overviewView:
		b.WriteString(contentStyle.Render(m.overview()))
	case centralityView:
		b.WriteString(contentStyle.Render(
			fmt.Sprintf("sorted by %s\n", centralityColumns[m.sortColumn]) + m.centrality.View()))
	case edgesView:
		b.WriteString(contentStyle.Render(m.edges.View()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return b.String()
}

func (m model) overview() string {
	a := m.analysis
	var lines []string

	lines = append(lines, fmt.Sprintf("Source: %s", a.Source))
	if a.Load != nil {
		lines = append(lines, fmt.Sprintf("Rows: %d read, %d kept, %d dropped",
			a.Load.RowsRead, a.Load.RowsKept, a.Load.RowsDropped))
	}
	lines = append(lines, fmt.Sprintf("Items: %d", len(a.Items)))

	if a.CFA != nil {
		lines = append(lines, "",
			fmt.Sprintf("Factor model: χ²(%d) = %.2f, CFI %.3f, RMSEA %.3f, SRMR %.3f",
				a.CFA.DF, a.CFA.ChiSquare, a.CFA.CFI, a.CFA.RMSEA, a.CFA.SRMR))
		if !a.CFA.Converged {
			lines = append(lines, warnTextStyle.Render("⚠ model did not converge"))
		}
	}

	if a.Network != nil {
		desc := fmt.Sprintf("Network: %s, %d nodes, %d edges, density %.3f",
			a.Estimator, a.Network.Nodes(), len(a.Network.EdgeList()), a.Network.Density())
		if a.Pruned {
			desc += fmt.Sprintf(" (%d pruned at α=%g)", a.PrunedEdges, a.Alpha)
		}
		lines = append(lines, "", desc)
	}

	if a.Bootstrap != nil {
		lines = append(lines, fmt.Sprintf("Bootstrap: %s, %.0f%% intervals",
			a.Bootstrap, a.Bootstrap.Level*100))
	}

	return statsBoxStyle.Render(strings.Join(lines, "\n"))
}

func main() {
	resultPath := flag.String("result", "netpsych-out/result.json", "Path to a result.json")
	flag.Parse()

	analysis, err := report.LoadResult(*resultPath)
	if err != nil {
		log.Fatalf("❌ Could not load results: %v", err)
	}

	if _, err := tea.NewProgram(newModel(analysis), tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("❌ TUI error: %v", err)
	}
}
