package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
)

// Summary renders the analysis as a styled terminal summary. It is what the
// CLI prints after a run; the full detail lives in the report directory.
func Summary(a *Analysis) string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("Network analysis %s", a.RunID)))

	if a.Load != nil {
		sections = append(sections, headStyle.Render("Data"),
			fmt.Sprintf("  %s %d read, %d kept, %d dropped (listwise)",
				labelStyle.Render("rows:"), a.Load.RowsRead, a.Load.RowsKept, a.Load.RowsDropped),
			fmt.Sprintf("  %s %d", labelStyle.Render("items:"), len(a.Items)))
	}

	if a.CFA != nil {
		line := fmt.Sprintf("  χ²(%d) = %.2f, p = %.3f   CFI %.3f  TLI %.3f  RMSEA %.3f  SRMR %.3f",
			a.CFA.DF, a.CFA.ChiSquare, a.CFA.PValue, a.CFA.CFI, a.CFA.TLI, a.CFA.RMSEA, a.CFA.SRMR)
		sections = append(sections, headStyle.Render("Factor model"), line)
		if !a.CFA.Converged {
			sections = append(sections, warnStyle.Render("  model did not converge"))
		}
	}

	if a.Network != nil {
		desc := fmt.Sprintf("  %s estimator, %d nodes, %d edges, density %.3f",
			a.Estimator, a.Network.Nodes(), len(a.Network.EdgeList()), a.Network.Density())
		if a.Pruned {
			desc += fmt.Sprintf(", %d pruned at α=%g", a.PrunedEdges, a.Alpha)
		}
		sections = append(sections, headStyle.Render("Network"), desc)
	}

	if a.Centrality != nil {
		sections = append(sections, headStyle.Render("Centrality"), centralityTable(a))
	}

	if a.Bootstrap != nil {
		sections = append(sections, headStyle.Render("Stability"),
			fmt.Sprintf("  %s, %.0f%% intervals", a.Bootstrap, a.Bootstrap.Level*100))
	}

	return strings.Join(sections, "\n") + "\n"
}

func centralityTable(a *Analysis) string {
	header := []string{"item", "strength", "exp.infl", "closeness", "betweenness"}
	rows := [][]string{}
	for _, m := range a.Centrality.Metrics {
		rows = append(rows, []string{
			m.Label,
			fmt.Sprintf("%.3f", m.Strength),
			fmt.Sprintf("%.3f", m.ExpectedInfluence),
			fmt.Sprintf("%.3f", m.Closeness),
			fmt.Sprintf("%.3f", m.Betweenness),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, h := range header {
		b.WriteString(cellStyle.Render(labelStyle.Render(pad(h, widths[i]))))
	}
	for _, row := range rows {
		b.WriteString("\n  ")
		for i, cell := range row {
			b.WriteString(cellStyle.Render(pad(cell, widths[i])))
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
