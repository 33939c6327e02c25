package report

import (
	"fmt"
	"sort"
	"strings"
)

// markdown renders the human-readable summary. Sections appear in pipeline
// order; disabled steps are simply absent.
func markdown(a *Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Network analysis %s\n\n", a.RunID)
	fmt.Fprintf(&b, "- Source: `%s`\n", a.Source)
	fmt.Fprintf(&b, "- Generated: %s\n\n", a.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if a.Load != nil {
		b.WriteString("## Data\n\n")
		fmt.Fprintf(&b, "| Rows read | Rows kept | Rows dropped | Items |\n")
		fmt.Fprintf(&b, "|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n",
			a.Load.RowsRead, a.Load.RowsKept, a.Load.RowsDropped, len(a.Items))
		if len(a.Load.ZeroVarianceItems) > 0 {
			fmt.Fprintf(&b, "Zero-variance items: %s\n\n",
				strings.Join(a.Load.ZeroVarianceItems, ", "))
		}
	}

	if a.CFA != nil {
		b.WriteString("## Factor model\n\n")
		fmt.Fprintf(&b, "| χ² | df | p | CFI | TLI | RMSEA | SRMR |\n")
		fmt.Fprintf(&b, "|---:|---:|---:|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %.2f | %d | %.3f | %.3f | %.3f | %.3f | %.3f |\n\n",
			a.CFA.ChiSquare, a.CFA.DF, a.CFA.PValue,
			a.CFA.CFI, a.CFA.TLI, a.CFA.RMSEA, a.CFA.SRMR)
		if !a.CFA.Converged {
			b.WriteString("**Warning: the factor model did not converge; " +
				"interpret these indices with caution.**\n\n")
		}
		for _, w := range a.CFA.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		if len(a.CFA.Warnings) > 0 {
			b.WriteString("\n")
		}

		b.WriteString("### Standardized loadings\n\n")
		b.WriteString("| Factor | Item | Loading | Uniqueness |\n")
		b.WriteString("|---|---|---:|---:|\n")
		for _, factor := range a.CFA.Factors {
			items := make([]string, 0, len(a.CFA.Loadings[factor]))
			for item := range a.CFA.Loadings[factor] {
				items = append(items, item)
			}
			sort.Strings(items)
			for _, item := range items {
				fmt.Fprintf(&b, "| %s | %s | %.3f | %.3f |\n",
					factor, item, a.CFA.Loadings[factor][item], a.CFA.Uniquenesses[item])
			}
		}
		b.WriteString("\n")
	}

	if a.Network != nil {
		b.WriteString("## Network\n\n")
		fmt.Fprintf(&b, "- Estimator: %s", a.Estimator)
		if a.Pruned {
			fmt.Fprintf(&b, " (pruned at α = %g, %d edges removed)", a.Alpha, a.PrunedEdges)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "- Nodes: %d, edges: %d, density: %.3f\n",
			a.Network.Nodes(), len(a.Network.EdgeList()), a.Network.Density())
		if a.Threshold > 0 {
			fmt.Fprintf(&b, "- Plot hides edges with |weight| < %g; the model itself is unchanged\n",
				a.Threshold)
		}
		b.WriteString("\n![network](network.svg)\n\n")
	}

	if a.Centrality != nil {
		b.WriteString("## Centrality\n\n")
		b.WriteString("| Item | Strength | Expected influence | Closeness | Betweenness |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, m := range a.Centrality.Metrics {
			fmt.Fprintf(&b, "| %s | %.3f | %.3f | %.3f | %.3f |\n",
				m.Label, m.Strength, m.ExpectedInfluence, m.Closeness, m.Betweenness)
		}
		b.WriteString("\n")
		if top := a.Centrality.TopByStrength; len(top) > 0 {
			names := make([]string, 0, len(top))
			for _, r := range top {
				names = append(names, r.Label)
			}
			fmt.Fprintf(&b, "Most central by strength: %s\n\n", strings.Join(names, ", "))
		}
	}

	if a.Bootstrap != nil {
		b.WriteString("## Edge-weight stability\n\n")
		fmt.Fprintf(&b, "- %s (%.1f%% yield)\n", a.Bootstrap, a.Bootstrap.Yield()*100)
		fmt.Fprintf(&b, "- Interval level: %.0f%%\n", a.Bootstrap.Level*100)
		b.WriteString("\n![intervals](intervals.svg)\n\n")
		b.WriteString("Intervals that cross zero mark edges whose sign is not " +
			"stable under resampling.\n")
	}

	return b.String()
}
