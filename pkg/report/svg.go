package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/netpsych/netpsych/pkg/bootstrap"
	"github.com/netpsych/netpsych/pkg/layout"
	"github.com/netpsych/netpsych/pkg/network"
)

const (
	positiveEdgeColor = "#2e7d32"
	negativeEdgeColor = "#c62828"
	nodeStrokeColor   = "#37474f"
	nodeRadius        = 16.0

	// Fixed layout seed so re-rendering the same result gives the same plot.
	plotSeed = 42
)

// groupPalette colors nodes by group in first-appearance order. Repeats after
// eight groups, which is more than any instrument here uses.
var groupPalette = []string{
	"#90caf9", "#a5d6a7", "#ffcc80", "#ce93d8",
	"#ef9a9a", "#80cbc4", "#fff59d", "#b0bec5",
}

// networkSVG draws the network with edge width proportional to |weight|,
// green for positive and red for negative edges, and nodes colored by group.
// Edges below minimum are hidden from the drawing only.
func networkSVG(nw *network.Network, minimum float64) string {
	width, height := 800.0, 600.0
	cfg := layout.Config{Width: width, Height: height, Seed: plotSeed}
	positions := layout.NewForceDirected(cfg).Compute(nw)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		width, height, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	// Edges first so nodes draw on top.
	for _, e := range nw.Visible(minimum) {
		color := positiveEdgeColor
		if e.Weight < 0 {
			color = negativeEdgeColor
		}
		stroke := 0.5 + 5*math.Abs(e.Weight)
		fmt.Fprintf(&b,
			`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.2f" stroke-opacity="0.8"/>`+"\n",
			positions[e.From].X, positions[e.From].Y,
			positions[e.To].X, positions[e.To].Y,
			color, stroke)
	}

	groupColor := groupColors(nw.Groups())
	labels := nw.Labels()
	for i, pos := range positions {
		fill := groupPalette[0]
		if groupColor != nil {
			fill = groupColor[nw.Groups()[i]]
		}
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.0f" fill="%s" stroke="%s" stroke-width="1.5"/>`+"\n",
			pos.X, pos.Y, nodeRadius, fill, nodeStrokeColor)
		fmt.Fprintf(&b,
			`<text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="10">%s</text>`+"\n",
			pos.X, pos.Y, escapeXML(labels[i]))
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// intervalsSVG draws the bootstrap edge-weight intervals sorted by sample
// weight, one row per edge: a gray interval bar, a black dot for the sample
// estimate and a red dot for the bootstrap mean.
func intervalsSVG(boot *bootstrap.Result, labels []string) string {
	rows := make([]bootstrap.EdgeInterval, len(boot.Intervals))
	copy(rows, boot.Intervals)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sample > rows[j].Sample })

	const (
		rowHeight  = 14.0
		marginLeft = 110.0
		marginTop  = 30.0
		plotWidth  = 560.0
	)
	width := marginLeft + plotWidth + 30
	height := marginTop + float64(len(rows))*rowHeight + 30

	// Symmetric axis around zero covering every interval.
	limit := 0.1
	for _, r := range rows {
		limit = math.Max(limit, math.Max(math.Abs(r.Lower), math.Abs(r.Upper)))
	}
	xOf := func(w float64) float64 {
		return marginLeft + (w+limit)/(2*limit)*plotWidth
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		width, height, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#9e9e9e" stroke-dasharray="4 3"/>`+"\n",
		xOf(0), marginTop-10, xOf(0), height-20)
	fmt.Fprintf(&b,
		`<text x="%.1f" y="18" text-anchor="middle" font-family="sans-serif" font-size="11">edge weight (%.0f%% interval)</text>`+"\n",
		marginLeft+plotWidth/2, boot.Level*100)

	for i, r := range rows {
		y := marginTop + float64(i)*rowHeight + rowHeight/2
		name := fmt.Sprintf("%s-%s", labels[r.From], labels[r.To])
		fmt.Fprintf(&b,
			`<text x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="central" font-family="sans-serif" font-size="9">%s</text>`+"\n",
			marginLeft-8, y, escapeXML(name))
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#bdbdbd" stroke-width="3"/>`+"\n",
			xOf(r.Lower), y, xOf(r.Upper), y)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="2.5" fill="#c62828"/>`+"\n", xOf(r.Mean), y)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="2.5" fill="#212121"/>`+"\n", xOf(r.Sample), y)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func groupColors(groups []string) map[string]string {
	if len(groups) == 0 {
		return nil
	}
	colors := make(map[string]string)
	for _, g := range groups {
		if _, ok := colors[g]; !ok {
			colors[g] = groupPalette[len(colors)%len(groupPalette)]
		}
	}
	return colors
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
