// Package report renders a finished analysis into a browsable report
// directory: a markdown summary, an SVG network plot, an SVG edge-interval
// plot, and a machine-readable result JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/netpsych/netpsych/pkg/bootstrap"
	"github.com/netpsych/netpsych/pkg/centrality"
	"github.com/netpsych/netpsych/pkg/cfa"
	"github.com/netpsych/netpsych/pkg/dataset"
	"github.com/netpsych/netpsych/pkg/network"
	"github.com/netpsych/netpsych/pkg/pcor"
)

// Analysis bundles everything one pipeline run produced. The pipeline fills
// it in step order; every field after Dataset may be nil when the
// corresponding step was disabled.
type Analysis struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"`

	Load   *dataset.LoadReport `json:"load"`
	Items  []string            `json:"items"`
	Groups []string            `json:"groups,omitempty"`

	CFA *cfa.Result `json:"cfa,omitempty"`

	Network     *network.Network `json:"-"`
	Estimator   pcor.Estimator   `json:"estimator"`
	Alpha       float64          `json:"alpha"`
	Pruned      bool             `json:"pruned"`
	PrunedEdges int              `json:"prunedEdges"`
	// Threshold is the render-only minimum |weight|; it never alters the model.
	Threshold float64 `json:"threshold"`

	Centrality *centrality.Result `json:"centrality,omitempty"`
	Bootstrap  *bootstrap.Result  `json:"bootstrap,omitempty"`
}

// edgeJSON is the serialised edge-list form.
type edgeJSON struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// MarshalJSON re-expresses the network as an edge list so the result file is
// self-contained.
func (a *Analysis) MarshalJSON() ([]byte, error) {
	type alias Analysis
	doc := struct {
		*alias
		Edges []edgeJSON `json:"edges"`
		Nodes int        `json:"nodes"`
	}{alias: (*alias)(a)}

	if a.Network != nil {
		doc.Nodes = a.Network.Nodes()
		labels := a.Network.Labels()
		for _, e := range a.Network.EdgeList() {
			doc.Edges = append(doc.Edges, edgeJSON{
				From:   labels[e.From],
				To:     labels[e.To],
				Weight: e.Weight,
			})
		}
	}
	return json.Marshal(doc)
}

// Render writes the full report into dir, creating it if needed. File names
// are stable so downstream tooling can rely on them.
func Render(a *Analysis, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "result.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing result.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "report.md"), []byte(markdown(a)), 0o644); err != nil {
		return fmt.Errorf("writing report.md: %w", err)
	}

	if a.Network != nil {
		svg := networkSVG(a.Network, a.Threshold)
		if err := os.WriteFile(filepath.Join(dir, "network.svg"), []byte(svg), 0o644); err != nil {
			return fmt.Errorf("writing network.svg: %w", err)
		}
	}
	if a.Bootstrap != nil && a.Network != nil {
		svg := intervalsSVG(a.Bootstrap, a.Network.Labels())
		if err := os.WriteFile(filepath.Join(dir, "intervals.svg"), []byte(svg), 0o644); err != nil {
			return fmt.Errorf("writing intervals.svg: %w", err)
		}
	}
	return nil
}

// LoadResult reads a result.json written by Render.
func LoadResult(path string) (*Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	var doc struct {
		Analysis
		Edges []edgeJSON `json:"edges"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}

	a := doc.Analysis
	if len(doc.Edges) > 0 && len(a.Items) > 0 {
		index := make(map[string]int, len(a.Items))
		for i, item := range a.Items {
			index[item] = i
		}
		edges := make([]network.Edge, 0, len(doc.Edges))
		for _, e := range doc.Edges {
			from, okF := index[e.From]
			to, okT := index[e.To]
			if !okF || !okT {
				return nil, fmt.Errorf("edge %s-%s references unknown item", e.From, e.To)
			}
			edges = append(edges, network.Edge{From: from, To: to, Weight: e.Weight})
		}
		sampleN := 0
		if a.Load != nil {
			sampleN = a.Load.RowsKept
		}
		nw, err := network.FromEdgeList(edges, a.Items, a.Groups, sampleN)
		if err != nil {
			return nil, fmt.Errorf("rebuilding network: %w", err)
		}
		a.Network = nw
	}
	return &a, nil
}
