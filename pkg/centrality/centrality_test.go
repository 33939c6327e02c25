package centrality

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/netpsych/netpsych/pkg/network"
)

// buildNetwork creates a test network from upper-triangle entries.
func buildNetwork(t *testing.T, labels []string, edges map[[2]int]float64) *network.Network {
	t.Helper()

	weights := mat.NewSymDense(len(labels), nil)
	for pair, w := range edges {
		weights.SetSym(pair[0], pair[1], w)
	}
	nw, err := network.New(weights, labels, nil, 100)
	if err != nil {
		t.Fatalf("network.New failed: %v", err)
	}
	return nw
}

func metricsByLabel(result *Result) map[string]NodeMetrics {
	out := make(map[string]NodeMetrics, len(result.Metrics))
	for _, m := range result.Metrics {
		out[m.Label] = m
	}
	return out
}

func TestCompute_StarStrength(t *testing.T) {
	nw := buildNetwork(t, []string{"Hub", "B", "C", "D"}, map[[2]int]float64{
		{0, 1}: 0.5,
		{0, 2}: 0.5,
		{0, 3}: 0.5,
	})

	m := metricsByLabel(Compute(nw))

	if got := m["Hub"].Strength; math.Abs(got-1.5) > 1e-12 {
		t.Errorf("hub strength: got %v, want 1.5", got)
	}
	if got := m["B"].Strength; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("spoke strength: got %v, want 0.5", got)
	}
	if m["Hub"].Closeness <= m["B"].Closeness {
		t.Errorf("hub closeness %v should exceed spoke closeness %v", m["Hub"].Closeness, m["B"].Closeness)
	}
	if m["Hub"].Betweenness <= 0 {
		t.Errorf("hub betweenness should be positive, got %v", m["Hub"].Betweenness)
	}
	if m["B"].Betweenness != 0 {
		t.Errorf("spoke betweenness should be zero, got %v", m["B"].Betweenness)
	}
}

// A node whose edges are all negative has positive strength but non-positive
// expected influence. The two metrics must be observably different.
func TestCompute_ExpectedInfluenceSignDivergence(t *testing.T) {
	nw := buildNetwork(t, []string{"X", "B", "C"}, map[[2]int]float64{
		{0, 1}: -0.3,
		{0, 2}: -0.4,
		{1, 2}: 0.2,
	})

	m := metricsByLabel(Compute(nw))

	x := m["X"]
	if x.Strength <= 0 {
		t.Fatalf("strength must be strictly positive, got %v", x.Strength)
	}
	if math.Abs(x.Strength-0.7) > 1e-12 {
		t.Errorf("strength: got %v, want 0.7", x.Strength)
	}
	if x.ExpectedInfluence > 0 {
		t.Fatalf("expected influence must be <= 0 for all-negative node, got %v", x.ExpectedInfluence)
	}
	if math.Abs(x.ExpectedInfluence+0.7) > 1e-12 {
		t.Errorf("expected influence: got %v, want -0.7", x.ExpectedInfluence)
	}
}

func TestCompute_ChainBetweenness(t *testing.T) {
	nw := buildNetwork(t, []string{"A", "B", "C", "D"}, map[[2]int]float64{
		{0, 1}: 0.4,
		{1, 2}: 0.4,
		{2, 3}: 0.4,
	})

	m := metricsByLabel(Compute(nw))

	// B sits on A-C and A-D shortest paths; with both traversal directions
	// and the (n-1)(n-2) normalisation that is 4/6.
	want := 4.0 / 6.0
	if got := m["B"].Betweenness; math.Abs(got-want) > 1e-9 {
		t.Errorf("B betweenness: got %v, want %v", got, want)
	}
	if m["B"].Betweenness != m["C"].Betweenness {
		t.Errorf("chain symmetry broken: B=%v C=%v", m["B"].Betweenness, m["C"].Betweenness)
	}
	if m["A"].Betweenness != 0 || m["D"].Betweenness != 0 {
		t.Errorf("endpoints must have zero betweenness, got A=%v D=%v", m["A"].Betweenness, m["D"].Betweenness)
	}
}

// Negative edges count at absolute value for path metrics: sign must not
// change distances.
func TestCompute_PathMetricsUseAbsoluteWeight(t *testing.T) {
	positive := buildNetwork(t, []string{"A", "B", "C"}, map[[2]int]float64{
		{0, 1}: 0.5,
		{1, 2}: 0.5,
	})
	mixed := buildNetwork(t, []string{"A", "B", "C"}, map[[2]int]float64{
		{0, 1}: 0.5,
		{1, 2}: -0.5,
	})

	mp := metricsByLabel(Compute(positive))
	mm := metricsByLabel(Compute(mixed))

	for _, label := range []string{"A", "B", "C"} {
		if math.Abs(mp[label].Closeness-mm[label].Closeness) > 1e-12 {
			t.Errorf("closeness of %s differs by edge sign: %v vs %v", label, mp[label].Closeness, mm[label].Closeness)
		}
		if math.Abs(mp[label].Betweenness-mm[label].Betweenness) > 1e-12 {
			t.Errorf("betweenness of %s differs by edge sign: %v vs %v", label, mp[label].Betweenness, mm[label].Betweenness)
		}
	}
}

func TestCompute_StrongerEdgesAreShorter(t *testing.T) {
	// Triangle where the direct A-C edge is weak and the A-B-C detour is
	// strong: the detour is the shorter path, so B carries betweenness.
	nw := buildNetwork(t, []string{"A", "B", "C"}, map[[2]int]float64{
		{0, 1}: 0.9,
		{1, 2}: 0.9,
		{0, 2}: 0.1,
	})

	m := metricsByLabel(Compute(nw))
	if m["B"].Betweenness <= 0 {
		t.Errorf("B should mediate the A-C shortest path, betweenness %v", m["B"].Betweenness)
	}
}

func TestCompute_IsolatedNode(t *testing.T) {
	nw := buildNetwork(t, []string{"A", "B", "Solo"}, map[[2]int]float64{
		{0, 1}: 0.6,
	})

	m := metricsByLabel(Compute(nw))
	solo := m["Solo"]
	if solo.Strength != 0 || solo.Closeness != 0 || solo.Betweenness != 0 {
		t.Errorf("isolated node must score zero everywhere, got %+v", solo)
	}
}

func TestCompute_EmptyNetworkRankings(t *testing.T) {
	nw := buildNetwork(t, []string{"A", "B"}, nil)

	result := Compute(nw)
	if len(result.Metrics) != 2 {
		t.Fatalf("expected metrics for 2 nodes, got %d", len(result.Metrics))
	}
	if len(result.TopByStrength) != 2 {
		t.Fatalf("expected 2 ranked nodes, got %d", len(result.TopByStrength))
	}
}

func TestTopNodes_OrderAndTieBreak(t *testing.T) {
	metrics := []NodeMetrics{
		{Node: 0, Label: "A", Strength: 0.5},
		{Node: 1, Label: "B", Strength: 0.9},
		{Node: 2, Label: "C", Strength: 0.5},
		{Node: 3, Label: "D", Strength: 0.1},
	}

	top := topNodes(metrics, 3, func(m NodeMetrics) float64 { return m.Strength })

	if len(top) != 3 {
		t.Fatalf("expected 3 ranked nodes, got %d", len(top))
	}
	if top[0].Label != "B" {
		t.Errorf("expected B first, got %s", top[0].Label)
	}
	// Ties resolve by node index.
	if top[1].Label != "A" || top[2].Label != "C" {
		t.Errorf("tie-break order wrong: got %s then %s", top[1].Label, top[2].Label)
	}
}
