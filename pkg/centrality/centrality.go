// Package centrality computes node-importance metrics for weighted
// undirected networks: strength, expected influence, closeness, and
// betweenness. Path-based metrics treat edge length as the reciprocal of
// absolute weight, so strong associations are short distances.
package centrality

import (
	"container/heap"
	"math"

	"github.com/netpsych/netpsych/pkg/network"
)

// distanceTolerance bounds floating-point comparison when deciding whether
// two paths to the same node tie on length.
const distanceTolerance = 1e-12

// NodeMetrics bundles the per-node centrality values.
type NodeMetrics struct {
	Node              int     `json:"node"`
	Label             string  `json:"label"`
	Strength          float64 `json:"strength"`
	ExpectedInfluence float64 `json:"expectedInfluence"`
	Closeness         float64 `json:"closeness"`
	Betweenness       float64 `json:"betweenness"`
}

// Result holds metrics for every node plus ranked views per metric.
type Result struct {
	Metrics []NodeMetrics `json:"metrics"`

	TopByStrength          []RankedNode `json:"topByStrength"`
	TopByExpectedInfluence []RankedNode `json:"topByExpectedInfluence"`
	TopByCloseness         []RankedNode `json:"topByCloseness"`
	TopByBetweenness       []RankedNode `json:"topByBetweenness"`
}

// Compute calculates all metrics for the network. Node and pair metrics are
// derived from the full (pruned) weight matrix, not from any render-side
// threshold view.
func Compute(nw *network.Network) *Result {
	p := nw.Nodes()
	labels := nw.Labels()

	metrics := make([]NodeMetrics, p)
	for i := 0; i < p; i++ {
		metrics[i] = NodeMetrics{Node: i, Label: labels[i]}
	}

	// Strength sums absolute incident weights; expected influence keeps the
	// sign. A node with only negative edges has positive strength but
	// non-positive expected influence.
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if i == j {
				continue
			}
			w := nw.Weight(i, j)
			metrics[i].Strength += math.Abs(w)
			metrics[i].ExpectedInfluence += w
		}
	}

	adj := buildAdjacency(nw)
	betweenness := brandesWeighted(adj, p)
	for i := 0; i < p; i++ {
		metrics[i].Closeness = closenessFrom(adj, p, i)
		metrics[i].Betweenness = betweenness[i]
	}

	const topN = 10
	return &Result{
		Metrics:                metrics,
		TopByStrength:          topNodes(metrics, topN, func(m NodeMetrics) float64 { return m.Strength }),
		TopByExpectedInfluence: topNodes(metrics, topN, func(m NodeMetrics) float64 { return m.ExpectedInfluence }),
		TopByCloseness:         topNodes(metrics, topN, func(m NodeMetrics) float64 { return m.Closeness }),
		TopByBetweenness:       topNodes(metrics, topN, func(m NodeMetrics) float64 { return m.Betweenness }),
	}
}

type neighbor struct {
	node   int
	length float64
}

// buildAdjacency converts nonzero weights to adjacency lists with edge
// length 1/|w|.
func buildAdjacency(nw *network.Network) [][]neighbor {
	p := nw.Nodes()
	adj := make([][]neighbor, p)
	for _, e := range nw.EdgeList() {
		length := 1 / math.Abs(e.Weight)
		adj[e.From] = append(adj[e.From], neighbor{node: e.To, length: length})
		adj[e.To] = append(adj[e.To], neighbor{node: e.From, length: length})
	}
	return adj
}

// dijkstra returns shortest distances from source, the number of shortest
// paths per node, and nodes in nondecreasing settle order.
func dijkstra(adj [][]neighbor, p, source int) (dist []float64, sigma []float64, order []int, preds [][]int) {
	dist = make([]float64, p)
	sigma = make([]float64, p)
	preds = make([][]int, p)
	settled := make([]bool, p)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0
	sigma[source] = 1

	pq := &nodeQueue{}
	heap.Init(pq)
	heap.Push(pq, queued{node: source, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(queued)
		v := cur.node
		if settled[v] {
			continue
		}
		settled[v] = true
		order = append(order, v)

		for _, nb := range adj[v] {
			alt := dist[v] + nb.length
			switch {
			case alt < dist[nb.node]-distanceTolerance:
				dist[nb.node] = alt
				sigma[nb.node] = sigma[v]
				preds[nb.node] = append(preds[nb.node][:0], v)
				heap.Push(pq, queued{node: nb.node, dist: alt})
			case math.Abs(alt-dist[nb.node]) <= distanceTolerance:
				sigma[nb.node] += sigma[v]
				preds[nb.node] = append(preds[nb.node], v)
			}
		}
	}
	return dist, sigma, order, preds
}

// closenessFrom computes reachable-count over summed distance, the same
// convention used for unweighted closeness, with 1/|w| edge lengths.
// Isolated nodes score zero.
func closenessFrom(adj [][]neighbor, p, source int) float64 {
	dist, _, _, _ := dijkstra(adj, p, source)

	total := 0.0
	reachable := 0
	for i, d := range dist {
		if i == source || math.IsInf(d, 1) {
			continue
		}
		total += d
		reachable++
	}
	if total == 0 {
		return 0
	}
	return float64(reachable) / total
}

// brandesWeighted runs the Dijkstra variant of Brandes' algorithm and returns
// normalised node betweenness. Each unordered pair is counted from both
// endpoints, so the undirected normalisation factor is 1/((n-1)(n-2)).
func brandesWeighted(adj [][]neighbor, p int) []float64 {
	betweenness := make([]float64, p)

	for source := 0; source < p; source++ {
		_, sigma, order, preds := dijkstra(adj, p, source)

		delta := make([]float64, p)
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	if p > 2 {
		norm := 1.0 / float64((p-1)*(p-2))
		for i := range betweenness {
			betweenness[i] *= norm
		}
	}
	return betweenness
}

type queued struct {
	node int
	dist float64
}

// nodeQueue implements a min-heap on distance.
type nodeQueue []queued

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)         { *q = append(*q, x.(queued)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
