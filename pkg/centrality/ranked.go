package centrality

import (
	"container/heap"
	"sort"
)

// RankedNode holds a node with its score under one metric.
type RankedNode struct {
	Node  int     `json:"node"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// rankedNodeHeap implements a min-heap for RankedNode by score.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int           { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h rankedNodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topNodes returns the top n nodes by score using a min-heap, with
// deterministic tie-breaking on node index.
func topNodes(metrics []NodeMetrics, n int, score func(NodeMetrics) float64) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)

	for _, m := range metrics {
		rn := RankedNode{Node: m.Node, Label: m.Label, Score: score(m)}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if rn.Score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Node < result[j].Node
	})
	return result
}
