// Package network holds the undirected weighted network produced by the
// estimators: a symmetric weight matrix over labelled nodes, with an
// equivalent edge-list form and a render-side threshold view.
//
// The distinction between pruning and thresholding is load-bearing here.
// Pruning happens upstream (pkg/pcor) and zeroes weights in the model itself.
// Thresholding is a view concern: Visible hides weak edges from rendering but
// never alters the stored matrix.
package network

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrWeightOutOfRange is returned for off-diagonal magnitudes above 1.
	ErrWeightOutOfRange = errors.New("edge weight magnitude exceeds 1")
	// ErrSelfLoop is returned when an edge connects a node to itself.
	ErrSelfLoop = errors.New("self-loops are not allowed")
	// ErrNonzeroDiagonal is returned when a weight matrix carries diagonal mass.
	ErrNonzeroDiagonal = errors.New("weight matrix diagonal must be zero")
	// ErrConflictingEdge is returned when an edge list repeats a pair with a
	// different weight.
	ErrConflictingEdge = errors.New("conflicting duplicate edge in edge list")
)

// Edge is one entry of the edge-list form: an unordered node pair and its
// weight. From < To always holds.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Network is an undirected weighted graph over labelled nodes. Weights are
// immutable after construction.
type Network struct {
	weights *mat.SymDense
	labels  []string
	groups  []string
	sampleN int
}

// New validates and wraps a weight matrix. The matrix must have a zero
// diagonal and off-diagonal magnitudes of at most one. The groups slice is
// optional. sampleN records the number of respondents behind the estimate.
func New(weights *mat.SymDense, labels, groups []string, sampleN int) (*Network, error) {
	p := weights.SymmetricDim()
	if len(labels) != p {
		return nil, fmt.Errorf("label count %d does not match %d nodes", len(labels), p)
	}
	if len(groups) != 0 && len(groups) != p {
		return nil, fmt.Errorf("group count %d does not match %d nodes", len(groups), p)
	}
	for i := 0; i < p; i++ {
		if weights.At(i, i) != 0 {
			return nil, fmt.Errorf("%w: node %s", ErrNonzeroDiagonal, labels[i])
		}
		for j := i + 1; j < p; j++ {
			if math.Abs(weights.At(i, j)) > 1 {
				return nil, fmt.Errorf("%w: %s-%s = %v", ErrWeightOutOfRange, labels[i], labels[j], weights.At(i, j))
			}
		}
	}
	return &Network{weights: weights, labels: labels, groups: groups, sampleN: sampleN}, nil
}

// Nodes returns the number of nodes.
func (nw *Network) Nodes() int {
	return nw.weights.SymmetricDim()
}

// Labels returns node labels in index order.
func (nw *Network) Labels() []string {
	return nw.labels
}

// Groups returns per-node group labels, or nil.
func (nw *Network) Groups() []string {
	return nw.groups
}

// SampleN returns the respondent count behind the estimate.
func (nw *Network) SampleN() int {
	return nw.sampleN
}

// Weight returns the weight between nodes i and j.
func (nw *Network) Weight(i, j int) float64 {
	return nw.weights.At(i, j)
}

// Weights returns a copy of the weight matrix, so callers cannot mutate the
// network through it.
func (nw *Network) Weights() *mat.SymDense {
	p := nw.weights.SymmetricDim()
	out := mat.NewSymDense(p, nil)
	out.CopySym(nw.weights)
	return out
}

// EdgeList returns exactly one entry per unordered pair with nonzero weight,
// self-loops excluded, ordered by (From, To).
func (nw *Network) EdgeList() []Edge {
	p := nw.Nodes()
	var edges []Edge
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			if w := nw.weights.At(i, j); w != 0 {
				edges = append(edges, Edge{From: i, To: j, Weight: w})
			}
		}
	}
	return edges
}

// Visible returns the edges that survive a render threshold: entries with
// |weight| >= minimum. The stored weight matrix is untouched; thresholding
// only changes what gets drawn.
func (nw *Network) Visible(minimum float64) []Edge {
	var edges []Edge
	for _, e := range nw.EdgeList() {
		if math.Abs(e.Weight) >= minimum {
			edges = append(edges, e)
		}
	}
	return edges
}

// FromEdgeList rebuilds a network from an edge list over p nodes. Duplicate
// entries for the same unordered pair must agree on the weight (the two-
// directed-entries form of an undirected graph); conflicting duplicates are
// an error, as are self-loops.
func FromEdgeList(edges []Edge, labels, groups []string, sampleN int) (*Network, error) {
	p := len(labels)
	weights := mat.NewSymDense(p, nil)
	seen := make(map[[2]int]float64, len(edges))

	for _, e := range edges {
		if e.From == e.To {
			return nil, fmt.Errorf("%w: node %d", ErrSelfLoop, e.From)
		}
		if e.From < 0 || e.From >= p || e.To < 0 || e.To >= p {
			return nil, fmt.Errorf("edge %d-%d out of range for %d nodes", e.From, e.To, p)
		}
		lo, hi := e.From, e.To
		if lo > hi {
			lo, hi = hi, lo
		}
		if prev, ok := seen[[2]int{lo, hi}]; ok {
			if prev != e.Weight {
				return nil, fmt.Errorf("%w: %d-%d has %v and %v", ErrConflictingEdge, lo, hi, prev, e.Weight)
			}
			continue
		}
		seen[[2]int{lo, hi}] = e.Weight
		weights.SetSym(lo, hi, e.Weight)
	}
	return New(weights, labels, groups, sampleN)
}

// Density returns the share of possible edges that are nonzero.
func (nw *Network) Density() float64 {
	p := nw.Nodes()
	if p < 2 {
		return 0
	}
	possible := p * (p - 1) / 2
	return float64(len(nw.EdgeList())) / float64(possible)
}
