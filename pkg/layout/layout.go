// Package layout computes 2D node positions for plotting a network. Two
// algorithms are provided: a weight-aware force-directed layout for the main
// network plot and a circular layout for comparison plots where stable node
// order matters more than cluster structure.
package layout

import (
	"math"

	"github.com/netpsych/netpsych/pkg/network"
)

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config holds canvas parameters shared by the layout algorithms.
type Config struct {
	Width      float64
	Height     float64
	Iterations int // iterative algorithms only
	Padding    float64
	Seed       uint64 // initial placement seed; fixed seed gives a stable plot
}

// Layout computes one position per node, indexed like the network's nodes.
type Layout interface {
	Compute(nw *network.Network) []Position
}

func (c *Config) applyDefaults() {
	if c.Width == 0 {
		c.Width = 800
	}
	if c.Height == 0 {
		c.Height = 600
	}
	if c.Iterations == 0 {
		c.Iterations = 80
	}
	if c.Padding == 0 {
		c.Padding = 50
	}
}

// normalize scales positions to fit the canvas with padding.
func normalize(positions []Position, width, height, padding float64) []Position {
	if len(positions) == 0 {
		return positions
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	out := make([]Position, len(positions))
	for i, pos := range positions {
		out[i] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}
	return out
}
