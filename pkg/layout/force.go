package layout

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/netpsych/netpsych/pkg/network"
)

// ForceDirected implements a Fruchterman-Reingold layout where attraction
// scales with absolute edge weight, so strongly associated items cluster.
type ForceDirected struct {
	config Config
}

// NewForceDirected creates a force-directed layout.
func NewForceDirected(config Config) *ForceDirected {
	config.applyDefaults()
	return &ForceDirected{config: config}
}

// Compute runs the force iterations and returns normalised positions.
func (fd *ForceDirected) Compute(nw *network.Network) []Position {
	p := nw.Nodes()
	if p == 0 {
		return nil
	}
	if p == 1 {
		return []Position{{X: fd.config.Width / 2, Y: fd.config.Height / 2}}
	}

	cfg := fd.config
	rng := rand.New(rand.NewSource(cfg.Seed + 1))

	positions := make([]Position, p)
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64()*(cfg.Width-2*cfg.Padding) + cfg.Padding,
			Y: rng.Float64()*(cfg.Height-2*cfg.Padding) + cfg.Padding,
		}
	}

	edges := nw.EdgeList()
	k := math.Sqrt((cfg.Width * cfg.Height) / float64(p)) // optimal pair distance
	temperature := cfg.Width / 10

	forces := make([]Position, p)
	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := range forces {
			forces[i] = Position{}
		}

		// Repulsion between all pairs.
		for i := 0; i < p; i++ {
			for j := i + 1; j < p; j++ {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Hypot(dx, dy)
				if dist < 0.01 {
					dist = 0.01
				}
				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force
				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		// Attraction along edges, scaled by |weight| so strong edges pull
		// their endpoints closer than weak ones.
		for _, e := range edges {
			dx := positions[e.From].X - positions[e.To].X
			dy := positions[e.From].Y - positions[e.To].Y
			dist := math.Hypot(dx, dy)
			if dist < 0.01 {
				continue
			}
			force := (dist * dist) / k * math.Abs(e.Weight)
			fx := (dx / dist) * force
			fy := (dy / dist) * force
			forces[e.From].X -= fx
			forces[e.From].Y -= fy
			forces[e.To].X += fx
			forces[e.To].Y += fy
		}

		// Apply with cooling.
		cool := 1 - float64(iter)/float64(cfg.Iterations)
		for i := 0; i < p; i++ {
			force := math.Hypot(forces[i].X, forces[i].Y)
			if force == 0 {
				continue
			}
			step := math.Min(force, temperature) * cool
			positions[i].X += (forces[i].X / force) * step
			positions[i].Y += (forces[i].Y / force) * step
		}
		temperature *= 0.95
	}

	return normalize(positions, cfg.Width, cfg.Height, cfg.Padding)
}
