package layout

import (
	"math"

	"github.com/netpsych/netpsych/pkg/network"
)

// Circular arranges nodes evenly on a circle in index order, which keeps
// item positions identical between plots of different estimates.
type Circular struct {
	config Config
}

// NewCircular creates a circular layout.
func NewCircular(config Config) *Circular {
	config.applyDefaults()
	return &Circular{config: config}
}

// Compute arranges the network's nodes on a circle.
func (cl *Circular) Compute(nw *network.Network) []Position {
	p := nw.Nodes()
	if p == 0 {
		return nil
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding

	positions := make([]Position, p)
	angleStep := 2 * math.Pi / float64(p)
	for i := range positions {
		// Start at twelve o'clock and go clockwise.
		angle := float64(i)*angleStep - math.Pi/2
		positions[i] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return positions
}
