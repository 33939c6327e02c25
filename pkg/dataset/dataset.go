package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyDataset is returned when construction would produce zero rows or columns.
var ErrEmptyDataset = errors.New("dataset has no usable rows or columns")

// Dataset is an immutable respondent-by-item observation matrix. Rows are
// respondents, columns are inventory items. Construction applies no cleaning;
// use Load for listwise deletion of incomplete rows.
type Dataset struct {
	items  []string
	groups []string
	data   *mat.Dense
}

// New builds a Dataset from an n x p matrix and item names. Group labels are
// optional; when present they must be parallel to items.
func New(data *mat.Dense, items, groups []string) (*Dataset, error) {
	n, p := data.Dims()
	if n == 0 || p == 0 {
		return nil, ErrEmptyDataset
	}
	if len(items) != p {
		return nil, fmt.Errorf("item count %d does not match %d columns", len(items), p)
	}
	if len(groups) != 0 && len(groups) != p {
		return nil, fmt.Errorf("group count %d does not match %d columns", len(groups), p)
	}
	return &Dataset{items: items, groups: groups, data: data}, nil
}

// N returns the number of respondents.
func (d *Dataset) N() int {
	n, _ := d.data.Dims()
	return n
}

// P returns the number of items.
func (d *Dataset) P() int {
	_, p := d.data.Dims()
	return p
}

// Items returns the item names in column order.
func (d *Dataset) Items() []string {
	return d.items
}

// Groups returns per-item group labels, or nil if none were assigned.
func (d *Dataset) Groups() []string {
	return d.groups
}

// Data returns the observation matrix. Callers must treat it as read-only.
func (d *Dataset) Data() *mat.Dense {
	return d.data
}

// Column copies item j's observations into a new slice.
func (d *Dataset) Column(j int) []float64 {
	n := d.N()
	col := make([]float64, n)
	mat.Col(col, j, d.data)
	return col
}

// Resample builds a new Dataset whose rows are d's rows at the given indices,
// in order, with repetition allowed. Used by the bootstrap.
func (d *Dataset) Resample(indices []int) (*Dataset, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyDataset
	}
	p := d.P()
	out := mat.NewDense(len(indices), p, nil)
	for i, idx := range indices {
		if idx < 0 || idx >= d.N() {
			return nil, fmt.Errorf("resample index %d out of range [0,%d)", idx, d.N())
		}
		out.SetRow(i, d.data.RawRowView(idx))
	}
	return &Dataset{items: d.items, groups: d.groups, data: out}, nil
}

// ZeroVarianceItems returns the names of items whose observations are constant.
// The network estimator rejects these; reporting them by name beats a
// singular-matrix error later.
func (d *Dataset) ZeroVarianceItems() []string {
	var flat []string
	n, p := d.data.Dims()
	for j := 0; j < p; j++ {
		first := d.data.At(0, j)
		constant := true
		for i := 1; i < n; i++ {
			if d.data.At(i, j) != first {
				constant = false
				break
			}
		}
		if constant {
			flat = append(flat, d.items[j])
		}
	}
	return flat
}
