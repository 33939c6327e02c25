package dataset

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// ErrNotPositiveDefinite is returned when a requested true structure does not
// define a valid Gaussian graphical model.
var ErrNotPositiveDefinite = errors.New("implied precision matrix is not positive definite")

// ChainNetwork builds a p x p partial-correlation matrix for a chain
// A-B-C-...: consecutive items share an edge of the given weight, every other
// conditional association is exactly zero. This is the canonical fixture for
// checking that the estimator separates direct from indirect dependence.
func ChainNetwork(p int, weight float64) *mat.SymDense {
	pcor := mat.NewSymDense(p, nil)
	for i := 0; i+1 < p; i++ {
		pcor.SetSym(i, i+1, weight)
	}
	return pcor
}

// SampleGGM draws n respondents from the Gaussian graphical model whose
// partial-correlation structure is pcor. The implied covariance is the
// inverse of the precision matrix with unit diagonal and -pcor off-diagonal,
// so re-estimating partial correlations from a large sample recovers pcor.
func SampleGGM(pcor *mat.SymDense, items []string, n int, seed uint64) (*Dataset, error) {
	p := pcor.SymmetricDim()
	if len(items) != p {
		return nil, fmt.Errorf("item count %d does not match structure dimension %d", len(items), p)
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}

	precision := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		precision.SetSym(i, i, 1)
		for j := i + 1; j < p; j++ {
			precision.SetSym(i, j, -pcor.At(i, j))
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(precision) {
		return nil, ErrNotPositiveDefinite
	}
	var sigma mat.SymDense
	if err := chol.InverseTo(&sigma); err != nil {
		return nil, fmt.Errorf("inverting precision matrix: %w", err)
	}

	src := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(make([]float64, p), &sigma, src)
	if !ok {
		return nil, ErrNotPositiveDefinite
	}

	data := mat.NewDense(n, p, nil)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		normal.Rand(row)
		data.SetRow(i, row)
	}
	return New(data, items, FiveFactorGroups(items))
}
