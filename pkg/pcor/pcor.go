// Package pcor estimates correlation and partial-correlation weight matrices
// from an observation matrix. The partial-correlation estimator is the
// pairwise Markov random field used throughout the pipeline: an edge weight
// is the conditional association between two items given all others.
package pcor

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/netpsych/netpsych/pkg/dataset"
)

// Estimator selects the weight-matrix model.
type Estimator string

const (
	// EstimatorCor uses marginal Pearson correlations.
	EstimatorCor Estimator = "cor"
	// EstimatorPcor uses partial correlations (the PMRF model).
	EstimatorPcor Estimator = "pcor"
)

// DefaultAlpha is the significance threshold applied when pruning.
const DefaultAlpha = 0.05

// ErrSampleTooSmall is returned when there are not enough respondents to
// test edge significance (n must exceed the number of items plus two for the
// partial-correlation test to have positive degrees of freedom).
var ErrSampleTooSmall = errors.New("sample too small for the requested estimator")

// DegenerateError reports an input whose correlation structure cannot be
// inverted, naming the offending items instead of surfacing NaN edges.
type DegenerateError struct {
	Reason string
	Items  []string
}

func (e *DegenerateError) Error() string {
	if len(e.Items) == 0 {
		return "degenerate correlation structure: " + e.Reason
	}
	return fmt.Sprintf("degenerate correlation structure: %s (items: %s)",
		e.Reason, strings.Join(e.Items, ", "))
}

// Options configures estimation.
type Options struct {
	Estimator Estimator
	// Prune applies the "sig" rule: edges whose two-sided p-value exceeds
	// Alpha are set to exactly zero. This mutates the analytic model, unlike
	// render-side thresholding.
	Prune bool
	Alpha float64
}

// Result holds an estimated weight matrix together with the edge-level test
// results that produced it.
type Result struct {
	// Weights is the symmetric weight matrix with a zero diagonal. Pruned
	// edges are exactly zero.
	Weights *mat.SymDense
	// PValues holds the two-sided p-value for each off-diagonal entry,
	// computed before any pruning. Diagonal entries are zero.
	PValues *mat.SymDense
	// Unpruned preserves the estimate before the significance rule was
	// applied; identical to Weights when pruning is off.
	Unpruned *mat.SymDense

	Estimator   Estimator
	Alpha       float64
	Pruned      bool
	N           int
	PrunedEdges int
}

// CorrelationMatrix computes the Pearson correlation matrix of the dataset.
// The diagonal is unity; the network layer re-expresses it with a zero
// diagonal.
func CorrelationMatrix(ds *dataset.Dataset) (*mat.SymDense, error) {
	if zv := ds.ZeroVarianceItems(); len(zv) > 0 {
		return nil, &DegenerateError{Reason: "zero-variance items", Items: zv}
	}
	corr := mat.NewSymDense(ds.P(), nil)
	stat.CorrelationMatrix(corr, ds.Data(), nil)
	return corr, nil
}

// PartialCorrelationMatrix computes partial correlations from the inverse of
// the correlation matrix: pcor(i,j) = -P(i,j)/sqrt(P(i,i)*P(j,j)). The
// diagonal is zero. A non-invertible correlation matrix (collinear items)
// yields a DegenerateError.
func PartialCorrelationMatrix(ds *dataset.Dataset) (*mat.SymDense, error) {
	corr, err := CorrelationMatrix(ds)
	if err != nil {
		return nil, err
	}
	return partialFromCorrelation(corr, ds.Items())
}

func partialFromCorrelation(corr *mat.SymDense, items []string) (*mat.SymDense, error) {
	p := corr.SymmetricDim()

	var chol mat.Cholesky
	if !chol.Factorize(corr) {
		return nil, &DegenerateError{
			Reason: "correlation matrix is not positive definite (collinear items?)",
			Items:  items,
		}
	}
	var precision mat.SymDense
	if err := chol.InverseTo(&precision); err != nil {
		return nil, &DegenerateError{Reason: err.Error(), Items: items}
	}

	pcor := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			denom := math.Sqrt(precision.At(i, i) * precision.At(j, j))
			pcor.SetSym(i, j, -precision.At(i, j)/denom)
		}
	}
	return pcor, nil
}

// Estimate runs the configured estimator over the dataset and, when pruning
// is requested, zeroes every edge whose p-value exceeds alpha. Pruned edges
// are zero in Weights and stay zero for all downstream analysis.
func Estimate(ds *dataset.Dataset, opts Options) (*Result, error) {
	if opts.Estimator == "" {
		opts.Estimator = EstimatorPcor
	}
	if opts.Alpha == 0 {
		opts.Alpha = DefaultAlpha
	}

	n, p := ds.N(), ds.P()
	df, err := testDegreesOfFreedom(opts.Estimator, n, p)
	if err != nil {
		return nil, err
	}

	var weights *mat.SymDense
	switch opts.Estimator {
	case EstimatorCor:
		corr, err := CorrelationMatrix(ds)
		if err != nil {
			return nil, err
		}
		weights = zeroDiagonal(corr)
	case EstimatorPcor:
		weights, err = PartialCorrelationMatrix(ds)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown estimator %q", opts.Estimator)
	}

	pvalues := edgePValues(weights, df)

	result := &Result{
		Weights:   weights,
		PValues:   pvalues,
		Unpruned:  weights,
		Estimator: opts.Estimator,
		Alpha:     opts.Alpha,
		Pruned:    opts.Prune,
		N:         n,
	}

	if opts.Prune {
		pruned := mat.NewSymDense(p, nil)
		prunedEdges := 0
		for i := 0; i < p; i++ {
			for j := i + 1; j < p; j++ {
				w := weights.At(i, j)
				if w != 0 && pvalues.At(i, j) > opts.Alpha {
					prunedEdges++
					continue
				}
				pruned.SetSym(i, j, w)
			}
		}
		result.Weights = pruned
		result.PrunedEdges = prunedEdges
	}
	return result, nil
}

// testDegreesOfFreedom returns the df of the edge t test: n-2 for marginal
// correlations, n-2-(p-2) for partial correlations (p-2 controlled items).
func testDegreesOfFreedom(est Estimator, n, p int) (float64, error) {
	df := n - 2
	if est == EstimatorPcor {
		df = n - p
	}
	if df < 1 {
		return 0, fmt.Errorf("%w: n=%d, items=%d", ErrSampleTooSmall, n, p)
	}
	return float64(df), nil
}

// edgePValues computes two-sided p-values for every off-diagonal weight via
// the t transform t = r*sqrt(df/(1-r^2)).
func edgePValues(weights *mat.SymDense, df float64) *mat.SymDense {
	p := weights.SymmetricDim()
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	pvalues := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			r := weights.At(i, j)
			if math.Abs(r) >= 1 {
				continue // p-value 0
			}
			t := r * math.Sqrt(df/(1-r*r))
			pvalues.SetSym(i, j, 2*tdist.CDF(-math.Abs(t)))
		}
	}
	return pvalues
}

func zeroDiagonal(m *mat.SymDense) *mat.SymDense {
	p := m.SymmetricDim()
	out := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			out.SetSym(i, j, m.At(i, j))
		}
	}
	return out
}
