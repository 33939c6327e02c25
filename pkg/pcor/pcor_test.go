package pcor

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/netpsych/netpsych/pkg/dataset"
)

func chainDataset(t *testing.T, n int, seed uint64) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.SampleGGM(dataset.ChainNetwork(4, 0.35), []string{"A", "B", "C", "D"}, n, seed)
	require.NoError(t, err)
	return ds
}

func TestEstimate_SymmetricAndBounded(t *testing.T) {
	ds := chainDataset(t, 500, 11)

	for _, est := range []Estimator{EstimatorCor, EstimatorPcor} {
		result, err := Estimate(ds, Options{Estimator: est})
		require.NoError(t, err, "estimator %s", est)

		p := result.Weights.SymmetricDim()
		for i := 0; i < p; i++ {
			assert.Zero(t, result.Weights.At(i, i), "diagonal must be zero")
			for j := 0; j < p; j++ {
				w := result.Weights.At(i, j)
				assert.Equal(t, w, result.Weights.At(j, i), "symmetry at (%d,%d)", i, j)
				assert.LessOrEqual(t, math.Abs(w), 1.0, "unit magnitude at (%d,%d)", i, j)
			}
		}
	}
}

// The chain A-B-C-D has no direct A-C or A-D dependence: the partial
// correlations there must be near zero while the chain edges stay nontrivial.
func TestEstimate_ChainSeparatesDirectFromIndirect(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test skipped in short mode")
	}

	ds := chainDataset(t, 8000, 23)
	result, err := Estimate(ds, Options{Estimator: EstimatorPcor})
	require.NoError(t, err)

	w := result.Weights
	assert.Greater(t, w.At(0, 1), 0.25, "A-B chain edge")
	assert.Greater(t, w.At(1, 2), 0.25, "B-C chain edge")
	assert.Greater(t, w.At(2, 3), 0.25, "C-D chain edge")
	assert.Less(t, math.Abs(w.At(0, 2)), 0.06, "A-C has no direct edge")
	assert.Less(t, math.Abs(w.At(0, 3)), 0.06, "A-D has no direct edge")

	// The marginal estimator, by contrast, sees the indirect association.
	marginal, err := Estimate(ds, Options{Estimator: EstimatorCor})
	require.NoError(t, err)
	assert.Greater(t, marginal.Weights.At(0, 2), 0.08, "marginal A-C correlation")
}

func TestEstimate_PruningNeverIncreasesMagnitude(t *testing.T) {
	ds := chainDataset(t, 300, 5)

	unpruned, err := Estimate(ds, Options{Estimator: EstimatorPcor})
	require.NoError(t, err)
	pruned, err := Estimate(ds, Options{Estimator: EstimatorPcor, Prune: true, Alpha: 0.05})
	require.NoError(t, err)

	p := pruned.Weights.SymmetricDim()
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			pw := math.Abs(pruned.Weights.At(i, j))
			uw := math.Abs(unpruned.Weights.At(i, j))
			assert.LessOrEqual(t, pw, uw, "pruning increased |w| at (%d,%d)", i, j)
			if pw != 0 {
				assert.Equal(t, uw, pw, "surviving edge changed at (%d,%d)", i, j)
			}
		}
	}

	// Pruned edges are exactly zero, and the pre-prune estimate is retained.
	assert.Positive(t, pruned.PrunedEdges+countNonzero(pruned.Weights), "estimate is empty")
	assert.Equal(t, countNonzero(unpruned.Weights), countNonzero(pruned.Unpruned))
}

func TestEstimate_PrunedEdgesAreExactlyZero(t *testing.T) {
	ds := chainDataset(t, 120, 9)

	// At a tiny alpha nearly everything prunes; whatever pruned must be 0.0,
	// not merely small.
	result, err := Estimate(ds, Options{Estimator: EstimatorPcor, Prune: true, Alpha: 1e-9})
	require.NoError(t, err)

	p := result.Weights.SymmetricDim()
	zeros := 0
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			if result.PValues.At(i, j) > 1e-9 {
				assert.Zero(t, result.Weights.At(i, j))
				zeros++
			}
		}
	}
	assert.Equal(t, zeros, result.PrunedEdges)
}

func TestEstimate_DegenerateInput(t *testing.T) {
	// Second column duplicates the first: perfectly collinear.
	data := mat.NewDense(6, 3, nil)
	vals := []float64{1, 2, 3, 4, 5, 7}
	for i, v := range vals {
		data.Set(i, 0, v)
		data.Set(i, 1, v)
		data.Set(i, 2, float64(i*i))
	}
	ds, err := dataset.New(data, []string{"A1", "A1b", "C1"}, nil)
	require.NoError(t, err)

	_, err = Estimate(ds, Options{Estimator: EstimatorPcor})
	var degenerate *DegenerateError
	require.ErrorAs(t, err, &degenerate)
	assert.Contains(t, degenerate.Reason, "positive definite")
}

func TestEstimate_ZeroVarianceReported(t *testing.T) {
	data := mat.NewDense(5, 2, []float64{
		3, 1,
		3, 2,
		3, 3,
		3, 5,
		3, 8,
	})
	ds, err := dataset.New(data, []string{"A1", "A2"}, nil)
	require.NoError(t, err)

	_, err = Estimate(ds, Options{Estimator: EstimatorCor})
	var degenerate *DegenerateError
	require.ErrorAs(t, err, &degenerate)
	assert.Equal(t, []string{"A1"}, degenerate.Items)
}

func TestEstimate_SampleTooSmall(t *testing.T) {
	ds := chainDataset(t, 200, 3)
	small, err := ds.Resample([]int{0, 1, 2, 3})
	require.NoError(t, err)

	_, err = Estimate(small, Options{Estimator: EstimatorPcor})
	require.ErrorIs(t, err, ErrSampleTooSmall)
}

func TestEstimate_UnknownEstimator(t *testing.T) {
	ds := chainDataset(t, 100, 2)
	_, err := Estimate(ds, Options{Estimator: "glasso"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "glasso"))
}

func countNonzero(m *mat.SymDense) int {
	p := m.SymmetricDim()
	count := 0
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			if m.At(i, j) != 0 {
				count++
			}
		}
	}
	return count
}
