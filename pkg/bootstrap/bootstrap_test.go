package bootstrap

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/netpsych/netpsych/pkg/dataset"
	"github.com/netpsych/netpsych/pkg/pcor"
)

func chainDataset(t *testing.T, n int, seed uint64) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.SampleGGM(dataset.ChainNetwork(4, 0.35), []string{"A", "B", "C", "D"}, n, seed)
	require.NoError(t, err)
	return ds
}

func TestRun_BasicShape(t *testing.T) {
	ds := chainDataset(t, 200, 31)

	result, err := Run(ds, Options{Resamples: 50, Workers: 4, Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, 50, result.Requested)
	assert.Equal(t, 50, result.Converged)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1.0, result.Yield())
	assert.Equal(t, "50/50 resamples converged", result.String())
	require.Len(t, result.Intervals, 6) // all unordered pairs of 4 nodes

	for _, iv := range result.Intervals {
		assert.LessOrEqual(t, iv.Lower, iv.Upper, "edge %d-%d", iv.From, iv.To)
		assert.LessOrEqual(t, iv.Lower, iv.Mean, "edge %d-%d", iv.From, iv.To)
		assert.LessOrEqual(t, iv.Mean, iv.Upper, "edge %d-%d", iv.From, iv.To)
	}
}

// Results must not depend on scheduling: the same seed gives identical
// intervals whatever the worker count.
func TestRun_ReproducibleAcrossWorkerCounts(t *testing.T) {
	ds := chainDataset(t, 150, 8)

	one, err := Run(ds, Options{Resamples: 40, Workers: 1, Seed: 99})
	require.NoError(t, err)
	eight, err := Run(ds, Options{Resamples: 40, Workers: 8, Seed: 99})
	require.NoError(t, err)

	assert.Equal(t, one.Intervals, eight.Intervals)
}

func TestRun_FailedResamplesAreCountedNotFatal(t *testing.T) {
	// One respondent carries all the variance of the third item: resamples
	// that miss row 0 see a zero-variance column and must fail cleanly.
	data := mat.NewDense(30, 3, nil)
	base := chainDataset(t, 30, 55)
	for i := 0; i < 30; i++ {
		data.Set(i, 0, base.Data().At(i, 0))
		data.Set(i, 1, base.Data().At(i, 1))
		data.Set(i, 2, 1)
	}
	data.Set(0, 2, 2)
	ds, err := dataset.New(data, []string{"A", "B", "C"}, nil)
	require.NoError(t, err)

	result, err := Run(ds, Options{
		Resamples: 100,
		Workers:   4,
		Seed:      7,
		Estimator: pcor.Options{Estimator: pcor.EstimatorCor},
	})
	require.NoError(t, err)

	assert.Positive(t, result.Failed, "expected some degenerate resamples")
	assert.Positive(t, result.Converged, "expected some converged resamples")
	assert.Equal(t, result.Requested, result.Converged+result.Failed)
	assert.Greater(t, result.Yield(), 0.0)
	assert.Less(t, result.Yield(), 1.0)
	assert.NotEmpty(t, result.FailureCounts)
}

func TestRun_SampleEstimateFailureIsFatal(t *testing.T) {
	data := mat.NewDense(10, 2, nil)
	for i := 0; i < 10; i++ {
		data.Set(i, 0, 3) // constant item
		data.Set(i, 1, float64(i))
	}
	ds, err := dataset.New(data, []string{"A", "B"}, nil)
	require.NoError(t, err)

	_, err = Run(ds, Options{Resamples: 10, Estimator: pcor.Options{Estimator: pcor.EstimatorCor}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample network")
}

func TestDrawCache_RoundTrip(t *testing.T) {
	ds := chainDataset(t, 120, 3)

	result, err := Run(ds, Options{Resamples: 30, Workers: 2, Seed: 12})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "draws.npbs")
	require.NoError(t, result.SaveDraws(path))

	loaded, err := LoadDraws(path)
	require.NoError(t, err)

	assert.Equal(t, result.Requested, loaded.Requested)
	assert.Equal(t, result.Converged, loaded.Converged)
	assert.Equal(t, result.Failed, loaded.Failed)
	assert.Equal(t, result.Level, loaded.Level)
	assert.Equal(t, result.Intervals, loaded.Intervals)
}

func TestDrawCache_Corruption(t *testing.T) {
	ds := chainDataset(t, 100, 4)
	result, err := Run(ds, Options{Resamples: 10, Seed: 2})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "draws.npbs")
	require.NoError(t, result.SaveDraws(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = LoadDraws(path)
	require.ErrorIs(t, err, ErrCorruptCache)
}

func TestRecompute_NarrowerAtLowerLevel(t *testing.T) {
	ds := chainDataset(t, 200, 13)
	result, err := Run(ds, Options{Resamples: 80, Seed: 5})
	require.NoError(t, err)

	narrow, err := result.Recompute(0.5)
	require.NoError(t, err)
	require.Len(t, narrow, len(result.Intervals))

	for k, iv := range result.Intervals {
		assert.GreaterOrEqual(t, narrow[k].Lower, iv.Lower)
		assert.LessOrEqual(t, narrow[k].Upper, iv.Upper)
	}

	_, err = result.Recompute(1.5)
	require.Error(t, err)
}

// TestRun_Calibration checks the headline statistical property: 95%
// intervals over a known true structure should cover the truth on nearly all
// edges.
func TestRun_Calibration(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test skipped in short mode")
	}

	truth := dataset.ChainNetwork(4, 0.35)
	ds, err := dataset.SampleGGM(truth, []string{"A", "B", "C", "D"}, 600, 77)
	require.NoError(t, err)

	result, err := Run(ds, Options{Resamples: 1000, Workers: 8, Seed: 21})
	require.NoError(t, err)

	covered := 0
	for _, iv := range result.Intervals {
		trueWeight := truth.At(iv.From, iv.To)
		if iv.Lower <= trueWeight && trueWeight <= iv.Upper {
			covered++
		}
	}
	// 6 edges at nominal 95%: allow a single miss.
	assert.GreaterOrEqual(t, covered, 5, "intervals covered %d/6 true weights", covered)

	// The strong chain edges should exclude zero; the absent A-C edge
	// should not.
	byPair := make(map[[2]int]EdgeInterval)
	for _, iv := range result.Intervals {
		byPair[[2]int{iv.From, iv.To}] = iv
	}
	assert.Greater(t, byPair[[2]int{0, 1}].Lower, 0.0, "A-B interval excludes zero")
	ac := byPair[[2]int{0, 2}]
	assert.True(t, ac.Lower <= 0 && 0 <= ac.Upper, "A-C interval [%v,%v] should contain zero", ac.Lower, ac.Upper)

	for _, iv := range result.Intervals {
		assert.False(t, math.IsNaN(iv.Mean))
	}
}
