package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestChainNetwork(t *testing.T) {
	pcor := ChainNetwork(4, 0.35)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i+1 == j || j+1 == i {
				want = 0.35
			}
			assert.Equal(t, want, pcor.At(i, j), "entry (%d,%d)", i, j)
		}
	}
}

func TestSampleGGM_Dimensions(t *testing.T) {
	pcor := ChainNetwork(3, 0.3)
	ds, err := SampleGGM(pcor, []string{"A", "B", "C"}, 50, 7)
	require.NoError(t, err)
	assert.Equal(t, 50, ds.N())
	assert.Equal(t, 3, ds.P())
}

func TestSampleGGM_ItemMismatch(t *testing.T) {
	pcor := ChainNetwork(3, 0.3)
	_, err := SampleGGM(pcor, []string{"A", "B"}, 10, 1)
	require.Error(t, err)
}

func TestSampleGGM_NotPositiveDefinite(t *testing.T) {
	// A chain weight this large makes the precision matrix indefinite.
	pcor := ChainNetwork(3, 0.99)
	_, err := SampleGGM(pcor, []string{"A", "B", "C"}, 10, 1)
	require.ErrorIs(t, err, ErrNotPositiveDefinite)
}

// TestSampleGGM_MarginalCorrelationSign checks the sampler against the
// implied covariance: adjacent chain items must correlate positively, and the
// correlation must decay with distance along the chain.
func TestSampleGGM_MarginalCorrelationSign(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test skipped in short mode")
	}

	pcor := ChainNetwork(4, 0.35)
	ds, err := SampleGGM(pcor, []string{"A", "B", "C", "D"}, 5000, 42)
	require.NoError(t, err)

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, ds.Data(), nil)

	rAB := corr.At(0, 1)
	rAC := corr.At(0, 2)
	rAD := corr.At(0, 3)

	assert.Greater(t, rAB, 0.25)
	assert.Greater(t, rAB, rAC)
	assert.Greater(t, rAC, rAD)
}
