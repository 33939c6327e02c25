// Package bootstrap quantifies edge-weight uncertainty by nonparametric
// resampling: draw respondents with replacement, re-estimate the network
// with the identical estimator configuration, and summarise the edge-weight
// distribution across resamples.
//
// Only edge weights are bootstrapped. Centrality metrics are deliberately
// excluded: strength and betweenness are floored at zero through absolute
// values, which breaks the symmetry assumptions behind ordinary bootstrap
// intervals. The result type does not offer centrality intervals on purpose.
package bootstrap

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/netpsych/netpsych/pkg/dataset"
	"github.com/netpsych/netpsych/pkg/pcor"
)

// DefaultResamples matches the conventional bootstrap size for edge-weight
// intervals.
const DefaultResamples = 1000

// ErrNoConvergedResamples is returned when every resample failed; there is
// nothing to aggregate.
var ErrNoConvergedResamples = errors.New("no bootstrap resample converged")

// Options configures a bootstrap run.
type Options struct {
	// Resamples is the number of bootstrap draws (default 1000).
	Resamples int
	// Workers caps the worker pool (default: number of CPUs). Parallelism
	// never changes results; resample i always uses its own seed.
	Workers int
	// Estimator is applied unchanged to every resample. It should be the
	// exact configuration used for the sample network.
	Estimator pcor.Options
	// Level is the confidence level for the intervals (default 0.95).
	Level float64
	// Seed makes runs reproducible. Resample i derives its generator from
	// Seed and i, so results do not depend on scheduling.
	Seed uint64
}

// EdgeInterval is the bootstrap summary for one unordered node pair.
type EdgeInterval struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Sample float64 `json:"sample"` // estimate on the original data
	Mean   float64 `json:"mean"`   // mean across converged resamples
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// Result aggregates a bootstrap run.
type Result struct {
	Requested int     `json:"requested"`
	Converged int     `json:"converged"`
	Failed    int     `json:"failed"`
	Level     float64 `json:"level"`

	// Intervals covers every unordered pair, including pairs whose sample
	// weight is zero, ordered by (From, To).
	Intervals []EdgeInterval `json:"intervals"`

	// FailureCounts tallies failed resamples by error message.
	FailureCounts map[string]int `json:"failureCounts,omitempty"`

	// draws[pair][k] is the weight of pair in the k-th converged resample.
	draws [][]float64
	nodes int
}

// Yield is the share of requested resamples that converged.
func (r *Result) Yield() float64 {
	if r.Requested == 0 {
		return 0
	}
	return float64(r.Converged) / float64(r.Requested)
}

// String renders the yield the way it is reported: "950/1000 resamples converged".
func (r *Result) String() string {
	return fmt.Sprintf("%d/%d resamples converged", r.Converged, r.Requested)
}

// Run estimates the sample network once and re-estimates it on Resamples
// bootstrap draws. A resample that fails to converge (degenerate resampled
// correlation matrix) is excluded from aggregation and counted, never fatal.
func Run(ds *dataset.Dataset, opts Options) (*Result, error) {
	if opts.Resamples <= 0 {
		opts.Resamples = DefaultResamples
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Level <= 0 || opts.Level >= 1 {
		opts.Level = 0.95
	}

	sample, err := pcor.Estimate(ds, opts.Estimator)
	if err != nil {
		return nil, fmt.Errorf("estimating sample network: %w", err)
	}

	p := ds.P()
	n := ds.N()
	pairs := pairCount(p)

	// Each task owns its slot; no locking needed until aggregation.
	weights := make([][]float64, opts.Resamples)
	failures := make([]error, opts.Resamples)

	pool := newWorkerPool(opts.Workers)
	for i := 0; i < opts.Resamples; i++ {
		i := i
		pool.submit(func() {
			defer func() {
				if r := recover(); r != nil {
					failures[i] = fmt.Errorf("resample panicked: %v", r)
				}
			}()
			weights[i], failures[i] = oneResample(ds, opts, n, i)
		})
	}
	pool.wait()

	result := &Result{
		Requested:     opts.Resamples,
		Level:         opts.Level,
		FailureCounts: make(map[string]int),
		draws:         make([][]float64, pairs),
		nodes:         p,
	}
	for i := 0; i < opts.Resamples; i++ {
		if failures[i] != nil {
			result.Failed++
			result.FailureCounts[failures[i].Error()]++
			continue
		}
		result.Converged++
		for pair, w := range weights[i] {
			result.draws[pair] = append(result.draws[pair], w)
		}
	}
	if len(result.FailureCounts) == 0 {
		result.FailureCounts = nil
	}
	if result.Converged == 0 {
		return nil, fmt.Errorf("%w (%d attempted)", ErrNoConvergedResamples, result.Requested)
	}

	result.Intervals = intervals(sample, result.draws, p, opts.Level)
	return result, nil
}

// oneResample draws n rows with replacement and re-estimates the network,
// returning the upper-triangle weights in pair order.
func oneResample(ds *dataset.Dataset, opts Options, n, index int) ([]float64, error) {
	rng := rand.New(rand.NewSource(opts.Seed + uint64(index)*0x9e3779b97f4a7c15 + 1))
	indices := make([]int, n)
	for j := range indices {
		indices[j] = rng.Intn(n)
	}

	resampled, err := ds.Resample(indices)
	if err != nil {
		return nil, err
	}
	estimate, err := pcor.Estimate(resampled, opts.Estimator)
	if err != nil {
		return nil, err
	}

	p := resampled.P()
	out := make([]float64, 0, pairCount(p))
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			out = append(out, estimate.Weights.At(i, j))
		}
	}
	return out, nil
}

// intervals computes per-pair percentile confidence intervals.
func intervals(sample *pcor.Result, draws [][]float64, p int, level float64) []EdgeInterval {
	samples := make([]float64, 0, pairCount(p))
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			samples = append(samples, sample.Weights.At(i, j))
		}
	}
	return intervalsFromDraws(samples, draws, p, level)
}

func intervalsFromDraws(samples []float64, draws [][]float64, p int, level float64) []EdgeInterval {
	alpha := 1 - level
	out := make([]EdgeInterval, 0, pairCount(p))

	pair := 0
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			values := append([]float64(nil), draws[pair]...)
			sort.Float64s(values)

			out = append(out, EdgeInterval{
				From:   i,
				To:     j,
				Sample: samples[pair],
				Mean:   stat.Mean(values, nil),
				Lower:  stat.Quantile(alpha/2, stat.Empirical, values, nil),
				Upper:  stat.Quantile(1-alpha/2, stat.Empirical, values, nil),
			})
			pair++
		}
	}
	return out
}

func pairCount(p int) int {
	return p * (p - 1) / 2
}
