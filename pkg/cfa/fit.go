package cfa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/netpsych/netpsych/pkg/dataset"
)

// Options tunes the fit. The zero value is usable.
type Options struct {
	// MaxIterations caps the optimizer's major iterations (default 1000).
	MaxIterations int
}

// penalty is returned by the discrepancy function for parameter points whose
// implied matrix is not positive definite, steering the optimizer back into
// the valid region.
const penalty = 1e8

// Fit estimates the factor model on the dataset's correlation matrix by
// minimising the maximum-likelihood discrepancy
//
//	F = ln|Sigma| - ln|S| + tr(S Sigma^-1) - p
//
// with gonum's LBFGS over a tanh parameterisation that keeps loadings and
// factor correlations inside (-1, 1). Optimizer failure to converge yields a
// Result with Converged=false and a warning, not an error.
func Fit(ds *dataset.Dataset, spec Spec, opts Options) (*Result, error) {
	m, err := resolveSpec(ds, spec)
	if err != nil {
		return nil, err
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 1000
	}

	p := len(m.items)
	k := len(m.factors)
	q := m.freeParameters()
	df := p*(p+1)/2 - q
	if df <= 0 {
		return nil, fmt.Errorf("model is not identified: %d parameters for %d moments", q, p*(p+1)/2)
	}

	sample, err := sampleCorrelation(ds, m)
	if err != nil {
		return nil, err
	}
	var sampleChol mat.Cholesky
	if !sampleChol.Factorize(sample) {
		return nil, fmt.Errorf("sample correlation matrix is not positive definite")
	}
	logDetSample := sampleChol.LogDet()

	discrepancy := func(x []float64) float64 {
		sigma := m.implied(x)
		var chol mat.Cholesky
		if !chol.Factorize(sigma) {
			return penalty
		}
		var solved mat.Dense
		if err := chol.SolveTo(&solved, sample); err != nil {
			return penalty
		}
		trace := 0.0
		for i := 0; i < p; i++ {
			trace += solved.At(i, i)
		}
		return chol.LogDet() - logDetSample + trace - float64(p)
	}

	problem := optimize.Problem{
		Func: discrepancy,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, discrepancy, x, nil)
		},
	}

	x0 := make([]float64, p+k*(k-1)/2)
	for i := 0; i < p; i++ {
		x0[i] = math.Atanh(0.6)
	}
	for i := p; i < len(x0); i++ {
		x0[i] = math.Atanh(0.3)
	}

	// The finite-difference gradient carries ~1e-8 noise, so the default
	// gradient tolerance is unreachable; 1e-6 is converged for any practical
	// purpose here.
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIterations,
		GradientThreshold: 1e-6,
	}
	solution, optErr := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if solution == nil {
		return nil, fmt.Errorf("factor model optimization failed outright: %w", optErr)
	}

	result := m.assemble(solution.X)
	result.Converged = optErr == nil
	if optErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("optimizer stopped without converging: %v; estimates are best-effort", optErr))
	}

	fMin := discrepancy(solution.X)
	n := float64(ds.N())
	result.DF = df
	result.ChiSquare = (n - 1) * fMin
	chi2dist := distuv.ChiSquared{K: float64(df)}
	result.PValue = 1 - chi2dist.CDF(result.ChiSquare)

	// Baseline (independence) model against a correlation matrix: Sigma = I,
	// so F_baseline reduces to -ln|S|.
	baselineChi2 := (n - 1) * (-logDetSample)
	baselineDF := float64(p*(p-1)) / 2

	result.CFI = comparativeFitIndex(result.ChiSquare, float64(df), baselineChi2, baselineDF)
	result.TLI = tuckerLewisIndex(result.ChiSquare, float64(df), baselineChi2, baselineDF)
	result.RMSEA = math.Sqrt(math.Max(result.ChiSquare-float64(df), 0) / (float64(df) * (n - 1)))
	result.SRMR = srmr(sample, m.implied(solution.X))

	if !result.Converged || result.RMSEA > 0.10 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("inspect the solution before trusting downstream results (RMSEA=%.3f)", result.RMSEA))
	}
	return result, nil
}

// sampleCorrelation extracts the correlation matrix of the modelled columns.
func sampleCorrelation(ds *dataset.Dataset, m *model) (*mat.SymDense, error) {
	if zv := ds.ZeroVarianceItems(); len(zv) > 0 {
		return nil, fmt.Errorf("zero-variance items cannot enter a factor model: %v", zv)
	}
	full := mat.NewSymDense(ds.P(), nil)
	stat.CorrelationMatrix(full, ds.Data(), nil)

	p := len(m.items)
	sub := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sub.SetSym(i, j, full.At(m.columns[i], m.columns[j]))
		}
	}
	return sub, nil
}

// implied builds the model-implied correlation matrix at parameter point x.
// The diagonal is unity by construction (uniqueness = 1 - loading^2).
func (m *model) implied(x []float64) *mat.SymDense {
	p := len(m.items)
	k := len(m.factors)

	loadings := make([]float64, p)
	for i := 0; i < p; i++ {
		loadings[i] = math.Tanh(x[i])
	}
	phi := factorCorrelations(x[p:], k)

	sigma := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		sigma.SetSym(i, i, 1)
		for j := i + 1; j < p; j++ {
			sigma.SetSym(i, j, loadings[i]*loadings[j]*phi.At(m.factorOf[i], m.factorOf[j]))
		}
	}
	return sigma
}

func factorCorrelations(x []float64, k int) *mat.SymDense {
	phi := mat.NewSymDense(k, nil)
	idx := 0
	for a := 0; a < k; a++ {
		phi.SetSym(a, a, 1)
		for b := a + 1; b < k; b++ {
			phi.SetSym(a, b, math.Tanh(x[idx]))
			idx++
		}
	}
	return phi
}

// assemble turns the parameter vector into the user-facing result maps.
func (m *model) assemble(x []float64) *Result {
	p := len(m.items)
	k := len(m.factors)

	loadings := make(map[string]map[string]float64, k)
	uniquenesses := make(map[string]float64, p)
	for _, factor := range m.factors {
		loadings[factor] = make(map[string]float64)
	}
	for i, item := range m.items {
		lambda := math.Tanh(x[i])
		loadings[m.factors[m.factorOf[i]]][item] = lambda
		uniquenesses[item] = 1 - lambda*lambda
	}

	return &Result{
		Factors:            m.factors,
		Loadings:           loadings,
		Uniquenesses:       uniquenesses,
		FactorCorrelations: factorCorrelations(x[p:], k),
	}
}

func comparativeFitIndex(chi2, df, baseChi2, baseDF float64) float64 {
	num := math.Max(chi2-df, 0)
	den := math.Max(math.Max(baseChi2-baseDF, chi2-df), 0)
	if den == 0 {
		return 1
	}
	return 1 - num/den
}

func tuckerLewisIndex(chi2, df, baseChi2, baseDF float64) float64 {
	if df == 0 || baseDF == 0 {
		return 1
	}
	baseRatio := baseChi2 / baseDF
	if baseRatio <= 1 {
		return 1
	}
	return (baseRatio - chi2/df) / (baseRatio - 1)
}

// srmr is the root mean square residual over the lower triangle of the
// standardized residual matrix.
func srmr(sample, implied *mat.SymDense) float64 {
	p := sample.SymmetricDim()
	sum := 0.0
	count := 0
	for i := 0; i < p; i++ {
		for j := 0; j <= i; j++ {
			diff := sample.At(i, j) - implied.At(i, j)
			sum += diff * diff
			count++
		}
	}
	return math.Sqrt(sum / float64(count))
}
