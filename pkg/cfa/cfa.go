// Package cfa fits a confirmatory factor model by maximum likelihood and
// reports standard fit statistics. The model is the independent-clusters
// form used for inventory data: every item loads on exactly one factor,
// factors correlate freely, uniquenesses absorb the rest.
//
// Fitting is a diagnostic gate before network estimation, not an end in
// itself: a sane factor solution tells us the inventory measures what it
// claims to measure. Non-convergence is surfaced as a warning on the result
// rather than a fatal error.
package cfa

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/netpsych/netpsych/pkg/dataset"
)

// Spec maps factor labels to their indicator items. Every item may appear
// under exactly one factor.
type Spec map[string][]string

var (
	// ErrEmptySpec is returned for a model with no factors or no indicators.
	ErrEmptySpec = errors.New("factor model has no indicators")
	// ErrDuplicateIndicator is returned when an item loads on two factors.
	ErrDuplicateIndicator = errors.New("item assigned to more than one factor")
	// ErrUnknownItem is returned when a spec names an item the dataset lacks.
	ErrUnknownItem = errors.New("factor model names an item missing from the dataset")
)

// Result holds the fitted model and its fit statistics.
type Result struct {
	// Factors lists factor labels in the fitting order (sorted).
	Factors []string `json:"factors"`
	// Loadings holds the standardized loading per item, keyed factor -> item.
	Loadings map[string]map[string]float64 `json:"loadings"`
	// Uniquenesses holds the residual variance per item (1 - loading^2).
	Uniquenesses map[string]float64 `json:"uniquenesses"`
	// FactorCorrelations is the estimated factor correlation matrix, in
	// Factors order.
	FactorCorrelations *mat.SymDense `json:"-"`

	ChiSquare float64 `json:"chiSquare"`
	DF        int     `json:"df"`
	PValue    float64 `json:"pValue"`
	CFI       float64 `json:"cfi"`
	TLI       float64 `json:"tli"`
	RMSEA     float64 `json:"rmsea"`
	SRMR      float64 `json:"srmr"`

	// Converged is false when the optimizer stopped without meeting its
	// convergence criteria; estimates are then best-effort and Warnings says
	// so explicitly.
	Converged bool     `json:"converged"`
	Warnings  []string `json:"warnings,omitempty"`
}

// model is the validated, index-resolved form of a Spec against a dataset.
type model struct {
	factors    []string // sorted factor labels
	items      []string // items in model order
	columns    []int    // dataset column per item
	factorOf   []int    // factor index per item
	factorSize []int
}

func resolveSpec(ds *dataset.Dataset, spec Spec) (*model, error) {
	if len(spec) == 0 {
		return nil, ErrEmptySpec
	}

	factors := make([]string, 0, len(spec))
	for f := range spec {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	colOf := make(map[string]int, ds.P())
	for j, item := range ds.Items() {
		colOf[item] = j
	}

	m := &model{factors: factors, factorSize: make([]int, len(factors))}
	seen := make(map[string]string)
	for fi, factor := range factors {
		indicators := spec[factor]
		if len(indicators) == 0 {
			return nil, fmt.Errorf("%w: factor %q", ErrEmptySpec, factor)
		}
		for _, item := range indicators {
			if owner, dup := seen[item]; dup {
				return nil, fmt.Errorf("%w: %q appears under %q and %q", ErrDuplicateIndicator, item, owner, factor)
			}
			seen[item] = factor
			col, ok := colOf[item]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownItem, item)
			}
			m.items = append(m.items, item)
			m.columns = append(m.columns, col)
			m.factorOf = append(m.factorOf, fi)
			m.factorSize[fi]++
		}
	}
	return m, nil
}

// freeParameters is the parameter count q: one loading per item plus one
// correlation per factor pair.
func (m *model) freeParameters() int {
	k := len(m.factors)
	return len(m.items) + k*(k-1)/2
}
