// Package pipeline wires the analysis steps into one run: load data, fit the
// factor model, estimate the network, compute centrality, bootstrap edge
// stability, and render the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/netpsych/netpsych/pkg/bootstrap"
	"github.com/netpsych/netpsych/pkg/centrality"
	"github.com/netpsych/netpsych/pkg/cfa"
	"github.com/netpsych/netpsych/pkg/dataset"
	"github.com/netpsych/netpsych/pkg/logging"
	"github.com/netpsych/netpsych/pkg/network"
	"github.com/netpsych/netpsych/pkg/pcor"
	"github.com/netpsych/netpsych/pkg/report"
)

// Pipeline executes a validated Config.
type Pipeline struct {
	cfg Config
	log logging.Logger
}

// New creates a pipeline. A nil logger disables logging.
func New(cfg Config, log logging.Logger) (*Pipeline, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Pipeline{cfg: cfg, log: log}, nil
}

// Run executes every configured step and writes the report directory. The
// returned Analysis is the same document that lands in result.json.
func (p *Pipeline) Run(ctx context.Context) (*report.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	runID := uuid.New().String()
	log := p.log.With(logging.RunID(runID))
	started := time.Now()

	a := &report.Analysis{
		RunID:     runID,
		CreatedAt: started.UTC(),
		Source:    p.cfg.Data.Path,
		Threshold: p.cfg.Network.Threshold,
	}

	ds, err := p.loadData(ctx, log, a)
	if err != nil {
		return nil, err
	}

	if err := p.fitFactorModel(ds, log, a); err != nil {
		return nil, err
	}

	nw, err := p.estimateNetwork(ds, log, a)
	if err != nil {
		return nil, err
	}

	a.Centrality = centrality.Compute(nw)
	log.Info("centrality computed", logging.Step("centrality"),
		logging.Items(len(a.Centrality.Metrics)))

	if p.cfg.Bootstrap.Enabled {
		if err := p.bootstrapEdges(ctx, ds, log, a); err != nil {
			return nil, err
		}
	}

	if err := report.Render(a, p.cfg.Output.Dir); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	log.Info("run complete", logging.Path(p.cfg.Output.Dir),
		logging.Elapsed(time.Since(started)))
	return a, nil
}

func (p *Pipeline) loadData(ctx context.Context, log logging.Logger, a *report.Analysis) (*dataset.Dataset, error) {
	src, err := dataset.Open(ctx, p.cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.cfg.Data.Path, err)
	}
	defer src.Close()

	ds, rep, err := dataset.Load(src)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", p.cfg.Data.Path, err)
	}

	a.Load = rep
	a.Items = ds.Items()
	a.Groups = p.groups(ds)
	log.Info("data loaded", logging.Step("load"),
		logging.Rows(rep.RowsKept), logging.Items(ds.P()),
		logging.Int("dropped", rep.RowsDropped))
	if len(rep.ZeroVarianceItems) > 0 {
		log.Warn("zero-variance items present",
			logging.Any("items", rep.ZeroVarianceItems))
	}
	return ds, nil
}

// groups labels items for plotting: an explicit factor model wins, then the
// built-in inventory convention.
func (p *Pipeline) groups(ds *dataset.Dataset) []string {
	if len(p.cfg.Model.Factors) > 0 {
		byItem := make(map[string]string)
		for factor, items := range p.cfg.Model.Factors {
			for _, item := range items {
				byItem[item] = factor
			}
		}
		groups := make([]string, ds.P())
		for i, item := range ds.Items() {
			groups[i] = byItem[item]
		}
		return groups
	}
	return dataset.FiveFactorGroups(ds.Items())
}

// factorSpec resolves the model to fit: explicit factors from the config, or
// the built-in inventory when every item follows its naming convention.
func (p *Pipeline) factorSpec(ds *dataset.Dataset) cfa.Spec {
	if p.cfg.Model.Skip {
		return nil
	}
	if len(p.cfg.Model.Factors) > 0 {
		return cfa.Spec(p.cfg.Model.Factors)
	}
	for _, g := range dataset.FiveFactorGroups(ds.Items()) {
		if g == "" {
			return nil
		}
	}
	return cfa.Spec(dataset.FiveFactorModel())
}

func (p *Pipeline) fitFactorModel(ds *dataset.Dataset, log logging.Logger, a *report.Analysis) error {
	spec := p.factorSpec(ds)
	if spec == nil {
		log.Info("factor model skipped", logging.Step("cfa"))
		return nil
	}

	started := time.Now()
	result, err := cfa.Fit(ds, spec, cfa.Options{MaxIterations: p.cfg.Model.MaxIterations})
	if err != nil {
		return fmt.Errorf("fitting factor model: %w", err)
	}

	a.CFA = result
	log.Info("factor model fitted", logging.Step("cfa"),
		logging.Int("factors", len(result.Factors)),
		logging.Float64("cfi", result.CFI),
		logging.Float64("rmsea", result.RMSEA),
		logging.Bool("converged", result.Converged),
		logging.Elapsed(time.Since(started)))
	if !result.Converged {
		log.Warn("factor model did not converge; fit indices are unreliable",
			logging.Step("cfa"))
	}
	return nil
}

func (p *Pipeline) estimatorOptions() pcor.Options {
	return pcor.Options{
		Estimator: pcor.Estimator(p.cfg.Network.Estimator),
		Prune:     p.cfg.Network.Prune,
		Alpha:     p.cfg.Network.Alpha,
	}
}

func (p *Pipeline) estimateNetwork(ds *dataset.Dataset, log logging.Logger, a *report.Analysis) (*network.Network, error) {
	result, err := pcor.Estimate(ds, p.estimatorOptions())
	if err != nil {
		var degenerate *pcor.DegenerateError
		if errors.As(err, &degenerate) {
			return nil, fmt.Errorf("network estimation failed on degenerate data: %w", err)
		}
		return nil, fmt.Errorf("estimating network: %w", err)
	}

	nw, err := network.New(result.Weights, ds.Items(), a.Groups, ds.N())
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	a.Network = nw
	a.Estimator = result.Estimator
	a.Alpha = result.Alpha
	a.Pruned = result.Pruned
	a.PrunedEdges = result.PrunedEdges
	log.Info("network estimated", logging.Step("network"),
		logging.String("estimator", string(result.Estimator)),
		logging.Edges(len(nw.EdgeList())),
		logging.Int("pruned", result.PrunedEdges))
	return nw, nil
}

func (p *Pipeline) bootstrapEdges(ctx context.Context, ds *dataset.Dataset, log logging.Logger, a *report.Analysis) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bootstrap not started: %w", err)
	}

	started := time.Now()
	result, err := bootstrap.Run(ds, bootstrap.Options{
		Resamples: p.cfg.Bootstrap.Resamples,
		Workers:   p.cfg.Bootstrap.Workers,
		Estimator: p.estimatorOptions(),
		Level:     p.cfg.Bootstrap.Level,
		Seed:      p.cfg.Bootstrap.Seed,
	})
	if err != nil {
		return fmt.Errorf("bootstrapping edges: %w", err)
	}

	a.Bootstrap = result
	log.Info("bootstrap finished", logging.Step("bootstrap"),
		logging.Resamples(result.Converged),
		logging.Int("failed", result.Failed),
		logging.Float64("yield", result.Yield()),
		logging.Elapsed(time.Since(started)))

	if p.cfg.Bootstrap.Cache != "" {
		if err := result.SaveDraws(p.cfg.Bootstrap.Cache); err != nil {
			// The analysis itself is intact, so a cache failure only warns.
			log.Warn("could not save bootstrap draw cache",
				logging.Path(p.cfg.Bootstrap.Cache), logging.Error(err))
		} else {
			log.Info("bootstrap draws cached", logging.Path(p.cfg.Bootstrap.Cache))
		}
	}
	return nil
}
