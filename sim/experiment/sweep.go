package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/metrics"
)

// Factory builds a fresh strategy instance. Sweeps call it once per run so
// stateful strategies never share state across goroutines.
type Factory func() sim.Strategy

// SweepConfig describes a multi-seed sweep of one strategy.
type SweepConfig struct {
	Catalog  *sim.Catalog
	Sales    []sim.Sale
	Config   sim.Config // Seed is replaced per run
	Seeds    []int64
	Parallel int // max concurrent runs; <= 0 means unlimited
	Options  []sim.Option
}

// Sweep runs factory() once per seed. Results come back in seed order
// regardless of completion order.
func Sweep(ctx context.Context, sc SweepConfig, factory Factory) ([]*EvaluationResult, error) {
	if len(sc.Seeds) == 0 {
		return nil, fmt.Errorf("sweep needs at least one seed")
	}
	sims := make([]*sim.Simulator, len(sc.Seeds))
	for i, seed := range sc.Seeds {
		cfg := sc.Config
		cfg.Seed = seed
		s, err := sim.NewSimulator(sc.Catalog, sc.Sales, cfg, sc.Options...)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", seed, err)
		}
		sims[i] = s
	}

	results := make([]*EvaluationResult, len(sims))
	g, ctx := errgroup.WithContext(ctx)
	if sc.Parallel > 0 {
		g.SetLimit(sc.Parallel)
	}
	for i, s := range sims {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(s, factory())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logrus.Infof("sweep finished: %d runs", len(results))
	return results, nil
}

// Aggregate summarizes each KPI across runs. Undefined values are skipped; a
// KPI undefined in every run has Count 0.
func Aggregate(results []*EvaluationResult) map[metrics.Name]metrics.Distribution {
	out := make(map[metrics.Name]metrics.Distribution, len(metrics.Names()))
	for _, name := range metrics.Names() {
		var values []float64
		for _, r := range results {
			if v := r.Report.Get(name); v.Valid {
				values = append(values, v.Decimal.InexactFloat64())
			}
		}
		out[name] = metrics.NewDistribution(values)
	}
	return out
}
