package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/metrics"
)

// ABResult is a baseline/candidate pair and their delta report.
type ABResult struct {
	Baseline   *EvaluationResult
	Candidate  *EvaluationResult
	Comparison *metrics.Comparison
}

// RunAB runs baseline and candidate concurrently on the same simulator. Each
// run owns its state and RNG, so the outcome is identical to running them one
// after the other. The strategies must be distinct instances.
func RunAB(ctx context.Context, s *sim.Simulator, baseline, candidate sim.Strategy) (*ABResult, error) {
	if baseline == nil || candidate == nil {
		return nil, fmt.Errorf("both baseline and candidate strategies are required")
	}
	out := &ABResult{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Baseline = Evaluate(s, baseline)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Candidate = Evaluate(s, candidate)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Comparison = metrics.Compare(out.Baseline.Report, out.Candidate.Report)
	return out, nil
}
