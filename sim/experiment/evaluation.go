// Package experiment runs strategies against a shared simulator and bundles
// the outputs for downstream consumers: single evaluations, concurrent A/B
// comparisons and multi-seed sweeps.
package experiment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/metrics"
	"github.com/inference-sim/supply-sim/sim/trace"
)

var runNamespace = uuid.MustParse("9d4a61f0-2b7c-4f0e-8f38-6e2c1a0b7d53")

// EvaluationResult bundles all outputs from one strategy run.
type EvaluationResult struct {
	RunID    string // stable for the same strategy, seed and date range
	Strategy string
	Seed     int64
	Result   *sim.Result
	Report   *metrics.Report
	Summary  *trace.TraceSummary // nil if trace level is "none"

	WallTime time.Duration // wall-clock duration of Run()
}

// RunID derives the deterministic identifier of a run.
func RunID(strategy string, cfg sim.Config) string {
	name := fmt.Sprintf("%s|%d|%s|%s", strategy, cfg.Seed,
		cfg.StartDate.Format(sim.DateLayout), cfg.EndDate.Format(sim.DateLayout))
	return uuid.NewSHA1(runNamespace, []byte(name)).String()
}

// Evaluate runs one strategy and derives its report.
func Evaluate(s *sim.Simulator, strategy sim.Strategy) *EvaluationResult {
	start := time.Now()
	res := s.Run(strategy)
	wall := time.Since(start)

	ev := &EvaluationResult{
		RunID:    RunID(res.Strategy, s.Config()),
		Strategy: res.Strategy,
		Seed:     s.Config().Seed,
		Result:   res,
		Report:   metrics.FromResult(res),
		WallTime: wall,
	}
	if res.Trace != nil {
		ev.Summary = trace.Summarize(res.Trace)
	}
	logrus.Debugf("evaluated %s (run %s) in %s", ev.Strategy, ev.RunID, wall)
	return ev
}
