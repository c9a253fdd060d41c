package strategy

import "github.com/inference-sim/supply-sim/sim"

// Noop never orders. It is the floor any real strategy should beat.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Decide(sim.StateView, *sim.Catalog) []sim.OrderDecision { return nil }
