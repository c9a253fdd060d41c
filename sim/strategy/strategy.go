// Package strategy provides the ordering strategies shipped with the
// simulator. Every strategy satisfies sim.Strategy.
package strategy

import (
	"fmt"

	"github.com/inference-sim/supply-sim/sim"
)

// NewStrategy creates a strategy by name, applying the bundle's parameters.
// Valid names: "noop", "reorder-point", "llm-agent"; empty means "reorder-point".
// llm-agent needs an advisor; pass nil for the others.
// Panics on an unknown name; callers validate with sim.ValidStrategies first.
func NewStrategy(bundle sim.StrategyBundle, advisor Advisor) sim.Strategy {
	switch bundle.Strategy {
	case "noop":
		return Noop{}
	case "", "reorder-point":
		rp := NewReorderPoint()
		if bundle.Reorder.OrderMultiplier != nil {
			rp.OrderMultiplier = *bundle.Reorder.OrderMultiplier
		}
		if bundle.Reorder.RespectCasePack != nil {
			rp.RespectCasePack = *bundle.Reorder.RespectCasePack
		}
		return rp
	case "llm-agent":
		if advisor == nil {
			panic("llm-agent strategy requires an advisor")
		}
		maxCalls := DefaultMaxCalls
		if bundle.Agent.MaxCalls != nil {
			maxCalls = *bundle.Agent.MaxCalls
		}
		return NewAgent(advisor, maxCalls)
	default:
		panic(fmt.Sprintf("unknown strategy %q; valid strategies: [noop, reorder-point, llm-agent]", bundle.Strategy))
	}
}
