package sim

// Strategy produces order decisions from the current state and catalog.
// The engine calls Decide exactly once per simulated day, after sales.
// Implementations must not keep references to mutable engine state and must
// be deterministic for deterministic runs.
type Strategy interface {
	Name() string
	Decide(view StateView, catalog *Catalog) []OrderDecision
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(view StateView, catalog *Catalog) []OrderDecision

// Name returns a fixed label; wrap with NamedStrategy for a custom one.
func (f StrategyFunc) Name() string { return "func" }

// Decide calls f.
func (f StrategyFunc) Decide(view StateView, catalog *Catalog) []OrderDecision {
	return f(view, catalog)
}

// NamedStrategy gives a StrategyFunc a name for logs and reports.
func NamedStrategy(name string, f StrategyFunc) Strategy {
	return namedStrategy{name: name, f: f}
}

type namedStrategy struct {
	name string
	f    StrategyFunc
}

func (n namedStrategy) Name() string { return n.name }

func (n namedStrategy) Decide(view StateView, catalog *Catalog) []OrderDecision {
	return n.f(view, catalog)
}
