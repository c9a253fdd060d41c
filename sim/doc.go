// Package sim provides the day-stepped supply-chain replay engine.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - catalog.go: products, suppliers, warehouses and their validation
//   - state.go: inventory positions, running counters and the daily log
//   - simulator.go: the day loop (holding, arrivals, sales, ordering, snapshot)
//
// # Architecture
//
// The sim package defines the engine and the Strategy extension point;
// everything else lives in sub-packages:
//   - sim/strategy/: ordering strategies (no-op, reorder point, LLM agent)
//   - sim/metrics/: KPI reports and A/B comparison
//   - sim/catalog/: YAML, CSV and Postgres loaders for catalog and sales
//   - sim/experiment/: concurrent A/B runs and parameter sweeps
//   - sim/trace/: decision trace recording
//
// # Determinism
//
// A run is a pure function of (catalog, sales, config, strategy). Randomness
// comes only from PartitionedRNG keyed by Config.Seed, inventory positions are
// iterated in catalog order, and money is decimal, so replaying the daily log
// reproduces the final counters exactly.
package sim
