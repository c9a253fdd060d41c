package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A slow, unreliable supplier makes arrival dates depend on the seed.
const noisyCatalogYAML = `
products:
  - id: P1
    unit_cost: 4
    unit_price: 9
    base_demand_daily: 10
    supply_days_target: 2
    reorder_point: 12
    supplier_id: S1
suppliers:
  - id: S1
    lead_time_days: 2
    lead_time_std_dev: 2
    reliability: 0.5
warehouses:
  - id: W1
`

func runWithSeed(t *testing.T, seed string) string {
	t.Helper()
	dir := t.TempDir()
	catalogPath := writeFile(t, dir, "catalog.yaml", noisyCatalogYAML)
	salesPath := writeFile(t, dir, "sales.csv", testSalesCSV)

	var o simOptions
	var so strategyOptions
	c := testCommand(t, &o, &so)
	setFlags(t, c, "catalog", catalogPath, "sales", salesPath,
		"start", "2024-05-01", "end", "2024-05-20", "seed", seed)

	var out bytes.Buffer
	require.NoError(t, executeRun(context.Background(), c, &o, &so, &out))
	return out.String()
}

// TestSeedOverride_SameSeedSameReport verifies a run is reproducible from
// its seed alone, and that the seed flag reaches the lead-time sampler.
func TestSeedOverride_SameSeedSameReport(t *testing.T) {
	// GIVEN the same inputs
	// WHEN run twice with seed 100 and once with seed 200
	a := stripWallTime(runWithSeed(t, "100"))
	b := stripWallTime(runWithSeed(t, "100"))
	c := stripWallTime(runWithSeed(t, "200"))

	// THEN equal seeds give identical reports
	assert.Equal(t, a, b)
	// AND the seed is part of the run identity
	assert.NotEqual(t, a, c)
}
