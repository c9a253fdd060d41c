package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
products:
  - id: P1
    unit_cost: 4
    unit_price: 9
    base_demand_daily: 10
    supply_days_target: 2
    reorder_point: 8
    supplier_id: S1
    discount_tiers:
      - min_quantity: 20
        discount: 0.1
suppliers:
  - id: S1
    lead_time_days: 2
    reliability: 1
warehouses:
  - id: W1
    holding_cost_per_unit_day: 0.01
`

const testSalesCSV = `date,product_id,warehouse_id,quantity,unit_price
2024-05-01,P1,W1,7,
2024-05-02,P1,W1,9,
2024-05-03,P1,W1,6,9.5
2024-05-04,P1,W1,8,
2024-05-05,P1,W1,12,
2024-05-09,P1,W1,3,
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testCommand registers the shared flags on a throwaway command so tests can
// mark flags as explicitly set without touching the package-level commands.
func testCommand(t *testing.T, o *simOptions, strategies ...*strategyOptions) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	o.register(c)
	names := []string{"strategy", "candidate"}
	for i, so := range strategies {
		so.register(c, names[i], "reorder-point", "test strategy")
	}
	return c
}

func setFlags(t *testing.T, c *cobra.Command, kv ...string) {
	t.Helper()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, c.Flags().Set(kv[i], kv[i+1]))
	}
}

// inputFiles writes the test catalog and sales into a temp dir.
func inputFiles(t *testing.T) (dir, catalogPath, salesPath string) {
	t.Helper()
	dir = t.TempDir()
	return dir, writeFile(t, dir, "catalog.yaml", testCatalogYAML), writeFile(t, dir, "sales.csv", testSalesCSV)
}
