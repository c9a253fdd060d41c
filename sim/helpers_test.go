package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/supply-sim/sim/internal/testutil"
	"github.com/inference-sim/supply-sim/sim/trace"
)

// testProduct returns P1: cost 10, price 15, 10 units of initial stock,
// tiers 0% from 0 units, 5% at 100 and 12% at 500.
func testProduct(t *testing.T) Product {
	t.Helper()
	return Product{
		ID:        "P1",
		UnitCost:  testutil.Dec(t, "10"),
		UnitPrice: testutil.Dec(t, "15"),
		DiscountTiers: []DiscountTier{
			{MinQuantity: 0, Fraction: decimal.Zero},
			{MinQuantity: 100, Fraction: testutil.Dec(t, "0.05")},
			{MinQuantity: 500, Fraction: testutil.Dec(t, "0.12")},
		},
		WeightKg:         decimal.Zero,
		BaseDemandDaily:  10,
		SupplyDaysTarget: 1,
		SupplierID:       "S1",
	}
}

// testSupplier returns S1: lead time 3 days, no jitter, always on time.
func testSupplier() Supplier {
	return Supplier{ID: "S1", LeadTimeDays: 3, Reliability: 1, CostMultiplier: decimal.NewFromInt(1)}
}

func testWarehouse() Warehouse {
	return Warehouse{ID: "W1"}
}

func mustCatalog(t *testing.T, products []Product, suppliers []Supplier, warehouses []Warehouse) *Catalog {
	t.Helper()
	c, err := NewCatalog(products, suppliers, warehouses)
	require.NoError(t, err)
	return c
}

func singleCatalog(t *testing.T) *Catalog {
	t.Helper()
	return mustCatalog(t, []Product{testProduct(t)}, []Supplier{testSupplier()}, []Warehouse{testWarehouse()})
}

func testConfig(t *testing.T, start, end string) Config {
	t.Helper()
	cfg := DefaultConfig(testutil.Date(t, start), testutil.Date(t, end))
	cfg.EnableHoldingCost = false
	cfg.TraceLevel = trace.TraceLevelDecisions
	return cfg
}

func mustSimulator(t *testing.T, c *Catalog, sales []Sale, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(c, sales, cfg, opts...)
	require.NoError(t, err)
	return s
}

func sale(t *testing.T, date string, qty int64) Sale {
	t.Helper()
	return Sale{Date: testutil.Date(t, date), ProductID: "P1", WarehouseID: "W1", Quantity: qty}
}

// scheduled returns a strategy that emits the given decisions on the given
// days and nothing otherwise.
func scheduled(plan map[string][]OrderDecision) Strategy {
	return NamedStrategy("scheduled", func(view StateView, _ *Catalog) []OrderDecision {
		return plan[view.Date().Format(DateLayout)]
	})
}

func buy(units int64) OrderDecision {
	return OrderDecision{ProductID: "P1", WarehouseID: "W1", SupplierID: "S1", Units: units}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	return testutil.Date(t, s)
}

func assertCountersEqual(t *testing.T, want, got Counters) {
	t.Helper()
	testutil.AssertDecimalEqual(t, "Revenue", want.Revenue, got.Revenue)
	testutil.AssertDecimalEqual(t, "Cost", want.Cost, got.Cost)
	testutil.AssertDecimalEqual(t, "ProcurementSpend", want.ProcurementSpend, got.ProcurementSpend)
	testutil.AssertDecimalEqual(t, "ShippingCost", want.ShippingCost, got.ShippingCost)
	testutil.AssertDecimalEqual(t, "HoldingCost", want.HoldingCost, got.HoldingCost)
	testutil.AssertDecimalEqual(t, "DiscountSavings", want.DiscountSavings, got.DiscountSavings)
	testutil.AssertDecimalEqual(t, "LostSalesRevenue", want.LostSalesRevenue, got.LostSalesRevenue)
	if want.LostSalesUnits != got.LostSalesUnits || want.UnitsDemanded != got.UnitsDemanded ||
		want.UnitsSold != got.UnitsSold || want.UnitsOrdered != got.UnitsOrdered ||
		want.UnitsReceived != got.UnitsReceived || want.StockoutIncidents != got.StockoutIncidents ||
		want.StockoutDays != got.StockoutDays {
		t.Errorf("integer counters differ:\nwant %+v\ngot  %+v", want, got)
	}
}
