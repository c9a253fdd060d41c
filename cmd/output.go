package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/supply-sim/sim"
	"github.com/inference-sim/supply-sim/sim/experiment"
	"github.com/inference-sim/supply-sim/sim/metrics"
)

// Artifact file names inside a run directory.
const (
	reportFile     = "report.yaml"
	dailyFile      = "daily.csv"
	ordersFile     = "orders.csv"
	rejectedFile   = "rejected.csv"
	comparisonFile = "comparison.csv"
	sweepFile      = "sweep.csv"
)

// writeRunArtifacts writes the report and the three logs of one run to dir.
func writeRunArtifacts(dir string, ev *experiment.EvaluationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	if err := writeReportYAML(filepath.Join(dir, reportFile), ev); err != nil {
		return err
	}
	if err := writeDailyCSV(filepath.Join(dir, dailyFile), ev.Result.Daily); err != nil {
		return err
	}
	if err := writeOrdersCSV(filepath.Join(dir, ordersFile), ev.Result.Orders); err != nil {
		return err
	}
	return writeRejectedCSV(filepath.Join(dir, rejectedFile), ev.Result.Rejected)
}

// writeReportYAML writes the flat KPI mapping in canonical order. Defined
// values are plain YAML numbers; undefined values are the string "undefined".
func writeReportYAML(path string, ev *experiment.EvaluationResult) (err error) {
	scalar := func(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Value: v} }

	kpis := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range metrics.Names() {
		kpis.Content = append(kpis.Content, scalar(string(name)), scalar(metrics.Format(ev.Report.Get(name))))
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("run_id"), scalar(ev.RunID),
		scalar("strategy"), scalar(ev.Strategy),
		scalar("seed"), scalar(strconv.FormatInt(ev.Seed, 10)),
		scalar("metrics"), kpis,
	}}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer closeFile(f, path, &err)
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return enc.Close()
}

// closeFile closes c and reports its error through err unless an earlier
// error is already set.
func closeFile(c io.Closer, path string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer closeFile(f, path, &err)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(sim.DateLayout)
}

func itoa[T ~int | ~int64](v T) string { return strconv.FormatInt(int64(v), 10) }

func dec(d decimal.Decimal) string { return d.String() }

var dailyHeader = []string{
	"date", "inventory_units", "inventory_value", "stocked_out_positions",
	"orders_placed", "order_value", "units_ordered", "units_received",
	"units_demanded", "units_sold", "lost_sales_units", "lost_sales_revenue",
	"revenue", "cost", "procurement_spend", "shipping_cost", "holding_cost", "discount_savings",
	"stockout_incidents", "stockout", "rejected_decisions",
}

func writeDailyCSV(path string, daily []sim.DailySnapshot) error {
	rows := make([][]string, 0, len(daily))
	for _, d := range daily {
		rows = append(rows, []string{
			day(d.Date), itoa(d.InventoryUnits), dec(d.InventoryValue), itoa(d.StockedOutPositions),
			itoa(d.OrdersPlaced), dec(d.OrderValue), itoa(d.UnitsOrdered), itoa(d.UnitsReceived),
			itoa(d.UnitsDemanded), itoa(d.UnitsSold), itoa(d.LostSalesUnits), dec(d.LostSalesRevenue),
			dec(d.Revenue), dec(d.Cost), dec(d.ProcurementSpend), dec(d.ShippingCost), dec(d.HoldingCost), dec(d.DiscountSavings),
			itoa(d.StockoutIncidents), strconv.FormatBool(d.Stockout), itoa(d.RejectedDecisions),
		})
	}
	return writeCSV(path, dailyHeader, rows)
}

var ordersHeader = []string{
	"order_id", "product_id", "warehouse_id", "supplier_id", "quantity",
	"placed_on", "arrives_on", "base_unit_cost", "unit_cost", "discount",
	"product_cost", "shipping_cost", "total_cost", "arrived", "arrived_on", "reason", "metadata",
}

func writeOrdersCSV(path string, orders []sim.Order) error {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		meta := ""
		if len(o.Metadata) > 0 {
			b, err := json.Marshal(o.Metadata)
			if err != nil {
				return fmt.Errorf("order %s metadata: %w", o.ID, err)
			}
			meta = string(b)
		}
		rows = append(rows, []string{
			o.ID, o.ProductID, o.WarehouseID, o.SupplierID, itoa(o.Quantity),
			day(o.PlacedOn), day(o.ArrivesOn), dec(o.BaseUnitCost), dec(o.UnitCost), dec(o.DiscountFraction),
			dec(o.ProductCost), dec(o.ShippingCost), dec(o.TotalCost),
			strconv.FormatBool(o.Arrived), day(o.ArrivedOn), o.Reason, meta,
		})
	}
	return writeCSV(path, ordersHeader, rows)
}

var rejectedHeader = []string{"date", "product_id", "warehouse_id", "supplier_id", "units", "cause", "error"}

func writeRejectedCSV(path string, rejected []sim.RejectedDecision) error {
	rows := make([][]string, 0, len(rejected))
	for _, r := range rejected {
		d := r.Decision
		rows = append(rows, []string{
			day(r.Date), d.ProductID, d.WarehouseID, d.SupplierID, itoa(d.Units),
			sim.RejectionCause(r.Err), r.Err.Error(),
		})
	}
	return writeCSV(path, rejectedHeader, rows)
}

var comparisonHeader = []string{
	"metric", "category", "baseline", "candidate", "absolute_delta", "percent_delta", "direction",
}

func writeComparisonCSV(path string, cmp *metrics.Comparison) error {
	rows := make([][]string, 0, len(cmp.Deltas))
	for _, d := range cmp.Deltas {
		rows = append(rows, []string{
			string(d.Metric), d.Category,
			metrics.Format(d.Baseline), metrics.Format(d.Candidate),
			metrics.Format(d.Absolute), metrics.Format(d.Percent), string(d.Direction),
		})
	}
	return writeCSV(path, comparisonHeader, rows)
}

var sweepHeader = []string{"metric", "runs", "mean", "std_dev", "min", "p50", "p95", "max"}

func writeSweepCSV(path string, agg map[metrics.Name]metrics.Distribution) error {
	rows := make([][]string, 0, len(agg))
	for _, name := range metrics.Names() {
		d := agg[name]
		rows = append(rows, []string{
			string(name), itoa(d.Count),
			metrics.Format(d.Value(d.Mean)), metrics.Format(d.Value(d.StdDev)),
			metrics.Format(d.Value(d.Min)), metrics.Format(d.Value(d.P50)),
			metrics.Format(d.Value(d.P95)), metrics.Format(d.Value(d.Max)),
		})
	}
	return writeCSV(path, sweepHeader, rows)
}

// printReport writes a human-readable report to w.
func printReport(w io.Writer, ev *experiment.EvaluationResult) {
	fmt.Fprintf(w, "=== Supply Simulation Report: %s ===\n", ev.Strategy)
	fmt.Fprintf(w, "Run ID    : %s\n", ev.RunID)
	fmt.Fprintf(w, "Seed      : %d\n", ev.Seed)
	fmt.Fprintf(w, "Wall time : %s\n", ev.WallTime.Round(time.Millisecond))
	category := ""
	for _, name := range metrics.Names() {
		def, _ := metrics.Lookup(name)
		if def.Category != category {
			category = def.Category
			fmt.Fprintf(w, "\n[%s]\n", category)
		}
		fmt.Fprintf(w, "  %-30s %s\n", name, metrics.Format(ev.Report.Get(name)))
	}
	if s := ev.Summary; s != nil {
		fmt.Fprintf(w, "\n[Decisions]\n  accepted %d, rejected %d, units %d, products %d\n",
			s.AcceptedCount, s.RejectedCount, s.UnitsAccepted, s.UniqueProducts)
		for _, reason := range slices.Sorted(maps.Keys(s.RejectionsByReason)) {
			fmt.Fprintf(w, "  rejected (%s): %d\n", reason, s.RejectionsByReason[reason])
		}
	}
}

// printComparison writes the delta table and a direction tally to w.
func printComparison(w io.Writer, cmp *metrics.Comparison) {
	fmt.Fprintf(w, "=== Comparison: %s (baseline) vs %s (candidate) ===\n", cmp.Baseline, cmp.Candidate)
	fmt.Fprintf(w, "%-30s %14s %14s %14s %10s  %s\n", "metric", "baseline", "candidate", "delta", "delta %", "direction")
	fmt.Fprintln(w, strings.Repeat("-", 98))
	for _, d := range cmp.Deltas {
		fmt.Fprintf(w, "%-30s %14s %14s %14s %10s  %s\n", d.Metric,
			metrics.Format(d.Baseline), metrics.Format(d.Candidate),
			metrics.Format(d.Absolute), metrics.Format(d.Percent), d.Direction)
	}
	tally := cmp.Tally()
	fmt.Fprintf(w, "\nimproved %d, worsened %d, unchanged %d, changed %d, undefined %d\n",
		tally[metrics.Improved], tally[metrics.Worsened], tally[metrics.Unchanged],
		tally[metrics.Changed], tally[metrics.Indeterminate])
}

// printSweep writes the per-KPI spread across seeds to w.
func printSweep(w io.Writer, agg map[metrics.Name]metrics.Distribution) {
	fmt.Fprintf(w, "%-30s %5s %14s %14s %14s %14s\n", "metric", "runs", "mean", "std_dev", "min", "max")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, name := range metrics.Names() {
		d := agg[name]
		fmt.Fprintf(w, "%-30s %5d %14s %14s %14s %14s\n", name, d.Count,
			metrics.Format(d.Value(d.Mean)), metrics.Format(d.Value(d.StdDev)),
			metrics.Format(d.Value(d.Min)), metrics.Format(d.Value(d.Max)))
	}
}
