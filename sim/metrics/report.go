// Package metrics derives KPI reports from simulation output and diffs two
// reports. Every function here is pure: same inputs, same report.
package metrics

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/supply-sim/sim"
)

// Name identifies one KPI.
type Name string

const (
	TotalRevenue            Name = "total_revenue"
	TotalCost               Name = "total_cost"
	TotalProfit             Name = "total_profit"
	ProfitMarginPct         Name = "profit_margin_pct"
	TotalLostSales          Name = "total_lost_sales"
	LostSalesPctOfPotential Name = "lost_sales_pct_of_potential"
	TotalOrders             Name = "total_orders"
	AvgOrderValue           Name = "avg_order_value"
	TotalProcurementSpend   Name = "total_procurement_spend"
	TotalShippingCost       Name = "total_shipping_cost"
	TotalHoldingCost        Name = "total_holding_cost"
	OrdersWithDiscount      Name = "orders_with_discount"
	DiscountCaptureRatePct  Name = "discount_capture_rate_pct"
	TotalDiscountSavings    Name = "total_discount_savings"
	AvgInventoryValue       Name = "avg_inventory_value"
	AvgInventoryUnits       Name = "avg_inventory_units"
	StockoutIncidents       Name = "stockout_incidents"
	StockoutRatePct         Name = "stockout_rate_pct"
	AvgOrdersPerDay         Name = "avg_orders_per_day"
	UnitsOrdered            Name = "units_ordered"
	UnitsReceived           Name = "units_received"
	OrdersInTransit         Name = "orders_in_transit"
	FillRatePct             Name = "fill_rate_pct"
	OrderValueP50           Name = "order_value_p50"
	OrderValueP95           Name = "order_value_p95"
	AvgLeadTimeDays         Name = "avg_lead_time_days"
	RejectedDecisions       Name = "rejected_decisions"
)

// Definition is one row of the fixed KPI policy table.
type Definition struct {
	Name       Name
	Category   string
	Preference Preference
}

// definitions is the canonical report order and the preference table used by
// Compare. It is policy, not inferred from the values.
var definitions = []Definition{
	{TotalRevenue, "Financial", HigherIsBetter},
	{TotalCost, "Financial", LowerIsBetter},
	{TotalProfit, "Financial", HigherIsBetter},
	{ProfitMarginPct, "Financial", HigherIsBetter},
	{TotalLostSales, "Lost Sales", LowerIsBetter},
	{LostSalesPctOfPotential, "Lost Sales", LowerIsBetter},
	{TotalOrders, "Procurement", Neutral},
	{AvgOrderValue, "Procurement", Neutral},
	{TotalProcurementSpend, "Procurement", LowerIsBetter},
	{TotalShippingCost, "Procurement", LowerIsBetter},
	{TotalHoldingCost, "Inventory", LowerIsBetter},
	{OrdersWithDiscount, "Procurement", HigherIsBetter},
	{DiscountCaptureRatePct, "Procurement", HigherIsBetter},
	{TotalDiscountSavings, "Procurement", HigherIsBetter},
	{AvgInventoryValue, "Inventory", LowerIsBetter},
	{AvgInventoryUnits, "Inventory", LowerIsBetter},
	{StockoutIncidents, "Inventory", LowerIsBetter},
	{StockoutRatePct, "Inventory", LowerIsBetter},
	{AvgOrdersPerDay, "Operations", Neutral},
	{UnitsOrdered, "Operations", Neutral},
	{UnitsReceived, "Operations", Neutral},
	{OrdersInTransit, "Operations", Neutral},
	{FillRatePct, "Operations", HigherIsBetter},
	{OrderValueP50, "Procurement", Neutral},
	{OrderValueP95, "Procurement", Neutral},
	{AvgLeadTimeDays, "Operations", LowerIsBetter},
	{RejectedDecisions, "Operations", LowerIsBetter},
}

var definitionIdx = func() map[Name]int {
	m := make(map[Name]int, len(definitions))
	for i, d := range definitions {
		m[d.Name] = i
	}
	return m
}()

// Names returns every KPI in canonical report order.
func Names() []Name {
	out := make([]Name, len(definitions))
	for i, d := range definitions {
		out[i] = d.Name
	}
	return out
}

// Lookup returns the policy row for a KPI.
func Lookup(n Name) (Definition, bool) {
	i, ok := definitionIdx[n]
	if !ok {
		return Definition{}, false
	}
	return definitions[i], true
}

// undefined is the sentinel for a ratio whose denominator is zero.
var undefined = decimal.NullDecimal{}

// Undefined is the rendered form of the undefined sentinel.
const Undefined = "undefined"

// Report is a flat KPI mapping for one run.
type Report struct {
	Strategy string
	Values   map[Name]decimal.NullDecimal
}

// Get returns the value of a KPI; missing KPIs read as undefined.
func (r *Report) Get(n Name) decimal.NullDecimal {
	return r.Values[n]
}

// Flatten renders the report as name → number string or "undefined", in a
// form suited to YAML and CSV export.
func (r *Report) Flatten() map[string]string {
	out := make(map[string]string, len(r.Values))
	for n, v := range r.Values {
		out[string(n)] = Format(v)
	}
	return out
}

// Format renders a KPI value.
func Format(v decimal.NullDecimal) string {
	if !v.Valid {
		return Undefined
	}
	return v.Decimal.String()
}

func defined(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

func count[T ~int | ~int64](n T) decimal.NullDecimal {
	return defined(decimal.NewFromInt(int64(n)))
}

// ratio returns num/den rounded to 4 places, or undefined when den is zero.
func ratio(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return undefined
	}
	return defined(num.Div(den).Round(4))
}

// pct returns num/den × 100 rounded to 4 places, or undefined when den is zero.
func pct(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return undefined
	}
	return defined(num.Mul(decimal.NewFromInt(100)).Div(den).Round(4))
}

// Calculate derives the KPI report from one run's outputs.
func Calculate(strategy string, state *sim.SimulationState, daily []sim.DailySnapshot, orders []sim.Order) *Report {
	c := state.Counters
	if replay := sim.Totals(daily); !replay.Revenue.Equal(c.Revenue) || !replay.Cost.Equal(c.Cost) {
		logrus.Warnf("daily log does not replay to final counters: revenue %s vs %s, cost %s vs %s",
			replay.Revenue, c.Revenue, replay.Cost, c.Cost)
	}

	var (
		procurement, shipping, savings decimal.Decimal
		discounted, inTransit          int
		unitsOrdered, unitsReceived    int64
		orderValues, leadTimes         []float64
	)
	for _, o := range orders {
		procurement = procurement.Add(o.ProductCost)
		shipping = shipping.Add(o.ShippingCost)
		unitsOrdered += o.Quantity
		if o.Discounted() {
			discounted++
			savings = savings.Add(o.DiscountSavings())
		}
		if o.Arrived {
			unitsReceived += o.Quantity
		} else {
			inTransit++
		}
		orderValues = append(orderValues, o.TotalCost.InexactFloat64())
		leadTimes = append(leadTimes, float64(o.LeadTimeDays()))
	}

	invValue, invUnits := decimal.Zero, decimal.Zero
	for _, d := range daily {
		invValue = invValue.Add(d.InventoryValue)
		invUnits = invUnits.Add(decimal.NewFromInt(d.InventoryUnits))
	}

	nOrders := decimal.NewFromInt(int64(len(orders)))
	nDays := decimal.NewFromInt(int64(len(daily)))
	positionDays := decimal.NewFromInt(int64(len(state.Keys()) * len(daily)))
	profit := c.Revenue.Sub(c.Cost)
	values := NewDistribution(orderValues)
	lead := NewDistribution(leadTimes)

	r := &Report{Strategy: strategy, Values: map[Name]decimal.NullDecimal{
		TotalRevenue:            defined(c.Revenue),
		TotalCost:               defined(c.Cost),
		TotalProfit:             defined(profit),
		ProfitMarginPct:         pct(profit, c.Revenue),
		TotalLostSales:          defined(c.LostSalesRevenue),
		LostSalesPctOfPotential: pct(c.LostSalesRevenue, c.Revenue.Add(c.LostSalesRevenue)),
		TotalOrders:             count(len(orders)),
		AvgOrderValue:           ratio(procurement, nOrders),
		TotalProcurementSpend:   defined(procurement),
		TotalShippingCost:       defined(shipping),
		TotalHoldingCost:        defined(c.HoldingCost),
		OrdersWithDiscount:      count(discounted),
		DiscountCaptureRatePct:  pct(decimal.NewFromInt(int64(discounted)), nOrders),
		TotalDiscountSavings:    defined(savings),
		AvgInventoryValue:       ratio(invValue, nDays),
		AvgInventoryUnits:       ratio(invUnits, nDays),
		StockoutIncidents:       count(c.StockoutIncidents),
		StockoutRatePct:         pct(decimal.NewFromInt(int64(c.StockoutIncidents)), positionDays),
		AvgOrdersPerDay:         ratio(nOrders, nDays),
		UnitsOrdered:            count(unitsOrdered),
		UnitsReceived:           count(unitsReceived),
		OrdersInTransit:         count(inTransit),
		FillRatePct:             pct(decimal.NewFromInt(c.UnitsSold), decimal.NewFromInt(c.UnitsDemanded)),
		OrderValueP50:           values.Value(values.P50),
		OrderValueP95:           values.Value(values.P95),
		AvgLeadTimeDays:         lead.Value(lead.Mean),
		RejectedDecisions:       count(len(state.Rejected)),
	}}
	return r
}

// FromResult is Calculate over a simulator Result.
func FromResult(res *sim.Result) *Report {
	return Calculate(res.Strategy, res.State, res.Daily, res.Orders)
}
