package sim

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// orderNamespace seeds deterministic order IDs. Same run, same IDs.
var orderNamespace = uuid.MustParse("5b0e7c52-3f4e-4c4b-9a57-4a1f0f6d2c11")

// OrderDecision is what a strategy asks the engine to buy.
type OrderDecision struct {
	Date        time.Time // zero means "today"
	ProductID   string
	WarehouseID string
	SupplierID  string
	Units       int64
	Reason      string
	Metadata    map[string]any
}

// Order is an accepted decision. Its TotalCost is recognized at placement,
// so orders still in transit at the end of a run are already in the cost
// counters but never in UnitsReceived.
type Order struct {
	ID          string
	ProductID   string
	WarehouseID string
	SupplierID  string
	Quantity    int64
	PlacedOn    time.Time
	ArrivesOn   time.Time

	BaseUnitCost     decimal.Decimal // product cost × supplier multiplier
	UnitCost         decimal.Decimal // after volume discount
	DiscountFraction decimal.Decimal
	ProductCost      decimal.Decimal
	ShippingCost     decimal.Decimal
	TotalCost        decimal.Decimal

	Reason   string
	Metadata map[string]any

	Arrived   bool
	ArrivedOn time.Time
}

// Discounted reports whether a tier better than the base tier applied.
func (o Order) Discounted() bool {
	return o.DiscountFraction.IsPositive()
}

// DiscountSavings is (base unit cost − resolved unit cost) × quantity.
func (o Order) DiscountSavings() decimal.Decimal {
	return o.BaseUnitCost.Sub(o.UnitCost).Mul(decimal.NewFromInt(o.Quantity))
}

// LeadTimeDays is the realized lead time in days.
func (o Order) LeadTimeDays() int {
	return int(o.ArrivesOn.Sub(o.PlacedOn).Hours() / 24)
}

func (o *Order) clone() Order {
	c := *o
	c.Metadata = maps.Clone(o.Metadata)
	return c
}

// DiscountFor returns the highest tier whose minimum is at or below qty.
// ok is false when no tier applies.
func (p Product) DiscountFor(qty int64) (tier DiscountTier, ok bool) {
	for _, t := range p.DiscountTiers {
		if t.MinQuantity > qty {
			break
		}
		tier, ok = t, true
	}
	return tier, ok
}

// ResolveUnitCost prices qty units of p bought from s.
func ResolveUnitCost(p Product, s Supplier, qty int64) (base, unit, fraction decimal.Decimal) {
	base = p.UnitCost.Mul(s.CostMultiplier)
	fraction = decimal.Zero
	if tier, ok := p.DiscountFor(qty); ok {
		fraction = tier.Fraction
	}
	unit = base.Mul(decimal.NewFromInt(1).Sub(fraction))
	return base, unit, fraction
}

// ShippingCostFunc prices the freight for one order.
type ShippingCostFunc func(p Product, s Supplier, qty int64) decimal.Decimal

// WeightBasedShipping charges weight × quantity × supplier rate per kg.
func WeightBasedShipping(p Product, s Supplier, qty int64) decimal.Decimal {
	return p.WeightKg.Mul(decimal.NewFromInt(qty)).Mul(s.ShippingCostPerKg)
}

func newOrderID(seq int, day time.Time, d OrderDecision) string {
	name := fmt.Sprintf("%d|%s|%s|%s|%s|%d", seq, day.Format(DateLayout), d.ProductID, d.WarehouseID, d.SupplierID, d.Units)
	return uuid.NewSHA1(orderNamespace, []byte(name)).String()
}
