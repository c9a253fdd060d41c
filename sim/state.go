package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryKey identifies one stocking position.
type InventoryKey struct {
	ProductID   string
	WarehouseID string
}

// InventoryRecord is the mutable stock of one position. OnHand never goes
// negative: sales are clamped to it.
type InventoryRecord struct {
	OnHand      int64
	OnOrder     int64     // units placed but not yet arrived
	LastRestock time.Time // zero until the first arrival

	LostSalesUnits    int64
	LostSalesRevenue  decimal.Decimal
	StockoutIncidents int
}

// Counters are the running financial and operational totals of a run.
// Every field equals the sum of the matching DailySnapshot field.
type Counters struct {
	Revenue          decimal.Decimal
	Cost             decimal.Decimal // procurement + shipping + holding
	ProcurementSpend decimal.Decimal // product cost of placed orders
	ShippingCost     decimal.Decimal
	HoldingCost      decimal.Decimal
	DiscountSavings  decimal.Decimal
	LostSalesRevenue decimal.Decimal

	LostSalesUnits    int64
	UnitsDemanded     int64
	UnitsSold         int64
	UnitsOrdered      int64
	UnitsReceived     int64
	StockoutIncidents int
	StockoutDays      int
}

// RejectedDecision is a strategy decision the engine dropped.
type RejectedDecision struct {
	Date     time.Time
	Decision OrderDecision
	Err      error
}

// SimulationState is the exclusively owned, mutable state of one run.
// The engine mutates it in place; strategies only see it through StateView.
type SimulationState struct {
	CurrentDate time.Time
	Inventory   map[InventoryKey]*InventoryRecord
	Pending     []*Order // placement order
	Counters    Counters

	Daily    []DailySnapshot    // append-only, one per day
	Orders   []*Order           // append-only, placement order
	Rejected []RejectedDecision // append-only

	keys []InventoryKey
}

func newSimulationState(start time.Time, keys []InventoryKey) *SimulationState {
	return &SimulationState{
		CurrentDate: start,
		Inventory:   make(map[InventoryKey]*InventoryRecord, len(keys)),
		keys:        keys,
	}
}

// Keys returns every position in deterministic catalog order.
func (s *SimulationState) Keys() []InventoryKey {
	return append([]InventoryKey(nil), s.keys...)
}

// View returns a read-only view for strategies.
func (s *SimulationState) View() StateView {
	return StateView{s: s}
}

// warehouseLoad returns on hand + on order across all products in a warehouse.
func (s *SimulationState) warehouseLoad(warehouseID string) int64 {
	var total int64
	for _, k := range s.keys {
		if k.WarehouseID == warehouseID {
			r := s.Inventory[k]
			total += r.OnHand + r.OnOrder
		}
	}
	return total
}

// StateView exposes a SimulationState without letting callers mutate it.
// Every accessor returns copies.
type StateView struct {
	s *SimulationState
}

// Date is the simulated day the strategy is deciding for.
func (v StateView) Date() time.Time { return v.s.CurrentDate }

// Keys returns every position in deterministic order.
func (v StateView) Keys() []InventoryKey { return v.s.Keys() }

// Record returns a copy of the position's inventory record.
func (v StateView) Record(k InventoryKey) (InventoryRecord, bool) {
	r, ok := v.s.Inventory[k]
	if !ok {
		return InventoryRecord{}, false
	}
	return *r, true
}

// Counters returns a copy of the running totals.
func (v StateView) Counters() Counters { return v.s.Counters }

// PendingOrders returns copies of the in-flight orders.
func (v StateView) PendingOrders() []Order {
	out := make([]Order, 0, len(v.s.Pending))
	for _, o := range v.s.Pending {
		out = append(out, o.clone())
	}
	return out
}

// History returns a copy of the daily log so far (yesterday and earlier).
func (v StateView) History() []DailySnapshot {
	return append([]DailySnapshot(nil), v.s.Daily...)
}

// RemainingCapacity returns how many more units the warehouse can accept for
// the product, counting on-order units as occupying space. ok is false when
// neither a warehouse nor a per-product cap applies.
func (v StateView) RemainingCapacity(c *Catalog, k InventoryKey) (remaining int64, ok bool) {
	w, found := c.Warehouse(k.WarehouseID)
	if !found {
		return 0, false
	}
	return remainingCapacity(v.s, w, k.ProductID)
}

func remainingCapacity(s *SimulationState, w Warehouse, productID string) (int64, bool) {
	remaining, capped := int64(0), false
	if w.Capacity > 0 {
		remaining, capped = w.Capacity-s.warehouseLoad(w.ID), true
	}
	if pc := w.capacityFor(productID); pc > 0 {
		r := s.Inventory[InventoryKey{ProductID: productID, WarehouseID: w.ID}]
		left := pc - (r.OnHand + r.OnOrder)
		if !capped || left < remaining {
			remaining = left
		}
		capped = true
	}
	return max(remaining, 0), capped
}

// DailySnapshot is one row of the daily log. Flow fields are the day's
// deltas; stock fields are end-of-day levels.
type DailySnapshot struct {
	Date time.Time

	InventoryUnits      int64
	InventoryValue      decimal.Decimal // on hand × unit cost
	StockedOutPositions int             // positions ending the day at zero

	OrdersPlaced     int
	OrderValue       decimal.Decimal
	UnitsOrdered     int64
	UnitsReceived    int64
	UnitsDemanded    int64
	UnitsSold        int64
	LostSalesUnits   int64
	LostSalesRevenue decimal.Decimal

	Revenue          decimal.Decimal
	Cost             decimal.Decimal
	ProcurementSpend decimal.Decimal
	ShippingCost     decimal.Decimal
	HoldingCost      decimal.Decimal
	DiscountSavings  decimal.Decimal

	StockoutIncidents int
	Stockout          bool
	RejectedDecisions int
}
