// sim/simulator.go
package sim

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/supply-sim/sim/trace"
)

// Option customizes a Simulator.
type Option func(*Simulator)

// WithShipping replaces the default weight-based freight policy.
func WithShipping(f ShippingCostFunc) Option {
	return func(s *Simulator) { s.shipping = f }
}

// Simulator replays the sales stream day by day against a strategy.
// It is immutable after construction: every Run builds its own state and
// RNG, so independent runs may execute concurrently on one Simulator.
type Simulator struct {
	config     Config
	catalog    *Catalog
	days       []time.Time
	sales      map[string][]Sale // day (DateLayout) → transactions in input order
	salesCount int
	shipping   ShippingCostFunc
}

// Result is everything one run produces.
type Result struct {
	Strategy string
	State    *SimulationState
	Daily    []DailySnapshot
	Orders   []Order
	Rejected []RejectedDecision
	Trace    *trace.DecisionTrace // nil unless the trace level is "decisions"
}

// NewSimulator validates the configuration and indexes the sales stream.
// Sales outside the configured range are ignored. Every error wraps
// ErrInvalidConfig.
func NewSimulator(catalog *Catalog, sales []Sale, cfg Config, opts ...Option) (*Simulator, error) {
	if catalog == nil {
		return nil, fmt.Errorf("nil catalog: %w", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		config:   cfg,
		catalog:  catalog,
		days:     cfg.Days(),
		sales:    make(map[string][]Sale),
		shipping: WeightBasedShipping,
	}
	for _, opt := range opts {
		opt(s)
	}

	start, end := s.days[0], s.days[len(s.days)-1]
	for i, sale := range sales {
		if _, ok := catalog.Product(sale.ProductID); !ok {
			return nil, fmt.Errorf("sale %d references unknown product %q: %w", i, sale.ProductID, ErrInvalidConfig)
		}
		if _, ok := catalog.Warehouse(sale.WarehouseID); !ok {
			return nil, fmt.Errorf("sale %d references unknown warehouse %q: %w", i, sale.WarehouseID, ErrInvalidConfig)
		}
		if sale.Quantity < 0 || (sale.UnitPrice.Valid && sale.UnitPrice.Decimal.IsNegative()) {
			return nil, fmt.Errorf("sale %d has negative quantity or price: %w", i, ErrInvalidConfig)
		}
		day := Day(sale.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		key := day.Format(DateLayout)
		s.sales[key] = append(s.sales[key], sale)
		s.salesCount++
	}

	if err := s.checkInitialCapacity(); err != nil {
		return nil, err
	}

	logrus.Infof("Simulator initialized: %s to %s (%d days), %d sales, %d products, %d warehouses",
		start.Format(DateLayout), end.Format(DateLayout), len(s.days), s.salesCount,
		len(catalog.products), len(catalog.warehouses))
	return s, nil
}

// checkInitialCapacity rejects a starting position that already overflows a
// warehouse; the engine never lets stock exceed capacity afterwards.
func (s *Simulator) checkInitialCapacity() error {
	mult := s.config.InitialInventoryMultiplier
	for _, w := range s.catalog.warehouses {
		var total int64
		for _, p := range s.catalog.products {
			raw := p.BaseDemandDaily * float64(p.SupplyDaysTarget) * mult
			if math.IsNaN(raw) || raw >= math.MaxInt64 {
				return fmt.Errorf("initial stock of %q is out of range (%g units): %w", p.ID, raw, ErrInvalidConfig)
			}
			stock := p.InitialStock(mult)
			if stock > math.MaxInt64-total {
				return fmt.Errorf("initial stock in %q overflows: %w", w.ID, ErrInvalidConfig)
			}
			total += stock
			if pc := w.capacityFor(p.ID); pc > 0 && stock > pc {
				return fmt.Errorf("initial stock %d of %q exceeds its cap %d in %q: %w", stock, p.ID, pc, w.ID, ErrInvalidConfig)
			}
		}
		if w.Capacity > 0 && total > w.Capacity {
			return fmt.Errorf("initial stock %d exceeds capacity %d of %q: %w", total, w.Capacity, w.ID, ErrInvalidConfig)
		}
	}
	return nil
}

// Config returns the run configuration.
func (s *Simulator) Config() Config { return s.config }

// Catalog returns the catalog the simulator was built with.
func (s *Simulator) Catalog() *Catalog { return s.catalog }

// Days returns the simulated calendar.
func (s *Simulator) Days() []time.Time { return append([]time.Time(nil), s.days...) }

// Sales returns the in-range sales, by day and then input order.
func (s *Simulator) Sales() []Sale {
	out := make([]Sale, 0, s.salesCount)
	for _, d := range s.days {
		out = append(out, s.sales[d.Format(DateLayout)]...)
	}
	return out
}

func (s *Simulator) initialState() *SimulationState {
	state := newSimulationState(s.days[0], s.catalog.Positions())
	for _, k := range state.keys {
		p, _ := s.catalog.Product(k.ProductID)
		state.Inventory[k] = &InventoryRecord{OnHand: p.InitialStock(s.config.InitialInventoryMultiplier)}
	}
	return state
}

// Run simulates every configured day in order. Each day runs holding
// accrual, arrivals, sales, ordering and the snapshot, strictly in that
// order: stock arriving today can serve today's demand, and today's
// decisions see post-sales inventory.
func (s *Simulator) Run(strategy Strategy) *Result {
	state := s.initialState()
	rng := NewPartitionedRNG(NewSimulationKey(s.config.Seed))
	var tr *trace.DecisionTrace
	if s.config.TraceLevel.Enabled() {
		tr = trace.NewDecisionTrace(s.config.TraceLevel)
	}

	logrus.Infof("Running strategy %q over %d days (seed=%d)", strategy.Name(), len(s.days), s.config.Seed)

	for idx, day := range s.days {
		state.CurrentDate = day
		if idx%100 == 0 {
			logrus.Infof("[day %04d/%04d] %s", idx+1, len(s.days), day.Format(DateLayout))
		} else {
			logrus.Debugf("[day %04d/%04d] %s", idx+1, len(s.days), day.Format(DateLayout))
		}

		snap := DailySnapshot{Date: day}
		s.accrueHolding(state, &snap)
		s.processArrivals(state, &snap)
		s.processSales(state, &snap)
		s.processOrdering(state, strategy, rng, tr, &snap)
		s.closeDay(state, &snap)
		state.Daily = append(state.Daily, snap)
	}

	c := state.Counters
	logrus.Infof("Simulation complete: revenue=%s cost=%s lost=%s stockouts=%d orders=%d rejected=%d",
		c.Revenue.StringFixed(2), c.Cost.StringFixed(2), c.LostSalesRevenue.StringFixed(2),
		c.StockoutIncidents, len(state.Orders), len(state.Rejected))

	orders := make([]Order, 0, len(state.Orders))
	for _, o := range state.Orders {
		orders = append(orders, o.clone())
	}
	return &Result{
		Strategy: strategy.Name(),
		State:    state,
		Daily:    append([]DailySnapshot(nil), state.Daily...),
		Orders:   orders,
		Rejected: append([]RejectedDecision(nil), state.Rejected...),
		Trace:    tr,
	}
}

// accrueHolding charges yesterday's closing stock before any of today's
// movements.
func (s *Simulator) accrueHolding(state *SimulationState, snap *DailySnapshot) {
	if !s.config.EnableHoldingCost {
		return
	}
	cost := decimal.Zero
	for _, k := range state.keys {
		w, _ := s.catalog.Warehouse(k.WarehouseID)
		if w.HoldingCostPerUnitDay.IsZero() {
			continue
		}
		cost = cost.Add(w.HoldingCostPerUnitDay.Mul(decimal.NewFromInt(state.Inventory[k].OnHand)))
	}
	snap.HoldingCost = cost
	snap.Cost = snap.Cost.Add(cost)
	state.Counters.HoldingCost = state.Counters.HoldingCost.Add(cost)
	state.Counters.Cost = state.Counters.Cost.Add(cost)
}

func (s *Simulator) processArrivals(state *SimulationState, snap *DailySnapshot) {
	day := state.CurrentDate
	remaining := state.Pending[:0]
	for _, o := range state.Pending {
		if o.ArrivesOn.After(day) {
			remaining = append(remaining, o)
			continue
		}
		rec := state.Inventory[InventoryKey{ProductID: o.ProductID, WarehouseID: o.WarehouseID}]
		rec.OnHand += o.Quantity
		rec.OnOrder -= o.Quantity
		rec.LastRestock = day
		o.Arrived = true
		o.ArrivedOn = day
		snap.UnitsReceived += o.Quantity
		state.Counters.UnitsReceived += o.Quantity
		logrus.Debugf("[%s] order %s arrived: %d x %s at %s", day.Format(DateLayout), o.ID, o.Quantity, o.ProductID, o.WarehouseID)
	}
	clear(state.Pending[len(remaining):])
	state.Pending = remaining
}

func (s *Simulator) processSales(state *SimulationState, snap *DailySnapshot) {
	short := make(map[InventoryKey]bool)
	c := &state.Counters
	for _, sale := range s.sales[state.CurrentDate.Format(DateLayout)] {
		k := InventoryKey{ProductID: sale.ProductID, WarehouseID: sale.WarehouseID}
		rec := state.Inventory[k]
		price := sale.UnitPrice.Decimal
		if !sale.UnitPrice.Valid {
			p, _ := s.catalog.Product(sale.ProductID)
			price = p.UnitPrice
		}

		fulfilled := min(sale.Quantity, rec.OnHand)
		rec.OnHand -= fulfilled
		revenue := price.Mul(decimal.NewFromInt(fulfilled))

		snap.UnitsDemanded += sale.Quantity
		snap.UnitsSold += fulfilled
		snap.Revenue = snap.Revenue.Add(revenue)
		c.UnitsDemanded += sale.Quantity
		c.UnitsSold += fulfilled
		c.Revenue = c.Revenue.Add(revenue)

		shortfall := sale.Quantity - fulfilled
		if shortfall == 0 {
			continue
		}
		lost := price.Mul(decimal.NewFromInt(shortfall))
		rec.LostSalesUnits += shortfall
		rec.LostSalesRevenue = rec.LostSalesRevenue.Add(lost)
		snap.LostSalesUnits += shortfall
		snap.LostSalesRevenue = snap.LostSalesRevenue.Add(lost)
		c.LostSalesUnits += shortfall
		c.LostSalesRevenue = c.LostSalesRevenue.Add(lost)

		if s.config.EnableStockoutPenalty && !short[k] {
			short[k] = true
			rec.StockoutIncidents++
			snap.StockoutIncidents++
			c.StockoutIncidents++
		}
	}
	if snap.StockoutIncidents > 0 {
		snap.Stockout = true
		c.StockoutDays++
	}
}

func (s *Simulator) processOrdering(state *SimulationState, strategy Strategy, rng *PartitionedRNG, tr *trace.DecisionTrace, snap *DailySnapshot) {
	day := state.CurrentDate
	for _, d := range strategy.Decide(state.View(), s.catalog) {
		o, err := s.placeOrder(state, rng, d)
		if err != nil {
			state.Rejected = append(state.Rejected, RejectedDecision{Date: day, Decision: d, Err: err})
			snap.RejectedDecisions++
			logrus.Debugf("[%s] rejected decision %s/%s x%d from %q: %v",
				day.Format(DateLayout), d.ProductID, d.WarehouseID, d.Units, d.SupplierID, err)
			if tr != nil {
				tr.Record(trace.DecisionRecord{Date: day, ProductID: d.ProductID, WarehouseID: d.WarehouseID,
					SupplierID: d.SupplierID, Units: d.Units, Reason: RejectionCause(err)})
			}
			continue
		}

		snap.OrdersPlaced++
		snap.OrderValue = snap.OrderValue.Add(o.TotalCost)
		snap.UnitsOrdered += o.Quantity
		snap.ProcurementSpend = snap.ProcurementSpend.Add(o.ProductCost)
		snap.ShippingCost = snap.ShippingCost.Add(o.ShippingCost)
		snap.DiscountSavings = snap.DiscountSavings.Add(o.DiscountSavings())
		snap.Cost = snap.Cost.Add(o.TotalCost)
		if tr != nil {
			tr.Record(trace.DecisionRecord{Date: day, ProductID: o.ProductID, WarehouseID: o.WarehouseID,
				SupplierID: o.SupplierID, Units: o.Quantity, Accepted: true, OrderID: o.ID, Reason: o.Reason})
		}
	}
}

// placeOrder validates one decision and, if valid, books it.
func (s *Simulator) placeOrder(state *SimulationState, rng *PartitionedRNG, d OrderDecision) (*Order, error) {
	day := state.CurrentDate
	p, ok := s.catalog.Product(d.ProductID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProduct, d.ProductID)
	}
	w, ok := s.catalog.Warehouse(d.WarehouseID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWarehouse, d.WarehouseID)
	}
	sup, ok := s.catalog.Supplier(d.SupplierID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSupplier, d.SupplierID)
	}
	if d.Units <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNonPositiveQuantity, d.Units)
	}
	if !d.Date.IsZero() && !Day(d.Date).Equal(day) {
		return nil, fmt.Errorf("%w: %s on %s", ErrDecisionDate, d.Date.Format(DateLayout), day.Format(DateLayout))
	}
	if remaining, capped := remainingCapacity(state, w, p.ID); capped && d.Units > remaining {
		return nil, fmt.Errorf("%w: %d requested, %d left in %q", ErrCapacityExceeded, d.Units, remaining, w.ID)
	}

	base, unit, fraction := ResolveUnitCost(p, sup, d.Units)
	qty := decimal.NewFromInt(d.Units)
	productCost := unit.Mul(qty)
	shipping := s.shipping(p, sup, d.Units)
	o := &Order{
		ID:               newOrderID(len(state.Orders), day, d),
		ProductID:        p.ID,
		WarehouseID:      w.ID,
		SupplierID:       sup.ID,
		Quantity:         d.Units,
		PlacedOn:         day,
		ArrivesOn:        day.AddDate(0, 0, s.sampleLeadTime(sup, rng)),
		BaseUnitCost:     base,
		UnitCost:         unit,
		DiscountFraction: fraction,
		ProductCost:      productCost,
		ShippingCost:     shipping,
		TotalCost:        productCost.Add(shipping),
		Reason:           d.Reason,
		Metadata:         maps.Clone(d.Metadata),
	}

	state.Inventory[InventoryKey{ProductID: p.ID, WarehouseID: w.ID}].OnOrder += d.Units
	state.Pending = append(state.Pending, o)
	state.Orders = append(state.Orders, o)

	c := &state.Counters
	c.Cost = c.Cost.Add(o.TotalCost)
	c.ProcurementSpend = c.ProcurementSpend.Add(productCost)
	c.ShippingCost = c.ShippingCost.Add(shipping)
	c.DiscountSavings = c.DiscountSavings.Add(o.DiscountSavings())
	c.UnitsOrdered += d.Units
	return o, nil
}

// sampleLeadTime draws the realized lead time. With zero std dev and full
// reliability it is exactly the supplier's nominal lead time.
func (s *Simulator) sampleLeadTime(sup Supplier, rng *PartitionedRNG) int {
	lt := sup.LeadTimeDays
	if sup.LeadTimeStdDev > 0 {
		jitter := rng.ForSubsystem(SubsystemLeadTime).NormFloat64() * sup.LeadTimeStdDev
		lt = int(math.Round(float64(sup.LeadTimeDays) + jitter))
	}
	reliability := rng.ForSubsystem(SubsystemReliability)
	if reliability.Float64() > sup.Reliability {
		lt += 2 + reliability.Intn(5)
	}
	return max(lt, 1)
}

func (s *Simulator) closeDay(state *SimulationState, snap *DailySnapshot) {
	value := decimal.Zero
	for _, k := range state.keys {
		rec := state.Inventory[k]
		snap.InventoryUnits += rec.OnHand
		if rec.OnHand == 0 {
			snap.StockedOutPositions++
			continue
		}
		p, _ := s.catalog.Product(k.ProductID)
		value = value.Add(p.UnitCost.Mul(decimal.NewFromInt(rec.OnHand)))
	}
	snap.InventoryValue = value
}

// Totals replays a daily log into running counters. For any Result,
// Totals(r.Daily) equals r.State.Counters in every flow field.
func Totals(daily []DailySnapshot) Counters {
	var c Counters
	for _, d := range daily {
		c.Revenue = c.Revenue.Add(d.Revenue)
		c.Cost = c.Cost.Add(d.Cost)
		c.ProcurementSpend = c.ProcurementSpend.Add(d.ProcurementSpend)
		c.ShippingCost = c.ShippingCost.Add(d.ShippingCost)
		c.HoldingCost = c.HoldingCost.Add(d.HoldingCost)
		c.DiscountSavings = c.DiscountSavings.Add(d.DiscountSavings)
		c.LostSalesRevenue = c.LostSalesRevenue.Add(d.LostSalesRevenue)
		c.LostSalesUnits += d.LostSalesUnits
		c.UnitsDemanded += d.UnitsDemanded
		c.UnitsSold += d.UnitsSold
		c.UnitsOrdered += d.UnitsOrdered
		c.UnitsReceived += d.UnitsReceived
		c.StockoutIncidents += d.StockoutIncidents
		if d.Stockout {
			c.StockoutDays++
		}
	}
	return c
}
