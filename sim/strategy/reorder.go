package strategy

import (
	"fmt"
	"math"

	"github.com/inference-sim/supply-sim/sim"
)

// ReorderPoint is the rule-based baseline: when a position's on-hand stock is
// at or below the product's reorder point and nothing is on order, buy
// BaseDemandDaily × SupplyDaysTarget × OrderMultiplier units from the
// product's preferred supplier.
type ReorderPoint struct {
	OrderMultiplier float64
	RespectCasePack bool // round quantities up to whole case packs
}

// NewReorderPoint returns the baseline with its usual parameters.
func NewReorderPoint() *ReorderPoint {
	return &ReorderPoint{OrderMultiplier: 1.2, RespectCasePack: true}
}

func (r *ReorderPoint) Name() string { return "reorder-point" }

func (r *ReorderPoint) Decide(view sim.StateView, catalog *sim.Catalog) []sim.OrderDecision {
	var decisions []sim.OrderDecision
	for _, k := range view.Keys() {
		rec, ok := view.Record(k)
		if !ok || rec.OnOrder > 0 {
			continue
		}
		p, ok := catalog.Product(k.ProductID)
		if !ok || p.SupplierID == "" || rec.OnHand > p.ReorderPoint {
			continue
		}

		qty := r.quantity(p)
		if remaining, capped := view.RemainingCapacity(catalog, k); capped && qty > remaining {
			qty = remaining
			if r.RespectCasePack && p.CasePack > 0 {
				qty -= qty % p.CasePack
			}
		}
		if qty <= 0 {
			continue
		}
		decisions = append(decisions, sim.OrderDecision{
			ProductID:   k.ProductID,
			WarehouseID: k.WarehouseID,
			SupplierID:  p.SupplierID,
			Units:       qty,
			Reason:      "reorder_point_triggered",
			Metadata: map[string]any{
				"reorder_point": p.ReorderPoint,
				"inventory":     rec.OnHand,
			},
		})
	}
	return decisions
}

func (r *ReorderPoint) quantity(p sim.Product) int64 {
	qty := int64(p.BaseDemandDaily * float64(p.SupplyDaysTarget) * r.OrderMultiplier)
	if r.RespectCasePack && p.CasePack > 0 && qty%p.CasePack != 0 {
		qty = int64(math.Ceil(float64(qty)/float64(p.CasePack))) * p.CasePack
	}
	return qty
}

// String describes the parameters for logs.
func (r *ReorderPoint) String() string {
	return fmt.Sprintf("reorder-point(multiplier=%.2f, case_pack=%t)", r.OrderMultiplier, r.RespectCasePack)
}
