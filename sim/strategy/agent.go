package strategy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/supply-sim/sim"
)

// DefaultMaxCalls caps advisor calls per Agent so a long replay cannot run up
// an unbounded bill.
const DefaultMaxCalls = 10

// Advice is the structured answer an Advisor returns for one position.
type Advice struct {
	Reasoning  string `json:"reasoning" jsonschema_description:"Short explanation of why to order or wait"`
	Decision   string `json:"decision" jsonschema:"enum=ORDER,enum=WAIT"`
	Quantity   int64  `json:"quantity" jsonschema_description:"Units to order; ignored when decision is WAIT"`
	SupplierID string `json:"supplier_id" jsonschema_description:"Supplier to order from; empty means the preferred supplier"`
}

// AdviceRequest is everything an Advisor sees about one position.
type AdviceRequest struct {
	Date              time.Time
	Product           sim.Product
	WarehouseID       string
	Record            sim.InventoryRecord
	Suppliers         []sim.Supplier
	RemainingCapacity int64 // meaningful only when Capped
	Capped            bool
}

// Advisor answers ORDER or WAIT for one low-stock position.
type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (Advice, error)
}

// Agent asks an Advisor about every position at or below its reorder point
// with nothing on order. It stops asking once MaxCalls advisor calls have
// been spent; an Agent is stateful, so use one per run.
type Agent struct {
	advisor  Advisor
	maxCalls int
	calls    int
	timeout  time.Duration
	warned   bool
}

// NewAgent creates an Agent with a hard budget of maxCalls advisor calls.
func NewAgent(advisor Advisor, maxCalls int) *Agent {
	return &Agent{advisor: advisor, maxCalls: maxCalls, timeout: 60 * time.Second}
}

func (a *Agent) Name() string { return "llm-agent" }

// Calls returns how many advisor calls have been spent.
func (a *Agent) Calls() int { return a.calls }

func (a *Agent) Decide(view sim.StateView, catalog *sim.Catalog) []sim.OrderDecision {
	var decisions []sim.OrderDecision
	for _, k := range view.Keys() {
		rec, ok := view.Record(k)
		if !ok || rec.OnOrder > 0 {
			continue
		}
		p, ok := catalog.Product(k.ProductID)
		if !ok || rec.OnHand > p.ReorderPoint {
			continue
		}
		if a.calls >= a.maxCalls {
			if !a.warned {
				logrus.Warnf("llm-agent: call budget of %d exhausted, no further advice this run", a.maxCalls)
				a.warned = true
			}
			return decisions
		}

		remaining, capped := view.RemainingCapacity(catalog, k)
		req := AdviceRequest{
			Date:              view.Date(),
			Product:           p,
			WarehouseID:       k.WarehouseID,
			Record:            rec,
			Suppliers:         catalog.Suppliers(),
			RemainingCapacity: remaining,
			Capped:            capped,
		}
		a.calls++
		logrus.Debugf("llm-agent: call %d/%d for %s@%s", a.calls, a.maxCalls, k.ProductID, k.WarehouseID)

		advice, err := a.ask(req)
		if err != nil {
			logrus.Warnf("llm-agent: advisor failed for %s@%s: %v", k.ProductID, k.WarehouseID, err)
			continue
		}
		if advice.Decision != "ORDER" || advice.Quantity <= 0 {
			logrus.Debugf("llm-agent: wait on %s@%s: %s", k.ProductID, k.WarehouseID, advice.Reasoning)
			continue
		}
		supplierID := advice.SupplierID
		if supplierID == "" {
			supplierID = p.SupplierID
		}
		decisions = append(decisions, sim.OrderDecision{
			ProductID:   k.ProductID,
			WarehouseID: k.WarehouseID,
			SupplierID:  supplierID,
			Units:       advice.Quantity,
			Reason:      advice.Reasoning,
			Metadata:    map[string]any{"advisor_call": a.calls},
		})
	}
	return decisions
}

func (a *Agent) ask(req AdviceRequest) (Advice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	return a.advisor.Advise(ctx, req)
}
