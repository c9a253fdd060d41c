// Package trace provides decision-trace recording for ordering-strategy analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

import "time"

// DecisionRecord captures one strategy decision and what the engine did with it.
type DecisionRecord struct {
	Date        time.Time
	ProductID   string
	WarehouseID string
	SupplierID  string
	Units       int64
	Accepted    bool
	OrderID     string // empty when rejected
	Reason      string // strategy reason when accepted, rejection cause otherwise
}
