package trace

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalDecisions     int
	AcceptedCount      int
	RejectedCount      int
	UnitsAccepted      int64
	UniqueProducts     int
	RejectionsByReason map[string]int // rejection cause → count
	OrdersBySupplier   map[string]int // supplier ID → accepted orders
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		RejectionsByReason: make(map[string]int),
		OrdersBySupplier:   make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	products := make(map[string]struct{})
	summary.TotalDecisions = len(dt.Decisions)
	for _, d := range dt.Decisions {
		products[d.ProductID] = struct{}{}
		if d.Accepted {
			summary.AcceptedCount++
			summary.UnitsAccepted += d.Units
			summary.OrdersBySupplier[d.SupplierID]++
		} else {
			summary.RejectedCount++
			summary.RejectionsByReason[d.Reason]++
		}
	}
	summary.UniqueProducts = len(products)

	return summary
}
