package sim

import "errors"

// ErrInvalidConfig is wrapped by every initialization failure. A run never
// starts when NewCatalog or NewSimulator returns it.
var ErrInvalidConfig = errors.New("invalid simulation configuration")

// Decision errors. A decision failing validation is dropped, recorded in the
// rejected log, and the day continues.
var (
	ErrUnknownProduct      = errors.New("unknown product")
	ErrUnknownWarehouse    = errors.New("unknown warehouse")
	ErrUnknownSupplier     = errors.New("unknown supplier")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrDecisionDate        = errors.New("decision dated for another day")
	ErrCapacityExceeded    = errors.New("quantity exceeds remaining warehouse capacity")
)

var decisionErrors = []error{
	ErrUnknownProduct, ErrUnknownWarehouse, ErrUnknownSupplier,
	ErrNonPositiveQuantity, ErrDecisionDate, ErrCapacityExceeded,
}

// RejectionCause returns the sentinel message for a decision error, so that
// rejections group by cause rather than by their formatted detail.
func RejectionCause(err error) string {
	for _, sentinel := range decisionErrors {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
