package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/inference-sim/supply-sim/sim/trace"
)

// DateLayout is the calendar-day format used by configs, loaders and exports.
const DateLayout = "2006-01-02"

// Config groups the recognized run options.
type Config struct {
	StartDate                  time.Time // first simulated day
	EndDate                    time.Time // last simulated day, inclusive
	InitialInventoryMultiplier float64   // scales each product's baseline stock
	Seed                       int64     // master seed for PartitionedRNG
	EnableStockoutPenalty      bool      // record stockout incidents
	EnableHoldingCost          bool      // accrue per-unit-per-day holding cost
	TraceLevel                 trace.TraceLevel
}

// DefaultConfig returns the standard run options: multiplier 1,
// seed 42, both penalty flags on.
func DefaultConfig(start, end time.Time) Config {
	return Config{
		StartDate:                  start,
		EndDate:                    end,
		InitialInventoryMultiplier: 1.0,
		Seed:                       42,
		EnableStockoutPenalty:      true,
		EnableHoldingCost:          true,
		TraceLevel:                 trace.TraceLevelNone,
	}
}

// Validate reports configuration errors. All errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required: %w", ErrInvalidConfig)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s before start date %s: %w",
			c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout), ErrInvalidConfig)
	}
	if math.IsNaN(c.InitialInventoryMultiplier) || math.IsInf(c.InitialInventoryMultiplier, 0) {
		return fmt.Errorf("initial inventory multiplier must be finite, got %f: %w",
			c.InitialInventoryMultiplier, ErrInvalidConfig)
	}
	if c.InitialInventoryMultiplier < 0 {
		return fmt.Errorf("initial inventory multiplier must be non-negative, got %f: %w",
			c.InitialInventoryMultiplier, ErrInvalidConfig)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q: %w", c.TraceLevel, ErrInvalidConfig)
	}
	return nil
}

// Days returns every calendar day from StartDate to EndDate inclusive, each
// truncated to midnight UTC.
func (c Config) Days() []time.Time {
	start, end := Day(c.StartDate), Day(c.EndDate)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a DateLayout string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
