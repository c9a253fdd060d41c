package metrics

import (
	"github.com/shopspring/decimal"
)

// Preference declares which way a KPI should move.
type Preference int

const (
	HigherIsBetter Preference = iota
	LowerIsBetter
	Neutral // informational; any change is reported as "changed"
)

func (p Preference) String() string {
	switch p {
	case HigherIsBetter:
		return "higher"
	case LowerIsBetter:
		return "lower"
	default:
		return "neutral"
	}
}

// Direction classifies a delta.
type Direction string

const (
	Improved      Direction = "improved"
	Worsened      Direction = "worsened"
	Unchanged     Direction = "unchanged"
	Changed       Direction = "changed"   // neutral KPI with a nonzero delta
	Indeterminate Direction = "undefined" // exactly one side undefined
)

// Delta is one row of a comparison.
type Delta struct {
	Metric    Name
	Category  string
	Baseline  decimal.NullDecimal
	Candidate decimal.NullDecimal
	Absolute  decimal.NullDecimal // candidate − baseline
	Percent   decimal.NullDecimal // absolute / |baseline| × 100
	Direction Direction
}

// Comparison is the delta report between two runs.
type Comparison struct {
	Baseline  string
	Candidate string
	Deltas    []Delta // canonical KPI order
}

// Compare diffs candidate against baseline for every KPI present in both.
// Undefined values propagate: they never abort the report.
func Compare(baseline, candidate *Report) *Comparison {
	cmp := &Comparison{Baseline: baseline.Strategy, Candidate: candidate.Strategy}
	for _, def := range definitions {
		b, inBase := baseline.Values[def.Name]
		c, inCand := candidate.Values[def.Name]
		if !inBase || !inCand {
			continue
		}
		cmp.Deltas = append(cmp.Deltas, diff(def, b, c))
	}
	return cmp
}

func diff(def Definition, b, c decimal.NullDecimal) Delta {
	d := Delta{Metric: def.Name, Category: def.Category, Baseline: b, Candidate: c}
	switch {
	case !b.Valid && !c.Valid:
		d.Direction = Unchanged
		return d
	case !b.Valid || !c.Valid:
		d.Direction = Indeterminate
		return d
	}

	abs := c.Decimal.Sub(b.Decimal)
	d.Absolute = defined(abs)
	if !b.Decimal.IsZero() {
		d.Percent = defined(abs.Mul(decimal.NewFromInt(100)).Div(b.Decimal.Abs()).Round(4))
	}

	switch {
	case abs.IsZero():
		d.Direction = Unchanged
	case def.Preference == Neutral:
		d.Direction = Changed
	case abs.IsPositive() == (def.Preference == HigherIsBetter):
		d.Direction = Improved
	default:
		d.Direction = Worsened
	}
	return d
}

// Get returns the delta for one KPI.
func (c *Comparison) Get(n Name) (Delta, bool) {
	for _, d := range c.Deltas {
		if d.Metric == n {
			return d, true
		}
	}
	return Delta{}, false
}

// Tally counts deltas per direction.
func (c *Comparison) Tally() map[Direction]int {
	out := make(map[Direction]int)
	for _, d := range c.Deltas {
		out[d.Direction]++
	}
	return out
}
