// Package testutil provides shared assertion helpers for the simulator's
// test packages. It must not import sim so that sim's own tests can use it.
package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// Date parses a YYYY-MM-DD literal as a UTC day.
func Date(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date literal %q: %v", s, err)
	}
	return d
}

// AssertDecimalEqual compares two decimals numerically, so "1.50" equals "1.5".
func AssertDecimalEqual(t testing.TB, name string, want, got decimal.Decimal) {
	t.Helper()
	if !want.Equal(got) {
		t.Errorf("%s: got %s, want %s", name, got, want)
	}
}

// AssertUndefined fails unless v is the undefined sentinel.
func AssertUndefined(t testing.TB, name string, v decimal.NullDecimal) {
	t.Helper()
	if v.Valid {
		t.Errorf("%s: got %s, want undefined", name, v.Decimal)
	}
}

// AssertDefined fails unless v is defined and numerically equal to want.
func AssertDefined(t testing.TB, name string, want string, v decimal.NullDecimal) {
	t.Helper()
	if !v.Valid {
		t.Errorf("%s: got undefined, want %s", name, want)
		return
	}
	AssertDecimalEqual(t, name, Dec(t, want), v.Decimal)
}
