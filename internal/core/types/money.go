// Package types provides common value types for stock computations.
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Unit costs and stock values use decimal.Decimal so that the weighted
// average cost ledger carries no intermediate rounding; display rounding
// belongs to the presentation layer.
type Money = decimal.Decimal

// NewMoneyFromInt creates a Money value from an integer amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// One returns Money value 1, the default exchange rate.
func One() Money {
	return decimal.NewFromInt(1)
}

// ThresholdPrecision is the fixed decimal precision applied to stock
// threshold outputs (security, minimum, maximum) before they are returned.
const ThresholdPrecision = 2

// RoundThreshold rounds a stock threshold to ThresholdPrecision places.
func RoundThreshold(v float64) float64 {
	pow := math.Pow10(ThresholdPrecision)
	return math.Round(v*pow) / pow
}
