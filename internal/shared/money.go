package shared

import (
	"math"

	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the tolerance for treating a monetary sum as zero.
const BalanceEpsilon = 0.01

// Round2 rounds a monetary amount to two decimal places (half up).
// All rounding goes through decimal so repeated per-line rounding stays
// stable regardless of float representation.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// MulRound2 multiplies monetary factors and rounds the product to 2dp.
func MulRound2(factors ...float64) float64 {
	out := decimal.NewFromInt(1)
	for _, f := range factors {
		out = out.Mul(decimal.NewFromFloat(f))
	}
	return out.Round(2).InexactFloat64()
}

// NearZero reports whether v is zero within BalanceEpsilon.
func NearZero(v float64) bool {
	return math.Abs(v) <= BalanceEpsilon
}
