// Package fee computes the platform fee retained on captured payments.
package fee

import (
	"github.com/shopspring/decimal"

	"github.com/cardvault/gateway/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Policy is a percentage-plus-fixed fee schedule.
// PercentRate is expressed in percent: 2.9 means 2.9%.
type Policy struct {
	PercentRate decimal.Decimal
	FixedFee    int64
}

// NewPolicy creates a Policy. Negative inputs are clamped to zero.
func NewPolicy(percentRate decimal.Decimal, fixedFee int64) Policy {
	if percentRate.IsNegative() {
		percentRate = decimal.Zero
	}
	if fixedFee < 0 {
		fixedFee = 0
	}
	return Policy{PercentRate: percentRate, FixedFee: fixedFee}
}

// Compute returns the fee in minor units for an amount in minor units.
// The owner role never pays a fee. The percentage part is rounded half up
// to a whole minor unit before the fixed part is added, so the result is
// identical on every run and across restarts.
func (p Policy) Compute(role model.Role, amount int64) int64 {
	if role == model.RoleOwner || amount <= 0 {
		return 0
	}

	pct := decimal.NewFromInt(amount).
		Mul(p.PercentRate).
		Div(hundred).
		Round(0)

	return pct.IntPart() + p.FixedFee
}
