package payments

import "math"

// CommissionMinor computes floor(amountMinor x rate). The rate is converted
// to basis points first so binary float noise cannot move the floor
// (for example 0.29 x 100 must be 29, not 28).
func CommissionMinor(amountMinor int64, rate float64) int64 {
	if amountMinor <= 0 || rate <= 0 {
		return 0
	}
	basisPoints := int64(math.Round(rate * 10000))
	if basisPoints > 10000 {
		basisPoints = 10000
	}
	return amountMinor * basisPoints / 10000
}
