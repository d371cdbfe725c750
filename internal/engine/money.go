package engine

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 2 // bid amounts are currency values at cent precision

// amountAtLeast returns true if a meets or exceeds b.
// Uses decimal arithmetic at monetaryPrecision so that comparisons at
// exact increment boundaries never fall to floating-point error.
func amountAtLeast(a, b float64) bool {
	aDec := decimal.NewFromFloat(a).Round(monetaryPrecision)
	bDec := decimal.NewFromFloat(b).Round(monetaryPrecision)

	return aDec.GreaterThanOrEqual(bDec)
}

// amountGreater returns true if a strictly exceeds b at monetaryPrecision.
func amountGreater(a, b float64) bool {
	aDec := decimal.NewFromFloat(a).Round(monetaryPrecision)
	bDec := decimal.NewFromFloat(b).Round(monetaryPrecision)

	return aDec.GreaterThan(bDec)
}

// addAmounts returns a+b rounded to monetaryPrecision.
func addAmounts(a, b float64) float64 {
	sum := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(monetaryPrecision)
	f, _ := sum.Float64()
	return f
}

// minAmount returns the smaller of a and b.
func minAmount(a, b float64) float64 {
	if amountGreater(a, b) {
		return b
	}
	return a
}

// maxAmount returns the larger of a and b.
func maxAmount(a, b float64) float64 {
	if amountGreater(b, a) {
		return b
	}
	return a
}
