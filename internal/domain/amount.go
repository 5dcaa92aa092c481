package domain

import "github.com/shopspring/decimal"

// maxBalance bounds every account figure to the coefficient range of a
// 96-bit fixed decimal, so balances stay within what downstream fixed
// precision systems can represent. Additions past the bound are rejected,
// never wrapped.
var maxBalance = decimal.RequireFromString("79228162514264337593543950335")

// checkedAdd returns a+b, or ok=false if the result would leave the
// representable balance range.
func checkedAdd(a, b decimal.Decimal) (decimal.Decimal, bool) {
	sum := a.Add(b)
	if sum.Abs().GreaterThan(maxBalance) {
		return decimal.Decimal{}, false
	}
	return sum, true
}

// checkedSub returns a-b with the same range check as checkedAdd.
func checkedSub(a, b decimal.Decimal) (decimal.Decimal, bool) {
	return checkedAdd(a, b.Neg())
}
