package clob

import "github.com/shopspring/decimal"

// TickScale expresses how many decimal places one integer tick represents.
// Exponent 4 means one tick equals 0.0001 currency units. The matching path
// never sees a TickScale or a decimal.Decimal — resting order state, trade
// prices, and the ladders are always integer ticks, per the book's single
// invariant that every comparison is an exact integer compare. TickScale
// exists purely for the reporting/diagnostics boundary: turning a trade or
// quote back into a human currency value.
type TickScale struct {
	Exponent int32
}

// ToDecimal converts a raw tick count into a decimal currency amount.
func (ts TickScale) ToDecimal(ticks int64) decimal.Decimal {
	return decimal.New(ticks, -ts.Exponent)
}

// Notional computes price * qty as a decimal currency value for metrics
// and display, reached through Engine.Notional. It is never called from
// Matcher.run or any other matching-path code.
func Notional(ts TickScale, price int64, qty uint64) decimal.Decimal {
	p := ts.ToDecimal(price)
	q := decimal.NewFromInt(int64(qty))
	return p.Mul(q)
}
