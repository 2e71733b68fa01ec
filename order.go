package clob

// Side identifies which book an order rests on or takes against.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Kind is the order type understood by the matcher.
type Kind uint8

const (
	KindLimit Kind = iota
	KindMarket
	KindIceberg
	KindStopLoss
)

func (k Kind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindMarket:
		return "market"
	case KindIceberg:
		return "iceberg"
	case KindStopLoss:
		return "stop_loss"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of an Order as seen by OnOrderUpdate.
type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
	StatusPending // resting in the StopBook, not yet triggered
)

// Order is the entity described in spec §3. It is created on acceptance,
// mutated exclusively by the Engine's consumer goroutine, and never
// shared mutably across threads: producers only ever see a freshly
// minted order id, never an *Order.
type Order struct {
	ID        uint64
	Timestamp uint64 // engine-assigned at the serialization point
	Side      Side
	Kind      Kind
	Price     int64 // ignored for Market; limit/trigger-converted price otherwise
	Qty       uint64
	Remaining uint64
	Status    Status

	// Iceberg state. DisplayNow + Hidden == Remaining for every resting
	// iceberg; an iceberg taker's split can drift while it fills and is
	// recomputed by the matcher before it rests.
	DisplayTotal uint64
	DisplayNow   uint64
	Hidden       uint64

	// Stop-loss state.
	TriggerPrice int64
	LimitPrice   int64
	Triggered    bool
}

// VisibleQty is the quantity a maker offers to an incoming taker: the full
// remaining quantity for ordinary orders, or the currently displayed slice
// for an iceberg.
func (o *Order) VisibleQty() uint64 {
	if o.Kind == KindIceberg {
		return o.DisplayNow
	}
	return o.Remaining
}

// IsFullyFilled reports whether the order has no remaining quantity.
func (o *Order) IsFullyFilled() bool {
	return o.Remaining == 0
}

// IsResting reports whether the order currently holds book inventory.
func (o *Order) IsResting() bool {
	return o.Remaining > 0 && (o.Status == StatusNew || o.Status == StatusPartiallyFilled)
}

// Fill reduces Remaining (and, for icebergs, DisplayNow) by at most n,
// returning the quantity actually consumed. For a maker the matcher keeps n
// within VisibleQty() (spec §4.3 step iii: n = min(taker.remaining,
// available)); for an iceberg taker n can exceed DisplayNow, and the
// DisplayNow reduction is clamped to what it holds.
func (o *Order) Fill(n uint64) uint64 {
	filled := n
	if filled > o.Remaining {
		filled = o.Remaining
	}
	o.Remaining -= filled
	if o.Kind == KindIceberg {
		// filled can exceed DisplayNow when this order is the taker: the
		// matcher bounds n by the maker's visible quantity, not the
		// taker's, so an aggressive iceberg can consume more than its own
		// display slice in one fill.
		shown := filled
		if shown > o.DisplayNow {
			shown = o.DisplayNow
		}
		o.DisplayNow -= shown
	}
	if o.Remaining == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return filled
}

// Replenish moves up to DisplayTotal from Hidden into DisplayNow once the
// visible slice has drained to zero. It is idempotent when Hidden is zero
// or DisplayNow is still positive, and reports whether it moved anything.
// The caller (Matcher) is responsible for re-inserting the order at the
// tail of its price level afterwards — replenishment always forfeits time
// priority (spec §4.1).
func (o *Order) Replenish() bool {
	if o.Kind != KindIceberg || o.DisplayNow != 0 || o.Hidden == 0 {
		return false
	}
	move := o.DisplayTotal
	if move > o.Hidden {
		move = o.Hidden
	}
	o.DisplayNow = move
	o.Hidden -= move
	return true
}

// NeedsReplenish reports whether the order's visible slice has drained
// while hidden quantity remains — the trigger condition for Replenish.
func (o *Order) NeedsReplenish() bool {
	return o.Kind == KindIceberg && o.DisplayNow == 0 && o.Hidden > 0
}

// triggers reports whether lastTrade crosses this stop order's condition
// (spec §4.4): buy-stops fire on last-trade >= trigger, sell-stops on
// last-trade <= trigger.
func (o *Order) triggers(lastTrade int64, lastTradeSet bool) bool {
	if o.Kind != KindStopLoss || o.Triggered || !lastTradeSet {
		return false
	}
	if o.Side == SideBuy {
		return lastTrade >= o.TriggerPrice
	}
	return lastTrade <= o.TriggerPrice
}

// convert turns a triggered stop order into its limit equivalent, ready to
// re-enter the matcher at step 1 of spec §4.3. A stop-market variant is
// simply one whose LimitPrice equals TriggerPrice; it still rests as a
// (highly marketable) limit order if it fails to fully cross, matching
// scenario S5 of spec §8.
func (o *Order) convert() {
	o.Triggered = true
	o.Kind = KindLimit
	o.Price = o.LimitPrice
	o.Status = StatusNew
}
