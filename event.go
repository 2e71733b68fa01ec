package clob

// eventType enumerates the internal queue record kinds (spec §6).
type eventType uint8

const (
	evLimit eventType = iota
	evMarket
	evIceberg
	evStop
	evCancel
	evModify
)

// event is the internal queue record: {type, order_id, side, price, qty,
// aux1, aux2, producer_timestamp} per spec §6. aux1 carries a stop order's
// trigger price; aux2 carries an iceberg's display quantity. Cancel only
// uses orderID; Modify reuses price/qty as the new price/new quantity.
type event struct {
	typ               eventType
	orderID           uint64
	side              Side
	price             int64
	qty               uint64
	aux1              int64
	aux2              uint64
	producerTimestamp uint64

	// done carries the synchronous result of a Cancel/Modify back to the
	// producer goroutine that called it. It is nil for Submit* events,
	// which mint their order id before enqueue and never block (spec §5):
	// only the calling goroutine waits on done, never the Engine worker or
	// any other producer.
	done chan bool
}

// MarketUnfilled reports the residual quantity of a market order that
// could not be matched against an empty (or exhausted) opposite ladder
// (spec §4.3 step 2, §7). It is delivered on the same stream as trades and
// order updates, never as an error from the submitting caller.
type MarketUnfilled struct {
	OrderID     uint64
	UnfilledQty uint64
}

// EventHandler receives matcher output. OnTrade fires once per emitted
// trade, in matcher execution order; OnOrderUpdate fires whenever an
// order's Status changes; OnMarketUnfilled fires for the residual of an
// unmatched market order. Generalizes huangsc-matcher's EventHandler
// (OnTrade/OnOrderUpdate) with the MarketUnfilled outcome spec §7 mandates.
type EventHandler interface {
	OnTrade(trade *Trade)
	OnOrderUpdate(order *Order)
	OnMarketUnfilled(u MarketUnfilled)
}

// NopHandler is a no-op EventHandler, useful for engines that only read
// via History/Snapshot queries.
type NopHandler struct{}

func (NopHandler) OnTrade(*Trade)                 {}
func (NopHandler) OnOrderUpdate(*Order)            {}
func (NopHandler) OnMarketUnfilled(MarketUnfilled) {}
