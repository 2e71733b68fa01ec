package clob

import "sync"

// Trade is the fixed-layout output record of spec §3/§6, emitted in
// matcher execution order.
type Trade struct {
	BuyID     uint64
	SellID    uint64
	Price     int64
	Qty       uint64
	Timestamp uint64
	TakerSide Side
}

// tradePool generalizes the teacher's sync.Pool for *Trade (huangsc-matcher
// orderbook.go) into the arena described in spec §9: free-list reuse to keep
// the matching hot path off the allocator. The pool has no size bound.
var tradePool = sync.Pool{
	New: func() interface{} { return &Trade{} },
}

func newTrade(buyID, sellID uint64, price int64, qty uint64, ts uint64, taker Side) *Trade {
	t := tradePool.Get().(*Trade)
	t.BuyID = buyID
	t.SellID = sellID
	t.Price = price
	t.Qty = qty
	t.Timestamp = ts
	t.TakerSide = taker
	return t
}

// ReleaseTrades returns a trade batch to the pool. Callers must not retain
// any reference into trades after calling this — it is intended for sink
// consumers that have finished copying out whatever fields they need.
func ReleaseTrades(trades []*Trade) {
	for _, t := range trades {
		tradePool.Put(t)
	}
}

