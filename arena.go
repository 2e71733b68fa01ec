package clob

import "sync"

// orderArena is the Order free-list: Order memory is served from a
// sync.Pool to keep the hot submission path off the allocator,
// generalizing huangsc-matcher's tradePool (orderbook.go) to the Order
// entity as well. The pool has no size bound; the garbage collector may
// drop pooled slots at any time. A slot returns to the pool once its order is
// fully filled or cancelled and has no remaining OrderIndex/ladder
// reference — the Engine is the only thing that ever calls release.
type orderArena struct {
	pool sync.Pool
}

func newOrderArena() *orderArena {
	return &orderArena{pool: sync.Pool{New: func() interface{} { return &Order{} }}}
}

func (a *orderArena) acquire() *Order {
	return a.pool.Get().(*Order)
}

func (a *orderArena) release(o *Order) {
	*o = Order{}
	a.pool.Put(o)
}
