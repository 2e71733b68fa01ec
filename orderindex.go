package clob

// orderHandle is what OrderIndex stores per resting order: enough to find
// it in O(1) without scanning a ladder (spec §3/§4.2).
type orderHandle struct {
	side Side
	price int64
	node  *listNode
}

// OrderIndex maps order id to its resting location. It is created when an
// order rests on a ladder and deleted on full fill or cancel (spec §3).
type OrderIndex struct {
	m map[uint64]orderHandle
}

func newOrderIndex() *OrderIndex {
	return &OrderIndex{m: make(map[uint64]orderHandle, 1024)}
}

func (oi *OrderIndex) put(id uint64, side Side, price int64, node *listNode) {
	oi.m[id] = orderHandle{side: side, price: price, node: node}
}

func (oi *OrderIndex) get(id uint64) (orderHandle, bool) {
	h, ok := oi.m[id]
	return h, ok
}

func (oi *OrderIndex) delete(id uint64) {
	delete(oi.m, id)
}

// Len is the number of currently resting orders tracked by the index.
func (oi *OrderIndex) Len() int {
	return len(oi.m)
}
