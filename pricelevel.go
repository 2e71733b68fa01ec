package clob

// listNode is the intrusive doubly-linked-list handle spec §4.2/§9
// prescribes for O(1) interior removal: the OrderIndex stores *listNode,
// and PriceLevel.Remove unlinks it without touching any other order's
// position — cancelling order #2 of five never disturbs the relative
// order of #1, #3, #4, #5.
type listNode struct {
	order *Order
	prev  *listNode
	next  *listNode
}

// PriceLevel is a FIFO of resting orders at one price, plus a maintained
// aggregate of visible quantity (spec §3). PushBack adds the appended
// order's visible quantity to aggregateQty; Remove only touches list
// structure, so callers subtract with subAggregate when a fill or cancel
// reduces a member order's visible quantity, before removing it.
type PriceLevel struct {
	Price        int64
	head, tail   *listNode
	count        int
	aggregateQty uint64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Empty reports whether the level's FIFO has drained (spec §4.2: "no
// empty levels").
func (l *PriceLevel) Empty() bool {
	return l.head == nil
}

// Len returns the number of resting orders at this level.
func (l *PriceLevel) Len() int {
	return l.count
}

// AggregateQty is the cached Σ visible_qty invariant (spec §8 invariant 2).
func (l *PriceLevel) AggregateQty() uint64 {
	return l.aggregateQty
}

// Front returns the head of the FIFO — the next order to trade against.
func (l *PriceLevel) Front() *listNode {
	return l.head
}

// PushBack appends order to the tail of the FIFO (new arrival, or an
// iceberg slice that just lost priority on replenishment) and folds its
// current visible quantity into the aggregate.
func (l *PriceLevel) PushBack(o *Order) *listNode {
	n := &listNode{order: o}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.count++
	l.aggregateQty += o.VisibleQty()
	return n
}

// Remove unlinks n in O(1), preserving the relative order of every other
// node. It does not adjust aggregateQty — callers must call subAggregate
// with the correct amount first (see the PriceLevel comment above).
func (l *PriceLevel) Remove(n *listNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.count--
}

func (l *PriceLevel) addAggregate(n uint64) {
	l.aggregateQty += n
}

func (l *PriceLevel) subAggregate(n uint64) {
	l.aggregateQty -= n
}

// Orders returns the resting orders at this level in FIFO order. It
// allocates and is meant for snapshots/tests, never the matching path.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.order)
	}
	return out
}
