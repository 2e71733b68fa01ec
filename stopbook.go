package clob

import "github.com/tidwall/btree"

// StopBook holds untriggered stop-loss orders, bucketed by trigger price,
// per spec §3/§4.4. Stop orders are never visible on the ladders and never
// contribute to best-price quotes. Buckets are ordered maps so a drain can
// visit trigger prices in the order spec §4.3 requires without a full
// scan: buy-stops ascending (least conservative first), sell-stops
// descending.
type StopBook struct {
	buy  *btree.Map[int64, []*Order]
	sell *btree.Map[int64, []*Order]
	byID map[uint64]*Order
}

func newStopBook() *StopBook {
	return &StopBook{
		buy:  btree.NewMap[int64, []*Order](32),
		sell: btree.NewMap[int64, []*Order](32),
		byID: make(map[uint64]*Order),
	}
}

// Lookup finds a pending stop order by id in O(1), for Cancel/Modify.
func (sb *StopBook) Lookup(id uint64) (*Order, bool) {
	o, ok := sb.byID[id]
	return o, ok
}

func (sb *StopBook) bucket(side Side) *btree.Map[int64, []*Order] {
	if side == SideBuy {
		return sb.buy
	}
	return sb.sell
}

// Add rests a stop order until its trigger condition is satisfied.
func (sb *StopBook) Add(o *Order) {
	m := sb.bucket(o.Side)
	orders, _ := m.Get(o.TriggerPrice)
	orders = append(orders, o)
	m.Set(o.TriggerPrice, orders)
	sb.byID[o.ID] = o
}

// Remove cancels a resting stop order, returning whether it was found.
func (sb *StopBook) Remove(o *Order) bool {
	m := sb.bucket(o.Side)
	orders, ok := m.Get(o.TriggerPrice)
	if !ok {
		return false
	}
	for i, x := range orders {
		if x.ID == o.ID {
			orders = append(orders[:i], orders[i+1:]...)
			if len(orders) == 0 {
				m.Delete(o.TriggerPrice)
			} else {
				m.Set(o.TriggerPrice, orders)
			}
			delete(sb.byID, o.ID)
			return true
		}
	}
	return false
}

// Triggered reports whether a stop order with side/trigger would already
// fire against lastTrade — used both for the drain after a trade and for
// the immediate-trigger check on submission (spec §4.4).
func Triggered(side Side, trigger, lastTrade int64) bool {
	if side == SideBuy {
		return lastTrade >= trigger
	}
	return lastTrade <= trigger
}

// Drain removes and returns, in spec §4.3's required order, every stop
// order newly triggered by lastTrade: buy-stops ascending by trigger price,
// then sell-stops descending, each bucket already FIFO by submission
// order since orders are appended to their bucket on arrival.
func (sb *StopBook) Drain(lastTrade int64) []*Order {
	var out []*Order

	var buyTriggers []int64
	sb.buy.Scan(func(trigger int64, _ []*Order) bool {
		if lastTrade < trigger {
			return false // ascending: no larger trigger can fire either
		}
		buyTriggers = append(buyTriggers, trigger)
		return true
	})
	for _, t := range buyTriggers {
		orders, _ := sb.buy.Get(t)
		for _, o := range orders {
			delete(sb.byID, o.ID)
		}
		out = append(out, orders...)
		sb.buy.Delete(t)
	}

	var sellTriggers []int64
	sb.sell.Reverse(func(trigger int64, _ []*Order) bool {
		if lastTrade > trigger {
			return false // descending: no smaller trigger can fire either
		}
		sellTriggers = append(sellTriggers, trigger)
		return true
	})
	for _, t := range sellTriggers {
		orders, _ := sb.sell.Get(t)
		for _, o := range orders {
			delete(sb.byID, o.ID)
		}
		out = append(out, orders...)
		sb.sell.Delete(t)
	}

	return out
}

// Len is the number of stop orders still resting, untriggered.
func (sb *StopBook) Len() int {
	n := 0
	sb.buy.Scan(func(_ int64, orders []*Order) bool {
		n += len(orders)
		return true
	})
	sb.sell.Scan(func(_ int64, orders []*Order) bool {
		n += len(orders)
		return true
	})
	return n
}
