package clob

// Matcher applies an accepted order against the opposite ladder, per the
// algorithm in spec §4.3: price-time priority, iceberg replenishment with
// priority loss, market-order residual reporting, and a recursive stop-book
// drain once each taker that traded has completed, against the last-trade
// price it left. It holds the ladders, index, stop book and last-trade
// price, and is driven only by the Engine worker so that exactly one
// goroutine ever touches them, per spec §5.
type Matcher struct {
	bids, asks   *Ladder
	index        *OrderIndex
	stops        *StopBook
	lastTrade    int64
	lastTradeSet bool
}

func newMatcher() *Matcher {
	return &Matcher{
		bids:  newLadder(SideBuy),
		asks:  newLadder(SideSell),
		index: newOrderIndex(),
		stops: newStopBook(),
	}
}

func (m *Matcher) ladder(side Side) *Ladder {
	if side == SideBuy {
		return m.bids
	}
	return m.asks
}

func (m *Matcher) opposite(side Side) *Ladder {
	return m.ladder(side.Opposite())
}

// LastTrade returns the most recent trade price, per spec §8 invariant 3:
// defined iff at least one trade has ever been emitted.
func (m *Matcher) LastTrade() (int64, bool) {
	return m.lastTrade, m.lastTradeSet
}

// ActiveCount is the number of resting orders on the ladders (stop orders
// pending trigger are counted separately — they are not "on the book").
func (m *Matcher) ActiveCount() int {
	return m.index.Len()
}

// Submit runs the matching algorithm for taker, including the recursive
// stop-drain of spec §4.3 step 3. nowFn mints a strictly monotonic
// timestamp for each trade and for every stop order converted during the
// drain — it is the Engine's serialization-point clock.
func (m *Matcher) Submit(taker *Order, nowFn func() uint64) (trades []*Trade, touched []*Order, unfilled []MarketUnfilled) {
	return m.run(taker, nowFn)
}

func (m *Matcher) run(taker *Order, nowFn func() uint64) (trades []*Trade, touched []*Order, unfilled []MarketUnfilled) {
	touched = append(touched, taker)

	opp := m.opposite(taker.Side)
	own := m.ladder(taker.Side)
	isLimitLike := taker.Kind == KindLimit || taker.Kind == KindIceberg

	for taker.Remaining > 0 {
		level, ok := opp.BestLevel()
		if !ok {
			break
		}
		if isLimitLike {
			if taker.Side == SideBuy && level.Price > taker.Price {
				break
			}
			if taker.Side == SideSell && level.Price < taker.Price {
				break
			}
		}

		for !level.Empty() && taker.Remaining > 0 {
			node := level.Front()
			maker := node.order
			available := maker.VisibleQty()
			if available == 0 {
				// Defensive: a maker with nothing visible should already
				// have been removed or replenished; drop it rather than
				// spin.
				level.Remove(node)
				m.index.delete(maker.ID)
				continue
			}

			n := taker.Remaining
			if available < n {
				n = available
			}

			ts := nowFn()
			buyID, sellID := taker.ID, maker.ID
			if taker.Side == SideSell {
				buyID, sellID = maker.ID, taker.ID
			}
			trades = append(trades, newTrade(buyID, sellID, level.Price, n, ts, taker.Side))

			taker.Fill(n)
			level.subAggregate(n)
			maker.Fill(n)
			m.lastTrade, m.lastTradeSet = level.Price, true
			touched = append(touched, maker)

			switch {
			case maker.IsFullyFilled():
				level.Remove(node)
				m.index.delete(maker.ID)
			case maker.NeedsReplenish():
				level.Remove(node)
				maker.Replenish()
				newNode := level.PushBack(maker)
				m.index.put(maker.ID, maker.Side, level.Price, newNode)
			}
		}

		if level.Empty() {
			opp.DropIfEmpty(level.Price)
		}
	}

	switch taker.Kind {
	case KindLimit, KindIceberg:
		if taker.Remaining > 0 {
			if taker.Kind == KindIceberg {
				// As a taker, DisplayNow/Hidden may have drifted out of
				// sync with Remaining (Fill only ever shrinks DisplayNow
				// by the maker-bounded fill amount, never by more than it
				// holds). Recompute the resting split from scratch so the
				// DisplayNow+Hidden==Remaining invariant holds before it
				// ever contributes to a PriceLevel's aggregate.
				display := taker.DisplayTotal
				if display > taker.Remaining {
					display = taker.Remaining
				}
				taker.DisplayNow = display
				taker.Hidden = taker.Remaining - display
			}
			lvl := own.GetOrCreate(taker.Price)
			node := lvl.PushBack(taker)
			m.index.put(taker.ID, taker.Side, taker.Price, node)
		}
	case KindMarket:
		if taker.Remaining > 0 {
			unfilled = append(unfilled, MarketUnfilled{OrderID: taker.ID, UnfilledQty: taker.Remaining})
		}
	}

	if len(trades) > 0 && m.lastTradeSet {
		for _, stopOrder := range m.stops.Drain(m.lastTrade) {
			stopOrder.convert()
			stopOrder.Timestamp = nowFn()
			subTrades, subTouched, subUnfilled := m.run(stopOrder, nowFn)
			trades = append(trades, subTrades...)
			touched = append(touched, subTouched...)
			unfilled = append(unfilled, subUnfilled...)
		}
	}

	return trades, touched, unfilled
}

// CancelResting removes a resting (non-stop) order in O(1) via its
// OrderIndex handle. Returns false if the id is not currently resting.
func (m *Matcher) CancelResting(id uint64) (*Order, bool) {
	h, ok := m.index.get(id)
	if !ok {
		return nil, false
	}
	lvl, ok := m.ladder(h.side).Get(h.price)
	if !ok {
		return nil, false
	}
	order := h.node.order
	lvl.subAggregate(order.VisibleQty())
	lvl.Remove(h.node)
	m.index.delete(id)
	m.ladder(h.side).DropIfEmpty(h.price)
	order.Status = StatusCancelled
	return order, true
}
