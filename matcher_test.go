package clob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tick uint64

func fakeNow() uint64 {
	tick++
	return tick
}

func newOrder(id uint64, side Side, kind Kind, price int64, qty uint64) *Order {
	return &Order{ID: id, Side: side, Kind: kind, Price: price, Qty: qty, Remaining: qty, Status: StatusNew}
}

// S1 — Simple cross.
func TestMatcher_S1_SimpleCross(t *testing.T) {
	m := newMatcher()

	sell := newOrder(1, SideSell, KindLimit, 101, 10)
	trades, _, _ := m.Submit(sell, fakeNow)
	assert.Empty(t, trades)

	buy := newOrder(2, SideBuy, KindLimit, 101, 4)
	trades, _, _ = m.Submit(buy, fakeNow)

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(2), trades[0].BuyID)
	assert.Equal(t, uint64(1), trades[0].SellID)
	assert.Equal(t, int64(101), trades[0].Price)
	assert.Equal(t, uint64(4), trades[0].Qty)

	lvl, ok := m.asks.Get(101)
	require.True(t, ok)
	assert.Equal(t, uint64(6), lvl.AggregateQty())

	_, ok = m.bids.BestPrice()
	assert.False(t, ok)
}

// S2 — Partial sweep across two ask levels.
func TestMatcher_S2_PartialSweep(t *testing.T) {
	m := newMatcher()
	m.Submit(newOrder(1, SideSell, KindLimit, 100, 5), fakeNow)
	m.Submit(newOrder(2, SideSell, KindLimit, 101, 5), fakeNow)

	trades, _, unfilled := m.Submit(newOrder(3, SideBuy, KindMarket, 0, 7), fakeNow)

	require.Len(t, trades, 2)
	assert.Equal(t, int64(100), trades[0].Price)
	assert.Equal(t, uint64(5), trades[0].Qty)
	assert.Equal(t, int64(101), trades[1].Price)
	assert.Equal(t, uint64(2), trades[1].Qty)
	assert.Empty(t, unfilled)

	price, ok := m.asks.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(101), price)
	lvl, _ := m.asks.Get(101)
	assert.Equal(t, uint64(3), lvl.AggregateQty())
}

// S3 — Limit order that doesn't cross just rests.
func TestMatcher_S3_LimitNoCross(t *testing.T) {
	m := newMatcher()
	m.Submit(newOrder(1, SideSell, KindLimit, 101, 5), fakeNow)

	trades, _, _ := m.Submit(newOrder(2, SideBuy, KindLimit, 100, 5), fakeNow)
	assert.Empty(t, trades)

	price, ok := m.bids.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(100), price)
	lvl, _ := m.bids.Get(100)
	assert.Equal(t, uint64(5), lvl.AggregateQty())

	price, ok = m.asks.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(101), price)
}

// S4 — Iceberg replenish forfeits time priority.
func TestMatcher_S4_IcebergReplenishAndPriorityLoss(t *testing.T) {
	m := newMatcher()

	iceberg := &Order{ID: 1, Side: SideSell, Kind: KindIceberg, Price: 100, Qty: 10, Remaining: 10, DisplayTotal: 3, DisplayNow: 3, Hidden: 7, Status: StatusNew}
	m.Submit(iceberg, fakeNow)
	m.Submit(newOrder(2, SideSell, KindLimit, 100, 4), fakeNow)

	trades, touched, _ := m.Submit(newOrder(3, SideBuy, KindMarket, 0, 3), fakeNow)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(3), trades[0].Qty)

	var maker *Order
	for _, o := range touched {
		if o.ID == 1 {
			maker = o
		}
	}
	require.NotNil(t, maker)
	assert.Equal(t, uint64(3), maker.DisplayNow)
	assert.Equal(t, uint64(4), maker.Hidden)
	assert.Equal(t, uint64(7), maker.Remaining)

	lvl, ok := m.asks.Get(100)
	require.True(t, ok)
	orders := lvl.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(2), orders[0].ID, "id=2 now leads the FIFO")
	assert.Equal(t, uint64(1), orders[1].ID, "id=1 moved to the tail on replenish")

	trades, touched, _ = m.Submit(newOrder(4, SideBuy, KindMarket, 0, 4), fakeNow)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(4), trades[0].Qty)

	var id2Touched bool
	for _, o := range touched {
		if o.ID == 2 {
			id2Touched = true
			assert.True(t, o.IsFullyFilled())
		}
	}
	assert.True(t, id2Touched, "id=2 fully absorbed this market order before id=1 trades again")

	lvl, ok = m.asks.Get(100)
	require.True(t, ok)
	orders = lvl.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, uint64(1), orders[0].ID)
}

// S5 — Stop trigger chain off successive trades.
func TestMatcher_S5_StopTriggerChain(t *testing.T) {
	m := newMatcher()
	m.lastTrade, m.lastTradeSet = 100, true

	stop := &Order{ID: 1, Side: SideSell, Kind: KindStopLoss, TriggerPrice: 98, LimitPrice: 97, Qty: 5, Remaining: 5, Status: StatusPending}
	m.stops.Add(stop)

	m.Submit(newOrder(2, SideSell, KindLimit, 99, 2), fakeNow)
	trades, _, _ := m.Submit(newOrder(3, SideBuy, KindMarket, 0, 2), fakeNow)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(99), trades[0].Price)
	assert.Equal(t, 1, m.stops.Len(), "98 trigger not yet crossed at last=99")

	m.Submit(newOrder(4, SideSell, KindLimit, 97, 1), fakeNow)
	trades, _, _ = m.Submit(newOrder(5, SideBuy, KindMarket, 0, 1), fakeNow)

	// The direct market trade @97 plus the triggered stop's own matching
	// attempt (which rests, since no bids remain) both flow through the
	// same recursive run — only the direct trade produces a fill here.
	require.Len(t, trades, 1)
	assert.Equal(t, int64(97), trades[0].Price)
	assert.Equal(t, 0, m.stops.Len(), "id=1 triggered and left the stop book")

	lvl, ok := m.asks.Get(97)
	require.True(t, ok)
	orders := lvl.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, uint64(1), orders[0].ID)
	assert.Equal(t, KindLimit, orders[0].Kind)
	assert.True(t, orders[0].Triggered)
}

// An aggressive iceberg taker can consume more than its own display slice
// in a single fill, since the matcher bounds the fill by the maker's
// visible quantity, not the taker's DisplayNow. Fill must clamp rather
// than underflow, and the resting residual must recompute its
// display/hidden split from Remaining rather than keep whatever DisplayNow
// it had mid-fill.
func TestMatcher_AggressiveIcebergTakerDoesNotUnderflowDisplayNow(t *testing.T) {
	m := newMatcher()
	m.Submit(newOrder(1, SideSell, KindLimit, 100, 6), fakeNow)

	taker := &Order{ID: 2, Side: SideBuy, Kind: KindIceberg, Price: 100, Qty: 10, Remaining: 10, DisplayTotal: 3, DisplayNow: 3, Hidden: 7, Status: StatusNew}
	trades, touched, _ := m.Submit(taker, fakeNow)

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(6), trades[0].Qty)

	var resting *Order
	for _, o := range touched {
		if o.ID == 2 {
			resting = o
		}
	}
	require.NotNil(t, resting)
	assert.Equal(t, uint64(4), resting.Remaining)
	assert.Equal(t, uint64(3), resting.DisplayNow)
	assert.Equal(t, uint64(1), resting.Hidden)
	assert.Equal(t, resting.Remaining, resting.DisplayNow+resting.Hidden)

	lvl, ok := m.bids.Get(100)
	require.True(t, ok)
	assert.Equal(t, uint64(3), lvl.AggregateQty(), "aggregate must reflect the recomputed display slice, not the underflowed one")
}

// S6 — Cancel is idempotent.
func TestMatcher_S6_CancelIdempotence(t *testing.T) {
	m := newMatcher()
	m.Submit(newOrder(1, SideBuy, KindLimit, 100, 5), fakeNow)

	_, ok := m.CancelResting(1)
	assert.True(t, ok)

	_, ok = m.CancelResting(1)
	assert.False(t, ok)

	assert.Equal(t, 0, m.ActiveCount())
}
