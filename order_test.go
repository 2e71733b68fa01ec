package clob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_FillReducesRemainingAndUpdatesStatus(t *testing.T) {
	o := &Order{ID: 1, Kind: KindLimit, Qty: 10, Remaining: 10, Status: StatusNew}

	filled := o.Fill(4)
	require.Equal(t, uint64(4), filled)
	assert.Equal(t, uint64(6), o.Remaining)
	assert.Equal(t, StatusPartiallyFilled, o.Status)

	filled = o.Fill(6)
	require.Equal(t, uint64(6), filled)
	assert.Equal(t, uint64(0), o.Remaining)
	assert.Equal(t, StatusFilled, o.Status)
	assert.True(t, o.IsFullyFilled())
}

func TestOrder_FillClampsToRemaining(t *testing.T) {
	o := &Order{Qty: 5, Remaining: 5}
	filled := o.Fill(100)
	assert.Equal(t, uint64(5), filled)
	assert.Equal(t, uint64(0), o.Remaining)
}

func TestOrder_IcebergVisibleQtyIsDisplaySlice(t *testing.T) {
	o := &Order{Kind: KindIceberg, Qty: 10, Remaining: 10, DisplayTotal: 3, DisplayNow: 3, Hidden: 7}
	assert.Equal(t, uint64(3), o.VisibleQty())

	o.Fill(3)
	assert.Equal(t, uint64(0), o.DisplayNow)
	assert.Equal(t, uint64(7), o.Remaining)
	assert.True(t, o.NeedsReplenish())

	moved := o.Replenish()
	assert.True(t, moved)
	assert.Equal(t, uint64(3), o.DisplayNow)
	assert.Equal(t, uint64(4), o.Hidden)
	assert.False(t, o.NeedsReplenish())
}

func TestOrder_ReplenishNoopWithoutHidden(t *testing.T) {
	o := &Order{Kind: KindIceberg, DisplayNow: 0, Hidden: 0}
	assert.False(t, o.Replenish())
}

func TestOrder_StopTriggersOnCrossingLastTrade(t *testing.T) {
	sell := &Order{Side: SideSell, Kind: KindStopLoss, TriggerPrice: 98}
	assert.False(t, sell.triggers(100, true))
	assert.True(t, sell.triggers(98, true))
	assert.True(t, sell.triggers(97, true))
	assert.False(t, sell.triggers(99, false)) // last trade undefined

	buy := &Order{Side: SideBuy, Kind: KindStopLoss, TriggerPrice: 102}
	assert.False(t, buy.triggers(101, true))
	assert.True(t, buy.triggers(102, true))
	assert.True(t, buy.triggers(103, true))
}

func TestOrder_ConvertAlwaysBecomesLimitAtLimitPrice(t *testing.T) {
	o := &Order{Kind: KindStopLoss, Side: SideSell, TriggerPrice: 98, LimitPrice: 97, Qty: 5, Remaining: 5}
	o.convert()
	assert.Equal(t, KindLimit, o.Kind)
	assert.Equal(t, int64(97), o.Price)
	assert.True(t, o.Triggered)
	assert.Equal(t, StatusNew, o.Status)
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
}
