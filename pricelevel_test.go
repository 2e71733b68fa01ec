package clob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLevel_FIFOOrderAndAggregate(t *testing.T) {
	lvl := newPriceLevel(100)

	o1 := &Order{ID: 1, Qty: 3, Remaining: 3}
	o2 := &Order{ID: 2, Qty: 4, Remaining: 4}
	o3 := &Order{ID: 3, Qty: 5, Remaining: 5}

	n1 := lvl.PushBack(o1)
	lvl.PushBack(o2)
	lvl.PushBack(o3)

	require.Equal(t, 3, lvl.Len())
	assert.Equal(t, uint64(12), lvl.AggregateQty())
	assert.Equal(t, o1, lvl.Front().order)

	// Remove the middle order; FIFO order of the rest is preserved.
	lvl.subAggregate(o2.VisibleQty())
	lvl.Remove(lvl.Front().next)
	assert.Equal(t, 2, lvl.Len())
	got := lvl.Orders()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(3), got[1].ID)

	lvl.subAggregate(o1.VisibleQty())
	lvl.Remove(n1)
	assert.False(t, lvl.Empty())
	assert.Equal(t, uint64(5), lvl.AggregateQty())
}

func TestPriceLevel_EmptyAfterDrainingAllOrders(t *testing.T) {
	lvl := newPriceLevel(50)
	o := &Order{ID: 1, Qty: 2, Remaining: 2}
	n := lvl.PushBack(o)
	lvl.subAggregate(o.VisibleQty())
	lvl.Remove(n)
	assert.True(t, lvl.Empty())
	assert.Equal(t, uint64(0), lvl.AggregateQty())
}
