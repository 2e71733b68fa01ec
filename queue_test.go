package clob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_SingleProducerFIFO(t *testing.T) {
	q := newEventQueue(8)
	for i := uint64(1); i <= 5; i++ {
		require.True(t, q.TryEnqueue(&event{orderID: i}))
	}
	for i := uint64(1); i <= 5; i++ {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, e.orderID)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_RejectsWhenFull(t *testing.T) {
	q := newEventQueue(4)
	for i := 0; i < 4; i++ {
		require.True(t, q.TryEnqueue(&event{orderID: uint64(i)}))
	}
	assert.False(t, q.TryEnqueue(&event{orderID: 99}))

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.TryEnqueue(&event{orderID: 100}))
}

func TestEventQueue_ConcurrentProducersNoLostOrDuplicatedEvents(t *testing.T) {
	q := newEventQueue(1024)

	const producers = 16
	const perProducer = 2000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				e := &event{orderID: uint64(base*perProducer + i)}
				for !q.TryEnqueue(e) {
					// ring is bounded; retry until the (single) consumer
					// below drains enough room.
				}
			}
		}(p)
	}

	want := producers * perProducer
	seen := make(map[uint64]bool, want)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(seen) < want {
			e, ok := q.TryDequeue()
			if !ok {
				continue
			}
			seen[e.orderID] = true
		}
	}()

	wg.Wait()
	<-done

	assert.Len(t, seen, want)
}

func TestRoundUpToPowerOf2(t *testing.T) {
	cases := map[int64]int64{1: 1, 2: 2, 3: 4, 5: 8, 1023: 1024, 1024: 1024, 1025: 2048}
	for in, want := range cases {
		assert.Equal(t, want, roundUpToPowerOf2(in))
	}
}
