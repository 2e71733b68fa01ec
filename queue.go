package clob

import (
	"sync/atomic"
)

const (
	// defaultQueueSize mirrors huangsc-matcher's disruptor default; must be
	// a power of two so index masking works.
	defaultQueueSize = 1024
	// cacheLineSize keeps each slot's sequence counter on its own cache
	// line, avoiding false sharing between producers contending on
	// adjacent slots (huangsc-matcher's Sequence padding, generalized).
	cacheLineSize = 64
)

// paddedSeq is an int64 sequence counter padded to a full cache line.
type paddedSeq struct {
	v   atomic.Int64
	_   [cacheLineSize - 8]byte
}

// cell is one ring buffer slot. Its own sequence counter is what makes the
// ring buffer safe for concurrent producers: a producer claims a slot by
// winning a CompareAndSwap on enqueuePos, then publishes by setting the
// slot's sequence to pos+1, the value the consumer is waiting for.
type cell struct {
	seq paddedSeq
	evt *event
}

// eventQueue is a bounded, lock-free, multi-producer / single-consumer
// ring buffer of *event (spec §5). It generalizes huangsc-matcher's
// Disruptor — whose TryPublish plain-stores the write cursor and is
// therefore only safe for a single producer — to the classic bounded MPMC
// slot-sequencing algorithm so that any number of producer goroutines can
// call TryEnqueue concurrently without a mutex. The consumer side (Engine)
// remains single-threaded, satisfying spec §5's single-writer mandate.
type eventQueue struct {
	buf  []cell
	mask int64
	size int64

	enqueuePos paddedSeq
	dequeuePos paddedSeq
}

func newEventQueue(size int64) *eventQueue {
	if size < 1 {
		size = defaultQueueSize
	}
	size = roundUpToPowerOf2(size)

	q := &eventQueue{
		buf:  make([]cell, size),
		mask: size - 1,
		size: size,
	}
	for i := range q.buf {
		q.buf[i].seq.v.Store(int64(i))
	}
	return q
}

// TryEnqueue publishes an event. It returns false if the ring buffer is
// full — producers never block on the book (spec §5).
func (q *eventQueue) TryEnqueue(e *event) bool {
	var pos int64
	for {
		pos = q.enqueuePos.v.Load()
		c := &q.buf[pos&q.mask]
		seq := c.seq.v.Load()
		diff := seq - pos
		switch {
		case diff == 0:
			if q.enqueuePos.v.CompareAndSwap(pos, pos+1) {
				c.evt = e
				c.seq.v.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false // full: consumer hasn't caught up
		default:
			// another producer already claimed this slot; retry with a
			// fresh read of enqueuePos
		}
	}
}

// TryDequeue is the Engine worker's non-blocking read. It returns
// (nil, false) when the queue is currently empty.
func (q *eventQueue) TryDequeue() (*event, bool) {
	var pos int64
	for {
		pos = q.dequeuePos.v.Load()
		c := &q.buf[pos&q.mask]
		seq := c.seq.v.Load()
		diff := seq - (pos + 1)
		switch {
		case diff == 0:
			if q.dequeuePos.v.CompareAndSwap(pos, pos+1) {
				e := c.evt
				c.evt = nil
				c.seq.v.Store(pos + q.size)
				return e, true
			}
		case diff < 0:
			return nil, false // empty
		default:
			// shouldn't happen with a single consumer, but retry defensively
		}
	}
}

// ApproxLen is a racy, cheap approximation of the current queue depth,
// good enough for a metrics gauge — never used for control flow.
func (q *eventQueue) ApproxLen() int64 {
	n := q.enqueuePos.v.Load() - q.dequeuePos.v.Load()
	if n < 0 {
		return 0
	}
	return n
}

func roundUpToPowerOf2(v int64) int64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
