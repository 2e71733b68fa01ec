package clob

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BookSnapshot is the consistent, cross-goroutine-safe view of top-of-book
// state. It is republished by the Engine worker after every dequeued event
// and read by other goroutines through a single atomic pointer load — the
// snapshot mechanism spec §5 requires in place of letting other threads
// touch the ladders directly.
type BookSnapshot struct {
	BestBid    int64
	HasBestBid bool

	BestAsk    int64
	HasBestAsk bool

	Spread    int64
	HasSpread bool

	LastTradePrice int64
	HasLastTrade   bool

	ActiveCount int
}

// Engine is the single point of entry for the matching engine. Producers
// call its Submit*/Cancel/Modify methods from any number of goroutines;
// exactly one goroutine — the worker started by Start — ever mutates the
// Matcher's ladders, index, and stop book, per spec §5. This mirrors
// huangsc-matcher's MatchEngine (queue + single consumer goroutine +
// EventHandler callbacks), generalized from a single-producer demo loop to
// the multi-producer, multi-order-kind surface spec §2/§7 describe.
type Engine struct {
	cfg     *Config
	log     *Logger
	metrics *Metrics
	handler EventHandler

	queue   *eventQueue
	matcher *Matcher
	arena   *orderArena

	queries chan func()

	idCounter atomic.Uint64
	tsCounter atomic.Uint64

	running  atomic.Bool
	stopping atomic.Bool
	stopped  chan struct{}

	snapshot atomic.Pointer[BookSnapshot]

	historyMu  sync.Mutex
	historyBuf []Trade
	historyLen int
	historyPos int
}

// NewEngine builds an Engine. cfg may be nil (DefaultConfig is used);
// handler may be nil (NopHandler is used); reg may be nil (metrics are
// created but never registered for scraping).
func NewEngine(cfg *Config, handler EventHandler, reg prometheus.Registerer) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if handler == nil {
		handler = NopHandler{}
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, wrapf(err, "new engine: build logger")
	}

	histCap := cfg.HistoryLimit
	if histCap <= 0 {
		histCap = 1
	}

	e := &Engine{
		cfg:        cfg,
		log:        log,
		metrics:    NewMetrics(reg),
		handler:    handler,
		queue:      newEventQueue(cfg.QueueSize),
		matcher:    newMatcher(),
		arena:      newOrderArena(),
		queries:    make(chan func(), 64),
		historyBuf: make([]Trade, histCap),
	}
	e.snapshot.Store(&BookSnapshot{})
	return e, nil
}

// Start launches the Engine's single consumer goroutine. Calling Start
// twice without an intervening Stop returns ErrInvalidArgs.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return wrapf(ErrInvalidArgs, "engine already started")
	}
	e.stopping.Store(false)
	e.stopped = make(chan struct{})
	go e.loop()
	e.log.Info("engine started", zap.Int64("queue_size", e.queue.size))
	return nil
}

// Stop requests a cooperative shutdown: the worker drains every event
// already in the queue (and every query already enqueued) before exiting,
// so no accepted order is silently dropped. It blocks until the drain
// completes or ctx is done.
func (e *Engine) Stop(ctx context.Context) error {
	if !e.running.Load() {
		return nil
	}
	e.stopping.Store(true)
	select {
	case <-e.stopped:
		e.running.Store(false)
		e.log.Info("engine stopped")
		_ = e.log.Sync()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) nextID() uint64 { return e.idCounter.Add(1) }
func (e *Engine) nextTS() uint64 { return e.tsCounter.Add(1) }

func (e *Engine) enqueue(ev *event) bool {
	ev.producerTimestamp = uint64(time.Now().UnixNano())
	ok := e.queue.TryEnqueue(ev)
	if !ok {
		e.metrics.QueueRejects.Inc()
		e.log.Warn("event queue full, rejecting submission", zap.Uint8("type", uint8(ev.typ)), zap.Uint64("order_id", ev.orderID))
	}
	e.metrics.QueueDepth.Set(float64(e.queue.ApproxLen()))
	return ok
}

// SubmitLimit enqueues a limit order and returns its freshly minted id
// immediately — the call never blocks on matching (spec §4.5/§5).
func (e *Engine) SubmitLimit(side Side, price int64, qty uint64) (uint64, error) {
	if !e.running.Load() {
		return 0, ErrShutdown
	}
	if !validSide(side) || price <= 0 || qty == 0 {
		return 0, ErrInvalidArgs
	}
	id := e.nextID()
	if !e.enqueue(&event{typ: evLimit, orderID: id, side: side, price: price, qty: qty}) {
		return 0, wrapf(ErrQueueFull, "submit limit")
	}
	e.metrics.OrdersTotal.WithLabelValues("limit").Inc()
	return id, nil
}

// SubmitMarket enqueues a market order.
func (e *Engine) SubmitMarket(side Side, qty uint64) (uint64, error) {
	if !e.running.Load() {
		return 0, ErrShutdown
	}
	if !validSide(side) || qty == 0 {
		return 0, ErrInvalidArgs
	}
	id := e.nextID()
	if !e.enqueue(&event{typ: evMarket, orderID: id, side: side, qty: qty}) {
		return 0, wrapf(ErrQueueFull, "submit market")
	}
	e.metrics.OrdersTotal.WithLabelValues("market").Inc()
	return id, nil
}

// SubmitIceberg enqueues an iceberg order: qty total, with at most display
// visible on the book at any time.
func (e *Engine) SubmitIceberg(side Side, price int64, qty, display uint64) (uint64, error) {
	if !e.running.Load() {
		return 0, ErrShutdown
	}
	if !validSide(side) || price <= 0 || qty == 0 || display == 0 || display > qty {
		return 0, ErrInvalidArgs
	}
	id := e.nextID()
	if !e.enqueue(&event{typ: evIceberg, orderID: id, side: side, price: price, qty: qty, aux2: display}) {
		return 0, wrapf(ErrQueueFull, "submit iceberg")
	}
	e.metrics.OrdersTotal.WithLabelValues("iceberg").Inc()
	return id, nil
}

// SubmitStop enqueues a stop-loss order: rests untriggered until the
// last-trade price crosses trigger, then converts to a limit order at
// limitPrice (spec §4.4).
func (e *Engine) SubmitStop(side Side, trigger, limitPrice int64, qty uint64) (uint64, error) {
	if !e.running.Load() {
		return 0, ErrShutdown
	}
	if !validSide(side) || trigger <= 0 || limitPrice <= 0 || qty == 0 {
		return 0, ErrInvalidArgs
	}
	id := e.nextID()
	if !e.enqueue(&event{typ: evStop, orderID: id, side: side, price: limitPrice, qty: qty, aux1: trigger}) {
		return 0, wrapf(ErrQueueFull, "submit stop")
	}
	e.metrics.OrdersTotal.WithLabelValues("stop_loss").Inc()
	return id, nil
}

// Cancel removes a resting or pending order by id. It enqueues like every
// other operation, then blocks the calling goroutine — never the Engine
// worker or any other producer — until the worker has processed it.
func (e *Engine) Cancel(id uint64) (bool, error) {
	if !e.running.Load() {
		return false, ErrShutdown
	}
	if id == 0 {
		return false, ErrInvalidArgs
	}
	ev := &event{typ: evCancel, orderID: id, done: make(chan bool, 1)}
	if !e.enqueue(ev) {
		return false, wrapf(ErrQueueFull, "cancel")
	}
	return <-ev.done, nil
}

// Modify replaces the price and quantity of a resting limit/iceberg order,
// preserving its id and kind but forfeiting time priority — spec §9
// resolves Modify as cancel-then-resubmit rather than in-place mutation, so
// a modified order re-enters the matcher and can trade immediately. For
// stop orders, newPrice sets the new limit (post-trigger) price and the
// trigger price is left unchanged; use ModifyStop to change the trigger.
func (e *Engine) Modify(id uint64, newPrice int64, newQty uint64) (bool, error) {
	if !e.running.Load() {
		return false, ErrShutdown
	}
	if id == 0 || newPrice <= 0 || newQty == 0 {
		return false, ErrInvalidArgs
	}
	ev := &event{typ: evModify, orderID: id, price: newPrice, qty: newQty, done: make(chan bool, 1)}
	if !e.enqueue(ev) {
		return false, wrapf(ErrQueueFull, "modify")
	}
	return <-ev.done, nil
}

// ModifyStop replaces the trigger price, limit price, and quantity of a
// still-pending stop order.
func (e *Engine) ModifyStop(id uint64, trigger, limitPrice int64, newQty uint64) (bool, error) {
	if !e.running.Load() {
		return false, ErrShutdown
	}
	if id == 0 || trigger <= 0 || limitPrice <= 0 || newQty == 0 {
		return false, ErrInvalidArgs
	}
	ev := &event{typ: evModify, orderID: id, price: limitPrice, qty: newQty, aux1: trigger, done: make(chan bool, 1)}
	if !e.enqueue(ev) {
		return false, wrapf(ErrQueueFull, "modify stop")
	}
	return <-ev.done, nil
}

func validSide(s Side) bool { return s == SideBuy || s == SideSell }

// loop is the Engine's single consumer goroutine. It busy-polls the queue
// and, when empty, parks for cfg.IdlePark before retrying — generalizing
// huangsc-matcher's tight dequeue loop with a brief yield so an idle
// engine doesn't spin a full core (spec §5).
func (e *Engine) loop() {
	defer close(e.stopped)
	for {
		if e.runQuery() {
			continue
		}
		if e.stopping.Load() {
			e.drain()
			return
		}
		ev, ok := e.queue.TryDequeue()
		if !ok {
			select {
			case fn := <-e.queries:
				fn()
			default:
				time.Sleep(e.cfg.IdlePark)
			}
			continue
		}
		e.dispatch(ev)
	}
}

// drain processes everything still queued — events and queries — before
// the worker exits, so Stop never silently discards an accepted order.
func (e *Engine) drain() {
	for {
		if e.runQuery() {
			continue
		}
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.dispatch(ev)
	}
}

func (e *Engine) runQuery() bool {
	select {
	case fn := <-e.queries:
		fn()
		return true
	default:
		return false
	}
}

func (e *Engine) dispatch(ev *event) {
	start := time.Now()
	defer func() { e.metrics.MatchLatency.Observe(time.Since(start).Seconds()) }()

	switch ev.typ {
	case evLimit:
		o := e.arena.acquire()
		o.ID, o.Side, o.Kind = ev.orderID, ev.side, KindLimit
		o.Price, o.Qty, o.Remaining, o.Status = ev.price, ev.qty, ev.qty, StatusNew
		o.Timestamp = e.nextTS()
		e.process(e.matcher.Submit(o, e.nextTS))

	case evMarket:
		o := e.arena.acquire()
		o.ID, o.Side, o.Kind = ev.orderID, ev.side, KindMarket
		o.Qty, o.Remaining, o.Status = ev.qty, ev.qty, StatusNew
		o.Timestamp = e.nextTS()
		e.process(e.matcher.Submit(o, e.nextTS))

	case evIceberg:
		o := e.arena.acquire()
		o.ID, o.Side, o.Kind = ev.orderID, ev.side, KindIceberg
		o.Price, o.Qty, o.Remaining, o.Status = ev.price, ev.qty, ev.qty, StatusNew
		o.DisplayTotal = ev.aux2
		o.DisplayNow = ev.aux2
		if o.DisplayNow > o.Remaining {
			o.DisplayNow = o.Remaining
		}
		o.Hidden = o.Remaining - o.DisplayNow
		o.Timestamp = e.nextTS()
		e.process(e.matcher.Submit(o, e.nextTS))

	case evStop:
		o := e.arena.acquire()
		o.ID, o.Side, o.Kind = ev.orderID, ev.side, KindStopLoss
		o.TriggerPrice, o.LimitPrice = ev.aux1, ev.price
		o.Qty, o.Remaining, o.Status = ev.qty, ev.qty, StatusPending
		o.Timestamp = e.nextTS()
		e.admitStop(o)

	case evCancel:
		e.handleCancel(ev)

	case evModify:
		e.handleModify(ev)
	}

	e.publishSnapshot()
}

// admitStop checks whether a stop order's condition is already satisfied
// against the current last-trade price and, if so, converts and matches it
// immediately instead of resting it — spec §4.4's "trigger on submission"
// case.
func (e *Engine) admitStop(o *Order) {
	if lt, ok := e.matcher.LastTrade(); ok && Triggered(o.Side, o.TriggerPrice, lt) {
		o.convert()
		o.Timestamp = e.nextTS()
		e.process(e.matcher.Submit(o, e.nextTS))
		return
	}
	e.matcher.stops.Add(o)
	e.handler.OnOrderUpdate(o)
}

func (e *Engine) handleCancel(ev *event) {
	if order, ok := e.matcher.CancelResting(ev.orderID); ok {
		e.handler.OnOrderUpdate(order)
		e.arena.release(order)
		e.respond(ev, true)
		return
	}
	if so, ok := e.matcher.stops.Lookup(ev.orderID); ok {
		e.matcher.stops.Remove(so)
		so.Status = StatusCancelled
		e.handler.OnOrderUpdate(so)
		e.arena.release(so)
		e.respond(ev, true)
		return
	}
	e.log.Error(wrapf(ErrNotFound, "cancel: order %d not resting or pending", ev.orderID))
	e.respond(ev, false)
}

func (e *Engine) handleModify(ev *event) {
	if order, ok := e.matcher.CancelResting(ev.orderID); ok {
		order.Price = ev.price
		order.Qty = ev.qty
		order.Remaining = ev.qty
		if order.Kind == KindIceberg {
			dt := order.DisplayTotal
			if dt == 0 || dt > order.Remaining {
				dt = order.Remaining
			}
			order.DisplayNow = dt
			order.Hidden = order.Remaining - dt
		}
		order.Status = StatusNew
		order.Timestamp = e.nextTS()
		e.process(e.matcher.Submit(order, e.nextTS))
		e.respond(ev, true)
		return
	}
	if so, ok := e.matcher.stops.Lookup(ev.orderID); ok {
		e.matcher.stops.Remove(so)
		if ev.aux1 > 0 {
			so.TriggerPrice = ev.aux1
		}
		so.LimitPrice = ev.price
		so.Qty = ev.qty
		so.Remaining = ev.qty
		so.Timestamp = e.nextTS()
		e.admitStop(so)
		e.respond(ev, true)
		return
	}
	e.log.Error(wrapf(ErrNotFound, "modify: order %d not resting or pending", ev.orderID))
	e.respond(ev, false)
}

func (e *Engine) respond(ev *event, ok bool) {
	if ev.done != nil {
		ev.done <- ok
	}
}

// process fans matcher output out to the handler, the bounded trade
// history, and the arena; dispatch republishes the snapshot afterwards. It
// is the single place trades and touched orders from a Submit/admitStop
// call are consumed, so releases happen exactly once even though a single
// Submit call can touch the same order more than once (every fill appends
// the maker to touched). Duplicates are skipped by pointer, because release
// zeroes the order's ID.
func (e *Engine) process(trades []*Trade, touched []*Order, unfilled []MarketUnfilled) {
	for _, t := range trades {
		e.handler.OnTrade(t)
		e.metrics.TradesTotal.Inc()
		e.appendHistory(*t)
	}

	seen := make(map[*Order]bool, len(touched))
	for _, o := range touched {
		if seen[o] {
			continue
		}
		seen[o] = true
		e.handler.OnOrderUpdate(o)
		if o.Status == StatusFilled || o.Status == StatusCancelled {
			e.arena.release(o)
		}
	}

	for _, u := range unfilled {
		e.handler.OnMarketUnfilled(u)
	}

	ReleaseTrades(trades)
}

func (e *Engine) appendHistory(t Trade) {
	e.historyMu.Lock()
	n := len(e.historyBuf)
	if e.historyLen < n {
		e.historyBuf[(e.historyPos+e.historyLen)%n] = t
		e.historyLen++
	} else {
		e.historyBuf[e.historyPos] = t
		e.historyPos = (e.historyPos + 1) % n
	}
	e.historyMu.Unlock()
}

// History returns up to limit of the most recent trades, oldest first.
// limit <= 0 returns every trade currently retained.
func (e *Engine) History(limit int) []Trade {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()

	n := e.historyLen
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Trade, n)
	bufLen := len(e.historyBuf)
	start := (e.historyPos + e.historyLen - n + bufLen) % bufLen
	for i := 0; i < n; i++ {
		out[i] = e.historyBuf[(start+i)%bufLen]
	}
	return out
}

func (e *Engine) publishSnapshot() {
	snap := &BookSnapshot{ActiveCount: e.matcher.ActiveCount()}
	if p, ok := e.matcher.bids.BestPrice(); ok {
		snap.BestBid, snap.HasBestBid = p, true
	}
	if p, ok := e.matcher.asks.BestPrice(); ok {
		snap.BestAsk, snap.HasBestAsk = p, true
	}
	if snap.HasBestBid && snap.HasBestAsk {
		snap.Spread, snap.HasSpread = snap.BestAsk-snap.BestBid, true
	}
	if lt, ok := e.matcher.LastTrade(); ok {
		snap.LastTradePrice, snap.HasLastTrade = lt, true
	}
	e.snapshot.Store(snap)
	e.metrics.StopBookDepth.Set(float64(e.matcher.stops.Len()))
}

func (e *Engine) snap() *BookSnapshot {
	s := e.snapshot.Load()
	if s == nil {
		return &BookSnapshot{}
	}
	return s
}

// BestBid returns the current best bid price, from the last published
// snapshot rather than a direct ladder read (spec §5).
func (e *Engine) BestBid() (int64, bool) {
	s := e.snap()
	return s.BestBid, s.HasBestBid
}

// BestAsk returns the current best ask price.
func (e *Engine) BestAsk() (int64, bool) {
	s := e.snap()
	return s.BestAsk, s.HasBestAsk
}

// Spread returns BestAsk - BestBid, defined only while both sides are
// non-empty.
func (e *Engine) Spread() (int64, bool) {
	s := e.snap()
	return s.Spread, s.HasSpread
}

// LastTradePrice returns the most recent trade price, defined once at
// least one trade has ever been emitted.
func (e *Engine) LastTradePrice() (int64, bool) {
	s := e.snap()
	return s.LastTradePrice, s.HasLastTrade
}

// ActiveCount returns the number of resting (non-stop) orders.
func (e *Engine) ActiveCount() int {
	return e.snap().ActiveCount
}

// Notional converts a tick price and quantity into a decimal currency value
// using the Engine's configured TickExponent. It exists for reporting and
// metrics callers that need a human currency figure for a trade or quote;
// the matching path itself never calls this.
func (e *Engine) Notional(price int64, qty uint64) decimal.Decimal {
	return Notional(TickScale{Exponent: e.cfg.TickExponent}, price, qty)
}

// Depth returns up to n price levels on side, best-first, computed on the
// Engine worker goroutine for a consistent read rather than a concurrent
// walk of the live ladder.
func (e *Engine) Depth(side Side, n int) ([]LevelView, error) {
	if !e.running.Load() {
		return nil, ErrShutdown
	}
	if !validSide(side) {
		return nil, ErrInvalidArgs
	}
	result := make(chan []LevelView, 1)
	fn := func() {
		lvl := e.matcher.bids
		if side == SideSell {
			lvl = e.matcher.asks
		}
		result <- lvl.Depth(n)
	}
	select {
	case e.queries <- fn:
	default:
		return nil, wrapf(ErrQueueFull, "depth: query backlog full")
	}
	return <-result, nil
}
