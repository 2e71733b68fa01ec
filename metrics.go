package clob

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Engine's counters, grounded on Aidin1998-finalex's
// market-maker-bot/monitoring package but registered explicitly against a
// caller-supplied Registerer rather than promauto's package-level default
// registry, so an Engine can be embedded without polluting global state.
type Metrics struct {
	TradesTotal    prometheus.Counter
	OrdersTotal    *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	QueueRejects   prometheus.Counter
	MatchLatency   prometheus.Histogram
	StopBookDepth  prometheus.Gauge
}

// NewMetrics builds and, if reg is non-nil, registers the Engine's metric
// set. Passing a nil Registerer is valid — the Metrics still work, they are
// just never scraped, useful for tests that don't want a shared registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_trades_total",
			Help: "Total trades executed by the matching engine.",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clob_orders_total",
			Help: "Accepted orders by kind.",
		}, []string{"kind"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clob_event_queue_depth",
			Help: "Approximate number of events waiting in the submission queue.",
		}),
		QueueRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clob_event_queue_rejects_total",
			Help: "Submissions dropped because the event queue was full.",
		}),
		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clob_match_latency_seconds",
			Help:    "Time to process one dequeued event end to end.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 2, 20),
		}),
		StopBookDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clob_stop_book_depth",
			Help: "Number of untriggered stop orders currently resting.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TradesTotal, m.OrdersTotal, m.QueueDepth, m.QueueRejects, m.MatchLatency, m.StopBookDepth)
	}
	return m
}
