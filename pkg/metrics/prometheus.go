package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder пишет события движка паттернов в Prometheus.
type Recorder struct {
	candles        *prometheus.CounterVec
	patternsFormed *prometheus.CounterVec
	patternsKnown  *prometheus.GaugeVec
	virtualOpen    *prometheus.GaugeVec
	virtualClosed  *prometheus.CounterVec
	signals        *prometheus.CounterVec
	orderErrors    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New регистрирует метрики в reg. В тестах передаём prometheus.NewRegistry(),
// чтобы не ловить duplicate registration на глобальном реестре.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		candles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_bot_candles_total",
				Help: "Finished candles processed by the pattern engine",
			},
			[]string{"inst"},
		),
		patternsFormed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_bot_patterns_formed_total",
				Help: "Pattern keys completed by the pattern window",
			},
			[]string{"inst"},
		),
		patternsKnown: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pattern_bot_patterns_known",
				Help: "Distinct pattern keys on the scoreboard",
			},
			[]string{"inst"},
		),
		virtualOpen: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pattern_bot_virtual_orders_open",
				Help: "Virtual orders waiting for stop or target",
			},
			[]string{"inst"},
		),
		virtualClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_bot_virtual_orders_closed_total",
				Help: "Virtual orders settled, by side and outcome",
			},
			[]string{"inst", "side", "outcome"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_bot_signals_total",
				Help: "Real trade instructions emitted",
			},
			[]string{"inst", "side"},
		),
		orderErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_bot_order_errors_total",
				Help: "Order placement failures",
			},
			[]string{"inst"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pattern_bot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) CandleProcessed(inst string) {
	r.candles.WithLabelValues(inst).Inc()
}

func (r *Recorder) PatternFormed(inst string, known int) {
	r.patternsFormed.WithLabelValues(inst).Inc()
	r.patternsKnown.WithLabelValues(inst).Set(float64(known))
}

func (r *Recorder) VirtualOpen(inst string, open int) {
	r.virtualOpen.WithLabelValues(inst).Set(float64(open))
}

func (r *Recorder) VirtualClosed(inst, side, outcome string) {
	r.virtualClosed.WithLabelValues(inst, side, outcome).Inc()
}

func (r *Recorder) SignalEmitted(inst, side string) {
	r.signals.WithLabelValues(inst, side).Inc()
}

func (r *Recorder) OrderError(inst string) {
	r.orderErrors.WithLabelValues(inst).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
