package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tierUsed    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	arbitrage   prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tierUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridcast_forecast_tier_total",
				Help: "Forecast generations by data tier",
			},
			[]string{"tier", "model"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridcast_last_price",
				Help: "Last observed price for a quantity",
			},
			[]string{"quantity"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		arbitrage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gridcast_arbitrage_opportunities",
				Help: "Arbitrage opportunities detected in the latest forecast",
			},
		),
	}
}

// RecordTierUsed records which data tier served a forecast.
func (r *Recorder) RecordTierUsed(tier, model string) {
	r.tierUsed.WithLabelValues(tier, model).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last observed price for a quantity.
func (r *Recorder) RecordLastPrice(quantity string, price float64) {
	r.lastPrice.WithLabelValues(quantity).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordArbitrage records the arbitrage count of the latest forecast.
func (r *Recorder) RecordArbitrage(count int) {
	r.arbitrage.Set(float64(count))
}
