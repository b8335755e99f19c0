package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ForecastLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gridcast",
			Subsystem: "forecast",
			Name:      "latency_seconds",
			Help:      "Latency of forecast endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ForecastErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridcast",
			Subsystem: "forecast",
			Name:      "errors_total",
			Help:      "Errors by forecast endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ForecastLatency, ForecastErrors)
	})
}
