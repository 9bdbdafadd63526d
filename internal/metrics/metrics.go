package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/healthtwin/internal/assessment"
)

const namespace = "healthtwin"

type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AnalysesTotal      *prometheus.CounterVec
	AnomaliesTotal     prometheus.Counter
	GenerationFailures *prometheus.CounterVec
	ChainLength        prometheus.Gauge
}

// NewCollector registers every collector on a fresh registry, so independent
// collectors never clash.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10, 30},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "analyses_total",
			Help:      "Completed analyses by narrative source and affected region.",
		}, []string{"source", "region"}),

		AnomaliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "anomalies_total",
			Help:      "Analyses whose vitals were flagged as anomalous.",
		}),

		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "genai",
			Name:      "failures_total",
			Help:      "Generation attempts that fell back to rule-based text, by reason.",
		}, []string{"reason"}),

		ChainLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "integrity",
			Name:      "chain_length",
			Help:      "Number of blocks in the integrity chain, genesis included.",
		}),
	}
}

func (c *Collector) AnalysisCompleted(source assessment.Source, region string, anomaly bool) {
	c.AnalysesTotal.WithLabelValues(string(source), region).Inc()
	if anomaly {
		c.AnomaliesTotal.Inc()
	}
}

func (c *Collector) GenerationFailed(reason string) {
	c.GenerationFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) ChainAppended(length int) {
	c.ChainLength.Set(float64(length))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
