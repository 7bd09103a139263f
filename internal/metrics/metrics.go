// Package metrics provides the centralized Prometheus metrics registry for the reconciler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PollCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "poll_cycles_total",
		Help:      "Total number of reconciliation poll cycles run",
	})
	EventsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "events_processed_total",
		Help:      "Total number of events fully reconciled",
	})
	EventsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "events_skipped_total",
		Help:      "Total number of events skipped per reason",
	}, []string{"reason"})
	SourceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "source_fetches_total",
		Help:      "Total number of successful classification fetches per source",
	}, []string{"source"})
	SourceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "source_failures_total",
		Help:      "Total number of failed source queries per source and failure kind",
	}, []string{"source", "kind"})
	WagersPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "wagers_placed_total",
		Help:      "Total number of wagers placed",
	})
	WagersSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "wagers_settled_total",
		Help:      "Total number of wagers settled per final status",
	}, []string{"status"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridline",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of HTTP circuit breaker trips",
	})
)

// Gauge metrics
var (
	DueEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridline",
		Name:      "due_events",
		Help:      "Number of completed events currently awaiting reconciliation",
	})
	LastAccuracyScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridline",
		Name:      "last_accuracy_score",
		Help:      "Overall accuracy score of the most recently analyzed event",
	})
	CumulativeProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridline",
		Name:      "cumulative_profit",
		Help:      "Cumulative settled profit across all wagers",
	})
	ScheduleStaleness = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridline",
		Name:      "schedule_staleness_seconds",
		Help:      "Age of the cached season calendar in seconds",
	})
)

// Histogram metrics
var (
	PollCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gridline",
		Name:      "poll_cycle_duration_seconds",
		Help:      "Duration of a full reconciliation poll cycle in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	SourceFetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gridline",
		Name:      "source_fetch_latency_seconds",
		Help:      "Latency of classification fetches per source in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PollCyclesTotal)
		registry.MustRegister(EventsProcessedTotal)
		registry.MustRegister(EventsSkippedTotal)
		registry.MustRegister(SourceFetches)
		registry.MustRegister(SourceFailures)
		registry.MustRegister(WagersPlacedTotal)
		registry.MustRegister(WagersSettledTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Register gauge metrics
		registry.MustRegister(DueEvents)
		registry.MustRegister(LastAccuracyScore)
		registry.MustRegister(CumulativeProfit)
		registry.MustRegister(ScheduleStaleness)

		// Register histogram metrics
		registry.MustRegister(PollCycleDuration)
		registry.MustRegister(SourceFetchLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordWagerPlaced records a wager placement event.
func RecordWagerPlaced() {
	WagersPlacedTotal.Inc()
}

// RecordWagerSettled records a wager settlement event.
func RecordWagerSettled(status string) {
	WagersSettledTotal.WithLabelValues(status).Inc()
}
