// Package metrics provides Prometheus metrics for the rankpoints engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultValueBuckets spans first-place values from a handful of points up
// to a capped, fully boosted major.
var defaultValueBuckets = []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320, 640} //nolint:gochecknoglobals // bucket layout

// Manager owns every collector exported by the engine.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	valueBuckets   []float64
	registry       prometheus.Registerer

	// Valuation
	tournamentsValued prometheus.Counter
	firstPlaceValue   prometheus.Histogram
	tgpValue          prometheus.Histogram

	// Distribution
	awardsDistributed prometheus.Counter
	pointsDistributed prometheus.Counter

	// Decay and ratings
	decayRecalculations prometheus.Counter
	ratingUpdates       prometheus.Counter
	ratingSystemLookups *prometheus.CounterVec

	// Ranking table
	rankedParticipants  prometheus.Gauge
	rankingQueryLatency prometheus.Histogram

	// Batch pool
	batchJobs       prometheus.Counter
	batchJobErrors  prometheus.Counter
	batchLatency    prometheus.Histogram
	batchWorkerBusy prometheus.Gauge

	// Errors
	errorsByComponent  *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton collector set

// Custom registry keeps Go runtime collectors out of the exported set.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global collectors
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "rankpoints",
		subsystem:      "engine",
		latencyBuckets: prometheus.DefBuckets,
		valueBuckets:   defaultValueBuckets,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.tournamentsValued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tournaments_valued_total",
		Help:      "Total number of tournament valuations computed",
	})

	m.firstPlaceValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "first_place_value",
		Help:      "Distribution of computed first-place values",
		Buckets:   m.valueBuckets,
	})

	m.tgpValue = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tgp_ratio",
		Help:      "Distribution of tournament game percentages (1.0 = 100%)",
		Buckets:   []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2},
	})

	m.awardsDistributed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_distributed_total",
		Help:      "Total number of point awards produced",
	})

	m.pointsDistributed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_distributed_total",
		Help:      "Sum of total points across all produced awards",
	})

	m.decayRecalculations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decay_recalculations_total",
		Help:      "Total number of standings whose decay was recomputed",
	})

	m.ratingUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_updates_total",
		Help:      "Total number of participant rating updates",
	})

	m.ratingSystemLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rating_system_lookups_total",
			Help:      "Rating system registry lookups by id and outcome",
		},
		[]string{"system", "outcome"},
	)

	m.rankedParticipants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranked_participants",
		Help:      "Number of participants in the ranking table",
	})

	m.rankingQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_query_latency_milliseconds",
		Help:      "Ranking table query latency in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.batchJobs = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_jobs_total",
		Help:      "Total number of batch records processed",
	})

	m.batchJobErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_job_errors_total",
		Help:      "Total number of batch records that failed",
	})

	m.batchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_latency_milliseconds",
		Help:      "Wall time of a whole batch run in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.batchWorkerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_workers_busy",
		Help:      "Number of batch workers currently processing a record",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.calculationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "calculation_latency_milliseconds",
			Help:      "Latency of engine operations in milliseconds",
			Buckets:   m.latencyBuckets,
		},
		[]string{"operation"},
	)
}

// RecordTournamentValued records one valuation with its TGP and first-place value.
func RecordTournamentValued(tgp, firstPlaceValue float64) {
	globalManager.tournamentsValued.Inc()
	globalManager.tgpValue.Observe(tgp)
	globalManager.firstPlaceValue.Observe(firstPlaceValue)
}

// RecordAwards records a distributed award set.
func RecordAwards(count int, totalPoints float64) {
	globalManager.awardsDistributed.Add(float64(count))
	if totalPoints > 0 {
		globalManager.pointsDistributed.Add(totalPoints)
	}
}

// RecordDecayRecalculations adds n recomputed standings.
func RecordDecayRecalculations(n int) {
	globalManager.decayRecalculations.Add(float64(n))
}

// RecordRatingUpdates adds n rating updates.
func RecordRatingUpdates(n int) {
	globalManager.ratingUpdates.Add(float64(n))
}

// RecordRatingSystemLookup records a registry lookup outcome ("hit" or "miss").
func RecordRatingSystemLookup(system, outcome string) {
	globalManager.ratingSystemLookups.WithLabelValues(system, outcome).Inc()
}

// UpdateRankedParticipants sets the ranking table size.
func UpdateRankedParticipants(count int) {
	globalManager.rankedParticipants.Set(float64(count))
}

// RecordRankingQueryLatency records a ranking table read.
func RecordRankingQueryLatency(latencyMs float64) {
	globalManager.rankingQueryLatency.Observe(latencyMs)
}

// RecordBatchJob records one processed batch record.
func RecordBatchJob(failed bool) {
	globalManager.batchJobs.Inc()
	if failed {
		globalManager.batchJobErrors.Inc()
	}
}

// RecordBatchLatency records the wall time of a batch run.
func RecordBatchLatency(latencyMs float64) {
	globalManager.batchLatency.Observe(latencyMs)
}

// AddBatchWorkersBusy adjusts the busy worker gauge by delta.
func AddBatchWorkersBusy(delta int) {
	globalManager.batchWorkerBusy.Add(float64(delta))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordCalculationLatency records the latency of a named engine operation.
func RecordCalculationLatency(operation string, latencyMs float64) {
	globalManager.calculationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
