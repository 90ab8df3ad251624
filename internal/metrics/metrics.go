// Package metrics provides the centralized Prometheus metrics registry for the settlement engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tipping_monster"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	DaysSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "days_settled_total",
		Help:      "Total number of days settled, by stake mode",
	}, []string{"mode"})
	TipsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tips_settled_total",
		Help:      "Total number of tips settled, by outcome",
	}, []string{"outcome"})
	UnmatchedTipsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unmatched_tips_total",
		Help:      "Total number of tips with no matching result",
	})
	MissingInputsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "missing_inputs_total",
		Help:      "Total number of dates skipped for a missing input file",
	}, []string{"kind"})
	ParseFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_failures_total",
		Help:      "Total number of malformed records skipped",
	}, []string{"source"})
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Total number of summary dispatch attempts, by result",
	}, []string{"result"})
	NAPOverridesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nap_overrides_total",
		Help:      "Total number of NAP selections blocked by the odds ceiling",
	}, []string{"replaced"})
	GateDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of confidence-gate decisions, by reason",
	}, []string{"reason"})
)

// Gauge metrics
var (
	DailyProfit = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daily_profit_points",
		Help:      "Profit in points of the most recently settled day",
	}, []string{"mode"})
	DailyROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daily_roi_percent",
		Help:      "ROI percentage of the most recently settled day",
	}, []string{"mode"})
	BandROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "band_roi_percent",
		Help:      "ROI percentage per confidence band",
	}, []string{"band"})
	RollingROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rolling_roi_percent",
		Help:      "ROI percentage over the latest rolling window",
	})
	ResultsCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "results_cache_hit_ratio",
		Help:      "Hit ratio of the parsed-results cache",
	})
)

// Histogram metrics
var (
	SettlementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_duration_seconds",
		Help:      "Duration of settling one day in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	AggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Duration of ROI aggregation runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(DaysSettledTotal)
		registry.MustRegister(TipsSettledTotal)
		registry.MustRegister(UnmatchedTipsTotal)
		registry.MustRegister(MissingInputsTotal)
		registry.MustRegister(ParseFailuresTotal)
		registry.MustRegister(DispatchTotal)
		registry.MustRegister(NAPOverridesTotal)
		registry.MustRegister(GateDecisionsTotal)

		registry.MustRegister(DailyProfit)
		registry.MustRegister(DailyROI)
		registry.MustRegister(BandROI)
		registry.MustRegister(RollingROI)
		registry.MustRegister(ResultsCacheHitRatio)

		registry.MustRegister(SettlementDuration)
		registry.MustRegister(AggregationDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordDaySettled records a settled day and its headline numbers.
func RecordDaySettled(mode string, profit, roi, durationSeconds float64) {
	DaysSettledTotal.WithLabelValues(mode).Inc()
	DailyProfit.WithLabelValues(mode).Set(profit)
	DailyROI.WithLabelValues(mode).Set(roi)
	SettlementDuration.Observe(durationSeconds)
}

// RecordTipSettled records one settled tip by outcome.
func RecordTipSettled(outcome string) {
	TipsSettledTotal.WithLabelValues(outcome).Inc()
}

// RecordUnmatchedTip records a tip with no result.
func RecordUnmatchedTip() {
	UnmatchedTipsTotal.Inc()
}

// RecordMissingInput records a date skipped for a missing input.
func RecordMissingInput(kind string) {
	MissingInputsTotal.WithLabelValues(kind).Inc()
}

// RecordParseFailures records skipped malformed records.
func RecordParseFailures(source string, count int) {
	if count <= 0 {
		return
	}
	ParseFailuresTotal.WithLabelValues(source).Add(float64(count))
}

// RecordDispatch records a dispatch attempt.
func RecordDispatch(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	DispatchTotal.WithLabelValues(result).Inc()
}

// RecordNAPOverride records a blocked NAP.
func RecordNAPOverride(replaced bool) {
	label := "false"
	if replaced {
		label = "true"
	}
	NAPOverridesTotal.WithLabelValues(label).Inc()
}

// RecordGateDecision records a confidence-gate decision.
func RecordGateDecision(reason string) {
	GateDecisionsTotal.WithLabelValues(reason).Inc()
}

// UpdateBandROI sets the ROI gauge for a confidence band.
func UpdateBandROI(band string, roi float64) {
	BandROI.WithLabelValues(band).Set(roi)
}

// UpdateRollingROI sets the latest rolling ROI.
func UpdateRollingROI(roi float64) {
	RollingROI.Set(roi)
}

// UpdateCacheHitRatio sets the results cache hit ratio.
func UpdateCacheHitRatio(ratio float64) {
	ResultsCacheHitRatio.Set(ratio)
}

// RecordAggregationDuration records an aggregation run.
func RecordAggregationDuration(durationSeconds float64) {
	AggregationDuration.Observe(durationSeconds)
}
