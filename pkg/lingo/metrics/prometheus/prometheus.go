package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Metrics implements lingo.Metrics using Prometheus.
type Metrics struct {
	chargesTotal         prometheus.Counter
	chargedCharacters    prometheus.Histogram
	quotaDeniedTotal     *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	providerCallErrors   *prometheus.CounterVec
	backfillBucketRows   prometheus.Histogram
	backfillRunsTotal    *prometheus.CounterVec
	backfillRunDuration  prometheus.Histogram
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		chargesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_charges_total",
			Help:      "Total number of character charges applied to usage counters.",
		}),

		chargedCharacters: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usage_charged_characters",
			Help:      "Distribution of charged character amounts.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}),

		quotaDeniedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denied_total",
			Help:      "Total number of calls rejected by the daily ceiling.",
		}, []string{"tier"}),

		providerCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Latency of external language service calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		providerCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_call_errors_total",
			Help:      "Total number of failed external language service calls.",
		}, []string{"op"}),

		backfillBucketRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backfill_bucket_rows",
			Help:      "Distribution of backfill bucket sizes.",
			Buckets:   []float64{1, 2, 10, 100, 500, 2000, 200000},
		}),

		backfillRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_runs_total",
			Help:      "Total number of backfill runs by outcome.",
		}, []string{"outcome"}),

		backfillRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backfill_run_duration_seconds",
			Help:      "Duration of whole backfill runs.",
			Buckets:   []float64{0.1, 1, 10, 60, 300, 1800, 3600},
		}),
	}
}

func (m *Metrics) RecordCharge(_ string, characters int) {
	m.chargesTotal.Inc()
	m.chargedCharacters.Observe(float64(characters))
}

func (m *Metrics) RecordQuotaDenied(_ string, tier lingo.ServiceTier) {
	m.quotaDeniedTotal.WithLabelValues(string(tier)).Inc()
}

func (m *Metrics) RecordProviderCall(op string, duration time.Duration, err error) {
	m.providerCallDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.providerCallErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) RecordBackfillBucket(rows int, _ time.Duration) {
	m.backfillBucketRows.Observe(float64(rows))
}

func (m *Metrics) RecordBackfillRun(outcome string, duration time.Duration) {
	m.backfillRunsTotal.WithLabelValues(outcome).Inc()
	m.backfillRunDuration.Observe(duration.Seconds())
}
