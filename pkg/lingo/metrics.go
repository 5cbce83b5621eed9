package lingo

import "time"

// Metrics defines the interface for tracking quota charges, provider calls
// and backfill progress.
type Metrics interface {
	// RecordCharge records characters billed against a user's counters.
	RecordCharge(userID string, characters int)

	// RecordQuotaDenied records a premium call rejected by the daily ceiling.
	RecordQuotaDenied(userID string, tier ServiceTier)

	// RecordProviderCall records the duration and outcome of one call to the
	// external language service.
	RecordProviderCall(op string, duration time.Duration, err error)

	// RecordBackfillBucket records one processed backfill bucket.
	RecordBackfillBucket(rows int, duration time.Duration)

	// RecordBackfillRun records a completed backfill run with its outcome
	// (e.g. "completed", "quota_exceeded", "timeout", "error").
	RecordBackfillRun(outcome string, duration time.Duration)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordCharge(userID string, characters int)                    {}
func (n *NoopMetrics) RecordQuotaDenied(userID string, tier ServiceTier)             {}
func (n *NoopMetrics) RecordProviderCall(op string, duration time.Duration, e error) {}
func (n *NoopMetrics) RecordBackfillBucket(rows int, duration time.Duration)         {}
func (n *NoopMetrics) RecordBackfillRun(outcome string, duration time.Duration)      {}
