package lingo

import (
	"context"
)

// DefaultDailyMaxCharacters is the daily character ceiling applied to
// premium-tier calls when no explicit limit is configured.
const DefaultDailyMaxCharacters = 100000

// UsageStore defines the persistence interface for usage counters.
// All methods use concrete types from this package to avoid import cycles.
type UsageStore interface {
	// GetCounter retrieves the counter for (userID, kind, periodKey),
	// lazily creating it at zero if it does not exist yet.
	GetCounter(ctx context.Context, userID string, kind PeriodKind, periodKey int) (*UsageCounter, error)

	// AddUsage atomically increments the counter by amount, creating it if
	// needed, and returns the new total.
	AddUsage(ctx context.Context, userID string, kind PeriodKind, periodKey int, amount int) (int, error)
}

// CounterLister is an optional UsageStore capability used by the telemetry
// collector to scan all counters.
type CounterLister interface {
	// ListCounters returns a snapshot of every stored usage counter.
	ListCounters(ctx context.Context) ([]*UsageCounter, error)
}

// LedgerConfig holds quota ledger configuration
type LedgerConfig struct {
	// DailyMaxCharacters is the premium-tier daily ceiling
	// (default: DefaultDailyMaxCharacters)
	DailyMaxCharacters int

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger

	// Metrics is used for tracking charges (default: NoopMetrics)
	Metrics Metrics

	// Clock supplies the current time for period keys (default: SystemClock)
	Clock Clock
}

// Ledger tracks per-user daily and monthly character usage and gates
// premium-tier service calls against the daily ceiling.
//
// Check and charge are two separate store round-trips; concurrent premium
// calls for the same user can overcount slightly relative to the ceiling.
// There is no refund path: a failed step after a successful paid call leaves
// the charge applied.
type Ledger struct {
	store  UsageStore
	config LedgerConfig
}

// NewLedger creates a new quota ledger with the given store and configuration
func NewLedger(store UsageStore, config LedgerConfig) (*Ledger, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}

	// Set defaults
	if config.DailyMaxCharacters == 0 {
		config.DailyMaxCharacters = DefaultDailyMaxCharacters
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}

	return &Ledger{
		store:  store,
		config: config,
	}, nil
}

// GetUsage resolves or lazily creates the daily and monthly counters for the
// current calendar day and month.
func (l *Ledger) GetUsage(ctx context.Context, userID string) (*UsagePair, error) {
	now := l.config.Clock.Now()

	daily, err := l.store.GetCounter(ctx, userID, PeriodDaily, PeriodKeyDaily(now))
	if err != nil {
		return nil, err
	}
	monthly, err := l.store.GetCounter(ctx, userID, PeriodMonthly, PeriodKeyMonthly(now))
	if err != nil {
		return nil, err
	}

	return &UsagePair{Daily: daily, Monthly: monthly}, nil
}

// Charge unconditionally increments both current counters by characters and
// emits a structured usage log line. Callers charge only after a successful
// provider call, sized to the character length of the input text.
func (l *Ledger) Charge(ctx context.Context, userID string, characters int) error {
	if characters < 0 {
		return ErrInvalidAmount
	}
	if characters == 0 {
		return nil // No-op
	}

	now := l.config.Clock.Now()
	dailyKey := PeriodKeyDaily(now)
	monthlyKey := PeriodKeyMonthly(now)

	dailyTotal, err := l.store.AddUsage(ctx, userID, PeriodDaily, dailyKey, characters)
	if err != nil {
		return err
	}
	monthlyTotal, err := l.store.AddUsage(ctx, userID, PeriodMonthly, monthlyKey, characters)
	if err != nil {
		return err
	}

	l.config.Logger.Info("usage recorded",
		Field{Key: "user_id", Value: userID},
		Field{Key: "characters", Value: characters},
		Field{Key: "daily_period", Value: dailyKey},
		Field{Key: "daily_characters", Value: dailyTotal},
		Field{Key: "monthly_period", Value: monthlyKey},
		Field{Key: "monthly_characters", Value: monthlyTotal},
	)
	l.config.Metrics.RecordCharge(userID, characters)

	return nil
}

// CheckQuota verifies that a call of the given tier and input length is
// permitted. Free-tier calls are always allowed. Premium-tier calls are
// allowed only while daily usage plus the requested amount stays at or below
// the daily ceiling; otherwise a *QuotaExceededError is returned.
func (l *Ledger) CheckQuota(ctx context.Context, userID string, tier ServiceTier, characters int) error {
	if characters < 0 {
		return ErrInvalidAmount
	}
	if tier == TierFree {
		return nil
	}

	usage, err := l.GetUsage(ctx, userID)
	if err != nil {
		return err
	}

	if usage.Daily.Characters+characters > l.config.DailyMaxCharacters {
		l.config.Metrics.RecordQuotaDenied(userID, tier)
		return &QuotaExceededError{
			UserID:    userID,
			Tier:      tier,
			Used:      usage.Daily.Characters,
			Requested: characters,
			Limit:     l.config.DailyMaxCharacters,
		}
	}

	return nil
}

// DailyLimit returns the configured premium-tier daily character ceiling
func (l *Ledger) DailyLimit() int {
	return l.config.DailyMaxCharacters
}
