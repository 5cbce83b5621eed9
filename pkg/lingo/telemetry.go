package lingo

import (
	"context"
	"fmt"
	"time"
)

// Collector is peripheral instrumentation: on the catalog-refresh cadence it
// scans every stored usage counter and the host's workspace/table/row counts
// and emits a structured report. It only reads the ledger's data.
type Collector struct {
	counters CounterLister
	stats    StatsSource
	interval time.Duration
	logger   Logger
}

// NewCollector creates a telemetry collector. stats may be nil when the host
// exposes no aggregate counts. A zero interval means DefaultRefreshInterval.
func NewCollector(counters CounterLister, stats StatsSource, interval time.Duration, logger Logger) (*Collector, error) {
	if counters == nil {
		return nil, fmt.Errorf("counter lister is required")
	}
	if interval == 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &Collector{counters: counters, stats: stats, interval: interval, logger: logger}, nil
}

// Run collects immediately, then on every tick until the context ends
func (c *Collector) Run(ctx context.Context) error {
	c.Collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect runs one scan. Failures are logged, never fatal.
func (c *Collector) Collect(ctx context.Context) {
	counters, err := c.counters.ListCounters(ctx)
	if err != nil {
		c.logger.Error("usage scan failed", Field{Key: "error", Value: err.Error()})
		return
	}
	for _, counter := range counters {
		c.logger.Info("usage counter",
			Field{Key: "user_id", Value: counter.UserID},
			Field{Key: "period", Value: string(counter.Kind)},
			Field{Key: "period_key", Value: counter.PeriodKey},
			Field{Key: "characters", Value: counter.Characters},
		)
	}

	if c.stats == nil {
		return
	}
	stats, err := c.stats.Stats(ctx)
	if err != nil {
		c.logger.Error("host stats scan failed", Field{Key: "error", Value: err.Error()})
		return
	}
	c.logger.Info("host stats",
		Field{Key: "workspaces", Value: stats.Workspaces},
		Field{Key: "tables", Value: stats.Tables},
		Field{Key: "rows", Value: stats.Rows},
	)
}
