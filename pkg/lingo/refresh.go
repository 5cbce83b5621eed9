package lingo

import (
	"context"
	"fmt"
	"time"
)

// DefaultRefreshInterval is the cadence of periodic catalog refreshes and
// telemetry collection runs.
const DefaultRefreshInterval = 3 * time.Hour

// Refresher keeps the gateway's language catalog current: one refresh at
// startup, then one every interval until the context ends.
type Refresher struct {
	gateway  *Gateway
	interval time.Duration
	logger   Logger
}

// NewRefresher creates a catalog refresher. A zero interval means
// DefaultRefreshInterval.
func NewRefresher(gateway *Gateway, interval time.Duration, logger Logger) (*Refresher, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if interval == 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &Refresher{gateway: gateway, interval: interval, logger: logger}, nil
}

// Run refreshes immediately, then on every tick. Failed refreshes are logged
// and retried on the next tick; the previously cached catalog stays in use.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.gateway.RefreshLanguageCatalog(ctx); err != nil {
		r.logger.Error("initial catalog refresh failed", Field{Key: "error", Value: err.Error()})
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.gateway.RefreshLanguageCatalog(ctx); err != nil {
				r.logger.Error("catalog refresh failed", Field{Key: "error", Value: err.Error()})
			}
		}
	}
}
