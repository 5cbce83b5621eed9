package lingo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxAttempts is the bounded retry budget for transient provider
// timeouts, counting the first attempt.
const DefaultMaxAttempts = 5

// GatewayConfig holds language service gateway configuration
type GatewayConfig struct {
	// MaxAttempts bounds retries on transient timeouts
	// (default: DefaultMaxAttempts)
	MaxAttempts int

	// RetryDelay is the initial delay between attempts, doubled after each
	// failure (default: 500ms)
	RetryDelay time.Duration

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger

	// Metrics records provider call durations and errors (default: NoopMetrics)
	Metrics Metrics
}

// Gateway is a thin façade over the external language-processing provider.
// Every quota-gated operation (translate, transliterate, lookup) performs,
// in order: quota check, provider call under the retry policy, then a ledger
// charge sized to the input character count. Romanization is a free local
// operation and bypasses the ledger entirely.
type Gateway struct {
	provider Provider
	ledger   *Ledger
	config   GatewayConfig

	catalog      atomic.Pointer[Catalog]
	refreshGroup singleflight.Group
}

// NewGateway creates a new gateway over the given provider and ledger
func NewGateway(provider Provider, ledger *Ledger, config GatewayConfig) (*Gateway, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	// Set defaults
	if config.MaxAttempts == 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}

	return &Gateway{
		provider: provider,
		ledger:   ledger,
		config:   config,
	}, nil
}

// Translate translates text between two languages using the named service
func (g *Gateway) Translate(ctx context.Context, text, sourceLang, targetLang, service, userID string) (string, error) {
	return g.gatedCall(ctx, "translate", userID, service, text, func(ctx context.Context) (string, error) {
		return g.provider.Translate(ctx, TranslationRequest{
			Text:           text,
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			Service:        service,
		})
	})
}

// Transliterate converts text using the scheme identified by schemeID
func (g *Gateway) Transliterate(ctx context.Context, text, schemeID, userID string) (string, error) {
	return g.gatedCall(ctx, "transliterate", userID, serviceFromID(schemeID), text, func(ctx context.Context) (string, error) {
		return g.provider.Transliterate(ctx, TransliterationRequest{Text: text, SchemeID: schemeID})
	})
}

// Lookup looks text up in the dictionary identified by dictionaryID
func (g *Gateway) Lookup(ctx context.Context, text, dictionaryID, userID string) (string, error) {
	return g.gatedCall(ctx, "lookup", userID, serviceFromID(dictionaryID), text, func(ctx context.Context) (string, error) {
		return g.provider.DictionaryLookup(ctx, LookupRequest{Text: text, DictionaryID: dictionaryID})
	})
}

// Romanize produces a freshly computed romanization record for text.
// Not quota-gated: no user attribution, no check, no charge.
func (g *Gateway) Romanize(ctx context.Context, text string, system RomanizationSystem, toneNumbers, spaces bool) (*RomanizationRecord, error) {
	var res *RomanizationResult
	err := g.callWithRetry(ctx, "romanize", func(ctx context.Context) error {
		var err error
		res, err = g.provider.Romanize(ctx, RomanizationRequest{
			Text:        text,
			System:      system,
			ToneNumbers: toneNumbers,
			Spaces:      spaces,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return newRomanizationRecord(res), nil
}

// RefreshLanguageCatalog pulls the provider's language metadata into the
// gateway's cache. Concurrent refreshes collapse into a single provider call.
func (g *Gateway) RefreshLanguageCatalog(ctx context.Context) error {
	_, err, _ := g.refreshGroup.Do("catalog", func() (interface{}, error) {
		var catalog *Catalog
		err := g.callWithRetry(ctx, "language_catalog", func(ctx context.Context) error {
			var err error
			catalog, err = g.provider.LanguageCatalog(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		g.catalog.Store(catalog)
		g.config.Logger.Info("language catalog refreshed",
			Field{Key: "languages", Value: len(catalog.Languages)},
			Field{Key: "services", Value: len(catalog.Services)},
		)
		return nil, nil
	})
	return err
}

// Languages returns the cached language code to name mapping, or nil when
// the catalog has not been refreshed yet.
func (g *Gateway) Languages() map[string]string {
	catalog := g.catalog.Load()
	if catalog == nil {
		return nil
	}
	return catalog.Languages
}

// ServiceTier resolves the quota tier of a service from the cached catalog.
// Unknown services and a missing catalog resolve to premium, so unrecognized
// calls are never billed for free.
func (g *Gateway) ServiceTier(service string) ServiceTier {
	catalog := g.catalog.Load()
	if catalog == nil {
		return TierPremium
	}
	tier, ok := catalog.Services[service]
	if !ok {
		return TierPremium
	}
	return tier
}

// gatedCall runs one quota-gated provider operation: check, call, charge.
// The charge is sized to the input character count and applied only for
// premium-tier services, only after the provider call succeeded.
func (g *Gateway) gatedCall(ctx context.Context, op, userID, service, text string, fn func(context.Context) (string, error)) (string, error) {
	tier := g.ServiceTier(service)
	characters := utf8.RuneCountInString(text)

	if err := g.ledger.CheckQuota(ctx, userID, tier, characters); err != nil {
		return "", err
	}

	var out string
	err := g.callWithRetry(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	if tier == TierPremium {
		if err := g.ledger.Charge(ctx, userID, characters); err != nil {
			return "", err
		}
	}
	return out, nil
}

// callWithRetry invokes fn under the gateway retry policy: transient
// timeouts are retried with doubling delays up to the attempt budget and
// then surface as ErrServiceUnavailable; any other provider error wraps into
// a *TransformationError and is not retried.
func (g *Gateway) callWithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	delay := g.config.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		start := time.Now()
		err := fn(ctx)
		g.config.Metrics.RecordProviderCall(op, time.Since(start), err)
		if err == nil {
			return nil
		}

		if !isTimeout(err) {
			return &TransformationError{Op: op, Err: err}
		}

		lastErr = err
		g.config.Logger.Warn("provider timeout",
			Field{Key: "op", Value: op},
			Field{Key: "attempt", Value: attempt},
			Field{Key: "error", Value: err.Error()},
		)

		if attempt == g.config.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s: %w after %d attempts: %v", op, ErrServiceUnavailable, g.config.MaxAttempts, lastErr)
}

// isTimeout reports whether a provider error is a transient timeout
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// serviceFromID extracts the service name from a "<service>:<rest>"
// transliteration or dictionary identifier. Identifiers without a separator
// are treated as bare service names.
func serviceFromID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
