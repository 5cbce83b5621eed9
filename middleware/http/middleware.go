// Package http provides HTTP middleware that pre-gates requests against the
// daily character ceiling. It only checks; charging stays with the gateway,
// which bills after a successful provider call. A request that passes the gate
// can still be rejected there once concurrent usage catches up.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// UserIDExtractor extracts the user ID from an HTTP request.
// Return empty string if user is not authenticated.
type UserIDExtractor func(r *http.Request) string

// AmountExtractor calculates the character amount a request intends to spend,
// for example the character count of the text payload.
type AmountExtractor func(r *http.Request) (int, error)

// Config holds middleware configuration
type Config struct {
	// Ledger is the usage ledger instance (required)
	Ledger *lingo.Ledger

	// GetUserID extracts user ID from request (required)
	GetUserID UserIDExtractor

	// GetAmount calculates the character amount from request (required)
	GetAmount AmountExtractor

	// Tier is the service tier the gated endpoint calls; free-tier
	// endpoints pass the gate unconditionally (default: TierPremium)
	Tier lingo.ServiceTier

	// OnQuotaExceeded is called when the ceiling would be exceeded.
	// If nil, returns 429 Too Many Requests.
	OnQuotaExceeded func(w http.ResponseWriter, r *http.Request, err *lingo.QuotaExceededError)

	// OnUnauthorized is called when user is not authenticated.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)

	// OnError is called when an internal error occurs.
	// If nil, returns 500 Internal Server Error.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware creates an HTTP middleware that rejects requests which would
// push the user's daily usage over the ceiling
func Middleware(config Config) func(http.Handler) http.Handler {
	// Set defaults
	if config.Tier == "" {
		config.Tier = lingo.TierPremium
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := config.GetUserID(r)
			if userID == "" {
				if config.OnUnauthorized != nil {
					config.OnUnauthorized(w, r)
				} else {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
				}
				return
			}

			amount, err := config.GetAmount(r)
			if err != nil {
				if config.OnError != nil {
					config.OnError(w, r, err)
				} else {
					http.Error(w, "Bad Request", http.StatusBadRequest)
				}
				return
			}

			err = config.Ledger.CheckQuota(r.Context(), userID, config.Tier, amount)
			if err != nil {
				var quotaErr *lingo.QuotaExceededError
				if errors.As(err, &quotaErr) {
					if config.OnQuotaExceeded != nil {
						config.OnQuotaExceeded(w, r, quotaErr)
					} else {
						msg := fmt.Sprintf("Quota exceeded: %d/%d characters used",
							quotaErr.Used, quotaErr.Limit)
						http.Error(w, msg, http.StatusTooManyRequests)
					}
				} else {
					if config.OnError != nil {
						config.OnError(w, r, err)
					} else {
						http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					}
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerFunc creates an HTTP middleware that enforces the ceiling (HandlerFunc version)
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

// Common extractors for convenience

// FixedAmount returns an AmountExtractor that always returns a fixed amount
func FixedAmount(amount int) AmountExtractor {
	return func(r *http.Request) (int, error) {
		return amount, nil
	}
}

// BodyCharacters returns an AmountExtractor that counts the characters of the
// request body, matching how the gateway sizes its charges
func BodyCharacters() AmountExtractor {
	return func(r *http.Request) (int, error) {
		if r.Body == nil {
			return 0, nil
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			return 0, err
		}

		// Restore body for the next handler
		r.Body = io.NopCloser(bytes.NewReader(body))

		return utf8.RuneCount(body), nil
	}
}

// ContextKey is a type for context keys
type ContextKey string

// UserIDKey is the context key for user ID
const UserIDKey ContextKey = "lingo:userID"

// FromContext returns an UserIDExtractor that gets user ID from request context
func FromContext(key ContextKey) UserIDExtractor {
	return func(r *http.Request) string {
		if userID, ok := r.Context().Value(key).(string); ok {
			return userID
		}
		return ""
	}
}

// FromHeader returns an UserIDExtractor that gets user ID from a header
func FromHeader(headerName string) UserIDExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// WithUserID adds user ID to request context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
