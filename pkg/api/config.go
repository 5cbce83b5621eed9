package api

import (
	"fmt"
	"net/http"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Config holds configuration for the usage API handler
type Config struct {
	// Ledger is the usage ledger instance (required)
	Ledger *lingo.Ledger

	// Gateway serves the language catalog endpoint (optional).
	// If nil, GET /languages responds with 503.
	Gateway *lingo.Gateway

	// GetUserID extracts user ID from HTTP request (required)
	GetUserID func(*http.Request) string

	// OnError handles errors (auth, internal, etc.)
	// If nil, uses default error handling
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Ledger == nil {
		return fmt.Errorf("ledger is required")
	}
	if c.GetUserID == nil {
		return fmt.Errorf("getUserID is required")
	}
	return nil
}

// NewHandler creates a new usage API handler with the given configuration
func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Handler{
		config: config,
	}, nil
}

// Helper functions for common UserID extraction patterns

// FromHeader returns a GetUserID function that extracts user ID from a header
func FromHeader(headerName string) func(*http.Request) string {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// FromContext returns a GetUserID function that extracts user ID from request context
func FromContext(key interface{}) func(*http.Request) string {
	return func(r *http.Request) string {
		if userID, ok := r.Context().Value(key).(string); ok {
			return userID
		}
		return ""
	}
}
