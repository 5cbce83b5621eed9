// Package api provides HTTP endpoints for usage inspection and the language
// catalog. The handler is framework-agnostic: it exposes plain
// http.HandlerFunc methods that routers like chi or gin can mount directly.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxUserIDLen = 255

// Handler provides HTTP endpoints for usage inspection
type Handler struct {
	config Config
}

// GetUsage returns the user's current daily and monthly character counters
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := h.config.GetUserID(r)
	if userID == "" {
		h.handleError(w, r, fmt.Errorf("user ID not found"), http.StatusUnauthorized)
		return
	}
	if len(userID) > maxUserIDLen {
		h.handleError(w, r, fmt.Errorf("invalid user ID format"), http.StatusBadRequest)
		return
	}

	usage, err := h.config.Ledger.GetUsage(ctx, userID)
	if err != nil {
		h.handleError(w, r, fmt.Errorf("failed to get usage: %w", err), http.StatusInternalServerError)
		return
	}

	limit := h.config.Ledger.DailyLimit()
	remaining := limit - usage.Daily.Characters
	if remaining < 0 {
		remaining = 0
	}

	response := UsageResponse{
		UserID: userID,
		Daily: DailyUsage{
			PeriodKey:  usage.Daily.PeriodKey,
			Characters: usage.Daily.Characters,
			Limit:      limit,
			Remaining:  remaining,
		},
		Monthly: MonthlyUsage{
			PeriodKey:  usage.Monthly.PeriodKey,
			Characters: usage.Monthly.Characters,
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// GetLanguages returns the language catalog from the last refresh
func (h *Handler) GetLanguages(w http.ResponseWriter, r *http.Request) {
	if h.config.Gateway == nil {
		h.handleError(w, r, fmt.Errorf("language catalog not configured"), http.StatusServiceUnavailable)
		return
	}

	languages := h.config.Gateway.Languages()
	if languages == nil {
		// Catalog has not been refreshed yet
		h.handleError(w, r, fmt.Errorf("language catalog not loaded"), http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, http.StatusOK, LanguagesResponse{Languages: languages})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Response already sent, nothing to do
		_ = err
	}
}

// handleError handles errors with appropriate HTTP status codes
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if h.config.OnError != nil {
		h.config.OnError(w, r, err)
		return
	}

	h.writeJSON(w, statusCode, map[string]string{
		"error": err.Error(),
	})
}
