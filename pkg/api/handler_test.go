package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vocabsheet/lingofields/pkg/api"
	"github.com/vocabsheet/lingofields/pkg/lingo"
	"github.com/vocabsheet/lingofields/storage/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type catalogProvider struct{ catalog *lingo.Catalog }

func (p *catalogProvider) Translate(ctx context.Context, req lingo.TranslationRequest) (string, error) {
	return req.Text, nil
}

func (p *catalogProvider) Transliterate(ctx context.Context, req lingo.TransliterationRequest) (string, error) {
	return req.Text, nil
}

func (p *catalogProvider) DictionaryLookup(ctx context.Context, req lingo.LookupRequest) (string, error) {
	return req.Text, nil
}

func (p *catalogProvider) Romanize(ctx context.Context, req lingo.RomanizationRequest) (*lingo.RomanizationResult, error) {
	return &lingo.RomanizationResult{WordList: []string{req.Text}, Solutions: [][]string{{req.Text}}}, nil
}

func (p *catalogProvider) LanguageCatalog(ctx context.Context) (*lingo.Catalog, error) {
	return p.catalog, nil
}

func newTestLedger(t *testing.T) *lingo.Ledger {
	t.Helper()
	ledger, err := lingo.NewLedger(memory.New(), lingo.LedgerConfig{
		DailyMaxCharacters: 1000,
		Clock:              fixedClock{now: time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}
	return ledger
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := api.NewHandler(api.Config{})
	if err == nil {
		t.Error("Expected error for missing ledger")
	}

	_, err = api.NewHandler(api.Config{Ledger: newTestLedger(t)})
	if err == nil {
		t.Error("Expected error for missing GetUserID")
	}

	_, err = api.NewHandler(api.Config{
		Ledger:    newTestLedger(t),
		GetUserID: api.FromHeader("X-User-ID"),
	})
	if err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestHandler_GetUsage(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Charge(context.Background(), "user1", 250); err != nil {
		t.Fatalf("Charge failed: %v", err)
	}

	handler, err := api.NewHandler(api.Config{
		Ledger:    ledger,
		GetUserID: api.FromHeader("X-User-ID"),
	})
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.GetUsage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var resp api.UsageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.UserID != "user1" {
		t.Errorf("Expected user1, got %q", resp.UserID)
	}
	if resp.Daily.Characters != 250 || resp.Daily.Limit != 1000 || resp.Daily.Remaining != 750 {
		t.Errorf("Unexpected daily usage: %+v", resp.Daily)
	}
	if resp.Daily.PeriodKey != 20240307 {
		t.Errorf("Expected daily period key 20240307, got %d", resp.Daily.PeriodKey)
	}
	if resp.Monthly.Characters != 250 || resp.Monthly.PeriodKey != 202403 {
		t.Errorf("Unexpected monthly usage: %+v", resp.Monthly)
	}
}

func TestHandler_GetUsage_RemainingClampedAtZero(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Charge(context.Background(), "user1", 1500); err != nil {
		t.Fatalf("Charge failed: %v", err)
	}

	handler, _ := api.NewHandler(api.Config{
		Ledger:    ledger,
		GetUserID: api.FromHeader("X-User-ID"),
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.GetUsage(rec, req)

	var resp api.UsageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.Daily.Remaining != 0 {
		t.Errorf("Expected remaining clamped to 0, got %d", resp.Daily.Remaining)
	}
}

func TestHandler_GetUsage_Unauthorized(t *testing.T) {
	handler, _ := api.NewHandler(api.Config{
		Ledger:    newTestLedger(t),
		GetUserID: api.FromHeader("X-User-ID"),
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	rec := httptest.NewRecorder()
	handler.GetUsage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestHandler_GetUsage_CustomErrorHandler(t *testing.T) {
	called := false
	handler, _ := api.NewHandler(api.Config{
		Ledger:    newTestLedger(t),
		GetUserID: api.FromHeader("X-User-ID"),
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	rec := httptest.NewRecorder()
	handler.GetUsage(rec, req)

	if !called || rec.Code != http.StatusTeapot {
		t.Errorf("Expected custom error handler, called=%v code=%d", called, rec.Code)
	}
}

func TestHandler_GetLanguages(t *testing.T) {
	ledger := newTestLedger(t)
	gateway, err := lingo.NewGateway(&catalogProvider{catalog: &lingo.Catalog{
		Languages: map[string]string{"en": "English", "fr": "French"},
		Services:  map[string]lingo.ServiceTier{"svc": lingo.TierFree},
	}}, ledger, lingo.GatewayConfig{})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	if err := gateway.RefreshLanguageCatalog(context.Background()); err != nil {
		t.Fatalf("RefreshLanguageCatalog failed: %v", err)
	}

	handler, _ := api.NewHandler(api.Config{
		Ledger:    ledger,
		Gateway:   gateway,
		GetUserID: api.FromHeader("X-User-ID"),
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	rec := httptest.NewRecorder()
	handler.GetLanguages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp api.LanguagesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if resp.Languages["en"] != "English" || resp.Languages["fr"] != "French" {
		t.Errorf("Unexpected languages: %v", resp.Languages)
	}
}

func TestHandler_GetLanguages_Unavailable(t *testing.T) {
	// No gateway configured
	handler, _ := api.NewHandler(api.Config{
		Ledger:    newTestLedger(t),
		GetUserID: api.FromHeader("X-User-ID"),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	rec := httptest.NewRecorder()
	handler.GetLanguages(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without gateway, got %d", rec.Code)
	}

	// Gateway configured but never refreshed
	ledger := newTestLedger(t)
	gateway, err := lingo.NewGateway(&catalogProvider{}, ledger, lingo.GatewayConfig{})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	handler, _ = api.NewHandler(api.Config{
		Ledger:    ledger,
		Gateway:   gateway,
		GetUserID: api.FromHeader("X-User-ID"),
	})
	rec = httptest.NewRecorder()
	handler.GetLanguages(rec, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before first refresh, got %d", rec.Code)
	}
}

func TestFromContext(t *testing.T) {
	type ctxKey string
	key := ctxKey("user")
	getUserID := api.FromContext(key)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := getUserID(req); got != "" {
		t.Errorf("Expected empty user id, got %q", got)
	}

	req = req.WithContext(context.WithValue(req.Context(), key, "user1"))
	if got := getUserID(req); got != "user1" {
		t.Errorf("Expected user1, got %q", got)
	}
}
