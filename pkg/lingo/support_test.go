package lingo_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vocabsheet/lingofields/pkg/lingo"
	"github.com/vocabsheet/lingofields/storage/memory"
)

// fixedClock pins the calendar for period-key assertions
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{now: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// timeoutError imitates a transient network timeout
type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

// fakeProvider is a scriptable language backend. Counters track how many
// calls each operation received; fail functions, when set, run before the
// scripted result.
type fakeProvider struct {
	mu sync.Mutex

	translateCalls int
	romanizeCalls  int
	catalogCalls   int

	translateErr  func(call int) error
	romanizeErr   func(call int) error
	catalogErr    func(call int) error
	romanizeWords []string
	romanizeSols  [][]string

	catalog *lingo.Catalog
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		catalog: &lingo.Catalog{
			Languages: map[string]string{"en": "English", "zh": "Chinese"},
			Services: map[string]lingo.ServiceTier{
				"service_a": lingo.TierFree,
				"service_b": lingo.TierPremium,
			},
		},
	}
}

func (p *fakeProvider) Translate(ctx context.Context, req lingo.TranslationRequest) (string, error) {
	p.mu.Lock()
	p.translateCalls++
	call := p.translateCalls
	fail := p.translateErr
	p.mu.Unlock()

	if fail != nil {
		if err := fail(call); err != nil {
			return "", err
		}
	}
	return "translated:" + req.Text, nil
}

func (p *fakeProvider) Transliterate(ctx context.Context, req lingo.TransliterationRequest) (string, error) {
	return "transliterated:" + req.Text, nil
}

func (p *fakeProvider) DictionaryLookup(ctx context.Context, req lingo.LookupRequest) (string, error) {
	return "looked-up:" + req.Text, nil
}

func (p *fakeProvider) Romanize(ctx context.Context, req lingo.RomanizationRequest) (*lingo.RomanizationResult, error) {
	p.mu.Lock()
	p.romanizeCalls++
	call := p.romanizeCalls
	fail := p.romanizeErr
	words, sols := p.romanizeWords, p.romanizeSols
	p.mu.Unlock()

	if fail != nil {
		if err := fail(call); err != nil {
			return nil, err
		}
	}
	if words == nil {
		words = []string{req.Text}
		sols = [][]string{{req.Text}}
	}
	return &lingo.RomanizationResult{WordList: words, Solutions: sols}, nil
}

func (p *fakeProvider) LanguageCatalog(ctx context.Context) (*lingo.Catalog, error) {
	p.mu.Lock()
	p.catalogCalls++
	call := p.catalogCalls
	fail := p.catalogErr
	p.mu.Unlock()

	if fail != nil {
		if err := fail(call); err != nil {
			return nil, err
		}
	}
	return p.catalog, nil
}

func (p *fakeProvider) calls() (translate, romanize int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.translateCalls, p.romanizeCalls
}

// fakeRowStore is an in-memory table keyed by row id
type fakeRowStore struct {
	mu          sync.Mutex
	rows        map[int64]*lingo.Row
	order       []int64
	bulkUpdates int
	updatedRows int
	loadErr     error
}

func newFakeRowStore(n int, sourceColumn, prefix string) *fakeRowStore {
	s := &fakeRowStore{rows: make(map[int64]*lingo.Row)}
	for i := 1; i <= n; i++ {
		id := int64(i)
		s.rows[id] = &lingo.Row{
			ID:     id,
			Values: map[string]any{sourceColumn: fmt.Sprintf("%s%d", prefix, i)},
		}
		s.order = append(s.order, id)
	}
	return s
}

func (s *fakeRowStore) AllRowIDs(ctx context.Context, tableID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *fakeRowStore) LoadRows(ctx context.Context, tableID int64, ids []int64) ([]*lingo.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]*lingo.Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeRowStore) BulkUpdate(ctx context.Context, tableID int64, rows []*lingo.Row, column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkUpdates++
	s.updatedRows += len(rows)
	return nil
}

// notification is one recorded notifier event
type notification struct {
	kind    string // "before", "rows", "table"
	tableID int64
	rowIDs  []int64
	force   bool
}

// fakeNotifier records the notification stream
type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *fakeNotifier) BeforeRowsUpdate(ctx context.Context, tableID int64, rowIDs []int64) {
	n.record(notification{kind: "before", tableID: tableID, rowIDs: rowIDs})
}

func (n *fakeNotifier) RowsUpdated(ctx context.Context, tableID int64, rowIDs []int64) {
	n.record(notification{kind: "rows", tableID: tableID, rowIDs: rowIDs})
}

func (n *fakeNotifier) TableUpdated(ctx context.Context, tableID int64, forceRefresh bool) {
	n.record(notification{kind: "table", tableID: tableID, force: forceRefresh})
}

func (n *fakeNotifier) record(e notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *fakeNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.events))
	copy(out, n.events)
	return out
}

// fakeQueue records submissions without executing them
type fakeQueue struct {
	mu          sync.Mutex
	submissions []string
	args        []any
}

func (q *fakeQueue) Submit(ctx context.Context, name string, args any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submissions = append(q.submissions, name)
	q.args = append(q.args, args)
	return nil
}

// fakeAdmins resolves every workspace to one admin, or fails
type fakeAdmins struct {
	admin string
	err   error
}

func (a *fakeAdmins) WorkspaceAdmin(ctx context.Context, workspaceID int64) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.admin, nil
}

var errNoAdmin = fmt.Errorf("workspace has no admin: %w", lingo.ErrAdminNotFound)

// newTestLedger builds a ledger over fresh in-memory storage
func newTestLedger(clock lingo.Clock, dailyMax int) (*lingo.Ledger, *memory.Store) {
	store := memory.New()
	ledger, err := lingo.NewLedger(store, lingo.LedgerConfig{
		DailyMaxCharacters: dailyMax,
		Clock:              clock,
	})
	if err != nil {
		panic(err)
	}
	return ledger, store
}

// newTestGateway builds a gateway with fast retries and a refreshed catalog
func newTestGateway(provider lingo.Provider, ledger *lingo.Ledger) *lingo.Gateway {
	gateway, err := lingo.NewGateway(provider, ledger, lingo.GatewayConfig{
		RetryDelay: time.Millisecond,
	})
	if err != nil {
		panic(err)
	}
	if err := gateway.RefreshLanguageCatalog(context.Background()); err != nil {
		panic(err)
	}
	return gateway
}

func int64ptr(v int64) *int64 { return &v }

// translationSpec returns a premium translation field bound to field_1
func translationSpec() *lingo.FieldSpec {
	return &lingo.FieldSpec{
		ID:             2,
		TableID:        10,
		WorkspaceID:    100,
		Kind:           lingo.KindTranslation,
		SourceFieldID:  int64ptr(1),
		SourceLanguage: "zh",
		TargetLanguage: "en",
		Service:        "service_b",
	}
}
