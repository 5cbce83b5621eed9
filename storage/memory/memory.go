// Package memory provides an in-memory implementation of the lingo.UsageStore
// interface. This implementation is primarily intended for testing and
// development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Store implements lingo.UsageStore using in-memory maps
type Store struct {
	mu       sync.RWMutex
	counters map[string]*lingo.UsageCounter
}

// New creates a new in-memory usage store
func New() *Store {
	return &Store{
		counters: make(map[string]*lingo.UsageCounter),
	}
}

// GetCounter implements lingo.UsageStore, creating the counter at zero on
// first access
func (s *Store) GetCounter(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int) (*lingo.UsageCounter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey(userID, kind, periodKey)
	counter, ok := s.counters[key]
	if !ok {
		counter = &lingo.UsageCounter{
			UserID:    userID,
			Kind:      kind,
			PeriodKey: periodKey,
		}
		s.counters[key] = counter
	}

	// Return a copy to prevent external mutations
	counterCopy := *counter
	return &counterCopy, nil
}

// AddUsage implements lingo.UsageStore
func (s *Store) AddUsage(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int, amount int) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}
	if amount < 0 {
		return 0, lingo.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey(userID, kind, periodKey)
	counter, ok := s.counters[key]
	if !ok {
		counter = &lingo.UsageCounter{
			UserID:    userID,
			Kind:      kind,
			PeriodKey: periodKey,
		}
		s.counters[key] = counter
	}

	counter.Characters += amount
	return counter.Characters, nil
}

// ListCounters implements lingo.CounterLister
func (s *Store) ListCounters(ctx context.Context) ([]*lingo.UsageCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counters := make([]*lingo.UsageCounter, 0, len(s.counters))
	for _, counter := range s.counters {
		counterCopy := *counter
		counters = append(counters, &counterCopy)
	}
	return counters, nil
}

// Clear removes all data (useful for testing)
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]*lingo.UsageCounter)
}

// counterKey generates a unique key for a usage counter
func counterKey(userID string, kind lingo.PeriodKind, periodKey int) string {
	return fmt.Sprintf("%s:%s:%d", userID, kind, periodKey)
}
