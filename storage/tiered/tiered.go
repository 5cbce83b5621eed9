// Package tiered provides a hot/cold usage store: a fast ephemeral backend
// (Hot, e.g. Redis or memory) serves checks and increments, while a durable
// backend (Cold, e.g. Postgres) is the source of truth across restarts.
//
// Increments apply to Hot atomically and replicate to Cold, synchronously or
// through a background worker. Reads go Hot first; a miss (zero counter) is
// seeded from Cold, so a restarted cache converges back to the durable totals.
// With async sync enabled a crash can lose the tail of unreplicated
// increments, which for quota counters errs in the user's favor.
package tiered

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Config configures the tiered store behavior
type Config struct {
	// Hot is the fast storage serving checks and increments
	Hot lingo.UsageStore

	// Cold is the durable storage and source of truth
	Cold lingo.UsageStore

	// AsyncUsageSync replicates increments to Cold from a background worker
	// instead of inline. Faster, but unreplicated increments are lost on a
	// crash.
	AsyncUsageSync bool

	// SyncBufferSize is the async replication queue size (default: 1000)
	SyncBufferSize int

	// AsyncErrorHandler is called when an async replication fails.
	// Essential for monitoring drift between the tiers.
	AsyncErrorHandler func(error)
}

// Store implements lingo.UsageStore over a hot and a cold backend
type Store struct {
	hot  lingo.UsageStore
	cold lingo.UsageStore
	conf Config

	mu        sync.Mutex
	seeded    map[string]bool
	syncQueue chan func() error
	shutdown  chan struct{}
	wg        sync.WaitGroup
}

// New creates a new tiered usage store
func New(config Config) (*Store, error) {
	if config.Hot == nil || config.Cold == nil {
		return nil, errors.New("tiered storage: both hot and cold storage are required")
	}
	if config.SyncBufferSize <= 0 {
		config.SyncBufferSize = 1000
	}

	s := &Store{
		hot:       config.Hot,
		cold:      config.Cold,
		conf:      config,
		seeded:    make(map[string]bool),
		syncQueue: make(chan func() error, config.SyncBufferSize),
		shutdown:  make(chan struct{}),
	}

	if config.AsyncUsageSync {
		s.startWorker()
	}

	return s, nil
}

// Close stops the async replication worker, draining queued jobs best effort
func (s *Store) Close() error {
	if s.conf.AsyncUsageSync {
		select {
		case <-s.shutdown:
			// Already closed
		default:
			close(s.shutdown)
			s.wg.Wait()
		}
	}
	return nil
}

func (s *Store) startWorker() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case job := <-s.syncQueue:
				if err := job(); err != nil && s.conf.AsyncErrorHandler != nil {
					s.conf.AsyncErrorHandler(fmt.Errorf("tiered sync failed: %w", err))
				}
			case <-s.shutdown:
				for {
					select {
					case job := <-s.syncQueue:
						_ = job()
					default:
						return
					}
				}
			}
		}
	}()
}

// GetCounter implements lingo.UsageStore with a read-through: a hot counter
// that has never been seeded for this period is initialized from cold first.
func (s *Store) GetCounter(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int) (*lingo.UsageCounter, error) {
	if err := s.seed(ctx, userID, kind, periodKey); err != nil {
		return nil, err
	}
	return s.hot.GetCounter(ctx, userID, kind, periodKey)
}

// AddUsage implements lingo.UsageStore: the hot increment is authoritative
// for the returned total, the cold increment replicates it.
func (s *Store) AddUsage(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int, amount int) (int, error) {
	if err := s.seed(ctx, userID, kind, periodKey); err != nil {
		return 0, err
	}

	total, err := s.hot.AddUsage(ctx, userID, kind, periodKey, amount)
	if err != nil {
		return 0, err
	}

	if s.conf.AsyncUsageSync {
		job := func() error {
			_, err := s.cold.AddUsage(context.Background(), userID, kind, periodKey, amount)
			return err
		}
		select {
		case s.syncQueue <- job:
		default:
			// Queue full, fall back to inline replication
			if _, err := s.cold.AddUsage(ctx, userID, kind, periodKey, amount); err != nil {
				return 0, err
			}
		}
		return total, nil
	}

	if _, err := s.cold.AddUsage(ctx, userID, kind, periodKey, amount); err != nil {
		return 0, err
	}
	return total, nil
}

// ListCounters implements lingo.CounterLister against the cold tier, the
// source of truth for the full counter history
func (s *Store) ListCounters(ctx context.Context) ([]*lingo.UsageCounter, error) {
	lister, ok := s.cold.(lingo.CounterLister)
	if !ok {
		return nil, fmt.Errorf("cold storage does not support listing counters")
	}
	return lister.ListCounters(ctx)
}

// seed copies the cold total into hot once per (user, kind, period) so the
// hot tier starts from the durable total after a cache restart
func (s *Store) seed(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int) error {
	key := fmt.Sprintf("%s:%s:%d", userID, kind, periodKey)

	s.mu.Lock()
	done := s.seeded[key]
	s.mu.Unlock()
	if done {
		return nil
	}

	hot, err := s.hot.GetCounter(ctx, userID, kind, periodKey)
	if err != nil {
		return err
	}
	if hot.Characters == 0 {
		cold, err := s.cold.GetCounter(ctx, userID, kind, periodKey)
		if err != nil {
			return err
		}
		if cold.Characters > 0 {
			if _, err := s.hot.AddUsage(ctx, userID, kind, periodKey, cold.Characters); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	s.seeded[key] = true
	s.mu.Unlock()
	return nil
}
