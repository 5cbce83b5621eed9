// Package redis provides a Redis implementation of the lingo.UsageStore
// interface. Counters are plain integer keys incremented with INCRBY, which
// is atomic on the server, so concurrent charges never lose updates.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Config holds Redis storage configuration
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "lingofields:")
	KeyPrefix string

	// CounterTTL is the TTL applied to counter keys (0 = no expiration).
	// Counters for past periods are never read again, so a TTL of a few
	// months keeps the keyspace bounded without losing current data.
	CounterTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		KeyPrefix:  "lingofields:",
		CounterTTL: 0,
	}
}

// Store implements lingo.UsageStore using Redis
type Store struct {
	client redis.UniversalClient
	config Config
}

// New creates a new Redis usage store.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	// Set defaults
	if config.KeyPrefix == "" {
		config.KeyPrefix = "lingofields:"
	}

	return &Store{client: client, config: config}, nil
}

// GetCounter implements lingo.UsageStore, creating the key at zero on first
// access
func (s *Store) GetCounter(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int) (*lingo.UsageCounter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	key := s.counterKey(userID, kind, periodKey)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Lazily create the counter so the period shows up in scans
		if err := s.client.SetNX(ctx, key, 0, s.config.CounterTTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to create counter: %w", err)
		}
		return &lingo.UsageCounter{UserID: userID, Kind: kind, PeriodKey: periodKey}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get counter: %w", err)
	}

	characters, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("corrupt counter value %q: %w", val, err)
	}

	return &lingo.UsageCounter{
		UserID:     userID,
		Kind:       kind,
		PeriodKey:  periodKey,
		Characters: characters,
	}, nil
}

// AddUsage implements lingo.UsageStore
func (s *Store) AddUsage(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int, amount int) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}
	if amount < 0 {
		return 0, lingo.ErrInvalidAmount
	}

	key := s.counterKey(userID, kind, periodKey)
	total, err := s.client.IncrBy(ctx, key, int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	if s.config.CounterTTL > 0 {
		s.client.Expire(ctx, key, s.config.CounterTTL)
	}
	return int(total), nil
}

// ListCounters implements lingo.CounterLister by scanning the counter
// keyspace
func (s *Store) ListCounters(ctx context.Context) ([]*lingo.UsageCounter, error) {
	pattern := s.config.KeyPrefix + "usage:*"

	var counters []*lingo.UsageCounter
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		counter, err := s.parseCounterKey(key)
		if err != nil {
			continue // skip foreign keys under the prefix
		}
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read counter %s: %w", key, err)
		}
		counter.Characters, err = strconv.Atoi(val)
		if err != nil {
			continue
		}
		counters = append(counters, counter)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("counter scan failed: %w", err)
	}
	return counters, nil
}

func (s *Store) counterKey(userID string, kind lingo.PeriodKind, periodKey int) string {
	return fmt.Sprintf("%susage:%s:%s:%d", s.config.KeyPrefix, userID, kind, periodKey)
}

func (s *Store) parseCounterKey(key string) (*lingo.UsageCounter, error) {
	rest := strings.TrimPrefix(key, s.config.KeyPrefix+"usage:")
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("unexpected counter key %q", key)
	}
	periodKey, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("unexpected period key in %q: %w", key, err)
	}
	return &lingo.UsageCounter{
		UserID:    parts[0],
		Kind:      lingo.PeriodKind(parts[1]),
		PeriodKey: periodKey,
	}, nil
}
