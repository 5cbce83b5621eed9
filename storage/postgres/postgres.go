// Package postgres provides a PostgreSQL implementation of the
// lingo.UsageStore interface. Increments use a single upsert with
// RETURNING, so concurrent charges are serialized by the row lock.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS usage_counters (
//	    user_id    TEXT    NOT NULL,
//	    period     TEXT    NOT NULL,
//	    period_key INTEGER NOT NULL,
//	    characters BIGINT  NOT NULL DEFAULT 0,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (user_id, period, period_key)
//	);
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// Config holds PostgreSQL storage configuration
type Config struct {
	// ConnectionString is the PostgreSQL connection string
	ConnectionString string

	// Pool configuration
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Store implements lingo.UsageStore using PostgreSQL
type Store struct {
	pool   *pgxpool.Pool
	config Config
}

// New creates a new PostgreSQL usage store
func New(ctx context.Context, config Config) (*Store, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Apply pool settings
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = config.MinConns
	}
	if config.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxConnLifetime
	}
	if config.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, config: config}, nil
}

// NewWithPool creates a store over an existing connection pool
func NewWithPool(pool *pgxpool.Pool, config Config) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &Store{pool: pool, config: config}, nil
}

// Close closes the PostgreSQL connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetCounter implements lingo.UsageStore, inserting the row at zero on first
// access
func (s *Store) GetCounter(ctx context.Context, userID string, kind lingo.PeriodKind, periodKey int) (*lingo.UsageCounter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_counters (user_id, period, period_key)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, period, period_key) DO NOTHING`,
		userID, string(kind), periodKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}

	var characters int
	err = s.pool.QueryRow(ctx,
		`SELECT characters FROM usage_counters
			WHERE user_id = $1 AND period = $2 AND period_key = $3`,
		userID, string(kind), periodKey).Scan(&characters)
	if err != nil {
		return nil, fmt.Errorf("failed to get counter: %w", err)
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

	var total int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usage_counters (user_id, period, period_key, characters, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (user_id, period, period_key)
			DO UPDATE SET characters = usage_counters.characters + $4, updated_at = now()
			RETURNING characters`,
		userID, string(kind), periodKey, amount).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return total, nil
}

// ListCounters implements lingo.CounterLister
func (s *Store) ListCounters(ctx context.Context) ([]*lingo.UsageCounter, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, period, period_key, characters FROM usage_counters
			ORDER BY user_id, period, period_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list counters: %w", err)
	}
	defer rows.Close()

	var counters []*lingo.UsageCounter
	for rows.Next() {
		var counter lingo.UsageCounter
		var period string
		if err := rows.Scan(&counter.UserID, &period, &counter.PeriodKey, &counter.Characters); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		counter.Kind = lingo.PeriodKind(period)
		counters = append(counters, &counter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("counter listing failed: %w", err)
	}
	return counters, nil
}
