// Package memory provides an in-process implementation of the lingo.WorkQueue
// interface. Jobs are dispatched to a fixed pool of workers and retried a
// bounded number of times, so delivery is at-least-once and handlers must be
// safe to re-run. This implementation is intended for single-node deployments
// and testing; multi-node setups should bridge Submit to a real broker.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

// HandlerFunc processes a submitted job. The args value is whatever was passed
// to Submit for the job name the handler is registered under.
type HandlerFunc func(ctx context.Context, args any) error

// Config holds queue configuration
type Config struct {
	// Workers is the number of concurrent job processors (default: 2)
	Workers int

	// QueueSize is the submission buffer size (default: 256).
	// Submit blocks once the buffer is full.
	QueueSize int

	// MaxRetries is how many times a failed job is re-run (default: 3)
	MaxRetries int

	// RetryDelay is the pause before each retry (default: 1s)
	RetryDelay time.Duration

	// Logger for queue events (optional)
	Logger lingo.Logger
}

type job struct {
	name    string
	args    any
	attempt int
}

// Queue implements lingo.WorkQueue with an in-process worker pool
type Queue struct {
	config   Config
	handlers map[string]HandlerFunc

	mu      sync.Mutex
	jobs    chan job
	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool
}

// New creates a new in-process work queue
func New(config Config) *Queue {
	// Set defaults
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.Logger == nil {
		config.Logger = &lingo.NoopLogger{}
	}

	return &Queue{
		config:   config,
		handlers: make(map[string]HandlerFunc),
		jobs:     make(chan job, config.QueueSize),
	}
}

// Register binds a handler to a job name. Must be called before Start.
func (q *Queue) Register(name string, handler HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return fmt.Errorf("cannot register %q after start", name)
	}
	if _, ok := q.handlers[name]; ok {
		return fmt.Errorf("handler already registered for %q", name)
	}
	q.handlers[name] = handler
	return nil
}

// Start launches the worker pool
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return fmt.Errorf("queue already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.group, runCtx = errgroup.WithContext(runCtx)
	for i := 0; i < q.config.Workers; i++ {
		q.group.Go(func() error {
			q.worker(runCtx)
			return nil
		})
	}
	q.started = true
	return nil
}

// Stop shuts the worker pool down. Jobs already picked up finish their
// current attempt; buffered jobs are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return
	}
	q.cancel()
	q.group.Wait()
	q.started = false
}

// Submit implements lingo.WorkQueue
func (q *Queue) Submit(ctx context.Context, name string, args any) error {
	q.mu.Lock()
	_, ok := q.handlers[name]
	started := q.started
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("no handler registered for %q", name)
	}
	if !started {
		return fmt.Errorf("queue is not running")
	}

	select {
	case q.jobs <- job{name: name, args: args}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.jobs:
			q.process(ctx, j)
		}
	}
}

func (q *Queue) process(ctx context.Context, j job) {
	handler := q.handlers[j.name]

	err := handler(ctx, j.args)
	if err == nil {
		return
	}

	if j.attempt >= q.config.MaxRetries {
		q.config.Logger.Error("job failed permanently",
			lingo.Field{Key: "job", Value: j.name},
			lingo.Field{Key: "attempts", Value: j.attempt + 1},
			lingo.Field{Key: "error", Value: err.Error()},
		)
		return
	}

	q.config.Logger.Warn("job failed, retrying",
		lingo.Field{Key: "job", Value: j.name},
		lingo.Field{Key: "attempt", Value: j.attempt + 1},
		lingo.Field{Key: "error", Value: err.Error()},
	)

	j.attempt++
	select {
	case <-ctx.Done():
	case <-time.After(q.config.RetryDelay):
		select {
		case q.jobs <- j:
		case <-ctx.Done():
		}
	}
}
