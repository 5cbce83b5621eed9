package lingo

import (
	"context"
	"fmt"
)

// BackfillJobName is the work-queue job name for whole-table recomputation
const BackfillJobName = "lingo.backfill"

// DefaultInlineRowThreshold is the row-count boundary between a row-scoped
// notification and a table-wide forced refresh.
const DefaultInlineRowThreshold = 50

// BackfillArgs are the arguments of a submitted backfill unit of work
type BackfillArgs struct {
	Spec *FieldSpec
}

// SchedulerConfig holds recomputation scheduler configuration
type SchedulerConfig struct {
	// InlineRowThreshold is the row count below which a dependency change
	// emits a row-scoped notification; at or above it, a table-wide forced
	// refresh is emitted instead (default: DefaultInlineRowThreshold)
	InlineRowThreshold int

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger
}

// Scheduler reacts to host-emitted field and row lifecycle events and decides
// the recomputation scope: small dependency changes run inline in the request
// path, field creation and definition changes submit a whole-table backfill
// to the work queue.
//
// Overlapping backfills for the same field are neither deduplicated nor
// serialized; two rapid definition edits race and may write each other's
// results.
type Scheduler struct {
	engine   *Engine
	queue    WorkQueue
	notifier Notifier
	config   SchedulerConfig
}

// NewScheduler creates a new recomputation scheduler
func NewScheduler(engine *Engine, queue WorkQueue, notifier Notifier, config SchedulerConfig) (*Scheduler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("work queue is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if config.InlineRowThreshold == 0 {
		config.InlineRowThreshold = DefaultInlineRowThreshold
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}

	return &Scheduler{
		engine:   engine,
		queue:    queue,
		notifier: notifier,
		config:   config,
	}, nil
}

// FieldCreated backfills every existing row of the table via the work queue
func (s *Scheduler) FieldCreated(ctx context.Context, spec *FieldSpec) error {
	return s.submitBackfill(ctx, spec)
}

// FieldDefinitionChanged backfills every existing row: any parameter change
// (language, service, romanization system, tone or space flags) invalidates
// all previously computed values.
func (s *Scheduler) FieldDefinitionChanged(ctx context.Context, spec *FieldSpec) error {
	return s.submitBackfill(ctx, spec)
}

func (s *Scheduler) submitBackfill(ctx context.Context, spec *FieldSpec) error {
	if spec.SourceFieldID == nil {
		return nil
	}
	s.config.Logger.Info("submitting backfill",
		Field{Key: "table_id", Value: spec.TableID},
		Field{Key: "field_id", Value: spec.ID},
		Field{Key: "kind", Value: spec.Kind},
	)
	return s.queue.Submit(ctx, BackfillJobName, &BackfillArgs{Spec: spec})
}

// DependencyRowsChanged recomputes the derived field for the affected rows,
// synchronously in the caller's request path. Sets below the inline threshold
// emit a notification naming exactly those rows; larger sets emit a
// table-wide forced refresh, accepting coarser invalidation over per-row
// notification cost.
func (s *Scheduler) DependencyRowsChanged(ctx context.Context, spec *FieldSpec, rows []*Row) error {
	if spec.SourceFieldID == nil || len(rows) == 0 {
		return nil
	}

	if len(rows) < s.config.InlineRowThreshold {
		ids := rowIDs(rows)
		s.notifier.BeforeRowsUpdate(ctx, spec.TableID, ids)
		if err := s.engine.ApplyToRows(ctx, spec, RowList(rows)); err != nil {
			return err
		}
		s.notifier.RowsUpdated(ctx, spec.TableID, ids)
		return nil
	}

	if err := s.engine.ApplyToRows(ctx, spec, RowList(rows)); err != nil {
		return err
	}
	s.notifier.TableUpdated(ctx, spec.TableID, true)
	return nil
}

// DependencyRowDeleted is a no-op: removing a dependency row does not
// retroactively alter already-computed derived values.
func (s *Scheduler) DependencyRowDeleted(ctx context.Context, spec *FieldSpec, row *Row) error {
	return nil
}

// DependencyRowMoved is a no-op: reordering dependency rows does not affect
// derived values.
func (s *Scheduler) DependencyRowMoved(ctx context.Context, spec *FieldSpec, row *Row) error {
	return nil
}

func rowIDs(rows []*Row) []int64 {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}
