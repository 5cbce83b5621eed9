package lingo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultSoftTimeLimit is the soft wall-clock budget of one backfill run
const DefaultSoftTimeLimit = time.Hour

// DefaultHardTimeLimit is the hard wall-clock budget; exceeding it ends the run
const DefaultHardTimeLimit = time.Hour + time.Minute

// WorkerConfig holds backfill worker configuration
type WorkerConfig struct {
	// Plan is the bucket-size schedule (default: DefaultBucketPlan)
	Plan BucketPlan

	// RowNotifyThreshold is the bucket size below which a row-scoped
	// notification is emitted instead of a table-wide refresh
	// (default: DefaultInlineRowThreshold)
	RowNotifyThreshold int

	// SoftTimeLimit logs a warning when exceeded but lets the run continue
	// (default: DefaultSoftTimeLimit)
	SoftTimeLimit time.Duration

	// HardTimeLimit terminates the run when exceeded
	// (default: DefaultHardTimeLimit)
	HardTimeLimit time.Duration

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger

	// Metrics records bucket and run outcomes (default: NoopMetrics)
	Metrics Metrics

	// Clock supplies wall-clock time for the run budget (default: SystemClock)
	Clock Clock
}

// Worker executes whole-table backfills. A run snapshots the table's row ids
// once up front, consumes them in escalating buckets, applies the
// transformation engine per bucket with a single bulk write, and notifies
// consumers at bucket boundaries.
//
// A single logical worker executes each run to completion; there is no
// cancellation besides the wall-clock budget and no partial-completion
// bookkeeping. Retrying the remainder of an interrupted run requires a
// subsequent field-definition touch.
type Worker struct {
	engine   *Engine
	rows     RowStore
	notifier Notifier
	config   WorkerConfig
}

// NewWorker creates a new backfill worker
func NewWorker(engine *Engine, rows RowStore, notifier Notifier, config WorkerConfig) (*Worker, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if rows == nil {
		return nil, fmt.Errorf("row store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	// Set defaults
	if config.Plan == nil {
		config.Plan = DefaultBucketPlan()
	}
	if config.RowNotifyThreshold == 0 {
		config.RowNotifyThreshold = DefaultInlineRowThreshold
	}
	if config.SoftTimeLimit == 0 {
		config.SoftTimeLimit = DefaultSoftTimeLimit
	}
	if config.HardTimeLimit == 0 {
		config.HardTimeLimit = DefaultHardTimeLimit
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}

	return &Worker{
		engine:   engine,
		rows:     rows,
		notifier: notifier,
		config:   config,
	}, nil
}

// Handle adapts Run to a work-queue handler for BackfillJobName submissions
func (w *Worker) Handle(ctx context.Context, args any) error {
	backfill, ok := args.(*BackfillArgs)
	if !ok || backfill.Spec == nil {
		return fmt.Errorf("unexpected backfill args %T", args)
	}
	return w.Run(ctx, backfill.Spec)
}

// Run recomputes the derived field across every row that exists when the run
// starts. Rows created after the id snapshot are not part of this run.
//
// A quota-exceeded condition aborts the remaining buckets: it is logged as
// the run's terminal condition and not returned, so an at-least-once queue
// does not redeliver the work. Rows written before the abort keep their
// values. Other errors propagate after the current bucket's computed rows
// are written.
func (w *Worker) Run(ctx context.Context, spec *FieldSpec) error {
	if spec.SourceFieldID == nil {
		return nil
	}

	start := w.config.Clock.Now()
	softWarned := false

	ids, err := w.rows.AllRowIDs(ctx, spec.TableID)
	if err != nil {
		return err
	}

	w.config.Logger.Info("backfill started",
		Field{Key: "table_id", Value: spec.TableID},
		Field{Key: "field_id", Value: spec.ID},
		Field{Key: "rows", Value: len(ids)},
	)

	for _, bucket := range w.config.Plan.Partition(ids) {
		elapsed := w.config.Clock.Now().Sub(start)
		if elapsed > w.config.HardTimeLimit {
			w.config.Logger.Error("backfill terminated: hard time limit exceeded",
				Field{Key: "field_id", Value: spec.ID},
				Field{Key: "elapsed", Value: elapsed},
			)
			w.config.Metrics.RecordBackfillRun("timeout", elapsed)
			return nil
		}
		if elapsed > w.config.SoftTimeLimit && !softWarned {
			w.config.Logger.Warn("backfill over soft time limit",
				Field{Key: "field_id", Value: spec.ID},
				Field{Key: "elapsed", Value: elapsed},
			)
			softWarned = true
		}

		if err := w.processBucket(ctx, spec, bucket); err != nil {
			elapsed := w.config.Clock.Now().Sub(start)
			if errors.Is(err, ErrQuotaExceeded) {
				w.config.Logger.Error("backfill aborted: quota exceeded",
					Field{Key: "field_id", Value: spec.ID},
					Field{Key: "error", Value: err.Error()},
				)
				w.config.Metrics.RecordBackfillRun("quota_exceeded", elapsed)
				return nil
			}
			w.config.Metrics.RecordBackfillRun("error", elapsed)
			return err
		}
	}

	w.config.Metrics.RecordBackfillRun("completed", w.config.Clock.Now().Sub(start))
	return nil
}

func (w *Worker) processBucket(ctx context.Context, spec *FieldSpec, ids []int64) error {
	bucketStart := time.Now()

	rows, err := w.rows.LoadRows(ctx, spec.TableID, ids)
	if err != nil {
		return err
	}

	rowScoped := len(rows) < w.config.RowNotifyThreshold
	if rowScoped {
		w.notifier.BeforeRowsUpdate(ctx, spec.TableID, rowIDs(rows))
	}

	if err := w.engine.ApplyToRows(ctx, spec, RowList(rows)); err != nil {
		return err
	}

	if rowScoped {
		w.notifier.RowsUpdated(ctx, spec.TableID, rowIDs(rows))
	} else {
		w.notifier.TableUpdated(ctx, spec.TableID, true)
	}

	w.config.Metrics.RecordBackfillBucket(len(rows), time.Since(bucketStart))
	return nil
}
