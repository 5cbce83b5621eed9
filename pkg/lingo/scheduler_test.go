package lingo_test

import (
	"context"
	"testing"

	"github.com/vocabsheet/lingofields/pkg/lingo"
)

func newTestScheduler(t *testing.T, rows *fakeRowStore, queue *fakeQueue, notifier *fakeNotifier) *lingo.Scheduler {
	t.Helper()
	engine, _ := newTestEngine(t, newFakeProvider(), rows, &fakeAdmins{admin: "admin"}, 10000000)
	scheduler, err := lingo.NewScheduler(engine, queue, notifier, lingo.SchedulerConfig{})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	return scheduler
}

func TestScheduler_FieldCreated_SubmitsBackfill(t *testing.T) {
	spec := translationSpec()
	queue := &fakeQueue{}
	scheduler := newTestScheduler(t, newFakeRowStore(3, spec.SourceColumn(), "w"), queue, &fakeNotifier{})

	if err := scheduler.FieldCreated(context.Background(), spec); err != nil {
		t.Fatalf("FieldCreated failed: %v", err)
	}

	if len(queue.submissions) != 1 || queue.submissions[0] != lingo.BackfillJobName {
		t.Fatalf("Expected one %s submission, got %v", lingo.BackfillJobName, queue.submissions)
	}
	args, ok := queue.args[0].(*lingo.BackfillArgs)
	if !ok || args.Spec != spec {
		t.Errorf("Expected submitted args to carry the field spec")
	}
}

func TestScheduler_FieldDefinitionChanged_SubmitsBackfill(t *testing.T) {
	spec := translationSpec()
	queue := &fakeQueue{}
	scheduler := newTestScheduler(t, newFakeRowStore(3, spec.SourceColumn(), "w"), queue, &fakeNotifier{})

	if err := scheduler.FieldDefinitionChanged(context.Background(), spec); err != nil {
		t.Fatalf("FieldDefinitionChanged failed: %v", err)
	}
	if len(queue.submissions) != 1 {
		t.Errorf("Expected one submission, got %d", len(queue.submissions))
	}
}

func TestScheduler_UnboundField_NoBackfill(t *testing.T) {
	spec := translationSpec()
	spec.SourceFieldID = nil
	queue := &fakeQueue{}
	scheduler := newTestScheduler(t, newFakeRowStore(3, "field_1", "w"), queue, &fakeNotifier{})

	if err := scheduler.FieldCreated(context.Background(), spec); err != nil {
		t.Fatalf("FieldCreated failed: %v", err)
	}
	if len(queue.submissions) != 0 {
		t.Errorf("Expected no submission for unbound field, got %d", len(queue.submissions))
	}
}

func TestScheduler_DependencyRowsChanged_SmallSet(t *testing.T) {
	spec := translationSpec()
	rows := newFakeRowStore(10, spec.SourceColumn(), "w")
	notifier := &fakeNotifier{}
	scheduler := newTestScheduler(t, rows, &fakeQueue{}, notifier)
	ctx := context.Background()

	loaded, _ := rows.LoadRows(ctx, spec.TableID, rowRange(1, 10))
	if err := scheduler.DependencyRowsChanged(ctx, spec, loaded); err != nil {
		t.Fatalf("DependencyRowsChanged failed: %v", err)
	}

	// 10 rows is below the threshold: before + after events naming exactly
	// those rows, no table event
	events := notifier.all()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d: %v", len(events), events)
	}
	if events[0].kind != "before" || len(events[0].rowIDs) != 10 {
		t.Errorf("Expected before event for 10 rows, got %+v", events[0])
	}
	if events[1].kind != "rows" || len(events[1].rowIDs) != 10 {
		t.Errorf("Expected rows event for 10 rows, got %+v", events[1])
	}

	// Values were computed inline
	if rows.bulkUpdates != 1 {
		t.Errorf("Expected one bulk update, got %d", rows.bulkUpdates)
	}
}

func TestScheduler_DependencyRowsChanged_LargeSet(t *testing.T) {
	spec := translationSpec()
	rows := newFakeRowStore(5000, spec.SourceColumn(), "w")
	notifier := &fakeNotifier{}
	scheduler := newTestScheduler(t, rows, &fakeQueue{}, notifier)
	ctx := context.Background()

	loaded, _ := rows.LoadRows(ctx, spec.TableID, rowRange(1, 5000))
	if err := scheduler.DependencyRowsChanged(ctx, spec, loaded); err != nil {
		t.Fatalf("DependencyRowsChanged failed: %v", err)
	}

	// 5000 rows: still computed inline, but a single table-wide forced
	// refresh instead of row events
	events := notifier.all()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].kind != "table" || !events[0].force {
		t.Errorf("Expected forced table refresh, got %+v", events[0])
	}
	if rows.updatedRows != 5000 {
		t.Errorf("Expected 5000 rows computed inline, got %d", rows.updatedRows)
	}
}

func TestScheduler_DependencyRowsChanged_ThresholdBoundary(t *testing.T) {
	spec := translationSpec()
	rows := newFakeRowStore(50, spec.SourceColumn(), "w")
	notifier := &fakeNotifier{}
	scheduler := newTestScheduler(t, rows, &fakeQueue{}, notifier)
	ctx := context.Background()

	// 49 rows: row-scoped
	loaded, _ := rows.LoadRows(ctx, spec.TableID, rowRange(1, 49))
	if err := scheduler.DependencyRowsChanged(ctx, spec, loaded); err != nil {
		t.Fatalf("DependencyRowsChanged failed: %v", err)
	}
	events := notifier.all()
	if len(events) != 2 || events[1].kind != "rows" {
		t.Fatalf("Expected row-scoped events for 49 rows, got %v", events)
	}

	// Exactly 50 rows: table-scoped
	notifier.events = nil
	loaded, _ = rows.LoadRows(ctx, spec.TableID, rowRange(1, 50))
	if err := scheduler.DependencyRowsChanged(ctx, spec, loaded); err != nil {
		t.Fatalf("DependencyRowsChanged failed: %v", err)
	}
	events = notifier.all()
	if len(events) != 1 || events[0].kind != "table" {
		t.Fatalf("Expected table event for 50 rows, got %v", events)
	}
}

func TestScheduler_DependencyRowDeletedAndMoved_NoOps(t *testing.T) {
	spec := translationSpec()
	rows := newFakeRowStore(3, spec.SourceColumn(), "w")
	notifier := &fakeNotifier{}
	queue := &fakeQueue{}
	scheduler := newTestScheduler(t, rows, queue, notifier)
	ctx := context.Background()

	row := &lingo.Row{ID: 1, Values: map[string]any{spec.SourceColumn(): "w1"}}
	if err := scheduler.DependencyRowDeleted(ctx, spec, row); err != nil {
		t.Errorf("DependencyRowDeleted failed: %v", err)
	}
	if err := scheduler.DependencyRowMoved(ctx, spec, row); err != nil {
		t.Errorf("DependencyRowMoved failed: %v", err)
	}

	if len(notifier.all()) != 0 || len(queue.submissions) != 0 || rows.bulkUpdates != 0 {
		t.Error("Expected delete and move to cause no work")
	}
}

func rowRange(from, to int64) []int64 {
	ids := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}
