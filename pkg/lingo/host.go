package lingo

import "context"

// RowStore is the host's row-storage contract. The host owns persistence;
// this package only reads rows and hands back computed values for bulk
// update.
type RowStore interface {
	// AllRowIDs returns every row identifier of the table, in table order.
	AllRowIDs(ctx context.Context, tableID int64) ([]int64, error)

	// LoadRows loads the rows with the given identifiers.
	LoadRows(ctx context.Context, tableID int64, ids []int64) ([]*Row, error)

	// BulkUpdate persists the named column of all given rows in one write.
	BulkUpdate(ctx context.Context, tableID int64, rows []*Row, column string) error
}

// Notifier delivers change notifications to downstream consumers (views,
// formulas). The delivery mechanism is the host's concern; this package only
// guarantees the documented granularity: row-scoped events for small sets,
// a table-scoped forced refresh for large ones.
type Notifier interface {
	// BeforeRowsUpdate announces an imminent row-scoped update.
	BeforeRowsUpdate(ctx context.Context, tableID int64, rowIDs []int64)

	// RowsUpdated announces that exactly the named rows changed.
	RowsUpdated(ctx context.Context, tableID int64, rowIDs []int64)

	// TableUpdated announces a table-wide change; forceRefresh tells
	// consumers to discard any row-level caching.
	TableUpdated(ctx context.Context, tableID int64, forceRefresh bool)
}

// WorkQueue submits named units of background work. The contract is
// at-least-once execution independent of the caller's lifetime; this package
// depends on nothing else about the queue technology.
type WorkQueue interface {
	Submit(ctx context.Context, name string, args any) error
}

// AdminResolver resolves the workspace administrator that usage is
// attributed to, pooling quota per workspace rather than per editor.
// Returns ErrAdminNotFound when the workspace has no administrator.
type AdminResolver interface {
	WorkspaceAdmin(ctx context.Context, workspaceID int64) (string, error)
}

// HostStats are aggregate host-side counts reported by the telemetry
// collector alongside usage counters.
type HostStats struct {
	Workspaces int
	Tables     int
	Rows       int64
}

// StatsSource is the host capability the telemetry collector scans for
// workspace, table and row counts.
type StatsSource interface {
	Stats(ctx context.Context) (*HostStats, error)
}
