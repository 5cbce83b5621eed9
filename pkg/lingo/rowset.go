package lingo

import "context"

// RowSet is a uniform iteration over a group of rows: a single row, an
// explicit list, or an unbounded store-backed collection all look the same
// to the transformation engine.
type RowSet interface {
	// Each calls fn for every row in the set, stopping at the first error.
	Each(fn func(*Row) error) error
}

type rowListSet []*Row

func (s rowListSet) Each(fn func(*Row) error) error {
	for _, row := range s {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// SingleRow wraps one row as a RowSet
func SingleRow(row *Row) RowSet { return rowListSet{row} }

// RowList wraps an explicit row list as a RowSet
func RowList(rows []*Row) RowSet { return rowListSet(rows) }

// storeRowSet pages lazily through every row of a table.
type storeRowSet struct {
	ctx     context.Context
	store   RowStore
	tableID int64
	page    int
}

// TableRows returns a RowSet over every row of a table, loaded from the
// store in pages of pageSize as iteration proceeds.
func TableRows(ctx context.Context, store RowStore, tableID int64, pageSize int) RowSet {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &storeRowSet{ctx: ctx, store: store, tableID: tableID, page: pageSize}
}

func (s *storeRowSet) Each(fn func(*Row) error) error {
	ids, err := s.store.AllRowIDs(s.ctx, s.tableID)
	if err != nil {
		return err
	}
	for start := 0; start < len(ids); start += s.page {
		end := start + s.page
		if end > len(ids) {
			end = len(ids)
		}
		rows, err := s.store.LoadRows(s.ctx, s.tableID, ids[start:end])
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
	}
	return nil
}
