package postgres

import (
	"context"
	"reflect"
	"strings"
)

type execCall struct {
	sql  string
	args []any
}

type fakeTag int64

func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.vals[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return fakeRow{vals: r.rows[r.pos-1]}.Scan(dest...)
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

// fakeDB answers queries by the first registered SQL fragment they contain.
// It doubles as its own transaction.
type fakeDB struct {
	rows       map[string][][]any
	row        map[string]fakeRow
	affected   int64
	execs      []execCall
	queries    []execCall
	committed  bool
	rolledBack bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string][][]any{}, row: map[string]fakeRow{}, affected: 1}
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	db.queries = append(db.queries, execCall{sql: sql, args: args})
	for frag, rows := range db.rows {
		if strings.Contains(sql, frag) {
			return &fakeRows{rows: rows}, nil
		}
	}
	return &fakeRows{}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	db.queries = append(db.queries, execCall{sql: sql, args: args})
	for frag, row := range db.row {
		if strings.Contains(sql, frag) {
			return row
		}
	}
	return fakeRow{}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return fakeTag(db.affected), nil
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) { return db, nil }
func (db *fakeDB) Close()                                 {}

func (db *fakeDB) Commit(ctx context.Context) error {
	db.committed = true
	return nil
}

func (db *fakeDB) Rollback(ctx context.Context) error {
	if !db.committed {
		db.rolledBack = true
	}
	return nil
}
