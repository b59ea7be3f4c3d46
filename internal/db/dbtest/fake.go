// Package dbtest provides a scriptable db.DB for package tests that need to
// observe the statements an engine issues without a running database.
package dbtest

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"foodcourt-backoffice/internal/db"
)

// Stmt records one statement the code under test issued.
type Stmt struct {
	SQL  string
	Args []any
	InTx bool
}

// Fake satisfies db.DB. Script behaviour through ExecFn/QueryRowFn/QueryFn;
// unscripted calls succeed with empty results. Every statement, inside or
// outside a transaction, lands in Stmts in issue order.
type Fake struct {
	ExecFn     func(sql string, args []any) (pgconn.CommandTag, error)
	QueryRowFn func(sql string, args []any) pgx.Row
	QueryFn    func(sql string, args []any) (pgx.Rows, error)

	Stmts     []Stmt
	Commits   int
	Rollbacks int
}

var _ db.DB = (*Fake)(nil)

func (f *Fake) record(sql string, args []any, inTx bool) {
	f.Stmts = append(f.Stmts, Stmt{SQL: sql, Args: args, InTx: inTx})
}

func (f *Fake) exec(sql string, args []any, inTx bool) (pgconn.CommandTag, error) {
	f.record(sql, args, inTx)
	if f.ExecFn != nil {
		return f.ExecFn(sql, args)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *Fake) queryRow(sql string, args []any, inTx bool) pgx.Row {
	f.record(sql, args, inTx)
	if f.QueryRowFn != nil {
		return f.QueryRowFn(sql, args)
	}
	return &Row{}
}

func (f *Fake) query(sql string, args []any, inTx bool) (pgx.Rows, error) {
	f.record(sql, args, inTx)
	if f.QueryFn != nil {
		return f.QueryFn(sql, args)
	}
	return &Rows{}, nil
}

func (f *Fake) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.exec(sql, args, false)
}

func (f *Fake) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.query(sql, args, false)
}

func (f *Fake) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRow(sql, args, false)
}

func (f *Fake) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return &fakeTx{fake: f}, nil
}

type fakeTx struct {
	fake *Fake
}

var _ pgx.Tx = (*fakeTx)(nil)

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.fake.Commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.fake.Rollbacks++
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.fake.exec(sql, args, true)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.fake.query(sql, args, true)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.fake.queryRow(sql, args, true)
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

// Row is a scriptable pgx.Row. Scan copies Values positionally into the
// destinations; a nil value leaves the destination untouched.
type Row struct {
	Values []any
	Err    error
}

func (r *Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	for i, d := range dest {
		if i >= len(r.Values) {
			break
		}
		v := r.Values[i]
		if v == nil {
			continue
		}
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			continue
		}
		dv.Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// Rows is a scriptable pgx.Rows over a fixed slice of value rows.
type Rows struct {
	Data [][]any

	idx int
	err error
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *Rows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	row := Row{Values: r.Data[r.idx-1]}
	return row.Scan(dest...)
}

func (r *Rows) Values() ([]any, error) { return r.Data[r.idx-1], nil }
func (r *Rows) RawValues() [][]byte    { return nil }
func (r *Rows) Conn() *pgx.Conn        { return nil }
