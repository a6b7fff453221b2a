package db

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
	"github.com/jackc/pgx/v4"
	"github.com/sksmith/room-reservation/test"
)

type MockConn struct {
	QueryFunc    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...interface{}) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)
	*test.CallWatcher
}

func NewMockConn() MockConn {
	return MockConn{
		QueryFunc:    func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) { return nil, nil },
		QueryRowFunc: func(ctx context.Context, sql string, args ...interface{}) pgx.Row { return MockRow{} },
		ExecFunc: func(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
			return pgconn.CommandTag("UPDATE 1"), nil
		},
		BeginFunc:   func(ctx context.Context) (pgx.Tx, error) { return nil, nil },
		CallWatcher: test.NewCallWatcher(),
	}
}

func (c *MockConn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.AddCall(ctx, sql, args)
	return c.QueryFunc(ctx, sql, args...)
}

func (c *MockConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	c.AddCall(ctx, sql, args)
	return c.QueryRowFunc(ctx, sql, args...)
}

func (c *MockConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.AddCall(ctx, sql, args)
	return c.ExecFunc(ctx, sql, args...)
}

func (c *MockConn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.AddCall(ctx)
	return c.BeginFunc(ctx)
}

type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	MockConn
}

func NewMockTransaction() *MockTransaction {
	return &MockTransaction{
		MockConn:     NewMockConn(),
		CommitFunc:   func(ctx context.Context) error { return nil },
		RollbackFunc: func(ctx context.Context) error { return nil },
	}
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.AddCall(ctx)
	return t.CommitFunc(ctx)
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.AddCall(ctx)
	return t.RollbackFunc(ctx)
}

// MockRow scans Values into the destinations in order, or returns Err.
type MockRow struct {
	Values []interface{}
	Err    error
}

func (r MockRow) Scan(dest ...interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(r.Values, dest)
}

// MockRows iterates over Data, one slice of column values per row.
type MockRows struct {
	Data    [][]interface{}
	ScanErr error
	pos     int
	closed  bool
}

func NewMockRows(data ...[]interface{}) *MockRows {
	return &MockRows{Data: data}
}

func (r *MockRows) Close()                                         { r.closed = true }
func (r *MockRows) Err() error                                     { return nil }
func (r *MockRows) CommandTag() pgconn.CommandTag                  { return nil }
func (r *MockRows) FieldDescriptions() []pgproto3.FieldDescription { return nil }
func (r *MockRows) RawValues() [][]byte                            { return nil }

func (r *MockRows) Next() bool {
	if r.closed || r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	return true
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	return assign(r.Data[r.pos-1], dest)
}

func (r *MockRows) Values() ([]interface{}, error) {
	return r.Data[r.pos-1], nil
}

func assign(values []interface{}, dest []interface{}) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan expected %d destinations, got %d", len(values), len(dest))
	}
	for i, v := range values {
		d := reflect.ValueOf(dest[i])
		if d.Kind() != reflect.Ptr || d.IsNil() {
			return fmt.Errorf("destination %d is not a pointer", i)
		}
		if v == nil {
			d.Elem().Set(reflect.Zero(d.Elem().Type()))
			continue
		}
		src := reflect.ValueOf(v)
		if !src.Type().ConvertibleTo(d.Elem().Type()) {
			return fmt.Errorf("cannot scan %T into %s", v, d.Elem().Type())
		}
		d.Elem().Set(src.Convert(d.Elem().Type()))
	}
	return nil
}
