package core

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("core: record not found")

// Transaction is the unit of atomicity shared by every repository. A transaction
// begun on one repository may be handed to any other repository backed by the
// same store.
type Transaction interface {
	Conn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (Transaction, error)
}

type UpdateOptions struct {
	Tx Transaction
}

// QueryOptions lets a read join a transaction. ForUpdate locks the returned rows
// until the transaction ends.
type QueryOptions struct {
	ForUpdate bool
	Tx        Transaction
}
