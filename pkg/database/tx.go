package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type txKey struct{}

// Executor returns the transaction carried by ctx, or db when there is none.
// Repositories call this so they join a transaction opened by a usecase.
func Executor(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// TxManager runs a function inside a single database transaction.
type TxManager struct {
	db        *sqlx.DB
	snapshots *sqlx.DB
}

type TxOption func(*TxManager)

// SnapshotPool routes WithSnapshot to a separate read pool. A nil pool is ignored.
func SnapshotPool(db *sqlx.DB) TxOption {
	return func(m *TxManager) {
		if db != nil {
			m.snapshots = db
		}
	}
}

func NewTxManager(db *sqlx.DB, opts ...TxOption) *TxManager {
	m := &TxManager{db: db, snapshots: db}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTx commits when fn returns nil and rolls back otherwise. Nested calls
// reuse the outer transaction.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, m.db, nil, fn)
}

// WithSnapshot runs fn in a read-only transaction so multi-query reads see one
// consistent state of the ledger. It uses the snapshot pool when one is configured.
func (m *TxManager) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	var opts *sql.TxOptions
	if m.snapshots.DriverName() == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return m.run(ctx, m.snapshots, opts, fn)
}

func (m *TxManager) run(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
