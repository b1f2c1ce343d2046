package service

import (
	"context"
	"database/sql"

	"github.com/noetic/noospace-api/internal/store"
)

// TransactionRunner executes a function within a storage transaction.
// Services use it so multi-store mutations (note delete plus orphan
// handling) commit or roll back as one unit regardless of the backend.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn store.TxFn) error
}

// DBTransactionRunner runs transactions against a real *sql.DB.
type DBTransactionRunner struct {
	db *sql.DB
}

// NewDBTransactionRunner creates a TransactionRunner over the given database.
func NewDBTransactionRunner(db *sql.DB) *DBTransactionRunner {
	return &DBTransactionRunner{db: db}
}

// RunInTransaction implements TransactionRunner.
func (r *DBTransactionRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(ctx, r.db, fn)
}

// NoopTransactionRunner invokes the function directly with a nil
// transaction. Used with the in-memory stores, whose operations are
// individually atomic and whose WithTx is the identity.
type NoopTransactionRunner struct{}

// RunInTransaction implements TransactionRunner.
func (NoopTransactionRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}
