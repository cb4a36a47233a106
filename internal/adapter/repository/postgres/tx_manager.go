package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/charityledger/internal/usecase"
)

// serializable is the isolation every ledger mutation runs at. Lost updates on
// the treasury or the record are turned into 40001 failures that the Retrier
// replays.
var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}

// snapshotRead backs queries that combine several rows into one view.
var snapshotRead = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool txBeginner
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// Begin opens a serializable read-write transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, serializable)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}

	return &Tx{tx: tx}, nil
}

// BeginReadOnly opens a repeatable-read, read-only transaction.
func (m *TxManager) BeginReadOnly(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot read: %w", err)
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction. Rollback after a finished Commit is a no-op, so
// callers can always defer it.
type Tx struct {
	tx        pgx.Tx
	committed bool
}

// Commit commits the transaction. Serialization failures keep their pgconn
// error in the chain for the Retrier.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	t.committed = true
	return nil
}

// Rollback aborts the transaction unless it was already committed.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.committed {
		return nil
	}
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
