package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/charityledger/internal/usecase"
)

func TestTxManagerBeginSuccess(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(serializable)
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	// the deferred rollback of a committed unit of work must not reach the database
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback after commit: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("begin failed")
	mockPool.ExpectBeginTx(serializable).WillReturnError(mockErr)

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if !errors.Is(err, mockErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
}

func TestTxRollback(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(serializable)
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxCommit_SerializationFailureIsRetryable(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(serializable)
	mockPool.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})
	mockPool.ExpectRollback()

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = tx.Commit(context.Background())
	if !isRetryableError(err) {
		t.Fatalf("expected retryable commit error, got %v", err)
	}

	// a failed commit leaves the transaction open for rollback
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTxManagerBeginReadOnly_SharesOneSnapshot(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(snapshotRead)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM treasuries WHERE address = $1")).
		WithArgs(testDeployment.Treasury.String()).
		WillReturnRows(pgxmock.NewRows([]string{"address", "charity", "balance", "data_size", "version", "created_at", "updated_at"}).
			AddRow(testDeployment.Treasury.String(), testDeployment.Charity.String(), "1288100", int32(57), int64(1), testNow, testNow))
	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(SUM(amount), 0)")).
		WithArgs(testDeployment.Charity.String()).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(int64(1), "500"))
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).BeginReadOnly(context.Background())
	require.NoError(t, err)

	treasury, err := newTreasuryRepositoryWithDB(mockPool).GetByAddressInTx(context.Background(), tx, testDeployment.Treasury)
	require.NoError(t, err)
	count, sum, err := newDonationRepositoryWithDB(mockPool).TotalsInTx(context.Background(), tx, testDeployment.Charity)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, uint64(1_288_100), treasury.Balance)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "500", sum.String())
	assertExpectations(t, mockPool)
}

func TestTxManagerBeginReadOnlyError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("too many connections")
	mockPool.ExpectBeginTx(snapshotRead).WillReturnError(mockErr)

	_, err := newTxManagerWithPool(mockPool).BeginReadOnly(context.Background())
	assert.ErrorIs(t, err, mockErr)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// beginMockTx opens a serializable transaction on pool for repository tests.
func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBeginTx(serializable)
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
