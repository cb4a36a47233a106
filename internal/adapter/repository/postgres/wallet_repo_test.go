package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/charityledger/internal/domain"
)

func TestWalletRepositoryEnsure(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("ON CONFLICT (owner) DO NOTHING")).
		WithArgs(testBeneficiary.String(), testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	repo := newWalletRepositoryWithDB(pool)
	require.NoError(t, repo.Ensure(context.Background(), tx, testBeneficiary, testNow))
	assertExpectations(t, pool)
}

func TestWalletRepositoryGetForUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE owner = $1 FOR UPDATE")).
		WithArgs(testDonor.String()).
		WillReturnRows(pgxmock.NewRows([]string{"owner", "balance", "version", "created_at", "updated_at"}).
			AddRow(testDonor.String(), "18446744073709551615", int64(3), testNow, testNow))

	repo := newWalletRepositoryWithDB(pool)
	w, err := repo.GetForUpdate(context.Background(), tx, testDonor)
	require.NoError(t, err)

	assert.Equal(t, testDonor, w.Owner)
	assert.Equal(t, uint64(18446744073709551615), w.Balance)
	assert.Equal(t, int64(3), w.Version)
}

func TestWalletRepositoryGetNotFound(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery(regexp.QuoteMeta("FROM wallets")).
		WillReturnError(pgx.ErrNoRows)

	repo := newWalletRepositoryWithDB(pool)
	_, err := repo.Get(context.Background(), testDonor)
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWalletRepositoryRejectsOutOfRangeBalance(t *testing.T) {
	pool := newMockPool(t)

	pool.ExpectQuery(regexp.QuoteMeta("FROM wallets")).
		WillReturnRows(pgxmock.NewRows([]string{"owner", "balance", "version", "created_at", "updated_at"}).
			AddRow(testDonor.String(), "18446744073709551616", int64(0), testNow, testNow))

	repo := newWalletRepositoryWithDB(pool)
	_, err := repo.Get(context.Background(), testDonor)
	assert.Error(t, err)
}

func TestWalletRepositoryUpdateBalance(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $2")).
		WithArgs(testDonor.String(), numeric(9_500), testNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := newWalletRepositoryWithDB(pool)
	require.NoError(t, repo.UpdateBalance(context.Background(), tx, testDonor, 9_500, testNow))
	assertExpectations(t, pool)
}

func TestWalletRepositoryUpdateMissing(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := newWalletRepositoryWithDB(pool)
	err := repo.UpdateBalance(context.Background(), tx, testDonor, 1, testNow)
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}
