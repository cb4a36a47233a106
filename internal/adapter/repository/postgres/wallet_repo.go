package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	db dbtx
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return newWalletRepositoryWithDB(pool)
}

func newWalletRepositoryWithDB(db dbtx) *WalletRepository {
	return &WalletRepository{db: db}
}

const (
	selectWalletSQL = `SELECT owner, balance, version, created_at, updated_at FROM wallets WHERE owner = $1`
	ensureWalletSQL = `INSERT INTO wallets (owner, balance, version, created_at, updated_at)
		VALUES ($1, 0, 0, $2, $2) ON CONFLICT (owner) DO NOTHING`
	updateWalletBalanceSQL = `UPDATE wallets SET balance = $2, version = version + 1, updated_at = $3 WHERE owner = $1`
)

// Get retrieves a wallet without locking.
func (r *WalletRepository) Get(ctx context.Context, owner domain.Identity) (*domain.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, selectWalletSQL, owner.String()))
}

// GetForUpdate retrieves a wallet with a row lock.
func (r *WalletRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, owner domain.Identity) (*domain.Wallet, error) {
	return scanWallet(txConn(tx).QueryRow(ctx, selectWalletSQL+" FOR UPDATE", owner.String()))
}

// Ensure creates an empty wallet for owner unless one exists.
func (r *WalletRepository) Ensure(ctx context.Context, tx usecase.Transaction, owner domain.Identity, now time.Time) error {
	_, err := txConn(tx).Exec(ctx, ensureWalletSQL, owner.String(), now)
	return err
}

// UpdateBalance sets the wallet balance.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, owner domain.Identity, balance uint64, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, updateWalletBalanceSQL, owner.String(), numeric(balance), updatedAt)
	if err != nil {
		return err
	}

	return expectOneRow(tag, domain.ErrWalletNotFound)
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		owner                string
		balance              decimal.Decimal
		version              int64
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&owner, &balance, &version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	id, err := parseStoredIdentity(owner)
	if err != nil {
		return nil, err
	}

	amount, err := toUint64(balance)
	if err != nil {
		return nil, err
	}

	return &domain.Wallet{
		Owner:     id,
		Balance:   amount,
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
