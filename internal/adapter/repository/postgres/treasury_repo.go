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

// TreasuryRepository implements usecase.TreasuryRepository.
type TreasuryRepository struct {
	db dbtx
}

// NewTreasuryRepository creates a new TreasuryRepository.
func NewTreasuryRepository(pool *pgxpool.Pool) *TreasuryRepository {
	return newTreasuryRepositoryWithDB(pool)
}

func newTreasuryRepositoryWithDB(db dbtx) *TreasuryRepository {
	return &TreasuryRepository{db: db}
}

const (
	insertTreasurySQL = `INSERT INTO treasuries (address, charity, balance, data_size, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)`
	selectTreasurySQL = `SELECT address, charity, balance, data_size, version, created_at, updated_at
		FROM treasuries WHERE address = $1`
	updateTreasuryBalanceSQL = `UPDATE treasuries SET balance = $2, version = version + 1, updated_at = $3 WHERE address = $1`
)

// Create inserts the treasury holding.
func (r *TreasuryRepository) Create(ctx context.Context, tx usecase.Transaction, treasury *domain.Treasury) error {
	_, err := txConn(tx).Exec(ctx, insertTreasurySQL,
		treasury.Address.String(),
		treasury.Charity.String(),
		numeric(treasury.Balance),
		treasury.DataSize,
		treasury.CreatedAt,
		treasury.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInitialized
		}
		return err
	}

	return nil
}

// GetByAddress retrieves the treasury without locking.
func (r *TreasuryRepository) GetByAddress(ctx context.Context, address domain.Identity) (*domain.Treasury, error) {
	return scanTreasury(r.db.QueryRow(ctx, selectTreasurySQL, address.String()))
}

// GetByAddressInTx retrieves the treasury inside tx without locking.
func (r *TreasuryRepository) GetByAddressInTx(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
	return scanTreasury(txConn(tx).QueryRow(ctx, selectTreasurySQL, address.String()))
}

// GetByAddressForUpdate retrieves the treasury with a row lock.
func (r *TreasuryRepository) GetByAddressForUpdate(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
	return scanTreasury(txConn(tx).QueryRow(ctx, selectTreasurySQL+" FOR UPDATE", address.String()))
}

// UpdateBalance sets the treasury balance.
func (r *TreasuryRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, address domain.Identity, balance uint64, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, updateTreasuryBalanceSQL, address.String(), numeric(balance), updatedAt)
	if err != nil {
		return err
	}

	return expectOneRow(tag, domain.ErrCharityNotFound)
}

func scanTreasury(row pgx.Row) (*domain.Treasury, error) {
	var (
		address, charity     string
		balance              decimal.Decimal
		dataSize             int32
		version              int64
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&address, &charity, &balance, &dataSize, &version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCharityNotFound
		}
		return nil, err
	}

	t := &domain.Treasury{
		DataSize:  int(dataSize),
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	var err error
	if t.Address, err = parseStoredIdentity(address); err != nil {
		return nil, err
	}
	if t.Charity, err = parseStoredIdentity(charity); err != nil {
		return nil, err
	}
	if t.Balance, err = toUint64(balance); err != nil {
		return nil, err
	}

	return t, nil
}
