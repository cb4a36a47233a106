package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// CharityRepository implements usecase.CharityRepository.
// The record is stored in its fixed 57-byte encoding.
type CharityRepository struct {
	db dbtx
}

// NewCharityRepository creates a new CharityRepository.
func NewCharityRepository(pool *pgxpool.Pool) *CharityRepository {
	return newCharityRepositoryWithDB(pool)
}

func newCharityRepositoryWithDB(db dbtx) *CharityRepository {
	return &CharityRepository{db: db}
}

const (
	insertCharitySQL = `INSERT INTO charities (address, data, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	selectCharitySQL = `SELECT address, data, created_at, updated_at FROM charities WHERE address = $1`
	updateCharitySQL = `UPDATE charities SET data = $2, updated_at = $3 WHERE address = $1`
)

// Create inserts the record.
func (r *CharityRepository) Create(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error {
	_, err := txConn(tx).Exec(ctx, insertCharitySQL,
		charity.Address.String(),
		domain.MarshalRecord(charity),
		charity.CreatedAt,
		charity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInitialized
		}
		return err
	}

	return nil
}

// GetByAddress retrieves the record without locking.
func (r *CharityRepository) GetByAddress(ctx context.Context, address domain.Identity) (*domain.Charity, error) {
	return scanCharity(r.db.QueryRow(ctx, selectCharitySQL, address.String()))
}

// GetByAddressInTx retrieves the record inside tx without locking.
func (r *CharityRepository) GetByAddressInTx(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error) {
	return scanCharity(txConn(tx).QueryRow(ctx, selectCharitySQL, address.String()))
}

// GetByAddressForUpdate retrieves the record with a row lock.
func (r *CharityRepository) GetByAddressForUpdate(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Charity, error) {
	return scanCharity(txConn(tx).QueryRow(ctx, selectCharitySQL+" FOR UPDATE", address.String()))
}

// Update rewrites the record.
func (r *CharityRepository) Update(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error {
	tag, err := txConn(tx).Exec(ctx, updateCharitySQL,
		charity.Address.String(),
		domain.MarshalRecord(charity),
		charity.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return expectOneRow(tag, domain.ErrCharityNotFound)
}

func scanCharity(row pgx.Row) (*domain.Charity, error) {
	var (
		address              string
		data                 []byte
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&address, &data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCharityNotFound
		}
		return nil, err
	}

	id, err := parseStoredIdentity(address)
	if err != nil {
		return nil, err
	}

	charity := &domain.Charity{Address: id, CreatedAt: createdAt, UpdatedAt: updatedAt}
	if err := domain.UnmarshalRecord(data, charity); err != nil {
		return nil, fmt.Errorf("charity %s: %w", address, err)
	}

	return charity, nil
}
