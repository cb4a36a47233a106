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

// SettlementRepository implements usecase.SettlementRepository.
type SettlementRepository struct {
	db dbtx
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return newSettlementRepositoryWithDB(pool)
}

func newSettlementRepositoryWithDB(db dbtx) *SettlementRepository {
	return &SettlementRepository{db: db}
}

const (
	insertSettlementSQL = `INSERT INTO settlements (
			id, charity, beneficiary, settled_by, deadline, total_donations,
			treasury_before, treasury_after, fee_reserve, rent_reserve,
			amount, beneficiary_after, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	selectSettlementSQL = `SELECT id, charity, beneficiary, settled_by, deadline, total_donations,
			treasury_before, treasury_after, fee_reserve, rent_reserve,
			amount, beneficiary_after, settled_at
		FROM settlements WHERE charity = $1`
)

// Create inserts the settlement receipt. A charity settles at most once.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.Settlement) error {
	_, err := txConn(tx).Exec(ctx, insertSettlementSQL,
		s.ID,
		s.Charity.String(),
		s.Beneficiary.String(),
		s.SettledBy.String(),
		s.Deadline,
		numeric(s.TotalDonations),
		numeric(s.TreasuryBefore),
		numeric(s.TreasuryAfter),
		numeric(s.FeeReserve),
		numeric(s.RentReserve),
		numeric(s.Amount),
		numeric(s.BeneficiaryAfter),
		s.SettledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDonationsNotAllowed
		}
		return err
	}

	return nil
}

// GetByCharity returns the settlement receipt of charity.
func (r *SettlementRepository) GetByCharity(ctx context.Context, charity domain.Identity) (*domain.Settlement, error) {
	return settlementByCharity(ctx, r.db, charity)
}

// GetByCharityInTx is GetByCharity read inside tx.
func (r *SettlementRepository) GetByCharityInTx(ctx context.Context, tx usecase.Transaction, charity domain.Identity) (*domain.Settlement, error) {
	return settlementByCharity(ctx, txConn(tx), charity)
}

func settlementByCharity(ctx context.Context, db dbtx, charity domain.Identity) (*domain.Settlement, error) {
	var (
		id, charityAddr, beneficiary, settledBy string
		deadline                                int64
		amounts                                 [7]decimal.Decimal
		settledAt                               time.Time
	)

	err := db.QueryRow(ctx, selectSettlementSQL, charity.String()).Scan(
		&id, &charityAddr, &beneficiary, &settledBy, &deadline,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4], &amounts[5], &amounts[6],
		&settledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, err
	}

	s := &domain.Settlement{ID: id, Deadline: deadline, SettledAt: settledAt}

	for _, f := range []struct {
		dst *domain.Identity
		src string
	}{
		{&s.Charity, charityAddr},
		{&s.Beneficiary, beneficiary},
		{&s.SettledBy, settledBy},
	} {
		if *f.dst, err = parseStoredIdentity(f.src); err != nil {
			return nil, err
		}
	}

	dsts := []*uint64{
		&s.TotalDonations, &s.TreasuryBefore, &s.TreasuryAfter,
		&s.FeeReserve, &s.RentReserve, &s.Amount, &s.BeneficiaryAfter,
	}
	for i, dst := range dsts {
		if *dst, err = toUint64(amounts[i]); err != nil {
			return nil, err
		}
	}

	return s, nil
}
