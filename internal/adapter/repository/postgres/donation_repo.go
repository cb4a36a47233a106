package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// DonationRepository implements usecase.DonationRepository.
type DonationRepository struct {
	db dbtx
}

// NewDonationRepository creates a new DonationRepository.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return newDonationRepositoryWithDB(pool)
}

func newDonationRepositoryWithDB(db dbtx) *DonationRepository {
	return &DonationRepository{db: db}
}

const (
	insertDonationSQL = `INSERT INTO donations (id, charity, donor, amount, total_after, treasury_balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	listDonationsSQL = `SELECT id, charity, donor, amount, total_after, treasury_balance_after, created_at
		FROM donations WHERE charity = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	donationTotalsSQL = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM donations WHERE charity = $1`
)

// Create inserts a donation receipt.
func (r *DonationRepository) Create(ctx context.Context, tx usecase.Transaction, donation *domain.Donation) error {
	_, err := txConn(tx).Exec(ctx, insertDonationSQL,
		donation.ID,
		donation.Charity.String(),
		donation.Donor.String(),
		numeric(donation.Amount),
		numeric(donation.TotalAfter),
		numeric(donation.TreasuryBalanceAfter),
		donation.CreatedAt,
	)
	return err
}

// ListByCharity returns receipts newest first.
func (r *DonationRepository) ListByCharity(ctx context.Context, charity domain.Identity, limit, offset int) ([]*domain.Donation, error) {
	rows, err := r.db.Query(ctx, listDonationsSQL, charity.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]*domain.Donation, 0, limit)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}

	return donations, rows.Err()
}

// Totals returns the receipt count and the sum of receipt amounts.
func (r *DonationRepository) Totals(ctx context.Context, charity domain.Identity) (int64, decimal.Decimal, error) {
	return donationTotals(ctx, r.db, charity)
}

// TotalsInTx is Totals read inside tx.
func (r *DonationRepository) TotalsInTx(ctx context.Context, tx usecase.Transaction, charity domain.Identity) (int64, decimal.Decimal, error) {
	return donationTotals(ctx, txConn(tx), charity)
}

func donationTotals(ctx context.Context, db dbtx, charity domain.Identity) (int64, decimal.Decimal, error) {
	var (
		count int64
		sum   decimal.Decimal
	)

	if err := db.QueryRow(ctx, donationTotalsSQL, charity.String()).Scan(&count, &sum); err != nil {
		return 0, decimal.Zero, err
	}

	return count, sum, nil
}

func scanDonation(rows pgx.Rows) (*domain.Donation, error) {
	var (
		id, charity, donor                string
		amount, totalAfter, treasuryAfter decimal.Decimal
		createdAt                         time.Time
	)

	if err := rows.Scan(&id, &charity, &donor, &amount, &totalAfter, &treasuryAfter, &createdAt); err != nil {
		return nil, err
	}

	d := &domain.Donation{ID: id, CreatedAt: createdAt}

	var err error
	if d.Charity, err = parseStoredIdentity(charity); err != nil {
		return nil, err
	}
	if d.Donor, err = parseStoredIdentity(donor); err != nil {
		return nil, err
	}
	if d.Amount, err = toUint64(amount); err != nil {
		return nil, err
	}
	if d.TotalAfter, err = toUint64(totalAfter); err != nil {
		return nil, err
	}
	if d.TreasuryBalanceAfter, err = toUint64(treasuryAfter); err != nil {
		return nil, err
	}

	return d, nil
}
