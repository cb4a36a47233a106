package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
)

// ReconciliationUseCase cross-checks the record against receipts and the treasury.
type ReconciliationUseCase struct {
	txManager      TransactionManager
	charityRepo    CharityRepository
	treasuryRepo   TreasuryRepository
	donationRepo   DonationRepository
	settlementRepo SettlementRepository
	rent           RentOracle
	clock          Clock
	deployment     domain.Deployment
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	charityRepo CharityRepository,
	treasuryRepo TreasuryRepository,
	donationRepo DonationRepository,
	settlementRepo SettlementRepository,
	rent RentOracle,
	clock Clock,
	deployment domain.Deployment,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:      txManager,
		charityRepo:    charityRepo,
		treasuryRepo:   treasuryRepo,
		donationRepo:   donationRepo,
		settlementRepo: settlementRepo,
		rent:           rent,
		clock:          clock,
		deployment:     deployment,
	}
}

// ReconciliationReport represents the result of a reconciliation check
type ReconciliationReport struct {
	Charity            domain.Identity
	RecordedTotal      uint64
	ReceiptTotal       decimal.Decimal
	ReceiptCount       int64
	TreasuryBalance    uint64
	RentReserve        uint64
	DonationWindowOpen bool
	SettlementRecorded bool
	Discrepancies      []string
	CheckedAt          time.Time
}

// Consistent reports whether no discrepancy was found.
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// Reconcile builds a report from one read-only snapshot, so writes that commit
// while it runs cannot show up as discrepancies. Discrepancies are reported, not
// returned as errors.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	var (
		charity            *domain.Charity
		treasury           *domain.Treasury
		count              int64
		sum                decimal.Decimal
		settlementRecorded bool
	)

	err := runReadOnly(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		var err error
		if charity, err = uc.charityRepo.GetByAddressInTx(ctx, tx, uc.deployment.Charity); err != nil {
			return err
		}

		if treasury, err = uc.treasuryRepo.GetByAddressInTx(ctx, tx, uc.deployment.Treasury); err != nil {
			return err
		}

		if count, sum, err = uc.donationRepo.TotalsInTx(ctx, tx, charity.Address); err != nil {
			return err
		}

		settlementRecorded = true
		if _, err := uc.settlementRepo.GetByCharityInTx(ctx, tx, charity.Address); err != nil {
			if !errors.Is(err, domain.ErrSettlementNotFound) {
				return err
			}
			settlementRecorded = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		Charity:            charity.Address,
		RecordedTotal:      charity.TotalDonations,
		ReceiptTotal:       sum,
		ReceiptCount:       count,
		TreasuryBalance:    treasury.Balance,
		RentReserve:        uc.rent.MinimumBalance(treasury.DataSize),
		DonationWindowOpen: charity.DonationWindowOpen,
		SettlementRecorded: settlementRecorded,
		Discrepancies:      make([]string, 0),
		CheckedAt:          uc.clock.Now().UTC(),
	}

	if !domain.DecimalFromUint64(report.RecordedTotal).Equal(sum) {
		report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
			"recorded total %d differs from receipt total %s", report.RecordedTotal, sum.String()))
	}

	if report.TreasuryBalance < report.RentReserve {
		report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
			"treasury balance %d below rent reserve %d", report.TreasuryBalance, report.RentReserve))
	}

	switch {
	case charity.DonationWindowOpen && settlementRecorded:
		report.Discrepancies = append(report.Discrepancies, "open charity has a settlement receipt")
	case !charity.DonationWindowOpen && !settlementRecorded:
		report.Discrepancies = append(report.Discrepancies, "closed charity has no settlement receipt")
	}

	return report, nil
}
