package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

func TestReconciliationUseCase_Consistent(t *testing.T) {
	f := settleReady(t)

	report, err := f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "discrepancies: %v", report.Discrepancies)
	assert.Equal(t, int64(1), report.ReceiptCount)
	assert.True(t, domain.DecimalFromUint64(pot).Equal(report.ReceiptTotal))

	_, err = f.settlement.Settle(as(donor))
	require.NoError(t, err)

	report, err = f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "discrepancies: %v", report.Discrepancies)
	assert.True(t, report.SettlementRecorded)
	assert.False(t, report.DonationWindowOpen)
}

func TestReconciliationUseCase_ConcurrentDonationIsNotADiscrepancy(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	// The donation commits between the treasury read and the receipt totals.
	f.treasuryRepo.GetByAddressInTxFunc = func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
		f.treasuryRepo.GetByAddressInTxFunc = nil
		if _, err := f.donations.Donate(as(donor), 100); err != nil {
			return nil, err
		}
		return f.treasuryRepo.GetByAddressInTx(ctx, tx, address)
	}

	report, err := f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "discrepancies: %v", report.Discrepancies)
	assert.Equal(t, uint64(0), report.RecordedTotal)
	assert.Equal(t, int64(0), report.ReceiptCount)

	report, err = f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "discrepancies: %v", report.Discrepancies)
	assert.Equal(t, uint64(100), report.RecordedTotal)
	assert.Equal(t, testRent+100, report.TreasuryBalance)
}

func TestReconciliationUseCase_ReportsDiscrepancies(t *testing.T) {
	f := settleReady(t)

	c := f.charity(t)
	c.TotalDonations++
	c.DonationWindowOpen = false
	f.store.PutCharity(c)

	tr, _ := f.store.Treasury(f.deployment.Treasury)
	tr.Balance = testRent - 1
	f.store.PutTreasury(tr)

	report, err := f.reconcile.Reconcile(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Len(t, report.Discrepancies, 3)
}

func TestReconciliationUseCase_NotInitialized(t *testing.T) {
	f := newFixture(t)

	_, err := f.reconcile.Reconcile(context.Background())
	assert.ErrorIs(t, err, domain.ErrCharityNotFound)
}
