package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
	"github.com/iho/charityledger/internal/usecase/mocks"
)

func TestDonationUseCase_Accumulates(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	amounts := []uint64{500, 300, 1, 199}
	var sum uint64
	for _, amount := range amounts {
		before := f.treasuryBalance(t)

		d, err := f.donations.Donate(as(donor), amount)
		if err != nil {
			t.Fatalf("donate %d: %v", amount, err)
		}
		sum += amount

		if d.TotalAfter != sum {
			t.Errorf("expected receipt total %d, got %d", sum, d.TotalAfter)
		}
		if got := f.treasuryBalance(t); got != before+amount {
			t.Errorf("treasury grew by %d, want %d", got-before, amount)
		}
	}

	if got := f.charity(t).TotalDonations; got != sum {
		t.Errorf("expected total %d, got %d", sum, got)
	}
	if got := f.walletBalance(t, donor); got != donorFunds-sum {
		t.Errorf("expected donor balance %d, got %d", donorFunds-sum, got)
	}
	if got := len(f.store.Donations()); got != len(amounts) {
		t.Errorf("expected %d receipts, got %d", len(amounts), got)
	}
}

func TestDonationUseCase_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		ctx     func() context.Context
		amount  uint64
		wantErr error
	}{
		{
			name:    "zero amount",
			amount:  0,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "no principal",
			ctx:     context.Background,
			amount:  10,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "at deadline",
			setup:   func(t *testing.T, f *fixture) { f.clock.Set(baseTime.Add(windowWidth * time.Second)) },
			amount:  10,
			wantErr: domain.ErrDonationsNotAllowed,
		},
		{
			name:    "donor short",
			amount:  donorFunds + 1,
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "donor without wallet",
			ctx:     func() context.Context { return as(domain.Identity{0x99}) },
			amount:  10,
			wantErr: domain.ErrWalletNotFound,
		},
		{
			name: "total overflow",
			setup: func(t *testing.T, f *fixture) {
				c := f.charity(t)
				c.TotalDonations = math.MaxUint64 - 5
				f.store.PutCharity(c)
			},
			amount:  6,
			wantErr: domain.ErrOverflow,
		},
		{
			name: "treasury overflow",
			setup: func(t *testing.T, f *fixture) {
				tr, _ := f.store.Treasury(f.deployment.Treasury)
				tr.Balance = math.MaxUint64 - 5
				f.store.PutTreasury(tr)
			},
			amount:  6,
			wantErr: domain.ErrOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.initialize(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			ctx := as(donor)
			if tt.ctx != nil {
				ctx = tt.ctx()
			}

			totalBefore := f.charity(t).TotalDonations
			treasuryBefore := f.treasuryBalance(t)

			_, err := f.donations.Donate(ctx, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if got := f.charity(t).TotalDonations; got != totalBefore {
				t.Errorf("total changed from %d to %d", totalBefore, got)
			}
			if got := f.treasuryBalance(t); got != treasuryBefore {
				t.Errorf("treasury changed from %d to %d", treasuryBefore, got)
			}
			if got := f.walletBalance(t, donor); got != donorFunds {
				t.Errorf("donor balance changed to %d", got)
			}
		})
	}
}

func TestDonationUseCase_NotInitialized(t *testing.T) {
	f := newFixture(t)

	_, err := f.donations.Donate(as(donor), 10)
	if !errors.Is(err, domain.ErrDonationsNotAllowed) {
		t.Fatalf("expected ErrDonationsNotAllowed, got %v", err)
	}
}

func TestDonationUseCase_BalanceMismatchRollsBack(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	calls := 0
	f.treasuryRepo.GetByAddressForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, address domain.Identity) (*domain.Treasury, error) {
		calls++
		tr, err := f.treasuryRepo.GetByAddress(ctx, address)
		if err != nil {
			return nil, err
		}
		if calls == 2 {
			// Host short-transferred one unit.
			tr.Balance--
		}
		return tr, nil
	}

	_, err := f.donations.Donate(as(donor), 500)
	if !errors.Is(err, domain.ErrBalanceMismatch) {
		t.Fatalf("expected ErrBalanceMismatch, got %v", err)
	}

	if got := f.treasuryBalance(t); got != testRent {
		t.Errorf("treasury not rolled back: %d", got)
	}
	if got := f.walletBalance(t, donor); got != donorFunds {
		t.Errorf("donor not rolled back: %d", got)
	}
	if got := f.charity(t).TotalDonations; got != 0 {
		t.Errorf("total not rolled back: %d", got)
	}
}

func TestDonationUseCase_RetriesTransientConflict(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	errConflict := errors.New("could not serialize access")
	retrier := &mocks.MockRetrier{RetryOn: errConflict}
	f.donations.WithRetrier(retrier)

	failed := false
	f.charityRepo.UpdateFunc = func(ctx context.Context, tx usecase.Transaction, charity *domain.Charity) error {
		if !failed {
			failed = true
			return errConflict
		}
		f.charityRepo.UpdateFunc = nil
		return f.charityRepo.Update(ctx, tx, charity)
	}

	if _, err := f.donations.Donate(as(donor), 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", retrier.Attempts)
	}
	if got := f.charity(t).TotalDonations; got != 250 {
		t.Errorf("expected total 250, got %d", got)
	}
	if got := f.walletBalance(t, donor); got != donorFunds-250 {
		t.Errorf("donor debited more than once: %d", got)
	}
	if got := len(f.store.Donations()); got != 1 {
		t.Errorf("expected one receipt, got %d", got)
	}
}
