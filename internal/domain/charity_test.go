package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testBeneficiary = Identity{7, 7, 7}

func newOpenCharity(t *testing.T, deadline int64) *Charity {
	t.Helper()

	c, err := NewCharity(Identity{1}, testBeneficiary.String(), deadline, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestNewCharity(t *testing.T) {
	tests := []struct {
		name        string
		beneficiary string
		deadline    int64
		wantErr     error
	}{
		{name: "valid", beneficiary: testBeneficiary.String(), deadline: 1000},
		{name: "empty beneficiary", beneficiary: "", deadline: 1000, wantErr: ErrInvalidBeneficiary},
		{name: "malformed beneficiary", beneficiary: "not-base58!", deadline: 1000, wantErr: ErrInvalidBeneficiary},
		{name: "zero identity", beneficiary: "11111111111111111111111111111111", deadline: 1000, wantErr: ErrInvalidBeneficiary},
		{name: "zero deadline", beneficiary: testBeneficiary.String(), deadline: 0, wantErr: ErrInvalidBeneficiary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCharity(Identity{1}, tt.beneficiary, tt.deadline, time.Now())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.DonationWindowOpen || c.TotalDonations != 0 || c.Deadline != tt.deadline {
				t.Fatalf("unexpected initial state: %+v", c)
			}
			if c.Beneficiary != testBeneficiary {
				t.Fatalf("expected beneficiary %s, got %s", testBeneficiary, c.Beneficiary)
			}
		})
	}
}

func TestCharity_ValidateDonation(t *testing.T) {
	c := newOpenCharity(t, 100)

	if err := c.ValidateDonation(99); err != nil {
		t.Fatalf("expected donation before deadline to be allowed, got %v", err)
	}

	if err := c.ValidateDonation(100); !errors.Is(err, ErrDonationsNotAllowed) {
		t.Fatalf("expected ErrDonationsNotAllowed at deadline, got %v", err)
	}

	c.Close(time.Now())
	if err := c.ValidateDonation(0); !errors.Is(err, ErrDonationsNotAllowed) {
		t.Fatalf("expected ErrDonationsNotAllowed after close, got %v", err)
	}
}

func TestCharity_ApplyDonation(t *testing.T) {
	c := newOpenCharity(t, 100)
	c.TotalDonations = 800

	total, err := c.ApplyDonation(200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1000 {
		t.Fatalf("expected 1000, got %d", total)
	}
	if c.TotalDonations != 800 {
		t.Fatalf("ApplyDonation must not mutate the record")
	}

	c.TotalDonations = math.MaxUint64
	if _, err := c.ApplyDonation(1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestCharity_ValidateSettlement(t *testing.T) {
	c := newOpenCharity(t, 100)

	if err := c.ValidateSettlement(99); !errors.Is(err, ErrNotDueDate) {
		t.Fatalf("expected ErrNotDueDate, got %v", err)
	}

	if err := c.ValidateSettlement(100); err != nil {
		t.Fatalf("expected settlement at deadline to be allowed, got %v", err)
	}

	c.Close(time.Now())
	if err := c.ValidateSettlement(1000); !errors.Is(err, ErrDonationsNotAllowed) {
		t.Fatalf("expected ErrDonationsNotAllowed after close, got %v", err)
	}
}

func TestCharity_CloseKeepsTotal(t *testing.T) {
	c := newOpenCharity(t, 100)
	c.TotalDonations = 800

	c.Close(time.Now())

	if c.DonationWindowOpen {
		t.Fatal("expected window closed")
	}
	if c.Deadline != DeadlineClosed {
		t.Fatalf("expected closed deadline sentinel, got %d", c.Deadline)
	}
	if c.TotalDonations != 800 {
		t.Fatalf("expected historical total kept, got %d", c.TotalDonations)
	}
}
