package converter

import (
	"errors"
	"testing"
	"time"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

var (
	testDeployment  = domain.NewDeployment(domain.DeriveAddress(domain.Identity{4}, "program"))
	testBeneficiary = domain.DeriveAddress(domain.Identity{4}, "beneficiary")
)

func TestCharityToPb(t *testing.T) {
	info := &usecase.CharityInfo{
		Address:            testDeployment.Charity,
		Treasury:           testDeployment.Treasury,
		Beneficiary:        testBeneficiary,
		TotalDonations:     18446744073709551615,
		Deadline:           1760000000,
		DonationWindowOpen: true,
		TreasuryBalance:    1_287_600,
	}

	got := CharityToPb(info)
	if got == nil {
		t.Fatal("expected wire charity")
	}
	if got.TotalDonations != "18446744073709551615" {
		t.Fatalf("expected full uint64 range, got %s", got.TotalDonations)
	}
	if got.Beneficiary != testBeneficiary.String() || got.Treasury != testDeployment.Treasury.String() {
		t.Fatalf("unexpected identities: %+v", got)
	}

	if CharityToPb(nil) != nil {
		t.Fatal("expected nil info to return nil")
	}
}

func TestInitializeResultToPb(t *testing.T) {
	got := InitializeResultToPb(&usecase.InitializeResult{
		Charity:  &domain.Charity{Address: testDeployment.Charity, Beneficiary: testBeneficiary, Deadline: 5, DonationWindowOpen: true},
		Treasury: &domain.Treasury{Address: testDeployment.Treasury, Balance: 1_287_600},
	})
	if got == nil || got.RentFunded != "1287600" || got.Charity.TreasuryBalance != "1287600" {
		t.Fatalf("unexpected response: %+v", got)
	}
	if InitializeResultToPb(&usecase.InitializeResult{}) != nil {
		t.Fatal("expected incomplete result to return nil")
	}
}

func TestDonationAndSettlementToPb(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	d := DonationToPb(&domain.Donation{ID: "01D", Amount: 500, TotalAfter: 800, CreatedAt: now})
	if d.Id != "01D" || d.Amount != "500" || d.TotalAfter != "800" || !d.CreatedAt.Equal(now) {
		t.Fatalf("unexpected donation: %+v", d)
	}

	s := SettlementToPb(&domain.Settlement{ID: "01S", Amount: 794_975, FeeReserve: 5025, SettledAt: now})
	if s.Id != "01S" || s.Amount != "794975" || s.FeeReserve != "5025" {
		t.Fatalf("unexpected settlement: %+v", s)
	}

	if DonationToPb(nil) != nil || SettlementToPb(nil) != nil {
		t.Fatal("expected nil inputs to return nil")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"500", 500, false},
		{"18446744073709551615", 18446744073709551615, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"2.5", 0, true},
		{"abc", 0, true},
		{"18446744073709551616", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidAmount) {
				t.Fatalf("%q: expected ErrInvalidAmount, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %d, got %d (%v)", tt.in, tt.want, got, err)
		}
	}
}
