package converter

import (
	"strconv"

	"github.com/shopspring/decimal"

	pb "github.com/iho/charityledger/internal/adapter/grpc/charityv1"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

func amount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// CharityToPb converts the query snapshot to a wire Charity.
func CharityToPb(info *usecase.CharityInfo) *pb.Charity {
	if info == nil {
		return nil
	}
	return &pb.Charity{
		Address:            info.Address.String(),
		Treasury:           info.Treasury.String(),
		Beneficiary:        info.Beneficiary.String(),
		TotalDonations:     amount(info.TotalDonations),
		Deadline:           info.Deadline,
		DonationWindowOpen: info.DonationWindowOpen,
		TreasuryBalance:    amount(info.TreasuryBalance),
	}
}

// InitializeResultToPb converts an initialize result.
func InitializeResultToPb(r *usecase.InitializeResult) *pb.InitializeResponse {
	if r == nil || r.Charity == nil || r.Treasury == nil {
		return nil
	}
	return &pb.InitializeResponse{
		Charity: &pb.Charity{
			Address:            r.Charity.Address.String(),
			Treasury:           r.Treasury.Address.String(),
			Beneficiary:        r.Charity.Beneficiary.String(),
			TotalDonations:     amount(r.Charity.TotalDonations),
			Deadline:           r.Charity.Deadline,
			DonationWindowOpen: r.Charity.DonationWindowOpen,
			TreasuryBalance:    amount(r.Treasury.Balance),
		},
		RentFunded: amount(r.Treasury.Balance),
	}
}

// DonationToPb converts domain.Donation to a wire Donation.
func DonationToPb(d *domain.Donation) *pb.Donation {
	if d == nil {
		return nil
	}
	return &pb.Donation{
		Id:                   d.ID,
		Charity:              d.Charity.String(),
		Donor:                d.Donor.String(),
		Amount:               amount(d.Amount),
		TotalAfter:           amount(d.TotalAfter),
		TreasuryBalanceAfter: amount(d.TreasuryBalanceAfter),
		CreatedAt:            d.CreatedAt,
	}
}

// SettlementToPb converts domain.Settlement to a wire Settlement.
func SettlementToPb(s *domain.Settlement) *pb.Settlement {
	if s == nil {
		return nil
	}
	return &pb.Settlement{
		Id:               s.ID,
		Charity:          s.Charity.String(),
		Beneficiary:      s.Beneficiary.String(),
		SettledBy:        s.SettledBy.String(),
		TotalDonations:   amount(s.TotalDonations),
		Amount:           amount(s.Amount),
		FeeReserve:       amount(s.FeeReserve),
		RentReserve:      amount(s.RentReserve),
		TreasuryAfter:    amount(s.TreasuryAfter),
		BeneficiaryAfter: amount(s.BeneficiaryAfter),
		SettledAt:        s.SettledAt,
	}
}

// ParseAmount parses a base-unit decimal string.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, domain.ErrInvalidAmount
	}
	return domain.ParseAmount(d)
}
