package domain

import "time"

// Settlement is the receipt of the single payout that closed a charity.
type Settlement struct {
	ID               string
	Charity          Identity
	Beneficiary      Identity
	SettledBy        Identity
	Deadline         int64
	TotalDonations   uint64
	TreasuryBefore   uint64
	TreasuryAfter    uint64
	FeeReserve       uint64
	RentReserve      uint64
	Amount           uint64
	BeneficiaryAfter uint64
	SettledAt        time.Time
}

// NewSettlement builds the receipt for plan applied to charity.
// charity must still carry its pre-close deadline.
func NewSettlement(id string, charity *Charity, settledBy Identity, plan *SettlementPlan, now time.Time) *Settlement {
	return &Settlement{
		ID:               id,
		Charity:          charity.Address,
		Beneficiary:      charity.Beneficiary,
		SettledBy:        settledBy,
		Deadline:         charity.Deadline,
		TotalDonations:   charity.TotalDonations,
		TreasuryBefore:   plan.TreasuryBefore,
		TreasuryAfter:    plan.TreasuryAfter,
		FeeReserve:       plan.FeeReserve,
		RentReserve:      plan.RentReserve,
		Amount:           plan.Amount,
		BeneficiaryAfter: plan.BeneficiaryAfter,
		SettledAt:        now,
	}
}
