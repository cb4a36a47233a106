package charityv1

import "time"

// Charity is the public snapshot of the ledger record and its treasury.
type Charity struct {
	Address            string `json:"address"`
	Treasury           string `json:"treasury"`
	Beneficiary        string `json:"beneficiary"`
	TotalDonations     string `json:"total_donations"`
	Deadline           int64  `json:"deadline"`
	DonationWindowOpen bool   `json:"donation_window_open"`
	TreasuryBalance    string `json:"treasury_balance"`
}

// Donation is a donation receipt.
type Donation struct {
	Id                   string    `json:"id"`
	Charity              string    `json:"charity"`
	Donor                string    `json:"donor"`
	Amount               string    `json:"amount"`
	TotalAfter           string    `json:"total_after"`
	TreasuryBalanceAfter string    `json:"treasury_balance_after"`
	CreatedAt            time.Time `json:"created_at"`
}

// Settlement is the settlement receipt.
type Settlement struct {
	Id               string    `json:"id"`
	Charity          string    `json:"charity"`
	Beneficiary      string    `json:"beneficiary"`
	SettledBy        string    `json:"settled_by"`
	TotalDonations   string    `json:"total_donations"`
	Amount           string    `json:"amount"`
	FeeReserve       string    `json:"fee_reserve"`
	RentReserve      string    `json:"rent_reserve"`
	TreasuryAfter    string    `json:"treasury_after"`
	BeneficiaryAfter string    `json:"beneficiary_after"`
	SettledAt        time.Time `json:"settled_at"`
}

type InitializeRequest struct {
	Beneficiary string `json:"beneficiary"`
	Deadline    int64  `json:"deadline"`
}

type InitializeResponse struct {
	Charity    *Charity `json:"charity"`
	RentFunded string   `json:"rent_funded"`
}

// DonateRequest carries the amount in base units as a decimal string.
type DonateRequest struct {
	Amount string `json:"amount"`
}

type DonateResponse struct {
	Donation *Donation `json:"donation"`
}

type SettleRequest struct{}

type SettleResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type GetCharityInfoRequest struct{}

type GetCharityInfoResponse struct {
	Charity *Charity `json:"charity"`
}
