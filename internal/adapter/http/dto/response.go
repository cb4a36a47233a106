package dto

import (
	"strconv"
	"time"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Amount is a base-unit quantity serialized as a decimal string.
type Amount string

// AmountOf formats v.
func AmountOf(v uint64) Amount {
	return Amount(strconv.FormatUint(v, 10))
}

// CharityResponse is the public view of the ledger record and treasury.
type CharityResponse struct {
	Address            string `json:"address"`
	Treasury           string `json:"treasury"`
	Beneficiary        string `json:"beneficiary"`
	TotalDonations     Amount `json:"total_donations"`
	Deadline           int64  `json:"deadline"`
	DonationWindowOpen bool   `json:"donation_window_open"`
	TreasuryBalance    Amount `json:"treasury_balance"`
}

// CharityFromInfo converts the query result to a response.
func CharityFromInfo(info *usecase.CharityInfo) *CharityResponse {
	return &CharityResponse{
		Address:            info.Address.String(),
		Treasury:           info.Treasury.String(),
		Beneficiary:        info.Beneficiary.String(),
		TotalDonations:     AmountOf(info.TotalDonations),
		Deadline:           info.Deadline,
		DonationWindowOpen: info.DonationWindowOpen,
		TreasuryBalance:    AmountOf(info.TreasuryBalance),
	}
}

// InitializeResponse is returned after the charity is opened.
type InitializeResponse struct {
	Address            string    `json:"address"`
	Treasury           string    `json:"treasury"`
	Beneficiary        string    `json:"beneficiary"`
	Deadline           int64     `json:"deadline"`
	DonationWindowOpen bool      `json:"donation_window_open"`
	RentFunded         Amount    `json:"rent_funded"`
	CreatedAt          time.Time `json:"created_at"`
}

// InitializeFromResult converts an initialize result to a response.
func InitializeFromResult(r *usecase.InitializeResult) *InitializeResponse {
	return &InitializeResponse{
		Address:            r.Charity.Address.String(),
		Treasury:           r.Treasury.Address.String(),
		Beneficiary:        r.Charity.Beneficiary.String(),
		Deadline:           r.Charity.Deadline,
		DonationWindowOpen: r.Charity.DonationWindowOpen,
		RentFunded:         AmountOf(r.Treasury.Balance),
		CreatedAt:          r.Charity.CreatedAt,
	}
}

// DonationResponse represents a donation receipt.
type DonationResponse struct {
	ID                   string    `json:"id"`
	Charity              string    `json:"charity"`
	Donor                string    `json:"donor"`
	Amount               Amount    `json:"amount"`
	TotalAfter           Amount    `json:"total_after"`
	TreasuryBalanceAfter Amount    `json:"treasury_balance_after"`
	CreatedAt            time.Time `json:"created_at"`
}

// DonationFromDomain converts a domain donation to a response.
func DonationFromDomain(d *domain.Donation) *DonationResponse {
	return &DonationResponse{
		ID:                   d.ID,
		Charity:              d.Charity.String(),
		Donor:                d.Donor.String(),
		Amount:               AmountOf(d.Amount),
		TotalAfter:           AmountOf(d.TotalAfter),
		TreasuryBalanceAfter: AmountOf(d.TreasuryBalanceAfter),
		CreatedAt:            d.CreatedAt,
	}
}

// DonationsFromDomain converts domain donations to responses.
func DonationsFromDomain(donations []*domain.Donation) []*DonationResponse {
	result := make([]*DonationResponse, len(donations))
	for i, d := range donations {
		result[i] = DonationFromDomain(d)
	}
	return result
}

// DonationListResponse is a page of donation receipts.
type DonationListResponse struct {
	Donations []*DonationResponse `json:"donations"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// SettlementResponse represents the settlement receipt.
type SettlementResponse struct {
	ID               string    `json:"id"`
	Charity          string    `json:"charity"`
	Beneficiary      string    `json:"beneficiary"`
	SettledBy        string    `json:"settled_by"`
	Deadline         int64     `json:"deadline"`
	TotalDonations   Amount    `json:"total_donations"`
	Amount           Amount    `json:"amount"`
	FeeReserve       Amount    `json:"fee_reserve"`
	RentReserve      Amount    `json:"rent_reserve"`
	TreasuryBefore   Amount    `json:"treasury_before"`
	TreasuryAfter    Amount    `json:"treasury_after"`
	BeneficiaryAfter Amount    `json:"beneficiary_after"`
	SettledAt        time.Time `json:"settled_at"`
}

// SettlementFromDomain converts a domain settlement to a response.
func SettlementFromDomain(s *domain.Settlement) *SettlementResponse {
	return &SettlementResponse{
		ID:               s.ID,
		Charity:          s.Charity.String(),
		Beneficiary:      s.Beneficiary.String(),
		SettledBy:        s.SettledBy.String(),
		Deadline:         s.Deadline,
		TotalDonations:   AmountOf(s.TotalDonations),
		Amount:           AmountOf(s.Amount),
		FeeReserve:       AmountOf(s.FeeReserve),
		RentReserve:      AmountOf(s.RentReserve),
		TreasuryBefore:   AmountOf(s.TreasuryBefore),
		TreasuryAfter:    AmountOf(s.TreasuryAfter),
		BeneficiaryAfter: AmountOf(s.BeneficiaryAfter),
		SettledAt:        s.SettledAt,
	}
}

// WalletResponse represents a wallet balance.
type WalletResponse struct {
	Owner          string    `json:"owner"`
	Balance        Amount    `json:"balance"`
	DisplayBalance string    `json:"display_balance"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		Owner:          w.Owner.String(),
		Balance:        AmountOf(w.Balance),
		DisplayBalance: domain.DisplayAmount(w.Balance).String(),
		Version:        w.Version,
		UpdatedAt:      w.UpdatedAt,
	}
}

// ReconciliationResponse is the consistency report.
type ReconciliationResponse struct {
	Charity            string    `json:"charity"`
	Consistent         bool      `json:"consistent"`
	RecordedTotal      Amount    `json:"recorded_total"`
	ReceiptTotal       Amount    `json:"receipt_total"`
	ReceiptCount       int64     `json:"receipt_count"`
	TreasuryBalance    Amount    `json:"treasury_balance"`
	RentReserve        Amount    `json:"rent_reserve"`
	DonationWindowOpen bool      `json:"donation_window_open"`
	SettlementRecorded bool      `json:"settlement_recorded"`
	Discrepancies      []string  `json:"discrepancies"`
	CheckedAt          time.Time `json:"checked_at"`
}

// ReconciliationFromReport converts a report to a response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := r.Discrepancies
	if discrepancies == nil {
		discrepancies = []string{}
	}

	return &ReconciliationResponse{
		Charity:            r.Charity.String(),
		Consistent:         r.Consistent(),
		RecordedTotal:      AmountOf(r.RecordedTotal),
		ReceiptTotal:       Amount(r.ReceiptTotal.String()),
		ReceiptCount:       r.ReceiptCount,
		TreasuryBalance:    AmountOf(r.TreasuryBalance),
		RentReserve:        AmountOf(r.RentReserve),
		DonationWindowOpen: r.DonationWindowOpen,
		SettlementRecorded: r.SettlementRecorded,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}
