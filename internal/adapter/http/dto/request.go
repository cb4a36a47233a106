package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

// InitializeRequest represents a request to open the charity.
type InitializeRequest struct {
	Beneficiary string `json:"beneficiary"`
	Deadline    int64  `json:"deadline"`
}

// ToUseCaseInput converts to use case input.
func (r *InitializeRequest) ToUseCaseInput() usecase.InitializeInput {
	return usecase.InitializeInput{
		Beneficiary: r.Beneficiary,
		Deadline:    r.Deadline,
	}
}

// DonateRequest represents a deposit into the treasury. Amount is in base units
// and may be sent as a JSON number or string.
type DonateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BaseUnits validates and converts the amount.
func (r *DonateRequest) BaseUnits() (uint64, error) {
	return domain.ParseAmount(r.Amount)
}

// AirdropRequest represents a faucet credit.
type AirdropRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BaseUnits validates and converts the amount.
func (r *AirdropRequest) BaseUnits() (uint64, error) {
	return domain.ParseAmount(r.Amount)
}
