package domain

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

// DefaultBaseFee is the per-transaction fee estimate in base units.
const DefaultBaseFee uint64 = 5000

// FeeSafetyMargin inflates the base fee estimate by 0.5%.
var FeeSafetyMargin = decimal.RequireFromString("0.005")

// FeeReserve returns baseFee inflated by FeeSafetyMargin, rounded to the nearest unit.
// A reserve that does not fit in uint64 saturates at math.MaxUint64, which no
// treasury can cover.
func FeeReserve(baseFee uint64) uint64 {
	reserve, err := CheckedFeeReserve(baseFee)
	if err != nil {
		return math.MaxUint64
	}
	return reserve
}

// CheckedFeeReserve is FeeReserve that reports ErrOverflow instead of saturating.
func CheckedFeeReserve(baseFee uint64) (uint64, error) {
	fee := DecimalFromUint64(baseFee)
	inflated := fee.Mul(decimal.NewFromInt(1).Add(FeeSafetyMargin)).Round(0)

	if inflated.GreaterThan(DecimalFromUint64(math.MaxUint64)) {
		return 0, fmt.Errorf("%w: fee reserve of base fee %d", ErrOverflow, baseFee)
	}
	return inflated.BigInt().Uint64(), nil
}

// SettlementPlan is the checked arithmetic of a single payout.
type SettlementPlan struct {
	TreasuryBefore    uint64
	FeeReserve        uint64
	RentReserve       uint64
	MaxTransferable   uint64
	Amount            uint64
	TreasuryAfter     uint64
	BeneficiaryBefore uint64
	BeneficiaryAfter  uint64
}

// PlanSettlement computes the transfer from the treasury to the beneficiary.
// Every subtraction and addition is checked before any balance is written.
func PlanSettlement(treasuryBalance, beneficiaryBalance, feeReserve, rentReserve uint64) (*SettlementPlan, error) {
	if treasuryBalance <= feeReserve {
		return nil, fmt.Errorf("%w: treasury balance %d does not cover fee reserve %d",
			ErrInsufficientFunds, treasuryBalance, feeReserve)
	}

	maxTransferable, borrow := bits.Sub64(treasuryBalance, rentReserve, 0)
	if borrow != 0 {
		return nil, fmt.Errorf("%w: treasury balance %d below rent reserve %d",
			ErrInsufficientFunds, treasuryBalance, rentReserve)
	}

	amount, borrow := bits.Sub64(maxTransferable, feeReserve, 0)
	if borrow != 0 {
		return nil, fmt.Errorf("%w: transferable %d below fee reserve %d",
			ErrInsufficientFunds, maxTransferable, feeReserve)
	}

	treasuryAfter, borrow := bits.Sub64(treasuryBalance, amount, 0)
	if borrow != 0 {
		return nil, fmt.Errorf("%w: treasury debit", ErrInsufficientFunds)
	}

	beneficiaryAfter, carry := bits.Add64(beneficiaryBalance, amount, 0)
	if carry != 0 {
		return nil, fmt.Errorf("%w: beneficiary credit", ErrOverflow)
	}

	if treasuryAfter < rentReserve {
		return nil, fmt.Errorf("%w: treasury would fall below rent reserve", ErrInsufficientFunds)
	}

	return &SettlementPlan{
		TreasuryBefore:    treasuryBalance,
		FeeReserve:        feeReserve,
		RentReserve:       rentReserve,
		MaxTransferable:   maxTransferable,
		Amount:            amount,
		TreasuryAfter:     treasuryAfter,
		BeneficiaryBefore: beneficiaryBalance,
		BeneficiaryAfter:  beneficiaryAfter,
	}, nil
}
