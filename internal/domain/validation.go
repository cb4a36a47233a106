package domain

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountNotInteger = errors.New("amount must be a whole number of base units")
)

// BaseUnitDecimals is the number of decimals between a display unit and a base unit.
const BaseUnitDecimals = 9

var maxUint64 = DecimalFromUint64(math.MaxUint64)

// ParseAmount converts a decimal request amount in base units to uint64.
func ParseAmount(amount decimal.Decimal) (uint64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}

	if !amount.IsInteger() {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountNotInteger)
	}

	if amount.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountTooLarge)
	}

	return amount.BigInt().Uint64(), nil
}

// DisplayAmount converts base units to display units.
func DisplayAmount(amount uint64) decimal.Decimal {
	return DecimalFromUint64(amount).Shift(-BaseUnitDecimals)
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

// DecimalFromUint64 converts v to a decimal without loss.
func DecimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
