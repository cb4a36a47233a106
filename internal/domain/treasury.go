package domain

import (
	"fmt"
	"math/bits"
	"time"
)

// Treasury is the pooled holding that receives donations.
// It exposes credit only; the sole debit path is a SettlementPlan.
type Treasury struct {
	Address   Identity
	Charity   Identity
	Balance   uint64
	DataSize  int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyCredit returns the balance after crediting amount.
func (t *Treasury) ApplyCredit(amount uint64) (uint64, error) {
	balance, carry := bits.Add64(t.Balance, amount, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: treasury balance", ErrOverflow)
	}
	return balance, nil
}
