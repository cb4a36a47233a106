package domain

import (
	"fmt"
	"math/bits"
	"time"
)

// Wallet is the spendable balance of a principal.
type Wallet struct {
	Owner     Identity
	Balance   uint64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if the wallet can be debited by amount.
func (w *Wallet) ValidateDebit(amount uint64) error {
	if amount > w.Balance {
		return fmt.Errorf("%w: wallet %s has %d, needs %d", ErrInsufficientFunds, w.Owner, w.Balance, amount)
	}
	return nil
}

// ApplyDebit returns the balance after debit. Call ValidateDebit first.
func (w *Wallet) ApplyDebit(amount uint64) uint64 {
	return w.Balance - amount
}

// ApplyCredit returns the balance after crediting amount.
func (w *Wallet) ApplyCredit(amount uint64) (uint64, error) {
	balance, carry := bits.Add64(w.Balance, amount, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: wallet %s", ErrOverflow, w.Owner)
	}
	return balance, nil
}
