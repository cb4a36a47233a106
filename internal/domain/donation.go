package domain

import "time"

// Donation is the receipt of one accepted deposit.
type Donation struct {
	ID                   string
	Charity              Identity
	Donor                Identity
	Amount               uint64
	TotalAfter           uint64
	TreasuryBalanceAfter uint64
	CreatedAt            time.Time
}
