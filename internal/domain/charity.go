package domain

import (
	"fmt"
	"math/bits"
	"time"
)

// DeadlineClosed marks a record whose donation window has been settled.
// Zero is never accepted as a deadline, so it cannot collide with a live one.
const DeadlineClosed int64 = 0

// Charity is the ledger record: beneficiary, accumulated donations and the donation window.
type Charity struct {
	Address            Identity
	Beneficiary        Identity
	TotalDonations     uint64
	Deadline           int64
	DonationWindowOpen bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCharity validates the initialization inputs and returns an open record.
func NewCharity(address Identity, beneficiary string, deadline int64, now time.Time) (*Charity, error) {
	id, err := ParseIdentity(beneficiary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBeneficiary, err)
	}

	if id.IsZero() {
		return nil, fmt.Errorf("%w: beneficiary cannot be the zero identity", ErrInvalidBeneficiary)
	}

	if deadline == 0 {
		return nil, fmt.Errorf("%w: deadline must be non-zero", ErrInvalidBeneficiary)
	}

	return &Charity{
		Address:            address,
		Beneficiary:        id,
		TotalDonations:     0,
		Deadline:           deadline,
		DonationWindowOpen: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ValidateDonation checks that the window is open at unix time now.
func (c *Charity) ValidateDonation(now int64) error {
	if !c.DonationWindowOpen {
		return fmt.Errorf("%w: donation window is closed", ErrDonationsNotAllowed)
	}

	if now >= c.Deadline {
		return fmt.Errorf("%w: deadline has passed", ErrDonationsNotAllowed)
	}

	return nil
}

// ApplyDonation returns the total after adding amount. The record is not modified.
func (c *Charity) ApplyDonation(amount uint64) (uint64, error) {
	total, carry := bits.Add64(c.TotalDonations, amount, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: total donations", ErrOverflow)
	}
	return total, nil
}

// ValidateSettlement checks, in order, that the window is open and the deadline has passed.
func (c *Charity) ValidateSettlement(now int64) error {
	if !c.DonationWindowOpen {
		return fmt.Errorf("%w: charity is not accepting settlement", ErrDonationsNotAllowed)
	}

	if now < c.Deadline {
		return ErrNotDueDate
	}

	return nil
}

// Close ends the donation window. The total is kept as the historical amount donated.
func (c *Charity) Close(now time.Time) {
	c.DonationWindowOpen = false
	c.Deadline = DeadlineClosed
	c.UpdatedAt = now
}
