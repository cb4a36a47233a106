package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

// Record layout: discriminator | beneficiary | total_donations | deadline | donation_window_open.
const (
	discriminatorSize = 8
	RecordSize        = discriminatorSize + IdentitySize + 8 + 8 + 1
)

var charityDiscriminator = func() [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:Charity"))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}()

// ErrInvalidRecord is returned when a stored record cannot be decoded.
var ErrInvalidRecord = errors.New("invalid charity record")

// MarshalRecord encodes the persisted fields of c into the fixed-size layout.
func MarshalRecord(c *Charity) []byte {
	buf := make([]byte, RecordSize)

	off := copy(buf, charityDiscriminator[:])
	off += copy(buf[off:], c.Beneficiary[:])

	binary.LittleEndian.PutUint64(buf[off:], c.TotalDonations)
	off += 8

	binary.LittleEndian.PutUint64(buf[off:], uint64(c.Deadline))
	off += 8

	if c.DonationWindowOpen {
		buf[off] = 1
	}

	return buf
}

// UnmarshalRecord decodes data into the persisted fields of c.
func UnmarshalRecord(data []byte, c *Charity) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecord, RecordSize, len(data))
	}

	if !bytes.Equal(data[:discriminatorSize], charityDiscriminator[:]) {
		return fmt.Errorf("%w: discriminator mismatch", ErrInvalidRecord)
	}

	off := discriminatorSize
	copy(c.Beneficiary[:], data[off:off+IdentitySize])
	off += IdentitySize

	c.TotalDonations = binary.LittleEndian.Uint64(data[off:])
	off += 8

	c.Deadline = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8

	switch data[off] {
	case 0:
		c.DonationWindowOpen = false
	case 1:
		c.DonationWindowOpen = true
	default:
		return fmt.Errorf("%w: bad window flag %d", ErrInvalidRecord, data[off])
	}

	return nil
}
