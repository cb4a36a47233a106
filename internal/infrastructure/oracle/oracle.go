package oracle

import (
	"math/bits"
	"time"
)

// SystemClock reads the host wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Rent schedule defaults: a holding is rent exempt once it keeps two years of rent
// for its data plus a fixed per-holding overhead.
const (
	DefaultStorageOverhead = 128
	DefaultPerByteYear     = 3480
	DefaultExemptionYears  = 2
)

// RentSchedule computes the minimum balance a holding must keep to stay rent exempt.
type RentSchedule struct {
	StorageOverhead uint64
	PerByteYear     uint64
	ExemptionYears  uint64
}

// DefaultRentSchedule returns the standard schedule.
func DefaultRentSchedule() RentSchedule {
	return RentSchedule{
		StorageOverhead: DefaultStorageOverhead,
		PerByteYear:     DefaultPerByteYear,
		ExemptionYears:  DefaultExemptionYears,
	}
}

// MinimumBalance returns (overhead + dataSize) * perByteYear * exemptionYears,
// saturating at the maximum uint64.
func (s RentSchedule) MinimumBalance(dataSize int) uint64 {
	if dataSize < 0 {
		dataSize = 0
	}

	size, carry := bits.Add64(s.StorageOverhead, uint64(dataSize), 0)
	if carry != 0 {
		return ^uint64(0)
	}

	return saturatingMul(saturatingMul(size, s.PerByteYear), s.ExemptionYears)
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}
