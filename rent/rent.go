package rent

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/holiman/uint256"
)

const (
	// DefaultStorageOverhead is charged on top of the data length of every account.
	DefaultStorageOverhead = 128
	// DefaultPerByteYear is the per-byte charge for one year of storage.
	DefaultPerByteYear = 3480
	// DefaultExemptionYears is how many years of rent a deposit must prepay
	// for the account to be kept alive indefinitely.
	DefaultExemptionYears = 2
)

// Rent computes the deposit that keeps an account of a given length alive.
type Rent struct {
	StorageOverhead uint64 `json:"storage_overhead"`
	PerByteYear     uint64 `json:"per_byte_year"`
	ExemptionYears  uint64 `json:"exemption_years"`
}

// Default returns the standard rent parameters.
func Default() Rent {
	return Rent{
		StorageOverhead: DefaultStorageOverhead,
		PerByteYear:     DefaultPerByteYear,
		ExemptionYears:  DefaultExemptionYears,
	}
}

// MinimumBalance returns (StorageOverhead + length) * PerByteYear * ExemptionYears.
func (r Rent) MinimumBalance(length int) (uint64, error) {
	if length < 0 {
		return 0, fmt.Errorf("negative length %d", length)
	}
	total := uint256.NewInt(r.StorageOverhead)
	total.Add(total, uint256.NewInt(uint64(length)))
	total.Mul(total, uint256.NewInt(r.PerByteYear))
	total.Mul(total, uint256.NewInt(r.ExemptionYears))
	if !total.IsUint64() {
		return 0, fmt.Errorf("length %d: %w", length, treeerrors.ErrRentOverflow)
	}
	return total.Uint64(), nil
}

// IsExempt reports whether balance covers an account of length.
func (r Rent) IsExempt(balance uint64, length int) bool {
	min, err := r.MinimumBalance(length)
	return err == nil && balance >= min
}

// Shortfall returns how much must be added to balance so that it covers length.
func (r Rent) Shortfall(balance uint64, length int) (uint64, error) {
	min, err := r.MinimumBalance(length)
	if err != nil {
		return 0, err
	}
	if balance >= min {
		return 0, nil
	}
	return min - balance, nil
}
