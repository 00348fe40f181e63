package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const programAddressMarker = "ProgramDerivedAddress"

var ErrInvalidAddress = errors.New("invalid address")

// DeriveProgramAddress returns the deterministic address owned by programID
// for the given seeds. The same seeds and program always map to the same
// address, and no key pair signs for it.
func DeriveProgramAddress(programID Address, seeds ...[]byte) Address {
	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, programID.Bytes(), []byte(programAddressMarker))
	return Address(Blake2HashParts(parts...))
}

// ParseAddress decodes a 0x-prefixed 32-byte hex address. Unlike HexToAddress
// it rejects short or malformed input.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("%w %q: want %d bytes, got %d", ErrInvalidAddress, s, AddressLength, len(b))
	}
	return BytesToAddress(b), nil
}
