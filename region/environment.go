package region

import (
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/types"
)

// Environment is the execution environment a Manager runs against. All
// calls made during one invocation belong to a single atomic step; the
// environment commits or discards them together.
type Environment interface {
	// Region returns the account at addr. found is false if none exists.
	Region(addr common.Address) (acct *types.Account, found bool, err error)
	// CreateRegion allocates a zeroed region of space bytes at addr owned
	// by owner, moving deposit from payer into it.
	CreateRegion(payer, addr, owner common.Address, space int, deposit uint64) error
	// ResizeRegion changes the region length, zero-filling any new bytes.
	ResizeRegion(addr common.Address, newLen int) error
	ReadRegion(addr common.Address) ([]byte, error)
	// WriteRegion overwrites the entire region; len(data) must equal its length.
	WriteRegion(addr common.Address, data []byte) error
	Transfer(from, to common.Address, amount uint64) error
	MinimumBalance(length int) (uint64, error)
	// Log records a program log line for the current invocation.
	Log(msg string)
}
