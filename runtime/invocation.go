package runtime

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/rent"
	"github.com/colorfulnotion/treeprogram/storage"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
)

// invocation is the region.Environment of a single transaction. Every read
// and write goes through txn, so the caller can commit or discard the
// whole step.
type invocation struct {
	txn       *storage.Txn
	programID common.Address
	signer    common.Address
	rent      rent.Rent
	limits    Limits

	// region length when first touched by this invocation
	initialLen map[common.Address]int
	touched    []common.Address
	logs       []string
}

func newInvocation(txn *storage.Txn, programID, signer common.Address, r rent.Rent, limits Limits) *invocation {
	return &invocation{
		txn:        txn,
		programID:  programID,
		signer:     signer,
		rent:       r,
		limits:     limits,
		initialLen: make(map[common.Address]int),
	}
}

func (inv *invocation) Region(addr common.Address) (*types.Account, bool, error) {
	acct, found, err := inv.txn.Get(addr)
	if err != nil {
		return nil, false, err
	}
	if found {
		if _, seen := inv.initialLen[addr]; !seen {
			inv.initialLen[addr] = acct.Length()
		}
	}
	return acct, found, nil
}

// owned returns the region at addr, which must exist and belong to the program.
func (inv *invocation) owned(addr common.Address) (*types.Account, error) {
	acct, found, err := inv.Region(addr)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", addr.String_short(), treeerrors.ErrRegionNotFound)
	}
	if acct.Owner != inv.programID {
		return nil, fmt.Errorf("region %s owned by %s: %w", addr.String_short(), acct.Owner.String_short(), treeerrors.ErrUnauthorized)
	}
	return acct, nil
}

func (inv *invocation) CreateRegion(payer, addr, owner common.Address, space int, deposit uint64) error {
	existing, found, err := inv.Region(addr)
	if err != nil {
		return err
	}
	if found && existing.Funding > 0 {
		return fmt.Errorf("%s holds %d: %w", addr.String_short(), existing.Funding, treeerrors.ErrRegionExists)
	}
	if err := inv.checkLength(addr, 0, space); err != nil {
		return err
	}
	if err := inv.debit(payer, deposit); err != nil {
		return err
	}
	inv.initialLen[addr] = 0
	return inv.put(addr, &types.Account{Owner: owner, Funding: deposit, Data: make([]byte, space)})
}

func (inv *invocation) ResizeRegion(addr common.Address, newLen int) error {
	acct, err := inv.owned(addr)
	if err != nil {
		return err
	}
	if err := inv.checkLength(addr, acct.Length(), newLen); err != nil {
		return err
	}
	if !inv.rent.IsExempt(acct.Funding, newLen) {
		return fmt.Errorf("funding %d does not cover %d bytes: %w", acct.Funding, newLen, treeerrors.ErrResizeRejected)
	}
	resized := make([]byte, newLen)
	copy(resized, acct.Data)
	acct.Data = resized
	return inv.put(addr, acct)
}

// checkLength enforces the region size cap and the per-invocation growth cap.
func (inv *invocation) checkLength(addr common.Address, cur, newLen int) error {
	if newLen < 0 || newLen > inv.limits.MaxRegionLength {
		return fmt.Errorf("length %d exceeds %d: %w", newLen, inv.limits.MaxRegionLength, treeerrors.ErrResizeRejected)
	}
	initial, ok := inv.initialLen[addr]
	if !ok {
		initial = cur
	}
	if growth := newLen - initial; growth > inv.limits.MaxGrowthPerInvocation {
		return fmt.Errorf("growth %d exceeds %d per invocation: %w", growth, inv.limits.MaxGrowthPerInvocation, treeerrors.ErrResizeRejected)
	}
	return nil
}

func (inv *invocation) ReadRegion(addr common.Address) ([]byte, error) {
	acct, found, err := inv.Region(addr)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", addr.String_short(), treeerrors.ErrRegionNotFound)
	}
	return acct.Data, nil
}

func (inv *invocation) WriteRegion(addr common.Address, data []byte) error {
	acct, err := inv.owned(addr)
	if err != nil {
		return err
	}
	if len(data) != acct.Length() {
		return fmt.Errorf("write %d bytes into %d: %w", len(data), acct.Length(), treeerrors.ErrLengthMismatch)
	}
	acct.Data = append(acct.Data[:0], data...)
	return inv.put(addr, acct)
}

func (inv *invocation) Transfer(from, to common.Address, amount uint64) error {
	if err := inv.debit(from, amount); err != nil {
		return err
	}
	return inv.credit(to, amount)
}

func (inv *invocation) MinimumBalance(length int) (uint64, error) {
	return inv.rent.MinimumBalance(length)
}

func (inv *invocation) Log(msg string) {
	log.Debug(log.RuntimeMonitoring, "program log", "msg", msg)
	inv.logs = append(inv.logs, msg)
}

// debit moves amount out of from, which must be the transaction signer.
func (inv *invocation) debit(from common.Address, amount uint64) error {
	if from != inv.signer {
		return fmt.Errorf("debit %s without its signature: %w", from.String_short(), treeerrors.ErrUnauthorized)
	}
	acct, found, err := inv.txn.Get(from)
	if err != nil {
		return err
	}
	var have uint64
	if found {
		have = acct.Funding
	}
	if have < amount {
		return fmt.Errorf("%s has %d, needs %d: %w", from.String_short(), have, amount, treeerrors.ErrInsufficientFunds)
	}
	if amount == 0 {
		return nil
	}
	acct.Funding -= amount
	return inv.put(from, acct)
}

func (inv *invocation) credit(to common.Address, amount uint64) error {
	return creditAccount(inv.txn, to, amount, inv.touch)
}

func (inv *invocation) put(addr common.Address, acct *types.Account) error {
	inv.touch(addr)
	return inv.txn.Put(addr, acct)
}

func (inv *invocation) touch(addr common.Address) {
	for _, a := range inv.touched {
		if a == addr {
			return
		}
	}
	inv.touched = append(inv.touched, addr)
}

// purge removes touched accounts left without funding.
func (inv *invocation) purge() error {
	for _, addr := range inv.touched {
		acct, found, err := inv.txn.Get(addr)
		if err != nil {
			return err
		}
		if found && acct.Funding == 0 {
			log.Trace(log.RuntimeMonitoring, "purge", "addr", addr.String_short())
			if err := inv.txn.Delete(addr); err != nil {
				return err
			}
		}
	}
	return nil
}

func creditAccount(accounts *storage.Txn, to common.Address, amount uint64, touch func(common.Address)) error {
	acct, found, err := accounts.Get(to)
	if err != nil {
		return err
	}
	if !found {
		acct = &types.Account{Data: []byte{}}
	}
	if acct.Funding+amount < acct.Funding {
		return fmt.Errorf("credit %d to %s overflows", amount, to.String_short())
	}
	acct.Funding += amount
	if touch != nil {
		touch(to)
	}
	return accounts.Put(to, acct)
}
