package region

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/rent"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
)

// MockEnvironment is an in-memory Environment for testing. It records the
// order of region primitives in Calls and program log lines in Logs.
type MockEnvironment struct {
	Accounts map[common.Address]*types.Account
	Rent     rent.Rent
	Calls    []string
	Logs     []string
	// RejectResize makes every ResizeRegion fail.
	RejectResize bool
}

func NewMockEnvironment() *MockEnvironment {
	return &MockEnvironment{
		Accounts: make(map[common.Address]*types.Account),
		Rent:     rent.Default(),
	}
}

// Fund credits addr, creating a funding account if needed.
func (m *MockEnvironment) Fund(addr common.Address, amount uint64) {
	acct, ok := m.Accounts[addr]
	if !ok {
		acct = &types.Account{Data: []byte{}}
		m.Accounts[addr] = acct
	}
	acct.Funding += amount
}

func (m *MockEnvironment) Region(addr common.Address) (*types.Account, bool, error) {
	acct, ok := m.Accounts[addr]
	if !ok {
		return nil, false, nil
	}
	return acct.Clone(), true, nil
}

func (m *MockEnvironment) CreateRegion(payer, addr, owner common.Address, space int, deposit uint64) error {
	m.Calls = append(m.Calls, fmt.Sprintf("create %d", space))
	if acct, ok := m.Accounts[addr]; ok && acct.Funding > 0 {
		return fmt.Errorf("%s: %w", addr.String_short(), treeerrors.ErrRegionExists)
	}
	if err := m.debit(payer, deposit); err != nil {
		return err
	}
	m.Accounts[addr] = &types.Account{Owner: owner, Funding: deposit, Data: make([]byte, space)}
	return nil
}

func (m *MockEnvironment) ResizeRegion(addr common.Address, newLen int) error {
	m.Calls = append(m.Calls, fmt.Sprintf("resize %d", newLen))
	if m.RejectResize {
		return fmt.Errorf("resize to %d: %w", newLen, treeerrors.ErrResizeRejected)
	}
	acct, ok := m.Accounts[addr]
	if !ok {
		return treeerrors.ErrRegionNotFound
	}
	if min, err := m.Rent.MinimumBalance(newLen); err != nil || acct.Funding < min {
		return fmt.Errorf("resize to %d underfunded: %w", newLen, treeerrors.ErrResizeRejected)
	}
	resized := make([]byte, newLen)
	copy(resized, acct.Data)
	acct.Data = resized
	return nil
}

func (m *MockEnvironment) ReadRegion(addr common.Address) ([]byte, error) {
	acct, ok := m.Accounts[addr]
	if !ok {
		return nil, treeerrors.ErrRegionNotFound
	}
	return append([]byte{}, acct.Data...), nil
}

func (m *MockEnvironment) WriteRegion(addr common.Address, data []byte) error {
	m.Calls = append(m.Calls, fmt.Sprintf("write %d", len(data)))
	acct, ok := m.Accounts[addr]
	if !ok {
		return treeerrors.ErrRegionNotFound
	}
	if len(data) != len(acct.Data) {
		return fmt.Errorf("write %d bytes into %d: %w", len(data), len(acct.Data), treeerrors.ErrLengthMismatch)
	}
	copy(acct.Data, data)
	return nil
}

func (m *MockEnvironment) Transfer(from, to common.Address, amount uint64) error {
	m.Calls = append(m.Calls, fmt.Sprintf("transfer %d", amount))
	if err := m.debit(from, amount); err != nil {
		return err
	}
	m.Fund(to, amount)
	return nil
}

func (m *MockEnvironment) MinimumBalance(length int) (uint64, error) {
	return m.Rent.MinimumBalance(length)
}

func (m *MockEnvironment) Log(msg string) {
	m.Logs = append(m.Logs, msg)
}

func (m *MockEnvironment) debit(from common.Address, amount uint64) error {
	acct, ok := m.Accounts[from]
	if !ok || acct.Funding < amount {
		var have uint64
		if ok {
			have = acct.Funding
		}
		return fmt.Errorf("have %d, need %d: %w", have, amount, treeerrors.ErrInsufficientFunds)
	}
	acct.Funding -= amount
	return nil
}
