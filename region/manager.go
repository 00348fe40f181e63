package region

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/treeerrors"
)

// Manager keeps a region sized and funded for exactly the encoded tree it holds.
type Manager struct {
	env   Environment
	owner common.Address
}

// Result describes the region after a Provision or GrowAndRewrite.
type Result struct {
	Space     int    `json:"space"`
	PrevSpace int    `json:"prev_space"`
	Deposit   uint64 `json:"deposit"` // amount moved from the payer in this step
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{space: %d, prev: %d, deposit: %d}", r.Space, r.PrevSpace, r.Deposit)
}

// NewManager returns a Manager whose regions are owned by owner.
func NewManager(env Environment, owner common.Address) *Manager {
	return &Manager{env: env, owner: owner}
}

// Provision creates the region at addr, funds it with the minimum balance
// for the encoded tree and writes the encoding.
func (m *Manager) Provision(ctx context.Context, payer, addr common.Address, tree *merkle.Tree) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := codec.EncodeTree(tree)
	space := len(data)
	deposit, err := m.env.MinimumBalance(space)
	if err != nil {
		return nil, fmt.Errorf("%w: space %d: %w", treeerrors.ErrProvision, space, err)
	}
	if err := m.env.CreateRegion(payer, addr, m.owner, space, deposit); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", treeerrors.ErrProvision, addr.String_short(), err)
	}
	if err := m.env.WriteRegion(addr, data); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", treeerrors.ErrProvision, addr.String_short(), err)
	}
	log.Debug(log.RegionMonitoring, "Provision", "addr", addr.String_short(), "space", space, "deposit", deposit)
	return &Result{Space: space, Deposit: deposit}, nil
}

// GrowAndRewrite resizes the region at addr to the encoded length of tree
// and overwrites it. Growth is funded before the resize, and the write only
// happens once the region has exactly the new length.
func (m *Manager) GrowAndRewrite(ctx context.Context, payer, addr common.Address, tree *merkle.Tree) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, found, err := m.env.Region(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", treeerrors.ErrGrow, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s: %w", treeerrors.ErrGrow, addr.String_short(), treeerrors.ErrRegionNotFound)
	}

	data := codec.EncodeTree(tree)
	res := &Result{Space: len(data), PrevSpace: acct.Length()}
	if res.Space > res.PrevSpace {
		required, err := m.env.MinimumBalance(res.Space)
		if err != nil {
			return nil, fmt.Errorf("%w: space %d: %w", treeerrors.ErrGrow, res.Space, err)
		}
		if required > acct.Funding {
			res.Deposit = required - acct.Funding
			if err := m.env.Transfer(payer, addr, res.Deposit); err != nil {
				return nil, fmt.Errorf("%w: fund %d: %w", treeerrors.ErrGrow, res.Deposit, err)
			}
		}
	}
	if res.Space != res.PrevSpace {
		if err := m.env.ResizeRegion(addr, res.Space); err != nil {
			return nil, fmt.Errorf("%w: resize %d -> %d: %w", treeerrors.ErrGrow, res.PrevSpace, res.Space, err)
		}
	}
	if err := m.env.WriteRegion(addr, data); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", treeerrors.ErrGrow, addr.String_short(), err)
	}
	log.Debug(log.RegionMonitoring, "GrowAndRewrite", "addr", addr.String_short(), "prev", res.PrevSpace, "space", res.Space, "deposit", res.Deposit)
	return res, nil
}
