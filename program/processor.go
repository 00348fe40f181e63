package program

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/region"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
)

// TreeSeed is the domain tag mixed into every region address.
const TreeSeed = "merkle_tree"

// Accounts are the addresses an invocation names: the signer paying for
// storage and the region it asserts belongs to it.
type Accounts struct {
	Payer  common.Address `json:"payer"`
	Region common.Address `json:"region"`
}

// Response is the outcome of one instruction.
type Response struct {
	Kind   types.InstructionKind `json:"kind"`
	Info   types.TreeInfo        `json:"info"`
	Region *region.Result        `json:"region,omitempty"`
}

func (r *Response) String() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Info)
}

// Processor routes AppendLeaf and Describe instructions for one program.
type Processor struct {
	programID   common.Address
	hasher      merkle.Hasher
	maxLeafSize int
}

type Option func(*Processor)

// WithHasher selects the hash function used for every tree.
func WithHasher(h merkle.Hasher) Option {
	return func(p *Processor) {
		if h != nil {
			p.hasher = h
		}
	}
}

// WithMaxLeafSize bounds the size of appended values and decoded leaves.
func WithMaxLeafSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxLeafSize = n
		}
	}
}

func NewProcessor(programID common.Address, opts ...Option) *Processor {
	p := &Processor{
		programID:   programID,
		hasher:      merkle.NewBlake2bHasher(),
		maxLeafSize: codec.DefaultMaxLeafSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) ProgramID() common.Address {
	return p.programID
}

// RegionAddress returns the one region address payer may use with programID.
func RegionAddress(programID, payer common.Address) common.Address {
	return common.DeriveProgramAddress(programID, []byte(TreeSeed), payer.Bytes())
}

// Process decodes input and runs it against env. A malformed instruction or
// a region address that does not belong to the payer is rejected before any
// region is read.
func (p *Processor) Process(ctx context.Context, env region.Environment, accts Accounts, input []byte) (*Response, error) {
	ix, err := codec.DecodeInstruction(input, p.maxLeafSize)
	if err != nil {
		return nil, err
	}
	derived := RegionAddress(p.programID, accts.Payer)
	if derived != accts.Region {
		env.Log("Invalid PDA provided")
		return nil, fmt.Errorf("region %s, derived %s: %w", accts.Region, derived, treeerrors.ErrAddressMismatch)
	}
	log.Debug(log.ProgramMonitoring, "Process", "instruction", ix.Kind, "payer", accts.Payer.String_short())

	acct, found, err := env.Region(accts.Region)
	if err != nil {
		return nil, err
	}
	uninitialized := !found || acct.IsEmpty()

	switch ix.Kind {
	case types.InstructionAppendLeaf:
		if uninitialized {
			return p.initTree(ctx, env, accts, ix.Value)
		}
		return p.appendLeaf(ctx, env, accts, ix.Value)
	case types.InstructionDescribe:
		if uninitialized {
			env.Log("EMPTY: no data found")
			return &Response{Kind: ix.Kind}, nil
		}
		tree, err := p.loadTree(env, accts.Region)
		if err != nil {
			return nil, err
		}
		resp := &Response{Kind: ix.Kind, Info: treeInfo(tree)}
		env.Log(resp.Info.String())
		return resp, nil
	default:
		return nil, fmt.Errorf("instruction %d: %w", ix.Kind, treeerrors.ErrMalformedInstruction)
	}
}

func (p *Processor) initTree(ctx context.Context, env region.Environment, accts Accounts, value []byte) (*Response, error) {
	env.Log(fmt.Sprintf("Init with value: %v", value))
	tree, err := merkle.Build([][]byte{value}, merkle.WithHasher(p.hasher))
	if err != nil {
		return nil, err
	}
	res, err := region.NewManager(env, p.programID).Provision(ctx, accts.Payer, accts.Region, tree)
	if err != nil {
		return nil, err
	}
	resp := &Response{Kind: types.InstructionAppendLeaf, Info: treeInfo(tree), Region: res}
	env.Log(fmt.Sprintf("New tree size %d root hash %s", resp.Info.LeafCount, resp.Info.RootString()))
	return resp, nil
}

func (p *Processor) appendLeaf(ctx context.Context, env region.Environment, accts Accounts, value []byte) (*Response, error) {
	env.Log(fmt.Sprintf("Appending value: %v", value))
	old, err := p.loadTree(env, accts.Region)
	if err != nil {
		return nil, err
	}
	tree, err := old.Append(value)
	if err != nil {
		return nil, err
	}
	res, err := region.NewManager(env, p.programID).GrowAndRewrite(ctx, accts.Payer, accts.Region, tree)
	if err != nil {
		return nil, err
	}
	resp := &Response{Kind: types.InstructionAppendLeaf, Info: treeInfo(tree), Region: res}
	env.Log(fmt.Sprintf("Updated tree size %d root hash %s", resp.Info.LeafCount, resp.Info.RootString()))
	return resp, nil
}

// loadTree decodes the region at addr. Corrupt bytes fail the invocation and
// are never treated as an empty tree.
func (p *Processor) loadTree(env region.Environment, addr common.Address) (*merkle.Tree, error) {
	data, err := env.ReadRegion(addr)
	if err != nil {
		return nil, err
	}
	tree, err := codec.DecodeTree(data, p.maxLeafSize, merkle.WithHasher(p.hasher))
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", addr.String_short(), err)
	}
	return tree, nil
}

func treeInfo(tree *merkle.Tree) types.TreeInfo {
	info := types.TreeInfo{LeafCount: tree.LeafCount()}
	if root, ok := tree.Root(); ok {
		info.Root = &root
	}
	return info
}
