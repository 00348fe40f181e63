package program

import (
	"context"
	"errors"
	"testing"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/region"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/stretchr/testify/require"
)

var (
	programID = common.BytesToAddress([]byte("tree-program"))
	payer     = common.BytesToAddress([]byte("payer"))
)

func setup() (*Processor, *region.MockEnvironment, Accounts) {
	env := region.NewMockEnvironment()
	env.Fund(payer, 1_000_000_000)
	accts := Accounts{Payer: payer, Region: RegionAddress(programID, payer)}
	return NewProcessor(programID), env, accts
}

func appendLeaf(t *testing.T, p *Processor, env region.Environment, accts Accounts, value []byte) *Response {
	t.Helper()
	resp, err := p.Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewAppendLeaf(value)))
	require.NoError(t, err)
	return resp
}

func describe(t *testing.T, p *Processor, env region.Environment, accts Accounts) *Response {
	t.Helper()
	resp, err := p.Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewDescribe()))
	require.NoError(t, err)
	return resp
}

func rootOf(t *testing.T, leaves ...[]byte) common.Hash {
	t.Helper()
	tree, err := merkle.Build(leaves)
	require.NoError(t, err)
	root, _ := tree.Root()
	return root
}

func TestScenarios(t *testing.T) {
	p, env, accts := setup()
	h := merkle.NewBlake2bHasher()
	a, b, c := []byte{1, 1, 1}, []byte{2, 2, 2}, []byte{3, 3, 3}

	// A: a fresh address describes as uninitialized
	resp := describe(t, p, env, accts)
	require.Equal(t, 0, resp.Info.LeafCount)
	require.Equal(t, "uninitialized", resp.Info.RootString())
	require.Equal(t, []string{"EMPTY: no data found"}, env.Logs)
	_, found, _ := env.Region(accts.Region)
	require.False(t, found, "describe never creates a region")

	// B: the first append provisions the region
	resp = appendLeaf(t, p, env, accts, a)
	require.Equal(t, 1, resp.Info.LeafCount)
	require.Equal(t, h.HashLeaf(a), *resp.Info.Root)
	acct, found, _ := env.Region(accts.Region)
	require.True(t, found)
	require.Equal(t, programID, acct.Owner)
	require.Equal(t, resp.Region.Space, acct.Length())

	// C: the second append grows the region
	resp = appendLeaf(t, p, env, accts, b)
	require.Equal(t, 2, resp.Info.LeafCount)
	require.Equal(t, h.HashNode(h.HashLeaf(a), h.HashLeaf(b)), *resp.Info.Root)
	require.Equal(t, rootOf(t, a, b), *resp.Info.Root)

	// D: an odd leaf count duplicates the last digest
	resp = appendLeaf(t, p, env, accts, c)
	require.Equal(t, 3, resp.Info.LeafCount)
	require.Equal(t, rootOf(t, a, b, c), *resp.Info.Root)

	acct, _, _ = env.Region(accts.Region)
	tree, err := codec.DecodeTree(acct.Data, 0)
	require.NoError(t, err)
	require.Equal(t, codec.EncodedTreeSize(tree.Leaves()), acct.Length())

	resp = describe(t, p, env, accts)
	require.Equal(t, 3, resp.Info.LeafCount)
	require.Equal(t, rootOf(t, a, b, c), *resp.Info.Root)

	require.Equal(t, []string{
		"EMPTY: no data found",
		"Init with value: [1 1 1]",
		"New tree size 1 root hash " + h.HashLeaf(a).Hex(),
		"Appending value: [2 2 2]",
		"Updated tree size 2 root hash " + rootOf(t, a, b).Hex(),
		"Appending value: [3 3 3]",
		"Updated tree size 3 root hash " + rootOf(t, a, b, c).Hex(),
		"Tree size 3 root hash " + rootOf(t, a, b, c).Hex(),
	}, env.Logs)
}

func TestRejectsBeforeRegionAccess(t *testing.T) {
	p, env, accts := setup()

	_, err := p.Process(context.Background(), env, accts, []byte{9})
	require.True(t, errors.Is(err, treeerrors.ErrMalformedInstruction))

	wrong := accts
	wrong.Region = RegionAddress(programID, common.BytesToAddress([]byte("someone else")))
	_, err = p.Process(context.Background(), env, wrong, codec.EncodeInstruction(types.NewAppendLeaf([]byte{1})))
	require.True(t, errors.Is(err, treeerrors.ErrAddressMismatch))
	require.Equal(t, "AddressMismatch", treeerrors.GetErrorName(err))

	require.Empty(t, env.Calls)
	require.Len(t, env.Accounts, 1, "only the payer exists")
}

func TestCorruptRegionIsNotEmpty(t *testing.T) {
	p, env, accts := setup()
	appendLeaf(t, p, env, accts, []byte{1, 1, 1})
	env.Accounts[accts.Region].Data[0] = 0xff

	_, err := p.Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewDescribe()))
	require.True(t, errors.Is(err, treeerrors.ErrDecode))

	env.Calls = nil
	_, err = p.Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewAppendLeaf([]byte{2})))
	require.True(t, errors.Is(err, treeerrors.ErrDecode))
	require.Empty(t, env.Calls, "no write after a failed decode")
}

func TestUnfundedPayer(t *testing.T) {
	env := region.NewMockEnvironment()
	accts := Accounts{Payer: payer, Region: RegionAddress(programID, payer)}
	_, err := NewProcessor(programID).Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewAppendLeaf([]byte{1})))
	require.True(t, errors.Is(err, treeerrors.ErrProvision))
	require.True(t, errors.Is(err, treeerrors.ErrInsufficientFunds))
}

func TestProcessorOptions(t *testing.T) {
	env := region.NewMockEnvironment()
	env.Fund(payer, 1_000_000_000)
	accts := Accounts{Payer: payer, Region: RegionAddress(programID, payer)}
	p := NewProcessor(programID, WithHasher(merkle.NewKeccakHasher()), WithMaxLeafSize(4))

	resp := appendLeaf(t, p, env, accts, []byte("abcd"))
	require.Equal(t, merkle.NewKeccakHasher().HashLeaf([]byte("abcd")), *resp.Info.Root)

	_, err := p.Process(context.Background(), env, accts, codec.EncodeInstruction(types.NewAppendLeaf([]byte("abcde"))))
	require.True(t, errors.Is(err, treeerrors.ErrMalformedInstruction))
}

func TestRegionAddress(t *testing.T) {
	a := RegionAddress(programID, payer)
	require.Equal(t, a, RegionAddress(programID, payer))
	require.NotEqual(t, a, RegionAddress(programID, common.BytesToAddress([]byte("other"))))
	require.NotEqual(t, a, RegionAddress(common.BytesToAddress([]byte("other program")), payer))
}
