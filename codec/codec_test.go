package codec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, n int) *merkle.Tree {
	t.Helper()
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	leaves[n-1] = []byte{} // empty leaves are legal
	tree, err := merkle.Build(leaves)
	require.NoError(t, err)
	return tree
}

func TestTreeRoundTrip(t *testing.T) {
	for n := 1; n <= 33; n++ {
		tree := buildTree(t, n)
		encoded := EncodeTree(tree)
		require.Len(t, encoded, EncodedTreeSize(tree.Leaves()))

		decoded, err := DecodeTree(encoded, 0)
		require.NoError(t, err, "n=%d", n)
		require.True(t, tree.Equal(decoded), "n=%d", n)

		want, _ := tree.Root()
		got, ok := decoded.Root()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestTreeLayout(t *testing.T) {
	tree, err := merkle.Build([][]byte{{1, 1, 1}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		2, 0, 0, 0,
		3, 0, 0, 0, 1, 1, 1,
		2, 0, 0, 0, 2, 2,
	}, EncodeTree(tree))
}

func TestDecodeTreeRejectsPrefixes(t *testing.T) {
	encoded := EncodeTree(buildTree(t, 5))
	for i := 0; i < len(encoded); i++ {
		_, err := DecodeTree(encoded[:i], 0)
		require.Error(t, err, "prefix %d of %d decoded", i, len(encoded))
		require.True(t, errors.Is(err, treeerrors.ErrDecode))
		var de *DecodeError
		require.True(t, errors.As(err, &de))
	}
}

func TestDecodeTreeRejectsCorruption(t *testing.T) {
	encoded := EncodeTree(buildTree(t, 2))

	trailing := append(append([]byte{}, encoded...), 0)
	_, err := DecodeTree(trailing, 0)
	require.True(t, errors.Is(err, treeerrors.ErrDecode))
	require.Contains(t, err.Error(), "trailing")

	huge := []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}
	_, err = DecodeTree(huge, 0)
	require.True(t, errors.Is(err, treeerrors.ErrDecode))
	require.Contains(t, err.Error(), "cannot fit")

	longLeaf := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0x7f, 1}
	_, err = DecodeTree(longLeaf, 0)
	require.True(t, errors.Is(err, treeerrors.ErrDecode))

	tree, err := merkle.Build([][]byte{make([]byte, 64)})
	require.NoError(t, err)
	_, err = DecodeTree(EncodeTree(tree), 32)
	require.True(t, errors.Is(err, treeerrors.ErrDecode))
	require.Contains(t, err.Error(), "exceeds limit")
}

func TestDecodeEmptyTree(t *testing.T) {
	tree, err := DecodeTree([]byte{0, 0, 0, 0}, 0)
	require.NoError(t, err)
	require.Equal(t, 0, tree.LeafCount())
	_, ok := tree.Root()
	require.False(t, ok)
}

func TestDecodeTreeHasher(t *testing.T) {
	tree, err := merkle.Build([][]byte{[]byte("k")}, merkle.WithHasher(merkle.NewKeccakHasher()))
	require.NoError(t, err)
	decoded, err := DecodeTree(EncodeTree(tree), 0, merkle.WithHasher(merkle.NewKeccakHasher()))
	require.NoError(t, err)
	require.True(t, tree.Equal(decoded))

	blake, err := DecodeTree(EncodeTree(tree), 0)
	require.NoError(t, err)
	require.False(t, tree.Equal(blake))
}

func TestInstructionCodec(t *testing.T) {
	append3 := EncodeInstruction(types.NewAppendLeaf([]byte{1, 1, 1}))
	assert.Equal(t, []byte{0, 3, 0, 0, 0, 1, 1, 1}, append3)
	assert.Equal(t, []byte{1}, EncodeInstruction(types.NewDescribe()))

	ix, err := DecodeInstruction(append3, 0)
	require.NoError(t, err)
	assert.Equal(t, types.InstructionAppendLeaf, ix.Kind)
	assert.Equal(t, []byte{1, 1, 1}, ix.Value)

	ix, err = DecodeInstruction([]byte{1}, 0)
	require.NoError(t, err)
	assert.Equal(t, types.InstructionDescribe, ix.Kind)

	for name, bad := range map[string][]byte{
		"empty":            {},
		"unknown tag":      {7},
		"truncated length": {0, 3, 0},
		"truncated value":  {0, 3, 0, 0, 0, 1},
		"trailing":         {1, 0},
	} {
		_, err := DecodeInstruction(bad, 0)
		assert.True(t, errors.Is(err, treeerrors.ErrMalformedInstruction), "%s: %v", name, err)
	}

	_, err = DecodeInstruction(append3, 2)
	assert.True(t, errors.Is(err, treeerrors.ErrMalformedInstruction))
}

func TestAccountCodec(t *testing.T) {
	acct := &types.Account{
		Owner:   common.BytesToAddress([]byte{0xaa}),
		Funding: 1_000_000,
		Data:    []byte{4, 0, 0, 0},
	}
	decoded, err := DecodeAccount(EncodeAccount(acct))
	require.NoError(t, err)
	assert.Equal(t, acct, decoded)

	_, err = DecodeAccount(EncodeAccount(acct)[:10])
	assert.True(t, errors.Is(err, treeerrors.ErrDecode))
}
