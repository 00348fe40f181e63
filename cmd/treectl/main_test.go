package main

import (
	"bytes"
	"net"
	"testing"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/rpc"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/storage"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	v, err := parseValue("0x010203")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, v)

	v, err = parseValue("hello")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)

	v, err = parseValue("0x")
	require.NoError(t, err)
	require.Empty(t, v)

	_, err = parseValue("0xzz")
	require.Error(t, err)
}

func TestVerifyAll(t *testing.T) {
	tree, err := merkle.Build([][]byte{{1}, {2}, {3}, {4}, {5}})
	require.NoError(t, err)
	n, err := verifyAll(tree)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = verifyAll(merkle.Empty())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestConsoleVM(t *testing.T) {
	programID := common.BytesToAddress([]byte("tree-program"))
	store, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer store.Close()
	srv, err := rpc.NewServer(runtime.New(store, program.NewProcessor(programID)))
	require.NoError(t, err)
	serverConn, clientConn := net.Pipe()
	go srv.ServeConn(serverConn)
	client := rpc.NewClient(clientConn)
	defer client.Close()

	key, err := ed25519.NewKeypair(bytes.Repeat([]byte{4}, ed25519.SeedSize))
	require.NoError(t, err)
	vm, err := newConsoleVM(client, programID, key)
	require.NoError(t, err)

	v, err := vm.RunString(`tree.address()`)
	require.NoError(t, err)
	require.Equal(t, key.Address().Hex(), v.String())

	v, err = vm.RunString(`tree.airdrop("1000000000")`)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000_000), v.ToInteger())

	v, err = vm.RunString(`tree.append("0x010101").response.info.leaf_count`)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.ToInteger())

	v, err = vm.RunString(`tree.describe().response.info.root`)
	require.NoError(t, err)
	require.Equal(t, merkle.NewBlake2bHasher().HashLeaf([]byte{1, 1, 1}).Hex(), v.String())

	_, err = vm.RunString(`tree.airdrop("lots")`)
	require.Error(t, err)
}
