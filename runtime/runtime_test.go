package runtime

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/storage"
	"github.com/colorfulnotion/treeprogram/telemetry"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var programID = common.BytesToAddress([]byte("tree-program"))

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	store, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, program.NewProcessor(programID), opts...)
}

func newKeypair(t *testing.T, b byte) *ed25519.Keypair {
	t.Helper()
	k, err := ed25519.NewKeypair(bytes.Repeat([]byte{b}, ed25519.SeedSize))
	require.NoError(t, err)
	return k
}

func invokeAppend(t *testing.T, rt *Runtime, k *ed25519.Keypair, value []byte) (*Receipt, error) {
	t.Helper()
	return rt.Invoke(context.Background(), NewTransaction(programID, k, types.NewAppendLeaf(value)))
}

func buildRoot(t *testing.T, leaves ...[]byte) common.Hash {
	t.Helper()
	tree, err := merkle.Build(leaves)
	require.NoError(t, err)
	root, _ := tree.Root()
	return root
}

func regionOf(t *testing.T, rt *Runtime, k *ed25519.Keypair) *types.Account {
	t.Helper()
	acct, found, err := rt.Account(program.RegionAddress(programID, k.Address()))
	require.NoError(t, err)
	require.True(t, found)
	return acct
}

func TestScenarios(t *testing.T) {
	rt := newRuntime(t)
	k := newKeypair(t, 1)
	_, err := rt.Airdrop(context.Background(), k.Address(), 1_000_000_000)
	require.NoError(t, err)
	a, b, c := []byte{1, 1, 1}, []byte{2, 2, 2}, []byte{3, 3, 3}

	// A
	receipt, err := rt.Invoke(context.Background(), NewTransaction(programID, k, types.NewDescribe()))
	require.NoError(t, err)
	require.Equal(t, 0, receipt.Response.Info.LeafCount)
	require.Equal(t, "uninitialized", receipt.Response.Info.RootString())
	require.Equal(t, []string{"EMPTY: no data found"}, receipt.Logs)
	_, found, err := rt.Account(program.RegionAddress(programID, k.Address()))
	require.NoError(t, err)
	require.False(t, found)

	// B
	receipt, err = invokeAppend(t, rt, k, a)
	require.NoError(t, err)
	require.Equal(t, 1, receipt.Response.Info.LeafCount)
	require.Equal(t, merkle.NewBlake2bHasher().HashLeaf(a), *receipt.Response.Info.Root)
	acct := regionOf(t, rt, k)
	require.Equal(t, programID, acct.Owner)
	require.Equal(t, 11, acct.Length())
	min11, _ := rt.Rent().MinimumBalance(11)
	require.Equal(t, min11, acct.Funding)

	// C
	receipt, err = invokeAppend(t, rt, k, b)
	require.NoError(t, err)
	require.Equal(t, 2, receipt.Response.Info.LeafCount)
	require.Equal(t, buildRoot(t, a, b), *receipt.Response.Info.Root)

	// D
	receipt, err = invokeAppend(t, rt, k, c)
	require.NoError(t, err)
	require.Equal(t, 3, receipt.Response.Info.LeafCount)
	require.Equal(t, buildRoot(t, a, b, c), *receipt.Response.Info.Root)

	// E: the region is exactly as long as the encoding and funded for it
	acct = regionOf(t, rt, k)
	decoded, err := codec.DecodeTree(acct.Data, 0)
	require.NoError(t, err)
	want, err := merkle.Build([][]byte{a, b, c})
	require.NoError(t, err)
	require.True(t, want.Equal(decoded))
	require.Len(t, acct.Data, len(codec.EncodeTree(want)))
	minLen, _ := rt.Rent().MinimumBalance(acct.Length())
	require.Equal(t, minLen, acct.Funding)

	described, err := rt.Describe(context.Background(), k.Address())
	require.NoError(t, err)
	require.Equal(t, 3, described.Response.Info.LeafCount)
	require.Equal(t, buildRoot(t, a, b, c), *described.Response.Info.Root)
}

func TestFailedInvocationIsDiscarded(t *testing.T) {
	rt := newRuntime(t)
	k := newKeypair(t, 2)
	min11, _ := rt.Rent().MinimumBalance(11)
	_, err := rt.Airdrop(context.Background(), k.Address(), min11+100)
	require.NoError(t, err)
	_, err = invokeAppend(t, rt, k, []byte{1, 1, 1})
	require.NoError(t, err)
	before := regionOf(t, rt, k)
	payer, _, err := rt.Account(k.Address())
	require.NoError(t, err)
	require.Equal(t, uint64(100), payer.Funding)

	receipt, err := invokeAppend(t, rt, k, []byte{2, 2, 2})
	require.True(t, errors.Is(err, treeerrors.ErrGrow))
	require.True(t, errors.Is(err, treeerrors.ErrInsufficientFunds))
	require.Equal(t, []string{"Appending value: [2 2 2]"}, receipt.Logs)
	require.NotEmpty(t, receipt.Error)
	require.Equal(t, before, regionOf(t, rt, k))
	payer, _, err = rt.Account(k.Address())
	require.NoError(t, err)
	require.Equal(t, uint64(100), payer.Funding)
}

func TestGrowthLimit(t *testing.T) {
	rt := newRuntime(t, WithLimits(Limits{MaxRegionLength: 1 << 20, MaxGrowthPerInvocation: 64}))
	k := newKeypair(t, 3)
	_, err := rt.Airdrop(context.Background(), k.Address(), 1_000_000_000)
	require.NoError(t, err)

	_, err = invokeAppend(t, rt, k, []byte("small"))
	require.NoError(t, err)
	before := regionOf(t, rt, k)

	_, err = invokeAppend(t, rt, k, make([]byte, 100))
	require.True(t, errors.Is(err, treeerrors.ErrResizeRejected))
	require.Equal(t, before, regionOf(t, rt, k))

	_, err = invokeAppend(t, rt, k, make([]byte, 32))
	require.NoError(t, err)
}

func TestSignatureRequired(t *testing.T) {
	rt := newRuntime(t)
	owner, thief := newKeypair(t, 4), newKeypair(t, 5)
	_, err := rt.Airdrop(context.Background(), owner.Address(), 1_000_000_000)
	require.NoError(t, err)

	tx := NewTransaction(programID, owner, types.NewAppendLeaf([]byte{1}))
	tx.Data = codec.EncodeInstruction(types.NewAppendLeaf([]byte{2}))
	_, err = rt.Invoke(context.Background(), tx)
	require.True(t, errors.Is(err, treeerrors.ErrUnauthorized))

	tx = NewTransaction(programID, thief, types.NewAppendLeaf([]byte{1}))
	tx.Payer = owner.Address()
	tx.Region = program.RegionAddress(programID, owner.Address())
	tx.Sign(programID, thief)
	_, err = rt.Invoke(context.Background(), tx)
	require.True(t, errors.Is(err, treeerrors.ErrUnauthorized))

	_, found, err := rt.Account(tx.Region)
	require.NoError(t, err)
	require.False(t, found)
}

func TestAddressMismatch(t *testing.T) {
	rt := newRuntime(t)
	k := newKeypair(t, 6)
	_, err := rt.Airdrop(context.Background(), k.Address(), 1_000_000_000)
	require.NoError(t, err)

	tx := NewTransaction(programID, k, types.NewAppendLeaf([]byte{1}))
	tx.Region = program.RegionAddress(programID, newKeypair(t, 7).Address())
	tx.Sign(programID, k)
	receipt, err := rt.Invoke(context.Background(), tx)
	require.True(t, errors.Is(err, treeerrors.ErrAddressMismatch))
	require.Equal(t, []string{"Invalid PDA provided"}, receipt.Logs)
}

func TestUnfundedAccountsArePurged(t *testing.T) {
	rt := newRuntime(t)
	k := newKeypair(t, 8)
	min11, _ := rt.Rent().MinimumBalance(11)
	_, err := rt.Airdrop(context.Background(), k.Address(), min11)
	require.NoError(t, err)

	_, err = invokeAppend(t, rt, k, []byte{1, 1, 1})
	require.NoError(t, err)
	_, found, err := rt.Account(k.Address())
	require.NoError(t, err)
	require.False(t, found, "payer spent everything on the deposit")
	regionOf(t, rt, k)
}

func TestCanceledContext(t *testing.T) {
	rt := newRuntime(t)
	k := newKeypair(t, 9)
	_, err := rt.Airdrop(context.Background(), k.Address(), 1_000_000_000)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rt.Invoke(ctx, NewTransaction(programID, k, types.NewAppendLeaf([]byte{1})))
	require.ErrorIs(t, err, context.Canceled)
	_, found, err := rt.Account(program.RegionAddress(programID, k.Address()))
	require.NoError(t, err)
	require.False(t, found)

	_, err = rt.Airdrop(ctx, k.Address(), 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInvokeSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := telemetry.NewProvider(sdktrace.WithSpanProcessor(rec))
	rt := newRuntime(t, WithTracer(tp.Tracer("test")))
	k := newKeypair(t, 10)

	_, err := invokeAppend(t, rt, k, []byte{1})
	require.Error(t, err)
	_, err = rt.Invoke(context.Background(), NewTransaction(programID, k, types.NewDescribe()))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "Provision", spans[0].Status().Description)
	found := false
	for _, kv := range spans[1].Attributes() {
		if kv.Key == "instruction" {
			found = true
			require.Equal(t, "Describe", kv.Value.AsString())
		}
	}
	require.True(t, found)
}
