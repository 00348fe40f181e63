package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/config"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/rpc"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/storage"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// backend is satisfied by both the RPC client and a local runtime.
type backend interface {
	Invoke(tx *runtime.Transaction) (*runtime.Receipt, error)
	Airdrop(addr common.Address, amount uint64) (uint64, error)
	Account(addr common.Address) (*types.Account, bool, error)
	Describe(payer common.Address) (*runtime.Receipt, error)
	ProgramID() (common.Address, error)
	Close() error
}

type localBackend struct {
	ctx   context.Context
	store *storage.PersistenceStore
	rt    *runtime.Runtime
}

func newRuntime(cfg *config.Config) (*storage.PersistenceStore, *runtime.Runtime, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	store, err := storage.NewPersistenceStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	processor := program.NewProcessor(cfg.ProgramID,
		program.WithHasher(cfg.Hasher()),
		program.WithMaxLeafSize(cfg.MaxLeafSize),
	)
	rt := runtime.New(store, processor, runtime.WithRent(cfg.Rent), runtime.WithLimits(cfg.Limits))
	return store, rt, nil
}

func openBackend(ctx context.Context, cfg *config.Config, remote bool) (backend, error) {
	if remote {
		c, err := rpc.Dial(cfg.RPCAddr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.RPCAddr, err)
		}
		return c, nil
	}
	store, rt, err := newRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return &localBackend{ctx: ctx, store: store, rt: rt}, nil
}

func (b *localBackend) Invoke(tx *runtime.Transaction) (*runtime.Receipt, error) {
	return b.rt.Invoke(b.ctx, tx)
}

func (b *localBackend) Airdrop(addr common.Address, amount uint64) (uint64, error) {
	return b.rt.Airdrop(b.ctx, addr, amount)
}

func (b *localBackend) Account(addr common.Address) (*types.Account, bool, error) {
	return b.rt.Account(addr)
}

func (b *localBackend) Describe(payer common.Address) (*runtime.Receipt, error) {
	return b.rt.Describe(b.ctx, payer)
}

func (b *localBackend) ProgramID() (common.Address, error) {
	return b.rt.ProgramID(), nil
}

func (b *localBackend) Close() error {
	return b.store.Close()
}

func loadKey(cfg *config.Config) (*ed25519.Keypair, error) {
	k, err := ed25519.LoadKeypair(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key (run `treectl keygen` first): %w", err)
	}
	return k, nil
}

// parseValue reads 0x-prefixed input as hex and anything else as raw text.
func parseValue(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return hexutil.Decode(s)
	}
	return []byte(s), nil
}

// resolvePayer returns the address argument if given, else the key file's address.
func resolvePayer(cfg *config.Config, args []string) (common.Address, error) {
	if len(args) > 0 {
		return common.ParseAddress(args[0])
	}
	k, err := loadKey(cfg)
	if err != nil {
		return common.Address{}, err
	}
	return k.Address(), nil
}
