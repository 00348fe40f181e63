package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/rent"
	"github.com/colorfulnotion/treeprogram/storage"
	"github.com/colorfulnotion/treeprogram/telemetry"
	"github.com/colorfulnotion/treeprogram/treeerrors"
	"github.com/colorfulnotion/treeprogram/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxRegionLength        = 10 * 1024 * 1024
	DefaultMaxGrowthPerInvocation = 10 * 1024
)

// Limits bound region sizes. Violations reject the resize.
type Limits struct {
	MaxRegionLength        int `json:"max_region_length"`
	MaxGrowthPerInvocation int `json:"max_growth_per_invocation"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxRegionLength:        DefaultMaxRegionLength,
		MaxGrowthPerInvocation: DefaultMaxGrowthPerInvocation,
	}
}

// Receipt reports one invocation. Logs holds the program log lines even
// when the invocation failed and was discarded.
type Receipt struct {
	Hash     common.Hash       `json:"hash"`
	Logs     []string          `json:"logs"`
	Response *program.Response `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (r *Receipt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Receipt %s\n", r.Hash.String_short())
	for _, l := range r.Logs {
		fmt.Fprintf(&sb, "  Program log: %s\n", l)
	}
	if r.Error != "" {
		fmt.Fprintf(&sb, "  failed: %s\n", r.Error)
	} else if r.Response != nil {
		fmt.Fprintf(&sb, "  %s\n", r.Response)
	}
	return sb.String()
}

// Runtime executes transactions against the account store one at a time.
// Each invocation runs on its own leveldb transaction and is committed only
// if the program succeeds.
type Runtime struct {
	mu        sync.Mutex
	store     *storage.PersistenceStore
	processor *program.Processor
	rent      rent.Rent
	limits    Limits
	tracer    trace.Tracer
}

type Option func(*Runtime)

func WithRent(r rent.Rent) Option {
	return func(rt *Runtime) { rt.rent = r }
}

func WithLimits(l Limits) Option {
	return func(rt *Runtime) { rt.limits = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(rt *Runtime) {
		if t != nil {
			rt.tracer = t
		}
	}
}

func New(store *storage.PersistenceStore, processor *program.Processor, opts ...Option) *Runtime {
	rt := &Runtime{
		store:     store,
		processor: processor,
		rent:      rent.Default(),
		limits:    DefaultLimits(),
		tracer:    telemetry.Tracer("runtime"),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) ProgramID() common.Address {
	return rt.processor.ProgramID()
}

func (rt *Runtime) Rent() rent.Rent {
	return rt.rent
}

// Invoke verifies and executes tx. On error the returned receipt still
// carries the program logs; no state change persists.
func (rt *Runtime) Invoke(ctx context.Context, tx *Transaction) (*Receipt, error) {
	programID := rt.ProgramID()
	receipt := &Receipt{Hash: tx.Hash(programID)}

	ctx, span := rt.tracer.Start(ctx, "Invoke", trace.WithAttributes(
		attribute.String("payer", tx.Payer.Hex()),
		attribute.String("region", tx.Region.Hex()),
		attribute.Int("data.len", len(tx.Data)),
	))
	defer span.End()

	fail := func(err error) (*Receipt, error) {
		receipt.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, treeerrors.GetErrorName(err))
		log.Warn(log.RuntimeMonitoring, "Invoke failed", "tx", receipt.Hash.String_short(), "err", treeerrors.GetErrorCodeWithName(err))
		return receipt, err
	}

	if err := tx.Verify(programID); err != nil {
		return fail(err)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	txn, err := rt.store.Begin()
	if err != nil {
		return fail(err)
	}
	defer txn.Discard()

	inv := newInvocation(txn, programID, tx.Payer, rt.rent, rt.limits)
	accts := program.Accounts{Payer: tx.Payer, Region: tx.Region}
	resp, err := rt.processor.Process(ctx, inv, accts, tx.Data)
	receipt.Logs = inv.logs
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := inv.purge(); err != nil {
		return fail(err)
	}
	if err := txn.Commit(); err != nil {
		return fail(err)
	}
	receipt.Response = resp
	span.SetAttributes(
		attribute.String("instruction", resp.Kind.String()),
		attribute.Int("leaf_count", resp.Info.LeafCount),
	)
	log.Info(log.RuntimeMonitoring, "Invoke", "tx", receipt.Hash.String_short(), "kind", resp.Kind, "leaves", resp.Info.LeafCount, "root", resp.Info.RootString())
	return receipt, nil
}

// Airdrop credits amount to addr and returns the new balance.
func (rt *Runtime) Airdrop(ctx context.Context, addr common.Address, amount uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	txn, err := rt.store.Begin()
	if err != nil {
		return 0, err
	}
	defer txn.Discard()
	if err := creditAccount(txn, addr, amount, nil); err != nil {
		return 0, err
	}
	acct, _, err := txn.Get(addr)
	if err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	log.Info(log.RuntimeMonitoring, "Airdrop", "addr", addr.String_short(), "amount", amount, "balance", acct.Funding)
	return acct.Funding, nil
}

// Account returns the committed account at addr.
func (rt *Runtime) Account(addr common.Address) (*types.Account, bool, error) {
	return rt.store.Accounts().Get(addr)
}

// Describe reports the tree owned by payer without a signature. It runs
// the Describe instruction on a transaction that is always discarded.
func (rt *Runtime) Describe(ctx context.Context, payer common.Address) (*Receipt, error) {
	programID := rt.ProgramID()
	accts := program.Accounts{Payer: payer, Region: program.RegionAddress(programID, payer)}
	data := codec.EncodeInstruction(types.NewDescribe())
	receipt := &Receipt{Hash: SigningHash(programID, accts.Payer, accts.Region, data)}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	txn, err := rt.store.Begin()
	if err != nil {
		return nil, err
	}
	defer txn.Discard()

	inv := newInvocation(txn, programID, payer, rt.rent, rt.limits)
	resp, err := rt.processor.Process(ctx, inv, accts, data)
	receipt.Logs = inv.logs
	if err != nil {
		receipt.Error = err.Error()
		return receipt, err
	}
	receipt.Response = resp
	return receipt, nil
}
