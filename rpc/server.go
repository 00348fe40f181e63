package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/types"
)

// ServiceName prefixes every method, e.g. "tree.Invoke".
const ServiceName = "tree"

// Tree is the receiver registered with net/rpc. Every exported method is
// an rpc endpoint.
type Tree struct {
	rt *runtime.Runtime
}

type AirdropRequest struct {
	Address common.Address
	Amount  uint64
}

type AccountResponse struct {
	Found   bool
	Account *types.Account
}

// Invoke runs a signed transaction. Program failures travel inside the
// receipt so the caller still sees the logs.
func (t *Tree) Invoke(tx runtime.Transaction, res *runtime.Receipt) error {
	receipt, err := t.rt.Invoke(context.Background(), &tx)
	if receipt == nil {
		return err
	}
	*res = *receipt
	return nil
}

func (t *Tree) Airdrop(req AirdropRequest, res *uint64) error {
	balance, err := t.rt.Airdrop(context.Background(), req.Address, req.Amount)
	if err != nil {
		return err
	}
	*res = balance
	return nil
}

func (t *Tree) Account(addr common.Address, res *AccountResponse) error {
	acct, found, err := t.rt.Account(addr)
	if err != nil {
		return err
	}
	*res = AccountResponse{Found: found, Account: acct}
	return nil
}

func (t *Tree) Describe(payer common.Address, res *runtime.Receipt) error {
	receipt, err := t.rt.Describe(context.Background(), payer)
	if receipt == nil {
		return err
	}
	*res = *receipt
	return nil
}

func (t *Tree) ProgramID(_ []string, res *common.Address) error {
	*res = t.rt.ProgramID()
	return nil
}

// Server serves the tree service over any stream connection.
type Server struct {
	srv *rpc.Server
}

func NewServer(rt *runtime.Runtime) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(ServiceName, &Tree{rt: rt}); err != nil {
		return nil, fmt.Errorf("register %s: %w", ServiceName, err)
	}
	return &Server{srv: srv}, nil
}

// ServeConn blocks until the client hangs up.
func (s *Server) ServeConn(conn net.Conn) {
	log.Debug(log.RPCMonitoring, "ServeConn", "remote", conn.RemoteAddr())
	s.srv.ServeConn(conn)
}

// Serve accepts connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	log.Info(log.RPCMonitoring, "RPC server started", "addr", l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn(log.RPCMonitoring, "Failed to accept connection", "err", err)
			continue
		}
		go s.ServeConn(conn)
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}
