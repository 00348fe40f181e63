package main

import (
	"context"
	"time"

	"github.com/colorfulnotion/treeprogram/config"
	log "github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/rpc"
	"github.com/colorfulnotion/treeprogram/telemetry"
	"github.com/spf13/cobra"
)

func serveCmd(cfg func() *config.Config) *cobra.Command {
	var wsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree program over RPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := cfg()
			shutdown, err := telemetry.Init(ctx, c.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(sctx); err != nil {
					log.Warn(log.TelemetryMonitoring, "tracer shutdown", "err", err)
				}
			}()

			store, rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			defer store.Close()
			srv, err := rpc.NewServer(rt)
			if err != nil {
				return err
			}
			log.Info(log.RPCMonitoring, "serving", "program", rt.ProgramID(), "datadir", c.DataDir)
			if wsAddr == "" {
				return srv.ListenAndServe(ctx, c.RPCAddr)
			}
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			errc := make(chan error, 2)
			go func() { errc <- srv.ListenAndServe(ctx, c.RPCAddr) }()
			go func() { errc <- srv.ListenAndServeHTTP(ctx, wsAddr) }()
			first := <-errc
			cancel()
			if second := <-errc; first == nil {
				return second
			}
			return first
		},
	}
	cmd.Flags().StringVar(&wsAddr, "ws", "", "also serve JSON-RPC over websocket on this address")
	return cmd
}
