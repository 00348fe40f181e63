// treectl drives the Merkle tree program: key management, funding, appends,
// inspection and an RPC server over a local account store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/colorfulnotion/treeprogram/config"
	log "github.com/colorfulnotion/treeprogram/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
)

type globalFlags struct {
	configPath string
	dataDir    string
	keyFile    string
	rpcAddr    string
	remote     bool
	logLevel   string
	debug      string
}

func main() {
	var flags globalFlags
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "treectl",
		Short:         "Append-only Merkle tree program backed by funded storage regions",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			log.InitLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogJSON)
			log.EnableModules(cfg.DebugModules)
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "JSON config file")
	pf.StringVar(&flags.dataDir, "datadir", "", "account store directory")
	pf.StringVar(&flags.keyFile, "keyfile", "", "payer key file")
	pf.StringVar(&flags.rpcAddr, "rpc", "", "RPC server address")
	pf.BoolVar(&flags.remote, "remote", false, "send commands to the RPC server instead of the local store")
	pf.StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn, error")
	pf.StringVar(&flags.debug, "debug", "", "comma separated modules to debug, e.g. region_mod,runtime_mod")

	cfgFn := func() *config.Config { return cfg }
	remoteFn := func() bool { return flags.remote }
	rootCmd.AddCommand(
		keygenCmd(cfgFn),
		addressCmd(cfgFn),
		airdropCmd(cfgFn, remoteFn),
		appendCmd(cfgFn, remoteFn),
		describeCmd(cfgFn, remoteFn),
		inspectCmd(cfgFn, remoteFn),
		serveCmd(cfgFn),
		consoleCmd(cfgFn),
		configCmd(cfgFn),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config if given and applies flag overrides.
func loadConfig(cmd *cobra.Command, f *globalFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("datadir") {
		cfg.DataDir = f.dataDir
	}
	if changed("keyfile") {
		cfg.KeyFile = f.keyFile
	}
	if changed("rpc") {
		cfg.RPCAddr = f.rpcAddr
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("debug") {
		cfg.DebugModules = f.debug
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
