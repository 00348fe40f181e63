package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/config"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/rpc"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"
)

func consoleCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive JavaScript console against an RPC server",
		Long: `Starts a readline console with a JavaScript VM. The tree object
calls the server, e.g. tree.append("0x010101"), tree.describe(),
tree.airdrop(1000000), tree.account(tree.region()).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			client, err := rpc.Dial(c.RPCAddr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", c.RPCAddr, err)
			}
			defer client.Close()
			programID, err := client.ProgramID()
			if err != nil {
				return err
			}
			key, err := loadKey(c)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "tree> ",
				HistoryFile:     filepath.Join(filepath.Dir(c.DataDir), "console_history.txt"),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("start readline: %w", err)
			}
			defer rl.Close()

			vm, err := newConsoleVM(client, programID, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(rl.Stdout(), "Tree console connected to %s as %s\nType 'exit' to quit.\n", c.RPCAddr, key.Address())
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" {
					return nil
				}
				v, err := vm.RunString(line)
				if err != nil {
					fmt.Fprintln(rl.Stdout(), "Error:", err)
					continue
				}
				fmt.Fprintln(rl.Stdout(), render(v))
			}
		},
	}
}

// newConsoleVM binds the tree object to client.
func newConsoleVM(client *rpc.Client, programID common.Address, key *ed25519.Keypair) (*goja.Runtime, error) {
	vm := goja.New()
	throw := func(err error) goja.Value {
		panic(vm.NewGoError(err))
	}
	toJS := func(v interface{}) goja.Value {
		data, err := json.Marshal(v)
		if err != nil {
			return throw(err)
		}
		var out interface{}
		if err := json.Unmarshal(data, &out); err != nil {
			return throw(err)
		}
		return vm.ToValue(out)
	}
	addrArg := func(call goja.FunctionCall, i int) common.Address {
		if len(call.Arguments) <= i || goja.IsUndefined(call.Argument(i)) {
			return key.Address()
		}
		addr, err := common.ParseAddress(call.Argument(i).String())
		if err != nil {
			throw(err)
		}
		return addr
	}
	submit := func(ix types.Instruction) goja.Value {
		receipt, err := client.Invoke(runtime.NewTransaction(programID, key, ix))
		if receipt != nil {
			return toJS(receipt)
		}
		return throw(err)
	}

	tree := vm.NewObject()
	bindings := map[string]func(goja.FunctionCall) goja.Value{
		"append": func(call goja.FunctionCall) goja.Value {
			value, err := parseValue(call.Argument(0).String())
			if err != nil {
				return throw(err)
			}
			return submit(types.NewAppendLeaf(value))
		},
		"describe": func(call goja.FunctionCall) goja.Value {
			receipt, err := client.Describe(addrArg(call, 0))
			if receipt != nil {
				return toJS(receipt)
			}
			return throw(err)
		},
		"describeSigned": func(call goja.FunctionCall) goja.Value {
			return submit(types.NewDescribe())
		},
		"airdrop": func(call goja.FunctionCall) goja.Value {
			amount, err := strconv.ParseUint(call.Argument(0).String(), 10, 64)
			if err != nil {
				return throw(err)
			}
			balance, err := client.Airdrop(addrArg(call, 1), amount)
			if err != nil {
				return throw(err)
			}
			return vm.ToValue(balance)
		},
		"account": func(call goja.FunctionCall) goja.Value {
			acct, found, err := client.Account(addrArg(call, 0))
			if err != nil {
				return throw(err)
			}
			if !found {
				return goja.Null()
			}
			return toJS(acct)
		},
		"address": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(key.Address().Hex())
		},
		"region": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(program.RegionAddress(programID, addrArg(call, 0)).Hex())
		},
	}
	for name, fn := range bindings {
		if err := tree.Set(name, fn); err != nil {
			return nil, err
		}
	}
	if err := vm.Set("tree", tree); err != nil {
		return nil, err
	}
	return vm, nil
}

func render(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if exported := v.Export(); exported != nil {
		if out, err := json.MarshalIndent(exported, "", "  "); err == nil {
			return string(out)
		}
	}
	return v.String()
}
