package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/config"
	"github.com/colorfulnotion/treeprogram/ed25519"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/program"
	"github.com/colorfulnotion/treeprogram/runtime"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/spf13/cobra"
)

func keygenCmd(cfg func() *config.Config) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a payer key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg().KeyFile
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			k, err := ed25519.GenerateKeypair(nil)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if err := k.Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\nAddress: %s\n", path, k.Address())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")
	return cmd
}

func addressCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "address [payer]",
		Short: "Print the payer address and the region address derived from it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := resolvePayer(cfg(), args)
			if err != nil {
				return err
			}
			fmt.Printf("Payer:   %s\nRegion:  %s\nProgram: %s\n", payer, program.RegionAddress(cfg().ProgramID, payer), cfg().ProgramID)
			return nil
		},
	}
}

func airdropCmd(cfg func() *config.Config, remote func() bool) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <amount> [address]",
		Short: "Credit funds to an account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			addr, err := resolvePayer(cfg(), args[1:])
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg(), remote())
			if err != nil {
				return err
			}
			defer b.Close()
			balance, err := b.Airdrop(addr, amount)
			if err != nil {
				return err
			}
			fmt.Printf("%s balance %d\n", addr, balance)
			return nil
		},
	}
}

func appendCmd(cfg func() *config.Config, remote func() bool) *cobra.Command {
	return &cobra.Command{
		Use:   "append <value>",
		Short: "Append a leaf (0x-prefixed hex or text) to the payer's tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseValue(args[0])
			if err != nil {
				return err
			}
			return invoke(cmd, cfg(), remote(), types.NewAppendLeaf(value))
		},
	}
}

func describeCmd(cfg func() *config.Config, remote func() bool) *cobra.Command {
	var signed bool
	cmd := &cobra.Command{
		Use:   "describe [payer]",
		Short: "Report the leaf count and root of a payer's tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if signed {
				return invoke(cmd, cfg(), remote(), types.NewDescribe())
			}
			payer, err := resolvePayer(cfg(), args)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg(), remote())
			if err != nil {
				return err
			}
			defer b.Close()
			receipt, err := b.Describe(payer)
			if receipt != nil {
				fmt.Print(receipt)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&signed, "signed", false, "submit Describe as a signed transaction")
	return cmd
}

func invoke(cmd *cobra.Command, cfg *config.Config, remote bool, ix types.Instruction) error {
	k, err := loadKey(cfg)
	if err != nil {
		return err
	}
	b, err := openBackend(cmd.Context(), cfg, remote)
	if err != nil {
		return err
	}
	defer b.Close()
	programID, err := b.ProgramID()
	if err != nil {
		return err
	}
	receipt, err := b.Invoke(runtime.NewTransaction(programID, k, ix))
	if receipt != nil {
		fmt.Print(receipt)
	}
	return err
}

func inspectCmd(cfg func() *config.Config, remote func() bool) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect [payer]",
		Short: "Render a payer's tree and verify a proof for every leaf",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payer, err := resolvePayer(cfg(), args)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg(), remote())
			if err != nil {
				return err
			}
			defer b.Close()
			programID, err := b.ProgramID()
			if err != nil {
				return err
			}
			addr := program.RegionAddress(programID, payer)
			acct, found, err := b.Account(addr)
			if err != nil {
				return err
			}
			if !found || acct.IsEmpty() {
				fmt.Println("Tree is empty.")
				return nil
			}
			if asJSON {
				out, err := json.MarshalIndent(acct, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			tree, err := codec.DecodeTree(acct.Data, cfg().MaxLeafSize, merkle.WithHasher(cfg().Hasher()))
			if err != nil {
				return err
			}
			fmt.Printf("Region %s %s\n", addr, acct)
			fmt.Print(tree.Print())
			verified, err := verifyAll(tree)
			if err != nil {
				return err
			}
			fmt.Printf("proofs: %d/%d verified\n", verified, tree.LeafCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw account as JSON")
	return cmd
}

// verifyAll checks an inclusion proof for each leaf and returns how many verified.
func verifyAll(tree *merkle.Tree) (int, error) {
	root, ok := tree.Root()
	if !ok {
		return 0, nil
	}
	verified := 0
	for i := 0; i < tree.LeafCount(); i++ {
		p, err := tree.Proof(i)
		if err != nil {
			return verified, err
		}
		leaf, err := tree.Leaf(i)
		if err != nil {
			return verified, err
		}
		if merkle.VerifyProof(tree.Hasher(), root, leaf, p) {
			verified++
		}
	}
	return verified, nil
}

func configCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(cfg().String())
		},
	}
}
