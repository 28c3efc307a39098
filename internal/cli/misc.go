package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the build version",
		GroupID: GroupMisc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "walletctl %s (commit %s)\n", bridge.BuildVersion(), bridge.Commit)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration as YAML",
		GroupID: GroupMisc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(app.Settings)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newKeccakCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "keccak <hex>",
		Short:   "Print the Keccak-256 digest of hex-encoded bytes",
		GroupID: GroupMisc,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("invalid hex input: %w", err)
			}
			sum := ledger.Keccak256(data)
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sum[:]))
			return nil
		},
	}
}
