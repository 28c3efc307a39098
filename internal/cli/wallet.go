package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Short:   "Synchronize local state with the node",
		GroupID: GroupWallet,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				sum, err := b.Sync(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "block=%d new_notes=%d consumed_notes=%d updated_accounts=%d\n",
					sum.BlockNum, sum.NewNotes, sum.ConsumedNotes, sum.UpdatedAccounts)
				return nil
			})
		},
	}
}

func newTestConnectionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "test-connection",
		Short:   "Check that the node answers a sync",
		GroupID: GroupNode,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				if err := b.TestConnection(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func newWalletCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wallet",
		Short:   "Manage wallets",
		GroupID: GroupWallet,
	}
	cmd.AddCommand(newWalletCreateCmd(app))
	return cmd
}

func newWalletCreateCmd(app *App) *cobra.Command {
	var seedHex string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var raw []byte
			if seedHex != "" {
				var err error
				raw, err = hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
				if err != nil {
					return fmt.Errorf("invalid seed: %w", err)
				}
			}
			seed, err := bridge.SeedFrom(raw)
			if err != nil {
				return err
			}
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				id, err := b.CreateWallet(cmd.Context(), seed)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed (random when omitted)")
	return cmd
}

func newAccountsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"ls"},
		Short:   "List tracked accounts as JSON",
		GroupID: GroupWallet,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				ids, err := b.Accounts(cmd.Context())
				if err != nil {
					return err
				}
				out, err := bridge.MarshalAccounts(ids)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "balance <account-id>",
		Short:   "Show the vault of an account as JSON",
		GroupID: GroupWallet,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := bridge.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				bal, err := b.Balance(cmd.Context(), id)
				if err != nil {
					return err
				}
				out, err := bridge.MarshalBalance(bal)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func newNotesCmd(app *App) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:     "notes",
		Short:   "List consumable input notes as JSON",
		GroupID: GroupWallet,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := bridge.ParseAccountFilter(account)
			if err != nil {
				return err
			}
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				notes, err := b.InputNotes(cmd.Context(), filter)
				if err != nil {
					return err
				}
				out, err := bridge.MarshalNotes(notes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only notes consumable by this account")
	return cmd
}

func newConsumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "consume <account-id> <note-id>...",
		Short:   "Consume notes into an account",
		GroupID: GroupWallet,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := bridge.ParseAccountID(args[0])
			if err != nil {
				return err
			}
			notes := make([]ledger.NoteID, 0, len(args)-1)
			for _, a := range args[1:] {
				n, err := ledger.ParseNoteID(a)
				if err != nil {
					return fmt.Errorf("%w: %v", bridge.ErrInvalidNoteIDs, err)
				}
				notes = append(notes, n)
			}
			return app.withBridge(cmd.Context(), func(b *bridge.Bridge) error {
				tx, err := b.ConsumeNotes(cmd.Context(), id, notes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tx.Hex())
				return nil
			})
		},
	}
}
