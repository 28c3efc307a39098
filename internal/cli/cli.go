// Package cli implements the walletctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/walletcore/ledgerbridge-go/internal/config"
	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
	"github.com/walletcore/ledgerbridge-go/pkg/logging"
)

// Command group IDs.
const (
	GroupWallet = "wallet"
	GroupNode   = "node"
	GroupMisc   = "misc"
)

// App is the state shared by every command of one invocation.
type App struct {
	Fs       afero.Fs
	Settings config.Settings
	Logger   logging.Logger

	zap *zap.Logger
}

// NewRootCmd returns the walletctl root command reading config files
// through fs.
func NewRootCmd(fs afero.Fs) *cobra.Command {
	app := &App{Fs: fs}

	root := &cobra.Command{
		Use:           "walletctl",
		Short:         "walletcore ledger bridge CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.zap != nil {
				_ = app.zap.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.config/walletcore/config.yaml or ./walletcore.yaml)")
	flags.String("keystore", "", "key store directory (default: ~/.walletcore/keystore)")
	flags.String("store", "", "SQLite store file (default: ~/.walletcore/store.sqlite3)")
	flags.String("endpoint", "testnet", "node endpoint: testnet, devnet or localhost")
	flags.Duration("timeout", bridge.DefaultCallTimeout, "how long to wait for each operation")
	flags.Duration("rpc-timeout", rpc.DefaultTimeout, "timeout of each node call")
	flags.Int("queue-capacity", bridge.DefaultQueueCapacity, "bridge request queue capacity")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	root.AddGroup(
		&cobra.Group{ID: GroupWallet, Title: "Wallet commands"},
		&cobra.Group{ID: GroupNode, Title: "Node commands"},
		&cobra.Group{ID: GroupMisc, Title: "Other commands"},
	)

	root.AddCommand(
		newSyncCmd(app),
		newTestConnectionCmd(app),
		newWalletCmd(app),
		newAccountsCmd(app),
		newBalanceCmd(app),
		newNotesCmd(app),
		newConsumeCmd(app),
		newNodeCmd(app),
		newVersionCmd(),
		newConfigCmd(app),
		newKeccakCmd(),
	)
	return root
}

func (a *App) init(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	file, _ := flags.GetString("config")

	s, err := config.Load(config.Options{Fs: a.Fs, File: file, Flags: flags})
	if err != nil {
		return err
	}
	if s.Keystore == "" || s.Store == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve data directory: %w", err)
		}
		if s.Keystore == "" {
			s.Keystore = filepath.Join(home, ".walletcore", "keystore")
		}
		if s.Store == "" {
			s.Store = filepath.Join(home, ".walletcore", "store.sqlite3")
		}
	}
	a.Settings = s

	l, z, err := logging.NewProduction(s.LogLevel)
	if err != nil {
		return err
	}
	a.Logger, a.zap = l, z
	return nil
}

// withBridge opens a bridge for the duration of fn.
func (a *App) withBridge(ctx context.Context, fn func(*bridge.Bridge) error) error {
	cfg := a.Settings.BridgeConfig()
	cfg.Logger = a.Logger
	b, err := bridge.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			a.Logger.Warn(ctx, "bridge close failed", "error", cerr)
		}
	}()
	return fn(b)
}
