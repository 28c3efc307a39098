package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
)

// mint is one note minted at node start.
type mint struct {
	target *ledger.AccountID
	asset  ledger.Asset
}

// parseMint parses "[account:]faucet:amount". Without an account the note
// is public and consumable by anyone.
func parseMint(s string) (mint, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return mint{}, fmt.Errorf("invalid mint %q: want [account:]faucet:amount", s)
	}
	var m mint
	if len(parts) == 3 {
		id, err := ledger.ParseAccountID(parts[0])
		if err != nil {
			return mint{}, fmt.Errorf("invalid mint target: %w", err)
		}
		m.target = &id
		parts = parts[1:]
	}
	faucet, err := ledger.ParseAccountID(parts[0])
	if err != nil {
		return mint{}, fmt.Errorf("invalid mint faucet: %w", err)
	}
	amount, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return mint{}, fmt.Errorf("invalid mint amount: %w", err)
	}
	m.asset = ledger.FungibleAsset(faucet, amount)
	return m, nil
}

func newNodeCmd(app *App) *cobra.Command {
	var (
		listen string
		mints  []string
	)
	cmd := &cobra.Command{
		Use:     "node",
		Short:   "Serve an in-memory node for local development",
		GroupID: GroupNode,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			node := rpc.NewMemNode()
			for _, s := range mints {
				m, err := parseMint(s)
				if err != nil {
					return err
				}
				id := node.Mint(m.target, m.asset)
				fmt.Fprintf(cmd.OutOrStdout(), "minted note %s\n", id.Hex())
			}

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}
			srv := grpc.NewServer()
			rpc.RegisterNodeServer(srv, node)

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				srv.GracefulStop()
			}()

			app.Logger.Info(ctx, "node listening", "address", lis.Addr().String())
			if err := srv.Serve(lis); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", rpc.Localhost().Address(), "address to listen on")
	cmd.Flags().StringArrayVar(&mints, "mint", nil, "mint a note at start: [account:]faucet:amount (repeatable)")
	return cmd
}
