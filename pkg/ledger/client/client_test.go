package client

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
)

func seed(b byte) [ledger.SeedLen]byte {
	var s [ledger.SeedLen]byte
	for i := range s {
		s[i] = b ^ byte(i)
	}
	return s
}

// openWithNode returns a client talking to an in-memory node over bufconn.
func openWithNode(t *testing.T) (*Client, *rpc.MemNode) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	node := rpc.NewMemNode()
	s := grpc.NewServer()
	rpc.RegisterNodeServer(s, node)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	dir := t.TempDir()
	c, err := Open(context.Background(), Options{
		KeystorePath: filepath.Join(dir, "keystore"),
		StorePath:    filepath.Join(dir, "store.sqlite3"),
		Node:         rpc.NewClient(conn, 5*time.Second),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, node
}

func TestCreateWalletAndList(t *testing.T) {
	c, _ := openWithNode(t)
	ctx := context.Background()

	accounts, err := c.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	a, err := c.CreateWallet(ctx, seed(1))
	require.NoError(t, err)
	assert.False(t, a.ID.IsZero())
	assert.Equal(t, ledger.StoragePublic, a.Storage)

	_, err = c.CreateWallet(ctx, seed(1))
	assert.ErrorIs(t, err, ledger.ErrStore, "same seed derives the same account")

	b, err := c.CreateWallet(ctx, seed(2))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	accounts, err = c.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	got, err := c.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Assets)

	_, err = c.GetAccount(ctx, ledger.AccountID{0xbe, 0xef})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestSyncAndConsumeNotes(t *testing.T) {
	c, node := openWithNode(t)
	ctx := context.Background()

	acct, err := c.CreateWallet(ctx, seed(3))
	require.NoError(t, err)
	faucet := ledger.AccountID{0xfa}

	n1 := node.Mint(&acct.ID, ledger.FungibleAsset(faucet, 40))
	n2 := node.Mint(&acct.ID, ledger.FungibleAsset(faucet, 2))
	n3 := node.Mint(nil, ledger.FungibleAsset(faucet, 100))

	summary, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), summary.BlockNum)
	assert.Equal(t, 3, summary.NewNotes)

	notes, err := c.ListConsumableNotes(ctx, &acct.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.True(t, notes[0].Authenticated)

	tx, err := c.SubmitConsumeNotes(ctx, acct.ID, []ledger.NoteID{n1, n2})
	require.NoError(t, err)
	assert.NotEqual(t, ledger.TxID{}, tx)

	notes, err = c.ListConsumableNotes(ctx, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, n3, notes[0].ID)

	summary, err = c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), summary.BlockNum)
	assert.Equal(t, 1, summary.UpdatedAccounts)
	assert.Equal(t, 2, summary.ConsumedNotes)

	got, err := c.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Nonce)
	require.Len(t, got.Assets, 1)
	assert.Equal(t, uint64(42), got.Assets[0].Amount)

	// A second transaction uses the synced nonce.
	_, err = c.SubmitConsumeNotes(ctx, acct.ID, []ledger.NoteID{n3})
	require.NoError(t, err)
}

func TestSubmitConsumeNotesErrors(t *testing.T) {
	c, node := openWithNode(t)
	ctx := context.Background()

	acct, err := c.CreateWallet(ctx, seed(4))
	require.NoError(t, err)
	n1 := node.Mint(&acct.ID, ledger.FungibleAsset(ledger.AccountID{0xfa}, 1))
	_, err = c.Sync(ctx)
	require.NoError(t, err)

	_, err = c.SubmitConsumeNotes(ctx, acct.ID, nil)
	assert.ErrorIs(t, err, ledger.ErrTransactionRequest)

	_, err = c.SubmitConsumeNotes(ctx, acct.ID, []ledger.NoteID{{0x01}})
	assert.ErrorIs(t, err, ledger.ErrTransactionRequest)
	assert.ErrorIs(t, err, ledger.ErrNoteNotFound)

	_, err = c.SubmitConsumeNotes(ctx, ledger.AccountID{0x99}, []ledger.NoteID{n1})
	assert.ErrorIs(t, err, ledger.ErrTransactionRequest)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	node.RejectSubmissions(errors.New("mempool full"))
	_, err = c.SubmitConsumeNotes(ctx, acct.ID, []ledger.NoteID{n1})
	assert.ErrorIs(t, err, ledger.ErrTransactionSubmit)

	// The rejected note is still consumable.
	notes, err := c.ListConsumableNotes(ctx, &acct.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

type failingNode struct{}

func (failingNode) SyncState(context.Context, *rpc.SyncStateRequest) (*rpc.SyncStateResponse, error) {
	return nil, errors.New("connection refused")
}

func (failingNode) SubmitTransaction(context.Context, *rpc.SubmitTransactionRequest) (*rpc.SubmitTransactionResponse, error) {
	return nil, errors.New("connection refused")
}

func (failingNode) Close() error { return nil }

func TestSyncFailure(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(context.Background(), Options{
		KeystorePath: filepath.Join(dir, "keys"),
		StorePath:    filepath.Join(dir, "store.sqlite3"),
		Node:         failingNode{},
	})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Sync(context.Background())
	assert.ErrorIs(t, err, ledger.ErrSync)
}

func TestOpenDialsLazily(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(context.Background(), Options{
		KeystorePath: filepath.Join(dir, "keys"),
		StorePath:    filepath.Join(dir, "nested", "store.sqlite3"),
		Endpoint:     rpc.Localhost(),
		RPCTimeout:   200 * time.Millisecond,
	})
	require.NoError(t, err)

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
	require.NoError(t, c.Close())
}

func TestCloseTwice(t *testing.T) {
	c, _ := openWithNode(t)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ledger.ErrClientClosed)

	_, err := c.ListAccounts(context.Background())
	assert.ErrorIs(t, err, ledger.ErrClientClosed)
	_, err = c.Sync(context.Background())
	assert.ErrorIs(t, err, ledger.ErrClientClosed)
}
