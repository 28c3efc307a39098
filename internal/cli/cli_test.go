package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(afero.NewMemMapFs())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func dataFlags(t *testing.T) []string {
	dir := t.TempDir()
	return []string{
		"--keystore", filepath.Join(dir, "keys"),
		"--store", filepath.Join(dir, "store.sqlite3"),
		"--endpoint", "localhost",
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "walletctl "))
}

func TestKeccak(t *testing.T) {
	out, err := run(t, "keccak", "0x")
	require.NoError(t, err)
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470\n", out)

	_, err = run(t, "keccak", "zz")
	require.Error(t, err)
}

func TestConfigShowsFlagsAndEnv(t *testing.T) {
	t.Setenv("WALLETCORE_ENDPOINT", "devnet")
	out, err := run(t, "config", "--queue-capacity", "12", "--keystore", "/k", "--store", "/s")
	require.NoError(t, err)
	assert.Contains(t, out, "queue_capacity: 12")
	assert.Contains(t, out, "endpoint: devnet")
	assert.Contains(t, out, "keystore: /k")
	assert.Contains(t, out, "rpc_timeout: "+rpc.DefaultTimeout.String())
}

func TestRPCTimeoutFlagDefault(t *testing.T) {
	f := NewRootCmd(afero.NewMemMapFs()).PersistentFlags().Lookup("rpc-timeout")
	require.NotNil(t, f)
	assert.Equal(t, rpc.DefaultTimeout.String(), f.DefValue)
}

func TestWalletLifecycle(t *testing.T) {
	flags := dataFlags(t)
	seed := strings.Repeat("11", ledger.SeedLen)

	out, err := run(t, append([]string{"wallet", "create", "--seed", seed}, flags...)...)
	require.NoError(t, err)
	id, err := ledger.ParseAccountID(strings.TrimSpace(out))
	require.NoError(t, err)

	out, err = run(t, append([]string{"accounts"}, flags...)...)
	require.NoError(t, err)
	assert.JSONEq(t, `["`+id.Hex()+`"]`, out)

	out, err = run(t, append([]string{"balance", id.Hex()}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"total_fungible_count":0`)

	out, err = run(t, append([]string{"notes"}, flags...)...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":[],"total_count":0}`, out)

	_, err = run(t, append([]string{"balance", "not-hex"}, flags...)...)
	require.Error(t, err)
}

func TestParseMint(t *testing.T) {
	faucet := ledger.AccountID{0xfa}
	target := ledger.AccountID{0x01}

	m, err := parseMint(faucet.Hex() + ":25")
	require.NoError(t, err)
	assert.Nil(t, m.target)
	assert.Equal(t, uint64(25), m.asset.Amount)

	m, err = parseMint(target.Hex() + ":" + faucet.Hex() + ":7")
	require.NoError(t, err)
	require.NotNil(t, m.target)
	assert.Equal(t, target, *m.target)
	assert.Equal(t, faucet, m.asset.Faucet)

	for _, bad := range []string{"", "x:1", faucet.Hex() + ":-1", "a:b:c:d"} {
		_, err := parseMint(bad)
		assert.Error(t, err, bad)
	}
}
