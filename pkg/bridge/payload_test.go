package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

func TestMarshalAccounts(t *testing.T) {
	out, err := MarshalAccounts(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	id := ledger.AccountID{0xab}
	out, err = MarshalAccounts([]ledger.AccountID{id})
	require.NoError(t, err)
	assert.Equal(t, `["`+id.Hex()+`"]`, string(out))
}

func TestMarshalBalance(t *testing.T) {
	faucet := ledger.AccountID{0xfa}
	acct := ledger.Account{
		AccountHeader: ledger.AccountHeader{ID: ledger.AccountID{1}},
		Assets: []ledger.Asset{
			ledger.FungibleAsset(faucet, 100),
			ledger.NonFungibleAsset(faucet, [ledger.DigestLen]byte{9}),
		},
	}
	out, err := MarshalBalance(BalanceOf(acct))
	require.NoError(t, err)

	want := `{"account_id":"` + acct.ID.Hex() + `",` +
		`"fungible_assets":[{"faucet_id":"` + faucet.Hex() + `","amount":100}],` +
		`"total_fungible_count":1,"total_non_fungible_count":1}`
	assert.JSONEq(t, want, string(out))

	empty, err := MarshalBalance(Balance{AccountID: "0x00"})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"fungible_assets":[]`)
}

func TestMarshalNotes(t *testing.T) {
	faucet := ledger.AccountID{0xfa}
	notes := []ledger.InputNote{
		{
			ID: ledger.NoteID{1},
			Assets: []ledger.Asset{
				ledger.FungibleAsset(faucet, 5),
				ledger.NonFungibleAsset(faucet, [ledger.DigestLen]byte{2}),
			},
			Authenticated: true,
		},
		{ID: ledger.NoteID{2}},
	}
	out, err := MarshalNotes(NoteListOf(notes))
	require.NoError(t, err)

	want := `{"notes":[` +
		`{"note_id":"` + notes[0].ID.Hex() + `","assets":[{"faucet_id":"` + faucet.Hex() + `","amount":5}],"is_authenticated":true},` +
		`{"note_id":"` + notes[1].ID.Hex() + `","assets":[],"is_authenticated":false}` +
		`],"total_count":2}`
	assert.JSONEq(t, want, string(out))

	empty, err := MarshalNotes(NoteList{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":[],"total_count":0}`, string(empty))
}

func TestParseNoteIDs(t *testing.T) {
	a, b := ledger.NoteID{1}, ledger.NoteID{2}
	ids, err := ParseNoteIDs(`["` + a.Hex() + `", "` + strings.TrimPrefix(b.Hex(), "0x") + `"]`)
	require.NoError(t, err)
	assert.Equal(t, []ledger.NoteID{a, b}, ids)

	repeated := `["` + a.Hex() + `", "` + b.Hex() + `", "` + a.Hex() + `"]`
	for _, in := range []string{"", "[]", "not json", `{"a":1}`, `["0x12"]`, repeated} {
		_, err := ParseNoteIDs(in)
		assert.ErrorIs(t, err, ErrInvalidNoteIDs, "input %q", in)
	}
}

func TestParseAccountFilter(t *testing.T) {
	filter, err := ParseAccountFilter("")
	require.NoError(t, err)
	assert.Nil(t, filter)

	id := ledger.AccountID{7}
	filter, err = ParseAccountFilter(id.Hex())
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.Equal(t, id, *filter)

	_, err = ParseAccountFilter("not-hex")
	assert.ErrorIs(t, err, ErrInvalidAccountID)
}

func TestSeedFrom(t *testing.T) {
	a, err := SeedFrom(nil)
	require.NoError(t, err)
	b, err := SeedFrom(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	seed := make([]byte, ledger.SeedLen)
	seed[0] = 1
	got, err := SeedFrom(seed)
	require.NoError(t, err)
	assert.Equal(t, byte(1), got[0])

	_, err = SeedFrom([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestErrorMessageCarriesOp(t *testing.T) {
	err := opError(OpGetBalance, ErrInvalidAccountID)
	assert.Equal(t, "bridge.get_balance: bridge: invalid account id", err.Error())
	assert.Same(t, err, opError(OpGetBalance, err))
	assert.Nil(t, opError(OpSync, nil))
}
