package bridge

import (
	"encoding/json"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
)

// FungibleAmount is one fungible asset in a JSON payload.
type FungibleAmount struct {
	FaucetID string `json:"faucet_id"`
	Amount   uint64 `json:"amount"`
}

// Balance is the vault summary returned by get-balance.
type Balance struct {
	AccountID             string           `json:"account_id"`
	FungibleAssets        []FungibleAmount `json:"fungible_assets"`
	TotalFungibleCount    int              `json:"total_fungible_count"`
	TotalNonFungibleCount int              `json:"total_non_fungible_count"`
}

// NoteSummary is one note returned by get-input-notes.
type NoteSummary struct {
	NoteID          string           `json:"note_id"`
	Assets          []FungibleAmount `json:"assets"`
	IsAuthenticated bool             `json:"is_authenticated"`
}

// NoteList is the payload of get-input-notes.
type NoteList struct {
	Notes      []NoteSummary `json:"notes"`
	TotalCount int           `json:"total_count"`
}

// BalanceOf summarizes the vault of acct.
func BalanceOf(acct ledger.Account) Balance {
	b := Balance{
		AccountID:      acct.ID.Hex(),
		FungibleAssets: make([]FungibleAmount, 0, len(acct.Assets)),
	}
	for _, a := range acct.Assets {
		if a.IsFungible() {
			b.FungibleAssets = append(b.FungibleAssets, FungibleAmount{FaucetID: a.Faucet.Hex(), Amount: a.Amount})
			b.TotalFungibleCount++
		} else {
			b.TotalNonFungibleCount++
		}
	}
	return b
}

// NoteListOf summarizes notes. Only fungible assets are listed per note.
func NoteListOf(notes []ledger.InputNote) NoteList {
	l := NoteList{Notes: make([]NoteSummary, 0, len(notes)), TotalCount: len(notes)}
	for _, n := range notes {
		s := NoteSummary{
			NoteID:          n.ID.Hex(),
			Assets:          make([]FungibleAmount, 0, len(n.Assets)),
			IsAuthenticated: n.Authenticated,
		}
		for _, a := range n.Assets {
			if a.IsFungible() {
				s.Assets = append(s.Assets, FungibleAmount{FaucetID: a.Faucet.Hex(), Amount: a.Amount})
			}
		}
		l.Notes = append(l.Notes, s)
	}
	return l
}

// MarshalAccounts renders account ids as a JSON array of hex strings.
func MarshalAccounts(ids []ledger.AccountID) ([]byte, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return json.Marshal(out)
}

// MarshalBalance renders b as JSON.
func MarshalBalance(b Balance) ([]byte, error) {
	if b.FungibleAssets == nil {
		b.FungibleAssets = []FungibleAmount{}
	}
	return json.Marshal(b)
}

// MarshalNotes renders l as JSON.
func MarshalNotes(l NoteList) ([]byte, error) {
	if l.Notes == nil {
		l.Notes = []NoteSummary{}
	}
	for i := range l.Notes {
		if l.Notes[i].Assets == nil {
			l.Notes[i].Assets = []FungibleAmount{}
		}
	}
	return json.Marshal(l)
}
