package capi

import (
	"sync"

	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
)

// Handle is the opaque token a foreign caller holds for a bridge. Zero is
// never issued.
type Handle uintptr

var (
	mu   sync.Mutex
	next Handle = 1
	reg         = map[Handle]*bridge.Bridge{}
)

func put(b *bridge.Bridge) Handle {
	mu.Lock()
	h := next
	next++
	reg[h] = b
	mu.Unlock()
	return h
}

func get(h Handle) (*bridge.Bridge, bool) {
	mu.Lock()
	b, ok := reg[h]
	mu.Unlock()
	return b, ok
}

// take removes h and returns its bridge. Only one of several concurrent
// callers gets the bridge.
func take(h Handle) (*bridge.Bridge, bool) {
	mu.Lock()
	b, ok := reg[h]
	delete(reg, h)
	mu.Unlock()
	return b, ok
}

// Live returns the number of handles not yet destroyed.
func Live() int {
	mu.Lock()
	defer mu.Unlock()
	return len(reg)
}
