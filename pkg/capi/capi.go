package capi

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/walletcore/ledgerbridge-go/internal/config"
	"github.com/walletcore/ledgerbridge-go/pkg/bridge"
	"github.com/walletcore/ledgerbridge-go/pkg/logging"
)

// openClient overrides client construction for every bridge created
// afterwards. Nil selects the default client.
var openClient bridge.OpenFunc

var (
	logOnce sync.Once
	logMu   sync.RWMutex
	log     logging.Logger
)

// SetLogger replaces the logger used by bridges created afterwards.
func SetLogger(l logging.Logger) {
	logOnce.Do(func() {})
	logMu.Lock()
	log = l
	logMu.Unlock()
}

func logger(level string) logging.Logger {
	logOnce.Do(func() {
		l, _, err := logging.NewProduction(level)
		if err != nil {
			l = logging.Default()
			l.Warn(context.Background(), "falling back to default logger", "error", err)
		}
		logMu.Lock()
		log = l
		logMu.Unlock()
	})
	logMu.RLock()
	defer logMu.RUnlock()
	return log
}

// Create opens a bridge over the key store at keystorePath and the database
// at storePath. endpoint may be nil, in which case WALLETCORE_ENDPOINT or
// testnet is used. An unreadable or unrecognized endpoint selects testnet.
// On success *out receives a non-zero handle; on failure *out is zero.
func Create(keystorePath, storePath string, endpoint *string, out *Handle) (st Status) {
	if out == nil {
		return StatusInvalidParam
	}
	*out = 0
	if keystorePath == "" || storePath == "" || !utf8.ValidString(keystorePath) || !utf8.ValidString(storePath) {
		return StatusInvalidParam
	}
	defer recoverStatus(&st, StatusInitFailed)

	settings, err := config.FromEnv()
	if err != nil {
		logging.Default().Error(context.Background(), "invalid environment configuration", "error", err)
		return StatusInvalidParam
	}
	cfg := settings.BridgeConfig()
	cfg.KeystorePath = keystorePath
	cfg.StorePath = storePath
	cfg.Logger = logger(settings.LogLevel)
	if endpoint != nil {
		cfg.Endpoint = *endpoint
		if !utf8.ValidString(cfg.Endpoint) {
			cfg.Logger.Warn(context.Background(), "endpoint is not valid UTF-8, using testnet")
			cfg.Endpoint = "testnet"
		}
	}
	cfg.Open = openClient

	b, err := bridge.New(context.Background(), cfg)
	if err != nil {
		return StatusFromError(err)
	}
	*out = put(b)
	cfg.Logger.Info(context.Background(), "bridge created", "handle", uint64(*out), "endpoint", cfg.Endpoint)
	return StatusOK
}

// Destroy closes the bridge behind *h and zeroes *h. It waits for requests
// already queued to finish. A nil pointer, a zero handle or an already
// destroyed handle is a no-op. Destroy must not be called from a callback.
func Destroy(h *Handle) {
	if h == nil || *h == 0 {
		return
	}
	b, ok := take(*h)
	*h = 0
	if !ok {
		return
	}
	_ = b.Close()
}

func lookup(h Handle) (*bridge.Bridge, Status) {
	if h == 0 {
		return nil, StatusInvalidHandle
	}
	b, ok := get(h)
	if !ok {
		return nil, StatusInvalidHandle
	}
	return b, StatusOK
}

// recoverStatus turns a panic into status def.
func recoverStatus(st *Status, def Status) {
	if r := recover(); r != nil {
		logging.Default().Error(context.Background(), "panic at the C boundary", "panic", fmt.Sprint(r))
		*st = def
	}
}

// writeOut copies payload into out. When out is too small nothing is
// written and *outLen receives the required size.
func writeOut(payload, out []byte, outLen *int) Status {
	if len(payload) > len(out) {
		*outLen = len(payload)
		return StatusInvalidParam
	}
	copy(out, payload)
	*outLen = len(payload)
	return StatusOK
}
