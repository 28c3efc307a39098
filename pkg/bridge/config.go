package bridge

import (
	"context"
	"time"

	"github.com/walletcore/ledgerbridge-go/pkg/ledger"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/client"
	"github.com/walletcore/ledgerbridge-go/pkg/ledger/rpc"
	"github.com/walletcore/ledgerbridge-go/pkg/logging"
)

const (
	// DefaultQueueCapacity bounds queued plus executing requests.
	DefaultQueueCapacity = 256

	// DefaultCallTimeout bounds how long blocking methods wait.
	DefaultCallTimeout = 30 * time.Second
)

// OpenFunc constructs the client library. It runs on the worker goroutine.
type OpenFunc func(ctx context.Context) (ledger.ClientLibrary, error)

// Config expresses the knobs of a Bridge.
type Config struct {
	// KeystorePath is the key store directory of the default client.
	KeystorePath string

	// StorePath is the SQLite database of the default client.
	StorePath string

	// Endpoint selects the node: "", "testnet", "devnet" or "localhost".
	// Unrecognized values fall back to testnet with a warning.
	Endpoint string

	// RPCTimeout bounds each node call of the default client.
	RPCTimeout time.Duration

	// QueueCapacity bounds queued plus executing requests. Zero selects
	// DefaultQueueCapacity.
	QueueCapacity int

	// CallTimeout bounds blocking waits when the caller's context carries no
	// deadline. Zero selects DefaultCallTimeout.
	CallTimeout time.Duration

	// Logger receives bridge logs. Nil selects logging.Default().
	Logger logging.Logger

	// Open overrides client construction, mainly for tests. When nil the
	// default client is opened from the paths and endpoint above.
	Open OpenFunc
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.RPCTimeout <= 0 {
		c.RPCTimeout = rpc.DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	return c
}

func (c Config) validate() error {
	if c.Open != nil {
		return nil
	}
	if c.KeystorePath == "" || c.StorePath == "" {
		return ErrInvalidParameter
	}
	return nil
}

func (c Config) openFunc() OpenFunc {
	if c.Open != nil {
		return c.Open
	}
	return func(ctx context.Context) (ledger.ClientLibrary, error) {
		ep, known := rpc.ResolveEndpoint(c.Endpoint)
		if !known {
			c.Logger.Warn(ctx, "unrecognized endpoint, using testnet", "endpoint", c.Endpoint)
		}
		cl, err := client.Open(ctx, client.Options{
			KeystorePath: c.KeystorePath,
			StorePath:    c.StorePath,
			Endpoint:     ep,
			RPCTimeout:   c.RPCTimeout,
			Logger:       c.Logger,
		})
		if err != nil {
			return nil, err
		}
		return cl, nil
	}
}
