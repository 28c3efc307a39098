package rpc

import (
	"net"
	"strconv"
	"strings"
)

// Endpoint is the address of a node RPC server.
type Endpoint struct {
	Protocol string
	Host     string
	Port     uint16
}

const (
	// DefaultLocalPort is the port MemNode listens on under the localhost alias.
	DefaultLocalPort = 57291

	aliasTestnet   = "testnet"
	aliasDevnet    = "devnet"
	aliasLocalhost = "localhost"
)

// Testnet is the public test network.
func Testnet() Endpoint {
	return Endpoint{Protocol: "https", Host: "rpc.testnet.walletcore.network", Port: 443}
}

// Devnet is the public development network.
func Devnet() Endpoint {
	return Endpoint{Protocol: "https", Host: "rpc.devnet.walletcore.network", Port: 443}
}

// Localhost is a node running on this machine.
func Localhost() Endpoint {
	return Endpoint{Protocol: "http", Host: "localhost", Port: DefaultLocalPort}
}

// ResolveEndpoint maps a user supplied endpoint string to an Endpoint. Empty
// input and the "testnet" alias select Testnet; "devnet" and "localhost" are
// also recognized. Any other value currently resolves to Testnet as well and
// known reports false so callers can warn about it.
func ResolveEndpoint(s string) (ep Endpoint, known bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", aliasTestnet:
		return Testnet(), true
	case aliasDevnet:
		return Devnet(), true
	case aliasLocalhost:
		return Localhost(), true
	default:
		return Testnet(), false
	}
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// Secure reports whether the endpoint requires TLS.
func (e Endpoint) Secure() bool {
	return e.Protocol == "https"
}

func (e Endpoint) String() string {
	return e.Protocol + "://" + e.Address()
}
