package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultTimeout bounds every node call.
const DefaultTimeout = 10 * time.Second

// Client is a node RPC client.
type Client struct {
	cc      grpc.ClientConnInterface
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Dial creates a client for ep. The connection is established lazily on the
// first call, so Dial succeeds while the node is unreachable.
func Dial(ep Endpoint, timeout time.Duration, dialOpts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if ep.Secure() {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	allOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, dialOpts...)

	conn, err := grpc.NewClient(ep.Address(), allOpts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: create client for %s: %w", ep, err)
	}
	c := NewClient(conn, timeout)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. The caller keeps ownership of cc.
func NewClient(cc grpc.ClientConnInterface, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{cc: cc, timeout: timeout}
}

// SyncState fetches chain updates since req.BlockNum.
func (c *Client) SyncState(ctx context.Context, req *SyncStateRequest) (*SyncStateResponse, error) {
	out := new(SyncStateResponse)
	if err := c.invoke(ctx, syncStateMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitTransaction submits a signed transaction.
func (c *Client) SubmitTransaction(ctx context.Context, req *SubmitTransactionRequest) (*SubmitTransactionResponse, error) {
	out := new(SubmitTransactionResponse)
	if err := c.invoke(ctx, submitTransactionMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the connection if the client created it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.cc.Invoke(ctx, method, req, out, grpc.CallContentSubtype(codecName))
}
