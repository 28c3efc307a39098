// Package rpc is the node transport of the ledger client.
//
// The node API is a small gRPC service (SyncState, SubmitTransaction) carried
// with a JSON codec, so no generated protobuf code is needed. Client dials an
// Endpoint lazily; MemNode is an in-memory node implementation used by tests
// and by `walletctl node` for local development.
package rpc
