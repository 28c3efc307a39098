// Package ledger defines the domain model shared by the wallet bridge and the
// ledger client implementation: identifiers, assets, accounts, input notes and
// the ClientLibrary contract.
//
// # Threading
//
// A ClientLibrary is NOT safe for concurrent use. Exactly one goroutine may
// call into it at a time; pkg/bridge enforces this by confining every client
// to a single worker goroutine.
package ledger
