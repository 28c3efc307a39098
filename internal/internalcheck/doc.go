// Package internalcheck holds source policy tests for the module.
//
// The tests load packages with golang.org/x/tools/go/packages and inspect
// their syntax:
//
//   - secret-handling packages never format values with %x,
//   - secret-handling packages never compare byte arrays or slices with ==,
//   - only cmd/libwalletcore imports "C".
//
// The package has no exported API.
package internalcheck
