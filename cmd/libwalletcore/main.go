// Command libwalletcore builds the walletcore C library:
//
//	go build -buildmode=c-shared -o libwalletcore.so ./cmd/libwalletcore
//
// The exported functions are declared in walletcore.h. Without cgo the
// package builds to an empty program.
package main

func main() {}
