//go:build cgo

package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/walletcore/ledgerbridge-go/pkg/capi"
)

// cAllocator hands out C heap memory so foreign callers may keep buffers
// past the callback.
type cAllocator struct{}

func (cAllocator) Alloc(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}
	return C.malloc(C.size_t(n))
}

func (cAllocator) Free(p unsafe.Pointer, _ int) {
	C.free(p)
}

func init() {
	capi.SetAllocator(cAllocator{})
}
