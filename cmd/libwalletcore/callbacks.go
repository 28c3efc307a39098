//go:build cgo

package main

/*
#include "walletcore.h"
*/
import "C"

import (
	"unsafe"

	"github.com/walletcore/ledgerbridge-go/pkg/capi"
)

func syncCallback(cb C.wc_sync_cb) capi.SyncCallback {
	return func(userData unsafe.Pointer, st capi.Status, blockNum uint32) {
		C.wc_invoke_sync_cb(cb, userData, C.int32_t(st), C.uint32_t(blockNum))
	}
}

func statusCallback(cb C.wc_status_cb) capi.StatusCallback {
	return func(userData unsafe.Pointer, st capi.Status) {
		C.wc_invoke_status_cb(cb, userData, C.int32_t(st))
	}
}

func dataCallback(cb C.wc_data_cb) capi.DataCallback {
	return func(userData unsafe.Pointer, st capi.Status, buf capi.Buffer) {
		C.wc_invoke_data_cb(cb, userData, C.int32_t(st), (*C.uint8_t)(buf.Ptr), C.size_t(buf.Len))
	}
}
