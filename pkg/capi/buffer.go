package capi

import (
	"errors"
	"sync"
	"unsafe"
)

// ErrAlloc is returned when the allocator cannot provide a buffer.
var ErrAlloc = errors.New("capi: buffer allocation failed")

// Allocator provides the memory of buffers handed to foreign callers. Free
// receives the pointer and length that Alloc produced.
type Allocator interface {
	Alloc(n int) unsafe.Pointer
	Free(p unsafe.Pointer, n int)
}

// Buffer is a bridge-allocated byte region owned by the receiver once
// handed out.
type Buffer struct {
	Ptr unsafe.Pointer
	Len int
}

// Bytes views the buffer without copying.
func (b Buffer) Bytes() []byte {
	if b.Ptr == nil || b.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.Ptr), b.Len)
}

var (
	allocMu sync.RWMutex
	alloc   Allocator = NewGoAllocator()
)

// SetAllocator installs a as the process-wide allocator and returns the
// previous one.
func SetAllocator(a Allocator) Allocator {
	allocMu.Lock()
	defer allocMu.Unlock()
	prev := alloc
	alloc = a
	return prev
}

func allocator() Allocator {
	allocMu.RLock()
	defer allocMu.RUnlock()
	return alloc
}

// NewBuffer copies data into a freshly allocated Buffer.
func NewBuffer(data []byte) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, nil
	}
	p := allocator().Alloc(len(data))
	if p == nil {
		return Buffer{}, ErrAlloc
	}
	b := Buffer{Ptr: p, Len: len(data)}
	copy(b.Bytes(), data)
	return b, nil
}

// ReleaseBuffer returns a buffer obtained from a callback. A nil pointer is
// ignored. Releasing twice or with a different length is undefined.
func ReleaseBuffer(p unsafe.Pointer, n int) {
	if p == nil {
		return
	}
	allocator().Free(p, n)
}

// GoAllocator allocates from the Go heap and keeps every live buffer
// reachable until it is freed. It counts live allocations.
type GoAllocator struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]byte
}

// NewGoAllocator returns an empty GoAllocator.
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{live: make(map[unsafe.Pointer][]byte)}
}

func (a *GoAllocator) Alloc(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}
	b := make([]byte, n)
	p := unsafe.Pointer(&b[0])
	a.mu.Lock()
	a.live[p] = b
	a.mu.Unlock()
	return p
}

func (a *GoAllocator) Free(p unsafe.Pointer, _ int) {
	a.mu.Lock()
	delete(a.live, p)
	a.mu.Unlock()
}

// Live returns the number of allocations not yet freed.
func (a *GoAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}
