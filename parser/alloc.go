package parser

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAllocLimit is returned by a LimitAllocator that would exceed its budget.
var ErrAllocLimit = errors.New("allocation limit exceeded")

// Allocator produces the strings stored in a decoded API and takes them back
// when the API, or a partial decode, is released.
type Allocator interface {
	Alloc(b []byte) (string, error)
	Free(s string)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(b []byte) (string, error) { return string(b), nil }
func (heapAllocator) Free(string)                    {}

// HeapAllocator copies tokens onto the Go heap. Free is a no-op.
func HeapAllocator() Allocator {
	return heapAllocator{}
}

// LimitAllocator caps the number of string bytes outstanding at once.
type LimitAllocator struct {
	mu    sync.Mutex
	limit uint64
	inUse uint64
}

func NewLimitAllocator(limit uint64) *LimitAllocator {
	return &LimitAllocator{limit: limit}
}

func (a *LimitAllocator) Alloc(b []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := uint64(len(b))
	if a.inUse+n > a.limit {
		return "", fmt.Errorf("%w: %d bytes in use, %d requested, limit %d", ErrAllocLimit, a.inUse, n, a.limit)
	}
	a.inUse += n
	return string(b), nil
}

func (a *LimitAllocator) Free(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := uint64(len(s))
	if n > a.inUse {
		n = a.inUse
	}
	a.inUse -= n
}

// InUse reports the bytes currently allocated and not yet freed.
func (a *LimitAllocator) InUse() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}
