// Package endpoint hands out unique transport identifiers — conceptually TCP
// ports — from a configured, finite pool. It is the pipeline's one piece of
// process-wide mutable state, and it is only written during planning, before
// any wiring task starts (§5), so no lock is required once the runtime phase begins.
package endpoint

import (
	"fmt"
	"sync"
)

// DefaultLow and DefaultHigh bound the default pool, [9100, 9200).
const (
	DefaultLow  = 9100
	DefaultHigh = 9200
)

// ErrExhausted is returned once the pool has handed out every endpoint it holds.
var ErrExhausted = fmt.Errorf("endpoint pool exhausted")

// Allocator hands out endpoints from a finite range. Acquire never returns
// the same value twice and endpoints are never released within a single
// pipeline's lifetime.
type Allocator struct {
	mu   sync.Mutex
	low  int
	next int
	high int
}

// New creates an allocator over the half-open range [low, high).
func New(low, high int) *Allocator {
	return &Allocator{low: low, next: low, high: high}
}

// NewDefault creates an allocator over the default range [9100, 9200).
func NewDefault() *Allocator {
	return New(DefaultLow, DefaultHigh)
}

// Acquire returns the next unused endpoint id, or ErrExhausted once the pool
// is drained.
func (a *Allocator) Acquire() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next >= a.high {
		return 0, ErrExhausted
	}
	id := a.next
	a.next++
	return id, nil
}

// Count reports how many endpoints have been handed out so far.
func (a *Allocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next - a.low
}

// AcquireN acquires count endpoints in one call, failing (and acquiring
// nothing) if the pool cannot satisfy the whole request.
func (a *Allocator) AcquireN(count int) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.next+count > a.high {
		return nil, ErrExhausted
	}
	ids := make([]int, count)
	for i := range ids {
		ids[i] = a.next
		a.next++
	}
	return ids, nil
}
