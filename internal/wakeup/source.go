// Package wakeup implements the per-node wakeup transport: an eventfd per
// node, carrying a u64 counter of missed wakeups. Wait reads and returns
// that counter; a value above 1 means wakeups were coalesced, and this
// package logs nothing about it. The default transport
// is a real Linux eventfd plus epoll batching, split by build tag between
// a real backend and a portable fallback; an optional io_uring-accelerated
// variant lives in internal/iouring behind a separate build tag.
package wakeup

import "context"

// Source is one node's wakeup channel: the scheduler writes to it to
// trigger the node, and the node's own goroutine blocks in Wait until
// woken (or until ctx is done).
type Source interface {
	// Signal writes 1 to the underlying counter, waking any waiter. Called
	// from the scheduler thread when a target's pending count reaches zero
	// (§4.5 node cycle step 7).
	Signal() error

	// Wait blocks until the source is signaled at least once (or ctx is
	// done), returning the accumulated counter value since the last Wait.
	// A value > 1 means one or more wakeups were coalesced/missed, which
	// the caller should log per §4.5.
	Wait(ctx context.Context) (count uint64, err error)

	// FD returns the underlying descriptor for batched multi-source waits
	// (see epoll_linux.go). Returns -1 if the source doesn't expose one.
	FD() int

	Close() error
}

// New creates the platform default Source (an eventfd on Linux, an
// in-process channel elsewhere).
func New() (Source, error) {
	return newSource()
}

// Ready is one fired source returned from a Set's batched Wait.
type Ready struct {
	ID     uint64
	Missed uint64
}
