// Package bufring implements the per-port buffer-id SPSC rings described in
// spec.md §4.2: two bounded rings per port (dequeued/queued), each holding
// buffer ids with monotonically growing read/write indices.
//
// The indexing scheme (cached head/tail, acquire/release ordering, a
// power-of-two mask instead of a modulo) is grounded on the Lamport-ring
// technique in the pack's hayabusa-cloud-lfq/spsc.go; it is reimplemented
// here on top of plain sync/atomic rather than imported because the
// lfq module's own atomic primitives (code.hybscloud.com/atomix) are not a
// published, fetchable dependency — see DESIGN.md.
package bufring

import (
	"errors"
	"sync/atomic"
)

// ErrEmpty is returned by Pop when the ring has no entries (§4.2 "popping
// an empty ring -> EPIPE error signal").
var ErrEmpty = errors.New("bufring: empty")

// ErrAlreadyQueued is returned by Push when the id is already present in
// the ring (§4.2 "pushing a twice-queued buffer -> Invalid").
var ErrAlreadyQueued = errors.New("bufring: id already queued")

// ErrFull is returned by Push when the ring has reached capacity.
var ErrFull = errors.New("bufring: full")

// Ring is a single-producer/single-consumer bounded ring of buffer ids.
type Ring struct {
	head       atomic.Uint64 // consumer reads from here
	cachedTail uint64        // consumer's cached view of tail
	tail       atomic.Uint64 // producer writes here
	cachedHead uint64        // producer's cached view of head

	buffer []uint32
	mask   uint64

	present atomic.Uint64 // bitmask of ids currently in the ring (id < 64)

	incount  atomic.Uint64 // bytes pushed (§4.2 accounting)
	outcount atomic.Uint64 // bytes popped
}

// New creates a ring with the given capacity, rounded up to the next power
// of two. capacity must cover the port's buffer count (<=64, §3 Port).
func New(capacity int) *Ring {
	n := uint64(roundToPow2(capacity))
	return &Ring{
		buffer: make([]uint32, n),
		mask:   n - 1,
	}
}

func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the ring's capacity.
func (r *Ring) Cap() int { return int(r.mask + 1) }

// Push enqueues a buffer id, producer-only. size is the buffer's byte size,
// accumulated into incount for the Time.queued computation (§4.2).
func (r *Ring) Push(id uint32, size uint64) error {
	if id < 64 {
		bit := uint64(1) << id
		for {
			old := r.present.Load()
			if old&bit != 0 {
				return ErrAlreadyQueued
			}
			if r.present.CompareAndSwap(old, old|bit) {
				break
			}
		}
	}

	tail := r.tail.Load()
	if tail-r.cachedHead > r.mask {
		r.cachedHead = r.head.Load()
		if tail-r.cachedHead > r.mask {
			r.clearPresent(id)
			return ErrFull
		}
	}

	r.buffer[tail&r.mask] = id
	r.tail.Store(tail + 1)
	r.incount.Add(size)
	return nil
}

// PeekHead returns the id Pop would next return, without consuming it.
// Callers use this to look up a buffer's size before calling Pop, since
// Pop's size argument must be known before the id is.
func (r *Ring) PeekHead() (uint32, bool) {
	head := r.head.Load()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.Load()
		if head >= r.cachedTail {
			return 0, false
		}
	}
	return r.buffer[head&r.mask], true
}

// Pop dequeues the oldest buffer id, consumer-only.
func (r *Ring) Pop(size uint64) (uint32, error) {
	head := r.head.Load()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.Load()
		if head >= r.cachedTail {
			return 0, ErrEmpty
		}
	}

	id := r.buffer[head&r.mask]
	r.head.Store(head + 1)
	r.clearPresent(id)
	r.outcount.Add(size)
	return id, nil
}

func (r *Ring) clearPresent(id uint32) {
	if id >= 64 {
		return
	}
	bit := uint64(1) << id
	for {
		old := r.present.Load()
		if r.present.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// IsEmpty reports whether the ring currently has no entries.
func (r *Ring) IsEmpty() bool {
	return r.head.Load() >= r.tail.Load()
}

// Contains reports whether id is currently queued (id must be < 64).
func (r *Ring) Contains(id uint32) bool {
	if id >= 64 {
		return false
	}
	return r.present.Load()&(uint64(1)<<id) != 0
}

// Counts returns the cumulative pushed/popped byte counters (§4.2, used to
// compute the "queued" field of Time as incount-outcount).
func (r *Ring) Counts() (incount, outcount uint64) {
	return r.incount.Load(), r.outcount.Load()
}

// Queued returns incount-outcount, the number of bytes currently resident
// in the ring.
func (r *Ring) Queued() uint64 {
	return r.incount.Load() - r.outcount.Load()
}
