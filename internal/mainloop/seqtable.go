package mainloop

import "sync"

// SeqTable is the small map<seq, pending-op> described in spec.md §9
// "Async state machine": a monotone sequence counter plus a table of
// in-flight completions. Cancelling a transition removes the entry but
// the eventual completion call still runs (as a no-op, since the entry is
// gone) rather than being forcibly aborted — mirroring the original's
// "work queue cancels the previous pending one" semantics in §4.4.
type SeqTable struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]func(ok bool, err error)
}

// NewSeqTable creates an empty table.
func NewSeqTable() *SeqTable {
	return &SeqTable{pending: make(map[uint64]func(ok bool, err error))}
}

// Begin allocates a new sequence number for an async operation and
// registers its completion callback. Returns the seq to hand back to the
// caller as the Async(seq) pending result (§4.4).
func (t *SeqTable) Begin(onComplete func(ok bool, err error)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	seq := t.next
	t.pending[seq] = onComplete
	return seq
}

// Cancel removes seq from the table without invoking its callback. If a
// later op with the same target is queued, the caller typically begins a
// new seq immediately after cancelling the old one — exactly the "two
// transitions in flight -> cancel the previous pending one" rule in §4.4.
func (t *SeqTable) Cancel(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, seq)
}

// Complete looks up seq's callback, removes it from the table, and invokes
// it. If seq was already cancelled or completed, Complete is a no-op —
// this is what lets a stale completion "still run but no-op" per §9.
func (t *SeqTable) Complete(seq uint64, ok bool, err error) {
	t.mu.Lock()
	cb, found := t.pending[seq]
	if found {
		delete(t.pending, seq)
	}
	t.mu.Unlock()
	if found {
		cb(ok, err)
	}
}

// Pending reports how many operations are currently in flight.
func (t *SeqTable) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
