//go:build iouring_giouring

// Package iouring provides an optional io_uring-accelerated variant of the
// wakeup batching done by default with epoll (internal/wakeup.Set),
// submitting one POLL_ADD per registered eventfd and reaping completions
// in a single io_uring_enter call. Not part of the default build, opted
// into only by a build tag, since the production transport (epoll) is
// already sufficient and this path exists as an alternate backend.
package iouring

import (
	"fmt"

	"github.com/pawelgaczynski/giouring"
)

// Ring batches POLL_ADD watches for a set of wakeup eventfds.
type Ring struct {
	ring     *giouring.Ring
	fdByUser map[uint64]int32
}

// New creates a ring with room for entries in-flight polls.
func New(entries uint32) (*Ring, error) {
	ring, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, fmt.Errorf("iouring: create ring: %w", err)
	}
	return &Ring{ring: ring, fdByUser: make(map[uint64]int32)}, nil
}

// Close tears down the ring.
func (r *Ring) Close() {
	if r.ring != nil {
		r.ring.QueueExit()
	}
}

// Watch submits a POLL_ADD for fd, tagging the completion with userData (the
// caller's node id) so Reap can report which source fired.
func (r *Ring) Watch(fd int32, userData uint64) error {
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return fmt.Errorf("iouring: submission queue full")
	}
	sqe.PrepPollAdd(fd, giouring.POLLIN)
	sqe.UserData = userData
	r.fdByUser[userData] = fd
	if _, err := r.ring.Submit(); err != nil {
		return fmt.Errorf("iouring: submit: %w", err)
	}
	return nil
}

// Reap blocks for at least one completion and returns the node ids whose
// eventfd became readable.
func (r *Ring) Reap() ([]uint64, error) {
	cqe, err := r.ring.WaitCQE()
	if err != nil {
		return nil, fmt.Errorf("iouring: wait cqe: %w", err)
	}
	ids := []uint64{cqe.UserData}
	r.ring.CQESeen(cqe)

	for {
		cqe, err := r.ring.PeekCQE()
		if err != nil || cqe == nil {
			break
		}
		ids = append(ids, cqe.UserData)
		r.ring.CQESeen(cqe)
	}
	return ids, nil
}
