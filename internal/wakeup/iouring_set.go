package wakeup

import (
	"context"

	"github.com/graphkit/mediagraph/internal/iouring"
)

// BatchSet batches waits across many wakeup sources into as few syscalls
// as possible. Set (epoll-backed) and IOURingSet both implement it.
type BatchSet interface {
	Add(id uint64, src Source) error
	Remove(src Source) error
	Wait(ctx context.Context) ([]Ready, error)
	Close() error
}

// IOURingSet is an io_uring-accelerated BatchSet: it submits one POLL_ADD
// per registered eventfd and reaps completions from a single ring instead
// of calling epoll_wait. Built without the iouring_giouring tag, the
// underlying internal/iouring.Ring is a stub and NewIOURingSet fails with
// iouring.ErrNotEnabled, so callers fall back to NewSet (see NewBestSet).
type IOURingSet struct {
	ring   *iouring.Ring
	fdByID map[uint64]int32
}

// NewIOURingSet creates an IOURingSet with room for entries in-flight
// polls.
func NewIOURingSet(entries uint32) (*IOURingSet, error) {
	ring, err := iouring.New(entries)
	if err != nil {
		return nil, err
	}
	return &IOURingSet{ring: ring, fdByID: make(map[uint64]int32)}, nil
}

// NewBestSet creates an IOURingSet if the binary was built with the
// iouring_giouring tag and the kernel supports it, falling back to the
// portable epoll/channel Set otherwise.
func NewBestSet(entries uint32) (BatchSet, error) {
	if s, err := NewIOURingSet(entries); err == nil {
		return s, nil
	}
	return NewSet()
}

// Add registers src under id, submitting its first POLL_ADD watch.
func (s *IOURingSet) Add(id uint64, src Source) error {
	fd := src.FD()
	if fd < 0 {
		return nil // non-fd sources (fallback transport) can't be batched
	}
	s.fdByID[id] = int32(fd)
	return s.ring.Watch(int32(fd), id)
}

// Remove deregisters the source previously added for id. The ring itself
// has no explicit cancel-watch op; the stale completion (if any) is simply
// not re-armed once reaped.
func (s *IOURingSet) Remove(src Source) error {
	fd := src.FD()
	if fd < 0 {
		return nil
	}
	for id, f := range s.fdByID {
		if f == int32(fd) {
			delete(s.fdByID, id)
		}
	}
	return nil
}

// Wait blocks for at least one completion and returns the ids whose
// eventfd fired, re-arming each one's POLL_ADD watch (which io_uring
// consumes on completion) before returning.
func (s *IOURingSet) Wait(ctx context.Context) ([]Ready, error) {
	ids, err := s.ring.Reap()
	if err != nil {
		return nil, err
	}
	out := make([]Ready, 0, len(ids))
	for _, id := range ids {
		out = append(out, Ready{ID: id})
		if fd, ok := s.fdByID[id]; ok {
			_ = s.ring.Watch(fd, id)
		}
	}
	return out, nil
}

func (s *IOURingSet) Close() error {
	s.ring.Close()
	return nil
}

var _ BatchSet = (*IOURingSet)(nil)
