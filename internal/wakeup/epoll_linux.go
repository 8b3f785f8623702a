//go:build linux

package wakeup

import (
	"context"
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Set batches waits across many nodes' wakeup sources into a single
// epoll instance, mirroring the driver's "collect N completions with one
// syscall" optimization, adapted here to epoll_wait since eventfd is the
// default transport.
type Set struct {
	ep     int
	idByFd map[int32]uint64
}

// NewSet creates an empty batched waiter.
func NewSet() (*Set, error) {
	ep, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Set{ep: ep, idByFd: make(map[int32]uint64)}, nil
}

// Add registers src under id. src must expose a real FD (i.e. be created
// by the Linux eventfdSource backend).
func (s *Set) Add(id uint64, src Source) error {
	fd := src.FD()
	if fd < 0 {
		return nil // non-fd sources (fallback transport) can't be batched
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(s.ep, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	s.idByFd[int32(fd)] = id
	return nil
}

// Remove deregisters the source previously added for fd.
func (s *Set) Remove(src Source) error {
	fd := src.FD()
	if fd < 0 {
		return nil
	}
	delete(s.idByFd, int32(fd))
	return unix.EpollCtl(s.ep, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks until at least one registered source is readable (or ctx is
// done), draining each ready source's counter and returning the set of
// (id, missedCount) pairs in readiness order.
func (s *Set) Wait(ctx context.Context) ([]Ready, error) {
	timeoutMs := -1
	if dl, ok := ctx.Deadline(); ok {
		timeoutMs = durationUntilMs(dl)
		if timeoutMs < 0 {
			timeoutMs = 0
		}
	}

	events := make([]unix.EpollEvent, len(s.idByFd))
	if len(events) == 0 {
		events = make([]unix.EpollEvent, 1)
	}

	n, err := unix.EpollWait(s.ep, events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return nil, nil
		}
	}

	out := make([]Ready, 0, n)
	for i := 0; i < n; i++ {
		fd := events[i].Fd
		id, ok := s.idByFd[fd]
		if !ok {
			continue
		}
		var buf [8]byte
		if _, err := unix.Read(int(fd), buf[:]); err != nil {
			continue
		}
		out = append(out, Ready{ID: id, Missed: binary.LittleEndian.Uint64(buf[:])})
	}
	return out, nil
}

func (s *Set) Close() error {
	return unix.Close(s.ep)
}

var _ BatchSet = (*Set)(nil)
