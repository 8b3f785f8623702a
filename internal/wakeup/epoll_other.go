//go:build !linux

package wakeup

import (
	"context"
	"sync"
)

// Set is the portable fallback batched waiter: since chanSource exposes no
// fd, this simply fans a context-aware Wait out across every registered
// source with reflect-free select-of-two via goroutines, and reports
// only the first source to fire (one Ready entry per Wait). This never runs on the real-time data path in
// practice (Linux is the supported production target per spec.md §4.5);
// it exists so the scheduler package builds and tests on any platform.
type Set struct {
	mu      sync.Mutex
	sources map[uint64]Source
}

func NewSet() (*Set, error) {
	return &Set{sources: make(map[uint64]Source)}, nil
}

func (s *Set) Add(id uint64, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = src
	return nil
}

func (s *Set) Remove(src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.sources {
		if v == src {
			delete(s.sources, id)
		}
	}
	return nil
}

func (s *Set) Wait(ctx context.Context) ([]Ready, error) {
	s.mu.Lock()
	sources := make(map[uint64]Source, len(s.sources))
	for id, src := range s.sources {
		sources[id] = src
	}
	s.mu.Unlock()

	type result struct {
		id    uint64
		count uint64
		err   error
	}
	ch := make(chan result, len(sources))
	for id, src := range sources {
		go func(id uint64, src Source) {
			n, err := src.Wait(ctx)
			ch <- result{id: id, count: n, err: err}
		}(id, src)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return []Ready{{ID: r.id, Missed: r.count}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Set) Close() error { return nil }

var _ BatchSet = (*Set)(nil)
