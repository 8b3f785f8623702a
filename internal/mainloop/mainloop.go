// Package mainloop implements the invocation queue spec.md §9 calls for:
// "for the main-thread callback route, implement as message passing onto
// the main loop's invocation queue — never as shared locks with the data
// thread." A Stream's process callback without FlagRTProcess is posted to
// a Loop instead of running on the data thread. Node state-change requests
// do not go through a Loop; they use only this package's SeqTable.
package mainloop

import (
	"context"
	"sync"

	"github.com/graphkit/mediagraph/internal/logging"
)

// Loop is a single-goroutine work queue: Run must be called from exactly
// one goroutine (the "main thread"), and Call/CallSync post closures onto
// it from any other goroutine, including the data thread.
type Loop struct {
	invocations chan func()
	log         *logging.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Loop with the given invocation queue depth.
func New(depth int, log *logging.Logger) *Loop {
	if log == nil {
		log = logging.Default()
	}
	return &Loop{
		invocations: make(chan func(), depth),
		log:         log,
		done:        make(chan struct{}),
	}
}

// Run drains the invocation queue until ctx is done or Close is called.
// It must be called from the loop's single owning goroutine.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case fn := <-l.invocations:
			l.runOne(fn)
		case <-l.done:
			l.drain()
			return
		case <-ctx.Done():
			l.drain()
			return
		}
	}
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.invocations:
			l.runOne(fn)
		default:
			return
		}
	}
}

func (l *Loop) runOne(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("mainloop: invocation panicked: %v", r)
		}
	}()
	fn()
}

// Call enqueues fn to run on the loop's goroutine without waiting for it
// to complete. Returns false if the queue is full and fn was dropped.
func (l *Loop) Call(fn func()) bool {
	select {
	case l.invocations <- fn:
		return true
	default:
		l.log.Warnf("mainloop: invocation queue full, dropping call")
		return false
	}
}

// CallSync enqueues fn and blocks the calling goroutine until it has run
// (or ctx is done first). Never call this from the loop's own goroutine —
// it would deadlock.
func (l *Loop) CallSync(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	ok := l.Call(func() {
		defer close(done)
		fn()
	})
	if !ok {
		return context.DeadlineExceeded
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops Run once the current invocation (if any) finishes and drains
// any remaining queued work inline.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
