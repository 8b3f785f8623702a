package mediagraph

import (
	"testing"

	"github.com/graphkit/mediagraph/internal/wire"
)

func newTestBuffer(id uint32, size uint32) *Buffer {
	return NewBuffer(id, []Data{{
		Type:  wire.DataMemAnon,
		Ptr:   make([]byte, size),
		Chunk: wire.Chunk{Size: size},
	}})
}

func TestBufferSizeSumsPlaneChunks(t *testing.T) {
	b := NewBuffer(1, []Data{
		{Chunk: wire.Chunk{Size: 100}},
		{Chunk: wire.Chunk{Size: 200}},
	})
	if got := b.Size(); got != 300 {
		t.Fatalf("Size() = %d, want 300", got)
	}
}

func TestBufferBusyCounterTracksDequeueQueueBack(t *testing.T) {
	b := newTestBuffer(1, 64)
	if b.Busy() != 0 {
		t.Fatalf("new buffer should start with busy=0")
	}
	b.MarkDequeued()
	if b.Busy() != 1 {
		t.Fatalf("busy = %d after dequeue, want 1", b.Busy())
	}
	b.MarkQueuedBack()
	if b.Busy() != 0 {
		t.Fatalf("busy = %d after queue-back, want 0", b.Busy())
	}
}

func TestBufferIsQueuedFlag(t *testing.T) {
	b := newTestBuffer(1, 64)
	if b.IsQueued() {
		t.Fatalf("new buffer should not be queued")
	}
	b.setQueued(true)
	if !b.IsQueued() {
		t.Fatalf("expected IsQueued true after setQueued(true)")
	}
	b.setQueued(false)
	if b.IsQueued() {
		t.Fatalf("expected IsQueued false after setQueued(false)")
	}
}
