package mediagraph

import (
	"sync/atomic"

	"github.com/graphkit/mediagraph/internal/bufpool"
	"github.com/graphkit/mediagraph/internal/constants"
	"github.com/graphkit/mediagraph/internal/wire"
)

// BufferFlags are the per-Buffer state bits (spec.md §3 "Buffer").
type BufferFlags uint32

const (
	// BufferMapped is set once every mappable plane has been mmap'd.
	BufferMapped BufferFlags = 1 << iota
	// BufferQueued is asserted exactly while the buffer id sits inside one
	// of the port's two ring queues.
	BufferQueued
	// BufferAdded marks a buffer as emitted to the user (use_buffers done).
	BufferAdded
)

// Chunk describes the valid region of a Data plane (spec.md §3 Data plane).
type Chunk = wire.Chunk

// Data is one memory plane of a Buffer.
type Data struct {
	Type      wire.DataType
	FD        int
	MapOffset uint64
	MaxSize   uint32
	Ptr       []byte // mapped (or user-supplied) memory, nil until mapped
	Readable  bool
	Writable  bool
	Dynamic   bool
	Mappable  bool
	Chunk     Chunk
}

// Buffer owns the plane array backing one buffer id in a Port (spec.md §3
// "Buffer"). busy tracks the dequeue-by-consumer / queue-back lifecycle
// described there ("busy-metadata counter increments on dequeue-by-consumer
// and decrements on queue-back").
type Buffer struct {
	ID    uint32
	Flags BufferFlags
	Data  []Data
	busy  atomic.Int32
}

// NewBuffer creates an (unmapped) Buffer with the given id and planes.
func NewBuffer(id uint32, planes []Data) *Buffer {
	return &Buffer{ID: id, Data: planes}
}

// IsQueued reports whether BufferQueued is set.
func (b *Buffer) IsQueued() bool { return b.Flags&BufferQueued != 0 }

func (b *Buffer) setQueued(v bool) {
	if v {
		b.Flags |= BufferQueued
	} else {
		b.Flags &^= BufferQueued
	}
}

// MarkDequeued increments the busy counter (consumer now holds the buffer).
func (b *Buffer) MarkDequeued() int32 { return b.busy.Add(1) }

// MarkQueuedBack decrements the busy counter (buffer returned to the graph).
func (b *Buffer) MarkQueuedBack() int32 { return b.busy.Add(-1) }

// Busy returns the current busy-metadata counter value.
func (b *Buffer) Busy() int32 { return b.busy.Load() }

// Size returns the sum of every plane's chunk size, used to drive the
// ring's incount/outcount byte accounting (spec.md §4.2).
func (b *Buffer) Size() uint64 {
	var total uint64
	for _, d := range b.Data {
		total += uint64(d.Chunk.Size)
	}
	return total
}

// NewDataPlane allocates one MemPtr-backed plane of size bytes. Planes at or
// under internal/constants.InlineBufferSize get a plain make([]byte, ...);
// anything larger is served from internal/bufpool so quanta resizes and
// format renegotiations don't add to the data thread's allocation traffic.
func NewDataPlane(dataType wire.DataType, size uint32) Data {
	var ptr []byte
	if size <= constants.InlineBufferSize {
		ptr = make([]byte, size)
	} else {
		ptr = bufpool.Get(size)
	}
	return Data{
		Type:     dataType,
		MaxSize:  size,
		Ptr:      ptr,
		Readable: true,
		Writable: true,
		Chunk:    Chunk{Size: size},
	}
}

// ReleaseDataPlane returns an overflow-sized plane's memory to the pool. It
// is a no-op for inline-sized planes, which were never pool-allocated.
func ReleaseDataPlane(d Data) {
	if uint32(cap(d.Ptr)) > constants.InlineBufferSize {
		bufpool.Put(d.Ptr)
	}
}
