package mediagraph

import (
	"fmt"

	"github.com/graphkit/mediagraph/internal/bufring"
	"github.com/graphkit/mediagraph/internal/errcode"
	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/paramstore"
	"github.com/graphkit/mediagraph/internal/wire"
)

// Direction re-exports internal/wire.Direction for the public API.
type Direction = wire.Direction

const (
	DirectionInput  = wire.DirectionInput
	DirectionOutput = wire.DirectionOutput
)

// PortFlags mirror the node/port capability bits the original tracks
// alongside direction (e.g. whether mapped buffers should accept MemPtr in
// addition to MemFd, spec.md §4.1 "map-buffers flag").
type PortFlags uint32

const (
	PortFlagMapBuffers PortFlags = 1 << iota
)

// Port is a directional endpoint attached to a Node (spec.md §3 "Port").
type Port struct {
	ID        PortID
	Node      NodeID
	Direction Direction
	Flags     PortFlags

	Params *paramstore.Store

	buffers  []*Buffer
	dequeued *bufring.Ring // available to the user
	queued   *bufring.Ring // available to the graph

	io *wire.IoBuffers

	Latency [2]LatencyInfo

	log *logging.Logger
}

// NewPort creates an empty port. ringCapacity bounds the two queues
// (rounded to a power of two internally); it must cover the eventual
// buffer count (<=MaxBuffers, spec.md §3 "buffers.len <= MAX_BUFFERS(64)").
func NewPort(id PortID, node NodeID, dir Direction, ringCapacity int) *Port {
	return &Port{
		ID:        id,
		Node:      node,
		Direction: dir,
		Params:    paramstore.New(),
		dequeued:  bufring.New(ringCapacity),
		queued:    bufring.New(ringCapacity),
		log:       logging.Default(),
	}
}

// SetParam implements spec.md §4.3 "set_param(id, flags, param)": on
// Format with param=None, clear buffers and reset to Configure (handled by
// the caller's Node state machine — Port only clears its own buffer/format
// state here); on Latency, merge into latency[side]; otherwise store the
// param.
func (p *Port) SetParam(id wire.ParamID, flags wire.ParamFlags, param *paramstore.Object) error {
	if id == wire.ParamFormat && param == nil {
		p.ClearBuffers()
		p.Params.Clear(wire.ParamFormat)
		return nil
	}
	if id == wire.ParamLatency {
		if param == nil {
			return errcode.New("Port.SetParam", errcode.Invalid, "Latency param must not be nil")
		}
		info, err := latencyFromObject(*param)
		if err != nil {
			return err
		}
		p.Latency[p.Direction].Merge(info)
		return nil
	}
	if param == nil {
		p.Params.Clear(id)
		return nil
	}
	_, err := p.Params.Add(id, flags, *param)
	return err
}

// UseBuffers installs up to MaxBuffers buffers, per spec.md §4.3: for
// output direction, every buffer starts in the dequeued queue (available
// to the user immediately); for input, buffers start empty and arrive via
// io.buffer_id during scheduling.
func (p *Port) UseBuffers(buffers []*Buffer) error {
	if len(buffers) > MaxBuffers {
		return errcode.New("Port.UseBuffers", errcode.Invalid, fmt.Sprintf("%d buffers exceeds MaxBuffers(%d)", len(buffers), MaxBuffers))
	}
	p.ClearBuffers()
	for _, b := range buffers {
		if err := p.mapPlanes(b); err != nil {
			return err
		}
		b.Flags |= BufferAdded
	}
	p.buffers = buffers

	if p.Direction == DirectionOutput {
		for _, b := range p.buffers {
			if err := p.dequeued.Push(b.ID, b.Size()); err != nil {
				return errcode.Wrap("Port.UseBuffers", errcode.Invalid, err)
			}
			b.setQueued(true)
		}
	}
	return nil
}

// ClearBuffers unmaps every mapped plane and drops the buffer array,
// resetting both queues (spec.md §4.3 "on clear_buffers, munmap every
// mapped plane").
func (p *Port) ClearBuffers() {
	for _, b := range p.buffers {
		p.unmapPlanes(b)
	}
	p.buffers = nil
	capacity := p.dequeued.Cap()
	p.dequeued = bufring.New(capacity)
	p.queued = bufring.New(capacity)
}

// SetIO installs the shared io-buffers slot used to hand buffers between
// node and driver (spec.md §4.3 "set_io(id, data, size)").
func (p *Port) SetIO(io *wire.IoBuffers) {
	p.io = io
}

// IO returns the currently installed io-buffers slot, or nil.
func (p *Port) IO() *wire.IoBuffers { return p.io }

// Buffer looks up a buffer by its id.
func (p *Port) Buffer(id uint32) (*Buffer, bool) {
	for _, b := range p.buffers {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Buffers returns the port's current buffer array.
func (p *Port) Buffers() []*Buffer { return p.buffers }

// DequeueBuffer pops the next available buffer id from the dequeued queue
// (the user-facing side) and marks it busy.
func (p *Port) DequeueBuffer() (uint32, error) {
	id, err := p.dequeued.Pop(p.peekSize(p.dequeued))
	if err != nil {
		return 0, errcode.Wrap("Port.DequeueBuffer", errcode.Pipe, err)
	}
	if buf, ok := p.Buffer(id); ok {
		buf.setQueued(false)
		buf.MarkDequeued()
	}
	return id, nil
}

// peekSize looks up the byte size of the buffer that ring.Pop is about to
// return, so the outcount accounting in Ring.Queued (spec.md §4.2
// "outcount += buffer.size on pop") reflects the actual popped buffer
// instead of a constant 0.
func (p *Port) peekSize(ring *bufring.Ring) uint64 {
	id, ok := ring.PeekHead()
	if !ok {
		return 0
	}
	buf, ok := p.Buffer(id)
	if !ok {
		return 0
	}
	return buf.Size()
}

// QueueBuffer returns a buffer to the graph side (the queued ring),
// failing with Invalid if it is already queued (spec.md §4.2).
func (p *Port) QueueBuffer(id uint32) error {
	buf, ok := p.Buffer(id)
	if !ok {
		return errcode.New("Port.QueueBuffer", errcode.Invalid, "unknown buffer id")
	}
	if err := p.queued.Push(id, buf.Size()); err != nil {
		return errcode.Wrap("Port.QueueBuffer", errcode.Invalid, err)
	}
	buf.setQueued(true)
	buf.MarkQueuedBack()
	return nil
}

// PopQueued pops the next buffer id the graph has made available
// (consumed by the node's own Process implementation).
func (p *Port) PopQueued() (uint32, error) {
	id, err := p.queued.Pop(p.peekSize(p.queued))
	if err != nil {
		return 0, errcode.Wrap("Port.PopQueued", errcode.Pipe, err)
	}
	if buf, ok := p.Buffer(id); ok {
		buf.setQueued(false)
	}
	return id, nil
}

// QueuedBytes returns the queued ring's incount-outcount accounting, used
// to compute the queued-bytes field of Time (spec.md §4.2).
func (p *Port) QueuedBytes() uint64 { return p.queued.Queued() }
