package mediagraph

import (
	"sync/atomic"

	"github.com/graphkit/mediagraph/internal/wire"
)

// NodeStatus is the per-cycle state of a node or target slot (spec.md §3
// "Activation" / §4.5 driver & node cycle).
type NodeStatus int32

const (
	StatusNotTriggered NodeStatus = iota
	StatusTriggered
	StatusAwake
	StatusFinished
)

// SegmentInfo is one transport segment (spec.md §3 "position (clock, video
// size, segments)"); re-exported from internal/wire where the POD layout
// lives.
type SegmentInfo = wire.Segment

const MaxSegments = wire.MaxSegments

// ActivationState is one of the two per-node pending/required/status
// triples in an Activation (spec.md §3: "state[2] each with
// {pending, required, status}").
type ActivationState struct {
	Pending  atomic.Int32
	Required atomic.Int32
	Status   atomic.Int32 // NodeStatus
}

// Reset restores pending to required and clears status, per §4.5 driver
// cycle step 4 ("reset its pending := required, clear its status").
func (s *ActivationState) Reset() {
	s.Pending.Store(s.Required.Load())
	s.Status.Store(int32(StatusNotTriggered))
}

// Decrement atomically decrements Pending and reports whether it reached
// zero — the edge-trigger condition from spec.md §9 ("the state[].pending
// decrement must be AcqRel and treat transition to zero as the
// edge-trigger").
func (s *ActivationState) Decrement() (reachedZero bool) {
	return s.Pending.Add(-1) == 0
}

// Activation is the shared record coordinating one graph cycle (spec.md
// §3 "Activation", §9 "Shared-state activation record": a plain POD with
// atomic cross-actor fields; never embed language-native containers). In
// this single-process implementation it is a plain Go struct rather than
// a memfd-mapped region, since the module's Non-goals exclude a
// multi-process on-wire protocol.
type Activation struct {
	State [2]ActivationState // 0: data-thread targets, 1: driver-thread targets

	Status atomic.Int32 // overall node status (NodeStatus)

	Position Position

	PrevSignalTime atomic.Int64
	SignalTime     atomic.Int64
	AwakeTime      atomic.Int64
	FinishTime     atomic.Int64

	XrunCount atomic.Uint64
	XrunDelay atomic.Int64
	XrunTime  atomic.Int64
	MaxDelay  atomic.Int64

	// Moving averages (fast/medium/slow) of the driver's signal-to-finish
	// time in nanoseconds, fixed-point *1e6; they are not divided by the
	// cycle period.
	CPULoad [3]atomic.Uint64

	Command         atomic.Int32 // wire.Command
	RepositionOwner atomic.Uint32
	SegmentOwner    [2]atomic.Uint32

	SyncTimeoutNs atomic.Int64
	SyncLeft      atomic.Int32
	PendingSync   atomic.Bool
}

// NewActivation creates a zeroed Activation with Status NotTriggered.
func NewActivation() *Activation {
	a := &Activation{}
	a.Status.Store(int32(StatusNotTriggered))
	return a
}

// Position mirrors wire.IoPosition (clock, video info, segments, transport
// state) — the activation's shared transport-position block.
type Position struct {
	Clock     wire.IoClock
	Video     wire.VideoInfo
	Offset    int64
	NSegments uint32
	Segments  [MaxSegments]SegmentInfo
	State     wire.TransportState
}
