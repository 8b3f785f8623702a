package wire

import "unsafe"

// IoBuffers is the shared slot a node and its driver use to hand buffer ids
// back and forth during a cycle (§6 "IO structures at the node boundary").
type IoBuffers struct {
	Status   IOStatus
	BufferID uint32
}

var _ [8]byte = [unsafe.Sizeof(IoBuffers{})]byte{}

// Segment is one entry of IoPosition.Segments (a transport clock segment).
type Segment struct {
	Start    uint64
	Duration uint64
	Rate     uint64
	Position uint64
}

const MaxSegments = 8

// IoClock carries the driver's transport clock (§6 IoPosition.clock).
type IoClock struct {
	ID             uint32
	Nsec           uint64
	Rate           uint64 // numerator/denominator packed as two uint32s by callers
	Position       uint64
	Duration       uint64
	TargetRate     uint64
	TargetDuration uint64
}

// VideoInfo carries the optional video-size/stride/framerate triple
// embedded in IoPosition (§6 IoPosition.video).
type VideoInfo struct {
	Width     uint32
	Height    uint32
	Stride    uint32
	RateNum   uint32
	RateDenom uint32
}

// IoPosition is the shared transport-state slot a driver publishes once per
// cycle (§6 IoPosition).
type IoPosition struct {
	Clock     IoClock
	Video     VideoInfo
	Offset    int64
	NSegments uint32
	Segments  [MaxSegments]Segment
	State     TransportState
}

// IoRateMatch carries the resampling/rate-match hint a port's implementation
// may install (§6 IoRateMatch).
type IoRateMatch struct {
	Delay uint32
	Size  uint32
	Rate  float64
	Flags uint32
}

// Chunk describes the valid region of a Data plane (§3 Buffer, Data.chunk).
type Chunk struct {
	Offset uint32
	Size   uint32
	Stride int32
	Flags  uint32
}
