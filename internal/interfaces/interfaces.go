// Package interfaces holds the internal interface definitions shared across
// the graph runtime's packages. They are kept separate from the public
// root-package interfaces to avoid import cycles between the root package
// and its internal/ dependents.
package interfaces

import "context"

// NodeImpl is the contract a media implementation (adapter, filter body,
// codec, transport) must satisfy for the core to drive it (§6 "Node
// implementation (consumed)"). Negative return values are errno-like error
// codes; a positive Async(seq) sentinel means the result arrives later
// through a Result callback.
type NodeImpl interface {
	AddListener(l NodeListener) (remove func())
	SetCallbacks(cb NodeCallbacks)

	EnumParams(seq int32, id uint32, start, num uint32, filter any) int32
	SetParam(id uint32, flags uint32, param any) int32
	SetIO(id uint32, data any, size uint32) int32
	SendCommand(cmd uint32) int32

	AddPort(direction uint32, props map[string]string) (portID uint32, err error)
	RemovePort(portID uint32) int32
	PortEnumParams(seq int32, portID uint32, id uint32, start, num uint32, filter any) int32
	PortSetParam(portID uint32, id uint32, flags uint32, param any) int32
	PortSetIO(portID uint32, id uint32, data any, size uint32) int32
	PortUseBuffers(portID uint32, flags uint32, buffers []BufferSpec) int32
	PortReuseBuffer(portID uint32, bufferID uint32) int32

	Process(ctx context.Context) int32
}

// NodeListener receives info/param/event notifications from a node (§6
// "Listener callbacks (exposed by core)").
type NodeListener interface {
	Info(info any)
	PortInfo(portID uint32, info any)
	Result(seq int32, res int32, resultType uint32, payload any)
	Event(eventID uint32, payload any)
}

// NodeCallbacks is the set of hooks the implementation invokes into the
// core; split so RT-thread callbacks never cross into main-thread-only
// state (§5).
type NodeCallbacks struct {
	Process func()
	Drained func()
	Ready    func(status int32)
}

// BufferSpec describes one buffer's memory-plane layout as passed into
// PortUseBuffers, prior to the core's own Buffer/Data wrapping.
type BufferSpec struct {
	ID     uint32
	Planes []PlaneSpec
}

// PlaneSpec is a single Data plane descriptor (§3 Buffer).
type PlaneSpec struct {
	Type      uint32
	FD        int
	MapOffset uint64
	MaxSize   uint32
	Data      uintptr
	Readable  bool
	Writable  bool
	Dynamic   bool
	Mappable  bool
}

// Logger is the minimal logging surface internal packages depend on,
// satisfied by internal/logging.Logger.
type Logger interface {
	Printf(format string, args ...any)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer is the minimal metrics surface internal packages depend on,
// satisfied by the root package's MetricsObserver/NoOpObserver.
type Observer interface {
	ObserveProcess(latencyNs uint64)
	ObserveXrun(nodeID uint64)
	ObserveQueueDepth(portID uint64, depth uint32)
}
