package mediagraph

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/graphkit/mediagraph/internal/interfaces"
	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/paramstore"
	"github.com/graphkit/mediagraph/internal/wire"
)

// StreamState is the Stream/Filter facade's connection lifecycle (spec.md
// §4.6 "Transition Unconnected -> Connecting -> Paused on bind").
type StreamState int

const (
	StreamUnconnected StreamState = iota
	StreamConnecting
	StreamPaused
	StreamStreaming
	StreamError
)

func (s StreamState) String() string {
	switch s {
	case StreamUnconnected:
		return "Unconnected"
	case StreamConnecting:
		return "Connecting"
	case StreamPaused:
		return "Paused"
	case StreamStreaming:
		return "Streaming"
	case StreamError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StreamFlags mirror the process-dispatch policy bits of spec.md §4.6.
type StreamFlags uint32

const (
	// FlagRTProcess runs the user process callback directly on the data thread
	// (cooperative, must not block); otherwise it's posted to the main loop.
	FlagRTProcess StreamFlags = 1 << iota
	FlagEarlyProcess
)

// Time is the seq-locked snapshot returned by Stream.GetTime (spec.md §4.6
// "a consistent snapshot via a seq-lock").
type Time struct {
	Now         int64
	Rate        wire.IoClock
	QueuedBytes uint64
	BufferedNs  int64
	Delay       int64
}

// Stream is the client-facing facade over a single Node with one port
// (spec.md §4.6). Filter (below) is the same facade generalized to
// multiple ports.
type Stream struct {
	graph *Graph
	node  *Node
	port  *Port

	name  string
	props *PropertyBag

	mu    sync.Mutex
	state StreamState
	flags StreamFlags

	processCB func()
	drainedCB func()

	draining bool
	drained  bool

	// seq-lock generation for GetTime: even means stable, odd means a
	// writer is mid-update (spec.md §4.6 "writer increments an odd/even
	// counter around the struct").
	timeSeq atomic.Uint64
	time    Time

	log *logging.Logger
}

// streamImpl is the minimal interfaces.NodeImpl the Stream installs as its
// node's implementation; it exists only to route Process into the
// Stream's own process_input/process_output path (spec.md §4.6).
type streamImpl struct {
	s         *Stream
	listeners []interfaces.NodeListener
	cb        interfaces.NodeCallbacks
}

func (si *streamImpl) AddListener(l interfaces.NodeListener) func() {
	si.listeners = append(si.listeners, l)
	idx := len(si.listeners) - 1
	return func() {
		if idx < len(si.listeners) {
			si.listeners[idx] = nil
		}
	}
}
func (si *streamImpl) SetCallbacks(cb interfaces.NodeCallbacks) { si.cb = cb }
func (si *streamImpl) EnumParams(int32, uint32, uint32, uint32, any) int32 { return 0 }
func (si *streamImpl) SetParam(uint32, uint32, any) int32                 { return 0 }
func (si *streamImpl) SetIO(uint32, any, uint32) int32                    { return 0 }
func (si *streamImpl) SendCommand(uint32) int32                          { return 0 }
func (si *streamImpl) AddPort(uint32, map[string]string) (uint32, error) { return 0, nil }
func (si *streamImpl) RemovePort(uint32) int32                          { return 0 }
func (si *streamImpl) PortEnumParams(int32, uint32, uint32, uint32, uint32, any) int32 {
	return 0
}
func (si *streamImpl) PortSetParam(uint32, uint32, uint32, any) int32        { return 0 }
func (si *streamImpl) PortSetIO(uint32, uint32, any, uint32) int32           { return 0 }
func (si *streamImpl) PortUseBuffers(uint32, uint32, []interfaces.BufferSpec) int32 { return 0 }
func (si *streamImpl) PortReuseBuffer(uint32, uint32) int32                  { return 0 }

// Process runs the Stream's own input/output mixing (spec.md §4.6 "Stream
// process_input path" / "process_output path") around the user's callback,
// whose timing and dispatch thread are governed by s.flags (see
// dispatchProcessCB). A Filter-backed node carries no single Stream
// (si.s is nil); its ports are mixed by the scheduler directly, so Process
// here is just the user callback dispatch.
func (si *streamImpl) Process(ctx context.Context) int32 {
	s := si.s
	if s == nil {
		if si.cb.Process != nil {
			si.cb.Process()
		}
		return int32(StatusHaveData)
	}

	// early_process (output ports only): let the user fill the next buffer
	// before the mixer decides what to publish this cycle, instead of
	// after (spec.md §4.6 "early_process prefetch").
	early := s.port.Direction == DirectionOutput && s.flags&FlagEarlyProcess != 0
	if early {
		s.dispatchProcessCB()
	}

	var status ProcessStatus
	switch s.port.Direction {
	case DirectionInput:
		status = s.processInput()
	case DirectionOutput:
		status = s.processOutput()
	}

	if !early {
		s.dispatchProcessCB()
	}
	return int32(status)
}

// NewStream allocates a Stream facade bound to graph, applying the spec's
// default properties unless the caller already set them (spec.md §4.6
// "new(core, name, props)").
func NewStream(graph *Graph, name string, props *PropertyBag) *Stream {
	if props == nil {
		props = NewPropertyBag()
	}
	if _, ok := props.Get("node.want-driver"); !ok {
		props.Set("node.want-driver", "true")
	}
	if _, ok := props.Get("stream.is-live"); !ok {
		props.Set("stream.is-live", "true")
	}

	s := &Stream{
		graph: graph,
		name:  name,
		props: props,
		state: StreamUnconnected,
		log:   logging.Default(),
	}
	return s
}

// Connect implements spec.md §4.6 "connect": build and register the
// backing node, add the single port, and transition
// Unconnected -> Connecting -> Paused.
func (s *Stream) Connect(direction Direction, ringCapacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamUnconnected {
		return NewError("Stream.Connect", CodeBusy, "already connected")
	}
	s.state = StreamConnecting

	impl := &streamImpl{}
	node := s.graph.AddNode(impl)
	impl.s = s
	node.Properties.Merge(s.props)
	node.Driver = s.props.has("node.want-driver")

	port := NewPort(s.graph.NewPortID(), node.ID, direction, ringCapacity)
	if err := node.AddPort(port); err != nil {
		return WrapError("Stream.Connect", err)
	}

	s.node = node
	s.port = port
	s.state = StreamPaused
	return nil
}

func (b *PropertyBag) has(key string) bool {
	v, ok := b.Get(key)
	return ok && v == "true"
}

// SetProcessCallback installs the per-cycle user callback, and the flags
// that govern how it is dispatched (spec.md §4.6 "Process-callback
// dispatch policy").
func (s *Stream) SetProcessCallback(cb func(), flags StreamFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processCB = cb
	s.flags = flags
}

// dispatchProcessCB runs the installed process callback per the dispatch
// policy FlagRTProcess selects (spec.md §4.6 "process-callback dispatch
// policy"): with FlagRTProcess set, the callback runs directly on the
// calling (data-thread) goroutine, same as the original's RT-thread
// calling convention; without it, the callback is posted onto the graph's
// internal/mainloop.Loop instead, so it never runs on the scheduler's own
// goroutine. If the graph's main loop isn't running (nothing has called
// Run on it), Call simply queues the closure — see Graph.MainLoop.
func (s *Stream) dispatchProcessCB() {
	if s.processCB == nil {
		return
	}
	if s.flags&FlagRTProcess != 0 || s.graph == nil || s.graph.MainLoop() == nil {
		s.processCB()
		return
	}
	s.graph.MainLoop().Call(s.processCB)
}

// SetDrainedCallback installs the callback fired once a flush(drain) cycle
// completes.
func (s *Stream) SetDrainedCallback(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainedCB = cb
}

// DequeueBuffer implements spec.md §4.6 "dequeue_buffer": pop from
// dequeued; on output with a busy-meta, reject with Busy if the buffer is
// already held by more than one consumer.
func (s *Stream) DequeueBuffer() (uint32, error) {
	id, err := s.port.DequeueBuffer()
	if err != nil {
		return 0, WrapError("Stream.DequeueBuffer", err)
	}
	if s.port.Direction == DirectionOutput {
		if buf, ok := s.port.Buffer(id); ok && buf.Busy() > 1 {
			buf.MarkQueuedBack()
			_ = s.port.dequeued.Push(id, buf.Size())
			buf.setQueued(true)
			return 0, NewPortError("Stream.DequeueBuffer", s.node.ID, s.port.ID, CodeBusy, "buffer already held")
		}
	}
	return id, nil
}

// QueueBuffer implements spec.md §4.6 "queue_buffer": push to queued, with
// the deprecated output-driver self-trigger behavior preserved and logged.
func (s *Stream) QueueBuffer(id uint32) error {
	if err := s.port.QueueBuffer(id); err != nil {
		return WrapError("Stream.QueueBuffer", err)
	}
	if s.port.Direction == DirectionOutput && s.node.IsDriving() {
		s.log.Warnf("Stream.QueueBuffer: self-trigger on output driver is deprecated, use trigger_process")
		return s.TriggerProcess()
	}
	return nil
}

// SetParam re-enters the node's port implementation (spec.md §4.6
// "set_param: re-enter the implementation via set_param; main thread
// only"). param may be nil to clear.
func (s *Stream) SetParam(id wire.ParamID, param *paramstore.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.SetParam(id, 0, param)
}

// SetControl builds a Props POD from name/value control pairs and calls
// SetParam, per spec.md §4.6 "set_control".
func (s *Stream) SetControl(controls map[string]float64) error {
	obj := paramstore.Object{ID: wire.ParamProps}
	for k, v := range controls {
		obj.Props = append(obj.Props, paramstore.Property{Key: k, Choice: paramstore.ChoiceNone, Default: v})
	}
	return s.SetParam(wire.ParamProps, &obj)
}

// Flush implements spec.md §4.6 "flush(drain)". Without a separate data
// thread to post to, the move happens synchronously under the port's own
// bookkeeping; the next process cycle still reports Drained once drain is
// requested, matching the documented handshake.
func (s *Stream) Flush(drain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !drain {
		s.recycleAllBuffers()
		return
	}
	s.draining = true
	s.drained = false
}

func (s *Stream) recycleAllBuffers() {
	for _, b := range s.port.Buffers() {
		if s.port.Direction == DirectionOutput {
			if !b.IsQueued() {
				_ = s.port.dequeued.Push(b.ID, b.Size())
				b.setQueued(true)
			}
		} else {
			if !b.IsQueued() {
				_ = s.port.queued.Push(b.ID, b.Size())
				b.setQueued(true)
			}
		}
	}
}

// TriggerProcess implements spec.md §4.6 "trigger_process (as §4.5)".
func (s *Stream) TriggerProcess() error {
	return s.graph.Scheduler().TriggerProcess(s.node)
}

// processInput implements spec.md §4.6 "Stream process_input path".
func (s *Stream) processInput() ProcessStatus {
	io := s.port.IO()
	if io != nil && io.Status == wire.IOStatusHaveData {
		if buf, ok := s.port.Buffer(io.BufferID); ok {
			_ = s.port.dequeued.Push(io.BufferID, buf.Size())
			buf.setQueued(true)
			buf.MarkDequeued()
		}
	}
	id, err := s.port.PopQueued()
	if err != nil {
		return StatusNeedData
	}
	_ = id
	return StatusHaveData
}

// processOutput implements spec.md §4.6 "Stream process_output path".
func (s *Stream) processOutput() ProcessStatus {
	io := s.port.IO()
	if io == nil {
		return StatusNeedData
	}
	if io.Status != wire.IOStatusHaveData {
		if io.BufferID != 0 {
			if buf, ok := s.port.Buffer(io.BufferID); ok && !buf.IsQueued() {
				_ = s.port.dequeued.Push(io.BufferID, buf.Size())
				buf.setQueued(true)
			}
		}
		id, err := s.port.PopQueued()
		if err != nil {
			if s.draining {
				s.finishDrain()
				return StatusDrained
			}
			return StatusNeedData
		}
		io.BufferID = id
		io.Status = wire.IOStatusHaveData
	}
	if s.draining {
		s.finishDrain()
		return StatusDrained
	}
	return StatusHaveData
}

func (s *Stream) finishDrain() {
	s.draining = false
	s.drained = true
	if s.drainedCB != nil {
		s.drainedCB()
	}
}

// UpdateTime is the writer side of Stream.GetTime's seq-lock (spec.md §4.6
// "writer increments an odd/even counter around the struct").
func (s *Stream) UpdateTime(t Time) {
	s.timeSeq.Add(1) // now odd: update in progress
	s.time = t
	s.timeSeq.Add(1) // now even: stable
}

// GetTime is the reader side: retries if the sequence counter changed or
// was caught mid-update (odd).
func (s *Stream) GetTime() Time {
	for {
		seq1 := s.timeSeq.Load()
		if seq1&1 != 0 {
			continue
		}
		snapshot := s.time
		seq2 := s.timeSeq.Load()
		if seq1 == seq2 {
			return snapshot
		}
	}
}

// State returns the current connection state.
func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Node exposes the backing Node for callers that need direct access
// (ports, activation) beyond the facade's operations.
func (s *Stream) Node() *Node { return s.node }

// Filter generalizes Stream to a node with several ports, one per
// add_port call (spec.md §4.6's multi-port processing callback variant
// used by filter-graph clients). It reuses Stream's machinery per port.
type Filter struct {
	graph *Graph
	node  *Node
	name  string
	props *PropertyBag

	mu    sync.Mutex
	ports map[PortID]*Port

	processCB func()
	log       *logging.Logger
}

// NewFilter allocates a Filter facade, analogous to NewStream but backing
// a multi-port node.
func NewFilter(graph *Graph, name string, props *PropertyBag) *Filter {
	if props == nil {
		props = NewPropertyBag()
	}
	impl := &streamImpl{}
	node := graph.AddNode(impl)
	node.Properties.Merge(props)
	f := &Filter{
		graph: graph,
		node:  node,
		name:  name,
		props: props,
		ports: make(map[PortID]*Port),
		log:   logging.Default(),
	}
	return f
}

// SetProcessCallback installs the callback invoked once per cycle after
// every port has been mixed by the scheduler (spec.md §4.6's filter
// variant of the process dispatch).
func (f *Filter) SetProcessCallback(cb func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processCB = cb
	if impl, ok := f.node.Impl.(*streamImpl); ok {
		impl.SetCallbacks(interfaces.NodeCallbacks{Process: cb})
	}
}

// AddPort registers a new port on the filter's node.
func (f *Filter) AddPort(direction Direction, ringCapacity int) (*Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	port := NewPort(f.graph.NewPortID(), f.node.ID, direction, ringCapacity)
	if err := f.node.AddPort(port); err != nil {
		return nil, WrapError("Filter.AddPort", err)
	}
	f.ports[port.ID] = port
	return port, nil
}

// RemovePort drops a previously added port.
func (f *Filter) RemovePort(id PortID, dir Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.node.RemovePort(id, dir)
	delete(f.ports, id)
}

// Node exposes the backing Node.
func (f *Filter) Node() *Node { return f.node }
