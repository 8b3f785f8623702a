package mediagraph

import (
	"sync"

	"github.com/graphkit/mediagraph/internal/errcode"
	"github.com/graphkit/mediagraph/internal/interfaces"
	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/mainloop"
	"github.com/graphkit/mediagraph/internal/paramstore"
	"github.com/graphkit/mediagraph/internal/wakeup"
	"github.com/graphkit/mediagraph/internal/wire"
)

// NodeState enumerates the node lifecycle states (spec.md §4.4).
type NodeState int

const (
	StateCreating NodeState = iota
	StateSuspended
	StatePaused
	StateIdle
	StateRunning
	StateError
)

func (s NodeState) String() string {
	switch s {
	case StateCreating:
		return "Creating"
	case StateSuspended:
		return "Suspended"
	case StatePaused:
		return "Paused"
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// allowedTransitions encodes the table in spec.md §4.4 ("States and
// allowed transitions"). Error is reachable from any state and is omitted
// from the table (checked separately in RequestState).
var allowedTransitions = map[NodeState]map[NodeState]bool{
	StateCreating:  {StateSuspended: true},
	StateSuspended: {StatePaused: true},
	StatePaused:    {StateSuspended: true, StateIdle: true, StateRunning: true},
	StateIdle:      {StateSuspended: true, StateRunning: true},
	StateRunning:   {StateSuspended: true, StatePaused: true},
}

// NodeInfo mirrors the original's info block (spec.md §3 "Node":
// "properties, info (max ports, flags, change mask, n_params)").
type NodeInfo struct {
	MaxInputPorts  uint32
	MaxOutputPorts uint32
	ChangeMask     uint64
	NParams        uint32
	Flags          uint32
}

const (
	ChangeMaskProps  uint64 = 1 << 0
	ChangeMaskParams uint64 = 1 << 1
	ChangeMaskState  uint64 = 1 << 2
)

// NodeTarget is a downstream node that must be woken when this node
// finishes a cycle (spec.md §3 "NodeTarget").
type NodeTarget struct {
	Node       NodeID
	Activation *Activation
	Source     wakeup.Source
	Name       string
	ID         uint64
	Active     bool
}

// Node is a graph vertex (spec.md §3 "Node").
type Node struct {
	ID         NodeID
	Properties *PropertyBag
	Info       NodeInfo

	InputPorts  map[PortID]*Port
	OutputPorts map[PortID]*Port

	Params *paramstore.Store
	Impl   interfaces.NodeImpl

	Source     wakeup.Source
	Activation *Activation

	DriverNode   NodeID
	FollowerList []NodeID
	TargetList   []*NodeTarget
	DriverTarget *NodeTarget

	State        NodeState
	PendingState NodeState

	Registered, Active    bool
	Driver, Driving       bool
	Trigger                bool
	Remote, Exported       bool
	TransportSync          bool
	PauseOnIdle            bool
	SuspendOnIdle          bool

	Rate         uint32
	MaxLatency   LatencyInfo
	ForceQuantum uint32
	ForceRate    uint32
	Groups       []string
	LinkGroups   []string

	usingTrigger bool // latches per §9 open question; never cleared once set
	pendingSeq   uint64

	seq   *mainloop.SeqTable
	log   *logging.Logger
	obs   interfaces.Observer
	graph *Graph // set by Graph.AddNode; nil for a bare NewNode in tests

	mu sync.Mutex
}

// NewNode creates a Node wired to impl, initially its own driver (a
// single-node connected component) and in the Creating state.
func NewNode(id NodeID, impl interfaces.NodeImpl) *Node {
	n := &Node{
		ID:          id,
		Properties:  NewPropertyBag(),
		InputPorts:  make(map[PortID]*Port),
		OutputPorts: make(map[PortID]*Port),
		Params:      paramstore.New(),
		Impl:        impl,
		Source:      mustNewSource(),
		Activation:  NewActivation(),
		DriverNode:  id,
		State:       StateCreating,
		PauseOnIdle: DefaultPauseOnIdle,
		SuspendOnIdle: DefaultSuspendOnIdle,
		seq:         mainloop.NewSeqTable(),
		log:         logging.Default(),
		obs:         NoOpObserver{},
	}
	return n
}

func mustNewSource() wakeup.Source {
	src, err := wakeup.New()
	if err != nil {
		// Falling back to a source-less node is worse than panicking here:
		// every node needs a wakeup fd to be schedulable at all.
		panic(err)
	}
	return src
}

// SetObserver wires a metrics Observer (default NoOpObserver).
func (n *Node) SetObserver(o interfaces.Observer) {
	if o == nil {
		o = NoOpObserver{}
	}
	n.obs = o
}

// IsDriver reports whether this node is its own driver ("driving" in
// spec.md terms requires Driver==true as well, see Driving()).
func (n *Node) IsDriver() bool { return n.DriverNode == n.ID }

// IsDriving reports "driving <=> (driver_node == self && driver == true)"
// (spec.md §3 Node invariants).
func (n *Node) IsDriving() bool { return n.IsDriver() && n.Driver }

// AddPort registers a port under the node, keyed by direction.
func (n *Node) AddPort(p *Port) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch p.Direction {
	case DirectionInput:
		if uint32(len(n.InputPorts)) >= n.Info.MaxInputPorts && n.Info.MaxInputPorts != 0 {
			return NewNodeError("Node.AddPort", n.ID, CodeInvalid, "max input ports exceeded")
		}
		n.InputPorts[p.ID] = p
	case DirectionOutput:
		if uint32(len(n.OutputPorts)) >= n.Info.MaxOutputPorts && n.Info.MaxOutputPorts != 0 {
			return NewNodeError("Node.AddPort", n.ID, CodeInvalid, "max output ports exceeded")
		}
		n.OutputPorts[p.ID] = p
	}
	n.Info.ChangeMask |= ChangeMaskProps
	return nil
}

// RemovePort drops a previously added port.
func (n *Node) RemovePort(id PortID, dir Direction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if dir == DirectionInput {
		delete(n.InputPorts, id)
	} else {
		delete(n.OutputPorts, id)
	}
	n.Info.ChangeMask |= ChangeMaskProps
}

// AllPorts returns every port on the node, input then output.
func (n *Node) AllPorts() []*Port {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Port, 0, len(n.InputPorts)+len(n.OutputPorts))
	for _, p := range n.InputPorts {
		out = append(out, p)
	}
	for _, p := range n.OutputPorts {
		out = append(out, p)
	}
	return out
}

// RequestState begins an asynchronous transition to target, per spec.md
// §4.4. It validates the transition table, cancels any prior pending
// transition (§4.4 "If two transitions are in flight, the work queue
// cancels the previous pending one"), and returns a sequence number the
// caller can later Complete.
func (n *Node) RequestState(target NodeState, onComplete func(ok bool, err error)) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.State == StateError && target != StateSuspended {
		return 0, NewNodeError("Node.RequestState", n.ID, CodeInvalid, "Error state requires explicit recovery via Suspended")
	}
	if target != StateError && n.State != StateError {
		if !allowedTransitions[n.State][target] {
			return 0, NewNodeError("Node.RequestState", n.ID, CodeInvalid, n.State.String()+" -> "+target.String()+" not allowed")
		}
	}

	if n.pendingSeq != 0 {
		n.seq.Cancel(n.pendingSeq)
	}

	n.PendingState = target
	seq := n.seq.Begin(func(ok bool, err error) {
		n.mu.Lock()
		if ok {
			n.State = n.PendingState
			n.Info.ChangeMask |= ChangeMaskState
		} else {
			n.State = StateError
		}
		n.mu.Unlock()
		if onComplete != nil {
			onComplete(ok, err)
		}
	})
	n.pendingSeq = seq

	if target == StateRunning && n.Driver {
		// Driver nodes stay pending until every follower reaches Running
		// (spec.md §4.4 "Driver nodes ... return a pseudo-error EBUSY").
		if !n.allFollowersRunning() {
			return seq, NewNodeError("Node.RequestState", n.ID, CodeBusy, "waiting for followers to reach Running")
		}
	}
	return seq, nil
}

// allFollowersRunning defers to the graph registry, which tracks every
// follower's live State (Graph.AllFollowersRunning); a node created via a
// bare NewNode outside a Graph (as in unit tests) has no registry to ask
// and is treated as trivially satisfied.
func (n *Node) allFollowersRunning() bool {
	if n.graph == nil {
		return true
	}
	return n.graph.AllFollowersRunning(n.ID)
}

// CompleteState finishes a pending async transition started by
// RequestState (spec.md §4.4 "the work queue later completes with a
// success/failure code that becomes the real state").
func (n *Node) CompleteState(seq uint64, ok bool, err error) {
	n.seq.Complete(seq, ok, err)
}

// Suspend implements spec.md §4.4 "On Suspend": send Suspend (falling
// back to Pause on NotSupported), clear every port's Format, and
// transition ports back to Configure. If the command fails with I/O
// error, the node still drops to Suspended so the next connect is clean.
func (n *Node) Suspend() {
	if n.Impl != nil {
		if rc := n.Impl.SendCommand(uint32(0)); rc == int32(-errcode.NotSupported) {
			n.Impl.SendCommand(uint32(1)) // fall back to Pause
		}
	}
	for _, p := range n.AllPorts() {
		p.Params.Clear(wire.ParamFormat)
		p.ClearBuffers()
	}
	n.mu.Lock()
	n.State = StateSuspended
	n.Info.ChangeMask |= ChangeMaskState
	n.mu.Unlock()
}

// EnterIdle implements spec.md §4.4 "On pause-on-idle": if PauseOnIdle is
// set and idle is entered while running, physically pause the node; if
// SuspendOnIdle is also set, cascade to Suspended.
func (n *Node) EnterIdle() {
	n.mu.Lock()
	wasRunning := n.State == StateRunning
	n.State = StateIdle
	n.mu.Unlock()

	if wasRunning && n.PauseOnIdle {
		if n.Impl != nil {
			n.Impl.SendCommand(uint32(1)) // Pause
		}
		if n.SuspendOnIdle {
			n.Suspend()
		}
	}
}

// UpdateProperties implements spec.md §4.8: merge updates into the node's
// property bag, run rules, and bump the Props change-mask bit (triggering
// an emit_info from the caller) if any rule actually changed a value.
func (n *Node) UpdateProperties(updates *PropertyBag, rules RuleSet) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	changed := UpdateProperties(n.Properties, updates, rules)
	if changed {
		n.Info.ChangeMask |= ChangeMaskProps
		if streamKeys := n.Properties.KeysWithPrefix("stream."); len(streamKeys) > 0 {
			n.log.Debugf("node %s: stream.* properties now %v", n.ID, streamKeys)
		}
	}
	return changed
}

// MarkUsingTrigger latches the "using_trigger" flag (spec.md §9 open
// question: "using_trigger latches on first call and is never cleared").
// Treated as mutually exclusive with queue_buffer self-triggering; a
// second, differently-sourced trigger attempt is logged as a warning
// rather than rejected, since the original leaves this unspecified.
func (n *Node) MarkUsingTrigger() {
	n.mu.Lock()
	already := n.usingTrigger
	n.usingTrigger = true
	n.mu.Unlock()
	if already {
		n.log.Warnf("node %s: trigger_process and queue_buffer self-trigger both observed; treating as exclusive", n.ID)
	}
}
