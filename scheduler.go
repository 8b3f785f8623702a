package mediagraph

import (
	"context"
	"time"

	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/wire"
)

// EventID enumerates the events the scheduler emits to node listeners
// (spec.md §4.5: incomplete, start, complete, drained, RequestProcess).
type EventID uint32

const (
	EventIncomplete EventID = iota
	EventStart
	EventComplete
	EventDrained
	EventRequestProcess
)

// ProcessStatus is the bitfield a node's Process callback returns (spec.md
// §3 Buffer / §4.5 "Collect the returned status bitfield").
type ProcessStatus int32

const (
	StatusHaveData ProcessStatus = 1 << iota
	StatusNeedData
	StatusDrained
)

// EventSink receives scheduler-emitted events; Node.Listeners (not modeled
// as a separate type here) implement it via internal/interfaces.NodeListener.Event.
type EventSink func(node NodeID, ev EventID, payload any)

// Scheduler implements the driver/node cycle and trigger semantics, with
// internal/logging's rate-limited warning pattern for xrun reporting. It
// runs no wakeup loop of its own: RunDriverCycle and RunNodeCycle are
// called directly.
type Scheduler struct {
	graph *Graph
	log   *logging.Logger

	xrunLimiter *logging.RateLimited

	OnEvent EventSink // optional; nil means events are dropped
}

// NewScheduler creates a Scheduler bound to graph.
func NewScheduler(graph *Graph) *Scheduler {
	return &Scheduler{
		graph:       graph,
		log:         logging.Default(),
		xrunLimiter: logging.NewRateLimited(logging.Default(), XrunLogInterval, XrunLogBurst),
	}
}

func (s *Scheduler) emit(node NodeID, ev EventID, payload any) {
	if s.OnEvent != nil {
		s.OnEvent(node, ev, payload)
	}
}

func nowNs() int64 { return time.Now().UnixNano() }

// RunDriverCycle implements spec.md §4.5 "Driver cycle" steps 1-7. driver
// must satisfy driver.IsDriving().
func (s *Scheduler) RunDriverCycle(driver *Node) error {
	if !driver.IsDriving() {
		return NewNodeError("Scheduler.RunDriverCycle", driver.ID, CodeInvalid, "node is not driving")
	}
	act := driver.Activation

	// Step 1: previous cycle not finished -> log + incomplete event.
	if NodeStatus(act.Status.Load()) != StatusFinished && NodeStatus(act.Status.Load()) != StatusNotTriggered {
		stuck := s.stuckTargets(driver)
		s.log.Warnf("graph not finished for driver %s, stuck targets: %v", driver.ID, stuck)
		s.emit(driver.ID, EventIncomplete, stuck)
	}

	// Step 2: copy target_duration/target_rate -> duration/rate in the clock.
	act.Position.Clock.Duration = act.Position.Clock.TargetDuration
	act.Position.Clock.Rate = act.Position.Clock.TargetRate

	// Step 3: read & clear command and reposition_owner.
	act.Command.Swap(int32(wire.CommandNone))
	repositionOwner := act.RepositionOwner.Swap(0)

	// Step 4: reset every target's pending/status.
	for _, t := range driver.TargetList {
		t.Activation.State[0].Reset()
	}

	// Step 5: merge a pending reposition into segments[0]; Running -> Starting.
	if repositionOwner != 0 {
		act.Position.Segments[0] = SegmentInfo{
			Start:    uint64(nowNs()),
			Duration: act.Position.Clock.Duration,
			Rate:     act.Position.Clock.Rate,
			Position: act.Position.Segments[0].Position,
		}
		if act.Position.State == wire.TransportRunning {
			act.Position.State = wire.TransportStarting
		}
	}

	// Step 6: compute all_ready; tick sync_left while Starting.
	allReady := true
	for _, t := range driver.TargetList {
		if t.Activation.PendingSync.Load() {
			allReady = false
		}
	}
	if act.Position.State == wire.TransportStarting {
		left := act.SyncLeft.Add(-1)
		if left <= 0 {
			act.Position.State = wire.TransportRunning
			s.log.Warnf("driver %s: sync timeout, forcing Running", driver.ID)
		}
	}
	_ = allReady

	// Step 7: signal_time := now; driver status := Triggered; emit start.
	act.SignalTime.Store(nowNs())
	act.Status.Store(int32(StatusTriggered))
	s.emit(driver.ID, EventStart, nil)

	return driver.Source.Signal()
}

func (s *Scheduler) stuckTargets(driver *Node) []NodeID {
	var stuck []NodeID
	for _, t := range driver.TargetList {
		st := NodeStatus(t.Activation.Status.Load())
		if st == StatusTriggered || st == StatusAwake {
			stuck = append(stuck, t.Node)
		}
	}
	return stuck
}

// RunNodeCycle implements spec.md §4.5 "Node cycle" steps 1-7, invoked
// once a node's wakeup source fires. ctx bounds the node's own Process
// call.
func (s *Scheduler) RunNodeCycle(ctx context.Context, n *Node) error {
	act := n.Activation

	// Step 1.
	act.Status.Store(int32(StatusAwake))
	act.AwakeTime.Store(nowNs())

	var status ProcessStatus
	if !n.Active {
		// Step 2: scheduled out — treated as a no-op having produced data.
		status = StatusHaveData
	} else {
		// Step 3: input mixers, process, output mixers.
		for _, p := range n.InputPorts {
			s.runInputMixer(p)
		}
		if n.Impl != nil {
			rc := n.Impl.Process(ctx)
			status = ProcessStatus(rc)
		}
		for _, p := range n.OutputPorts {
			s.runOutputMixer(p)
		}
	}

	// Step 4.
	act.Status.Store(int32(StatusFinished))
	act.FinishTime.Store(nowNs())

	// Step 5: driver closing the cycle -> CPU load EMAs + complete event.
	if n.IsDriving() {
		elapsed := float64(act.FinishTime.Load() - act.SignalTime.Load())
		n.obs.ObserveProcess(uint64(elapsed))
		s.updateCPULoad(act, elapsed)
		s.emit(n.ID, EventComplete, nil)
	}

	// Step 6.
	if status&StatusDrained != 0 {
		s.emit(n.ID, EventDrained, nil)
	}

	// Step 7: decrement every target's pending; trigger on zero; detect xruns.
	for _, t := range n.TargetList {
		if !t.Active {
			continue
		}
		if t.Activation.State[0].Decrement() {
			t.Activation.Status.Store(int32(StatusTriggered))
			t.Activation.SignalTime.Store(nowNs())
			if err := t.Source.Signal(); err != nil {
				s.log.Warnf("node %s: failed to signal target %s: %v", n.ID, t.Name, err)
			}
		} else if st := NodeStatus(t.Activation.Status.Load()); st == StatusTriggered || st == StatusAwake {
			s.recordXrun(n, t)
		}
	}

	return nil
}

func (s *Scheduler) updateCPULoad(act *Activation, sampleNs float64) {
	weights := [3]float64{CPULoadWeightFast, CPULoadWeightMedium, CPULoadWeightSlow}
	for i, w := range weights {
		for {
			old := act.CPULoad[i].Load()
			oldVal := float64(old) / 1e6
			newVal := oldVal + w*(sampleNs-oldVal)
			if act.CPULoad[i].CompareAndSwap(old, uint64(newVal*1e6)) {
				break
			}
		}
	}
}

// recordXrun implements spec.md §4.5 "Xrun detection", rate-limiting the
// log line to once per XrunLogInterval with a burst of XrunLogBurst.
func (s *Scheduler) recordXrun(n *Node, t *NodeTarget) {
	t.Activation.XrunCount.Add(1)
	t.Activation.XrunTime.Store(nowNs())
	t.Activation.XrunDelay.Store(0)
	for {
		old := t.Activation.MaxDelay.Load()
		if 0 <= old {
			break
		}
		if t.Activation.MaxDelay.CompareAndSwap(old, 0) {
			break
		}
	}
	n.obs.ObserveXrun(uint64(t.Node))
	s.xrunLimiter.Warnf("node %s: target %s too slow (client missed wakeup)", n.ID, t.Name)
}

func (s *Scheduler) runInputMixer(p *Port) {
	// A single-port passthrough in this implementation: buffers arrive via
	// io.buffer_id and are pushed onto the queued ring for the node's own
	// Process to consume (spec.md §4.3 "for input, leave them empty —
	// they'll arrive via io.buffer_id during scheduling").
	io := p.IO()
	if io == nil || io.Status != wire.IOStatusHaveData {
		return
	}
	_ = p.QueueBuffer(io.BufferID)
	io.Status = wire.IOStatusNeedData
}

func (s *Scheduler) runOutputMixer(p *Port) {
	io := p.IO()
	if io == nil {
		return
	}
	id, err := p.PopQueued()
	if err != nil {
		return
	}
	io.BufferID = id
	io.Status = wire.IOStatusHaveData
}

// TriggerProcess implements spec.md §4.5 "Trigger semantics". For a
// driving node it runs the driver cycle prologue and signals its own
// wakeup; for a trigger=true auxiliary node it self-wakes; otherwise it
// emits RequestProcess for the main thread to schedule an extra cycle.
func (s *Scheduler) TriggerProcess(n *Node) error {
	n.MarkUsingTrigger()
	switch {
	case n.IsDriving():
		return s.RunDriverCycle(n)
	case n.Trigger:
		return n.Source.Signal()
	default:
		s.emit(n.ID, EventRequestProcess, nil)
		return nil
	}
}
