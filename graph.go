package mediagraph

import (
	"sync"

	"github.com/graphkit/mediagraph/internal/interfaces"
	"github.com/graphkit/mediagraph/internal/logging"
	"github.com/graphkit/mediagraph/internal/mainloop"
	"github.com/graphkit/mediagraph/internal/wire"
)

// Graph is the top-level registry of nodes and links (spec.md §2 "the
// node/port/link scheduler"), the re-entrant context handle called for in
// §9 ("the core should be re-entrant given only an explicit context
// handle" — Graph carries no package-level mutable state).
type Graph struct {
	mu       sync.RWMutex
	nodes    map[NodeID]*Node
	links    map[LinkID]*Link
	nextNode uint32
	nextPort uint32
	nextLink uint32

	log       *logging.Logger
	obs       interfaces.Observer
	scheduler *Scheduler
	loop      *mainloop.Loop
}

// Link connects one output port to one input port (spec.md §2 data flow).
type Link struct {
	ID         LinkID
	FromNode   NodeID
	FromPort   PortID
	ToNode     NodeID
	ToPort     PortID
}

// NewGraph creates an empty Graph with a NoOpObserver.
func NewGraph() *Graph {
	g := &Graph{
		nodes: make(map[NodeID]*Node),
		links: make(map[LinkID]*Link),
		log:   logging.Default(),
		obs:   NoOpObserver{},
	}
	g.scheduler = NewScheduler(g)
	g.loop = mainloop.New(MainLoopQueueDepth, g.log)
	return g
}

// MainLoop returns the graph's non-RT invocation queue: the route
// Stream/Filter process callbacks without FlagRTProcess are posted onto
// instead of running on the scheduler's calling goroutine (spec.md §4.6
// "process-callback dispatch policy", §9 "message passing onto the main
// loop's invocation queue"). The caller is responsible for running it,
// e.g. `go graph.MainLoop().Run(ctx)`; until something drains it, posted
// callbacks simply queue (and are dropped with a warning if the queue
// fills).
func (g *Graph) MainLoop() *mainloop.Loop { return g.loop }

// SetObserver wires a metrics Observer used by the scheduler and every
// node registered from here on.
func (g *Graph) SetObserver(o interfaces.Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o == nil {
		o = NoOpObserver{}
	}
	g.obs = o
	for _, n := range g.nodes {
		n.SetObserver(o)
	}
}

// AddNode registers impl as a new, active (schedulable) node, initially its
// own driver. The caller makes it a real driver by setting Node.Driver.
func (g *Graph) AddNode(impl interfaces.NodeImpl) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextNode++
	id := NodeID(g.nextNode)
	n := NewNode(id, impl)
	n.graph = g
	n.SetObserver(g.obs)
	n.Registered = true
	n.Active = true
	g.nodes[id] = n
	return n
}

// RemoveNode unregisters a node (and any links touching it).
func (g *Graph) RemoveNode(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)
	for lid, l := range g.links {
		if l.FromNode == id || l.ToNode == id {
			delete(g.links, lid)
		}
	}
}

// Node looks up a registered node.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every registered node, order unspecified.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// NewPortID allocates a fresh PortID unique within the graph.
func (g *Graph) NewPortID() PortID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextPort++
	return PortID(g.nextPort)
}

// AddLink connects an output port to an input port, registering the
// downstream node as a target of the upstream node (spec.md §3
// "NodeTarget"). If the two have different drivers, the downstream node
// takes the upstream's driver and is appended to that driver's
// follower_list.
func (g *Graph) AddLink(fromNode NodeID, fromPort PortID, toNode NodeID, toPort PortID) (*Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	from, ok := g.nodes[fromNode]
	if !ok {
		return nil, NewNodeError("Graph.AddLink", fromNode, CodeNotFound, "source node not registered")
	}
	to, ok := g.nodes[toNode]
	if !ok {
		return nil, NewNodeError("Graph.AddLink", toNode, CodeNotFound, "destination node not registered")
	}

	g.nextLink++
	link := &Link{ID: LinkID(g.nextLink), FromNode: fromNode, FromPort: fromPort, ToNode: toNode, ToPort: toPort}
	g.links[link.ID] = link

	// Linked ports share one IoBuffers slot, mirroring the shared-memory
	// handoff the real activation record provides: the producer's output
	// mixer writes a buffer id/status pair that the consumer's input mixer
	// reads directly, with no copy (spec.md §4.3 "IO structures at the node
	// boundary").
	fp, fok := from.OutputPorts[fromPort]
	tp, tok := to.InputPorts[toPort]
	if fok && tok {
		io := &wire.IoBuffers{}
		fp.SetIO(io)
		tp.SetIO(io)
	}

	target := &NodeTarget{Node: toNode, Activation: to.Activation, Source: to.Source, Name: to.String(), ID: uint64(toNode), Active: true}
	from.TargetList = append(from.TargetList, target)
	// to's required count tracks its in-degree: it must wait for one more
	// upstream feeder to finish each cycle before its own pending reaches
	// zero (spec.md §3 Activation: "required is the steady-state value to
	// which pending is reset").
	to.Activation.State[0].Required.Add(1)
	to.Activation.State[0].Reset()

	if to.DriverNode != from.DriverNode {
		to.DriverNode = from.DriverNode
		if d, ok := g.nodes[from.DriverNode]; ok {
			d.FollowerList = append(d.FollowerList, toNode)
		}
	}
	return link, nil
}

// RemoveLink un-registers a link and its corresponding target entry.
func (g *Graph) RemoveLink(id LinkID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	link, ok := g.links[id]
	if !ok {
		return
	}
	delete(g.links, id)
	if from, ok := g.nodes[link.FromNode]; ok {
		for i, t := range from.TargetList {
			if t.Node == link.ToNode {
				from.TargetList = append(from.TargetList[:i], from.TargetList[i+1:]...)
				break
			}
		}
	}
}

// AllFollowersRunning reports whether every follower of driverID has
// reached StateRunning, used by Node.RequestState's EBUSY rule (§4.4).
func (g *Graph) AllFollowersRunning(driverID NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	driver, ok := g.nodes[driverID]
	if !ok {
		return true
	}
	for _, fid := range driver.FollowerList {
		f, ok := g.nodes[fid]
		if !ok {
			continue
		}
		if f.State != StateRunning {
			return false
		}
	}
	return true
}

// Scheduler returns the graph's scheduler instance.
func (g *Graph) Scheduler() *Scheduler { return g.scheduler }

// String identifies a node for logging/target names.
func (n *Node) String() string {
	return "node#" + n.ID.String()
}
