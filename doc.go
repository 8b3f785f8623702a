// Package mediagraph implements a graph-based real-time media scheduling
// and streaming engine: nodes, ports and links form a dataflow graph,
// driven by a handful of designated driver nodes that wake their followers
// once per cycle over eventfd-like wakeup sources. Param stores cache
// negotiated formats and controls per port; buffer queues hand memory
// (mapped from file descriptors where possible) between producer and
// consumer without locking; and the Stream/Filter facades give client code
// a single- or multi-port view over one graph node.
//
// The scheduler (Scheduler) runs the driver cycle and node cycle described
// by the design notes in DESIGN.md; Graph owns node/link registration and
// id allocation. None of this package talks to a wire protocol or a
// concrete media codec — those are left to the NodeImpl the caller plugs
// into each Node.
package mediagraph
