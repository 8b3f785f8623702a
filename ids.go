package mediagraph

import "strconv"

// NodeID, PortID, and LinkID are opaque arena indices, not pointers: the
// graph is a SlotMap-style store keyed by these ids (spec.md §9 "Object
// identity & cycles" — cross-references are id pairs, never language-level
// pointers, so driver<->follower and node<->port back-references can't form
// a retain cycle).
type NodeID uint32
type PortID uint32
type LinkID uint32

// InvalidNodeID, InvalidPortID, InvalidLinkID are the zero-value sentinels;
// slot 0 of every arena is reserved and never allocated.
const (
	InvalidNodeID NodeID = 0
	InvalidPortID PortID = 0
	InvalidLinkID LinkID = 0
)

func (id NodeID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id PortID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id LinkID) String() string { return strconv.FormatUint(uint64(id), 10) }

func (id NodeID) Valid() bool { return id != InvalidNodeID }
func (id PortID) Valid() bool { return id != InvalidPortID }
func (id LinkID) Valid() bool { return id != InvalidLinkID }
