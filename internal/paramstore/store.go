package paramstore

import (
	"sync"

	"github.com/graphkit/mediagraph/internal/errcode"
	"github.com/graphkit/mediagraph/internal/wire"
)

// Unbounded is the sentinel count meaning "no limit", matching the
// original's count=UINT32_MAX convention for an "enumerate everything"
// query (spec.md §4.1: "the query was unbounded (no filter, start=0,
// count=∞)").
const Unbounded = -1

// blob is one stored param value plus the bookkeeping needed to hand back
// a stable handle and preserve insertion order.
type blob struct {
	handle uint64
	flags  wire.ParamFlags
	value  Object
}

// Delegate enumerates params for id directly from the owning node
// implementation, yielding each candidate to yield in turn; it returns the
// node's reported error, if any. The store uses this only on a cache miss
// (spec.md §4.1 "delegated to the underlying node implementation").
type Delegate func(id wire.ParamID, start, count int, filter *Object, yield func(Object) error) error

// Store is the per-node (or per-port) param cache described in spec.md
// §4.1: add/clear/for_each_param over per-id blob lists, with an opt-in
// local cache and structural filtering on enumeration.
type Store struct {
	mu sync.Mutex

	blobs  map[wire.ParamID][]blob
	cached map[wire.ParamID]bool

	nextHandle uint64

	// OnChanged fires whenever a blob is added/removed/toggled for id, so
	// the owning Node can XOR its ParamInfo.Flags SERIAL bit, bump the user
	// counter, and OR in the Params change_mask bit (§4.1). Left nil is a
	// valid no-op for stores not wired to a Node (e.g. tests).
	OnChanged func(id wire.ParamID)
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		blobs:  make(map[wire.ParamID][]blob),
		cached: make(map[wire.ParamID]bool),
	}
}

// Add inserts param under id, or under param.ID if id is ParamInvalid
// ("use the object id embedded in the param"). Returns a handle that can
// later be passed to RemoveHandle.
func (s *Store) Add(id wire.ParamID, flags wire.ParamFlags, param Object) (uint64, error) {
	if id == wire.ParamInvalid {
		id = param.ID
		if id == wire.ParamInvalid {
			return 0, errcode.New("paramstore.Add", errcode.Invalid, "param is not an object")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHandle++
	h := s.nextHandle
	wasAbsent := len(s.blobs[id]) == 0
	s.blobs[id] = append(s.blobs[id], blob{handle: h, flags: flags, value: param.Clone()})
	_ = wasAbsent
	s.notify(id)
	return h, nil
}

// Clear removes every blob stored under id and clears its cached flag.
func (s *Store) Clear(id wire.ParamID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blobs[id]) == 0 && !s.cached[id] {
		return
	}
	delete(s.blobs, id)
	delete(s.cached, id)
	s.notify(id)
}

// ClearAll removes every blob for every id ("id|ALL" in spec.md §4.1),
// except blobs flagged wire.ParamLocked, which are kept.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, list := range s.blobs {
		var kept []blob
		for _, b := range list {
			if b.flags&wire.ParamLocked != 0 {
				kept = append(kept, b)
			}
		}
		if len(kept) == len(list) {
			continue
		}
		if len(kept) == 0 {
			delete(s.blobs, id)
		} else {
			s.blobs[id] = kept
		}
		s.notify(id)
	}
	s.cached = make(map[wire.ParamID]bool)
}

// RemoveHandle removes the single blob added with the given handle, if any.
func (s *Store) RemoveHandle(id wire.ParamID, handle uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.blobs[id]
	for i, b := range list {
		if b.handle == handle {
			s.blobs[id] = append(list[:i], list[i+1:]...)
			s.notify(id)
			return true
		}
	}
	return false
}

// notify must be called with s.mu held.
func (s *Store) notify(id wire.ParamID) {
	if s.OnChanged != nil {
		s.OnChanged(id)
	}
}

// IsCached reports whether id's enumeration is currently served locally.
func (s *Store) IsCached(id wire.ParamID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached[id]
}

// ForEachParam implements the §4.1 enumeration contract: if id is cached,
// iterate the local blob list in insertion order; otherwise delegate to
// the node implementation via delegate, and if the query was unbounded
// (filter==nil, start==0, count==Unbounded), atomically replace the cache
// with the delegated result and mark id cached.
//
// cb is invoked once per matching (possibly filtered) Object; a non-nil
// return from cb stops enumeration and is returned to the caller.
func (s *Store) ForEachParam(id wire.ParamID, start, count int, filter *Object, delegate Delegate, cb func(Object) error) error {
	s.mu.Lock()
	cached := s.cached[id]
	var local []blob
	if cached {
		local = append([]blob(nil), s.blobs[id]...)
	}
	s.mu.Unlock()

	if cached {
		return s.enumerateLocal(local, start, count, filter, cb)
	}

	if delegate == nil {
		return errcode.New("paramstore.ForEachParam", errcode.NotSupported, "no delegate and id not cached")
	}

	unbounded := filter == nil && start == 0 && count == Unbounded
	var pending []Object
	err := delegate(id, start, count, filter, func(o Object) error {
		if unbounded {
			pending = append(pending, o.Clone())
		}
		return cb(o)
	})
	if err != nil {
		return err
	}
	if unbounded {
		s.mu.Lock()
		blobs := make([]blob, len(pending))
		for i, o := range pending {
			s.nextHandle++
			blobs[i] = blob{handle: s.nextHandle, value: o}
		}
		s.blobs[id] = blobs
		s.cached[id] = true
		s.mu.Unlock()
	}
	return nil
}

func (s *Store) enumerateLocal(local []blob, start, count int, filter *Object, cb func(Object) error) error {
	matched := 0
	for i, b := range local {
		if i < start {
			continue
		}
		if count != Unbounded && matched >= count {
			break
		}
		out := b.value
		if filter != nil {
			merged, err := Intersect(b.value, *filter)
			if err != nil {
				continue // structural mismatch: not a match, not an error
			}
			out = merged
		}
		matched++
		if err := cb(out); err != nil {
			return err
		}
	}
	return nil
}
