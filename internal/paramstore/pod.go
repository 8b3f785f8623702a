// Package paramstore implements the node/port parameter store: per-id
// param caches with structural (POD) filtering and a choice-intersection
// algorithm, using a hand-written tagged-struct codec rather than
// reflection or an interface{}-erasing design.
package paramstore

import (
	"sort"

	"github.com/graphkit/mediagraph/internal/wire"
)

// Choice names the constraint kind carried by a Property's value, mirroring
// the original's SPA_CHOICE_* tags (original_source/spa/include/spa/pod/filter.h).
// Step choices are folded into Range for this port's scope (step=1).
type Choice int

const (
	ChoiceNone Choice = iota
	ChoiceEnum
	ChoiceRange
	ChoiceFlags
)

// Value is any comparable scalar a Property can carry: an int64, float64,
// string, or bool. Ordering for Range choices uses int64/float64 only.
type Value = any

// Property is one keyed, choice-constrained field of an Object, e.g.
// {key: "rate", choice: Enum, values: [44100, 48000], default: 44100}.
type Property struct {
	Key     string
	Choice  Choice
	Default Value
	Values  []Value // Enum: the member set. Flags: ignored (use Default as bitmask).
	Min     Value   // Range
	Max     Value   // Range
}

// Object is a self-describing structured param value: a ParamID tag plus a
// set of Properties, the Go analogue of a POD object body.
type Object struct {
	ID    wire.ParamID
	Props []Property
}

// Clone deep-copies an Object so filtered results don't alias the store's
// cached copy.
func (o Object) Clone() Object {
	props := make([]Property, len(o.Props))
	for i, p := range o.Props {
		np := p
		if p.Values != nil {
			np.Values = append([]Value(nil), p.Values...)
		}
		props[i] = np
	}
	return Object{ID: o.ID, Props: props}
}

func (o Object) propByKey(key string) (Property, bool) {
	for _, p := range o.Props {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

func sortedKeys(o Object) []string {
	seen := map[string]bool{}
	keys := make([]string, 0, len(o.Props))
	for _, p := range o.Props {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	sort.Strings(keys)
	return keys
}
