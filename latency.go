package mediagraph

import (
	"github.com/graphkit/mediagraph/internal/errcode"
	"github.com/graphkit/mediagraph/internal/paramstore"
)

// LatencyInfo is one side's latency envelope (spec.md §3 "Control" /
// §4.7: "each with {min_quantum, max_quantum, min_rate, max_rate, min_ns,
// max_ns}").
type LatencyInfo struct {
	MinQuantum uint32
	MaxQuantum uint32
	MinRate    uint32
	MaxRate    uint32
	MinNs      uint64
	MaxNs      uint64
}

// isZero reports whether li carries no constraint yet (the zero value).
func (li LatencyInfo) isZero() bool {
	return li == LatencyInfo{}
}

// Merge combines other into li elementwise: min-of-mins, max-of-maxes
// (spec.md §4.7 "Combination is elementwise min/max"). The very first
// merge into an unset (zero-value) LatencyInfo just adopts other, since
// there is no prior constraint to intersect with.
func (li *LatencyInfo) Merge(other LatencyInfo) {
	if li.isZero() {
		*li = other
		return
	}
	if other.isZero() {
		return
	}
	li.MinQuantum = min2U32(li.MinQuantum, other.MinQuantum)
	li.MaxQuantum = maxU32(li.MaxQuantum, other.MaxQuantum)
	li.MinRate = min2U32(li.MinRate, other.MinRate)
	li.MaxRate = maxU32(li.MaxRate, other.MaxRate)
	li.MinNs = min2U64(li.MinNs, other.MinNs)
	li.MaxNs = maxU64(li.MaxNs, other.MaxNs)
}

func min2U32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
func min2U64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// latencyFromObject decodes a paramstore.Object carrying a Latency param
// into a LatencyInfo, per the six well-known property keys.
func latencyFromObject(o paramstore.Object) (LatencyInfo, error) {
	var li LatencyInfo
	get := func(key string) (int64, bool) {
		for _, p := range o.Props {
			if p.Key == key {
				if v, ok := p.Default.(int64); ok {
					return v, true
				}
			}
		}
		return 0, false
	}
	if v, ok := get("min_quantum"); ok {
		li.MinQuantum = uint32(v)
	}
	if v, ok := get("max_quantum"); ok {
		li.MaxQuantum = uint32(v)
	}
	if v, ok := get("min_rate"); ok {
		li.MinRate = uint32(v)
	}
	if v, ok := get("max_rate"); ok {
		li.MaxRate = uint32(v)
	}
	if v, ok := get("min_ns"); ok {
		li.MinNs = uint64(v)
	}
	if v, ok := get("max_ns"); ok {
		li.MaxNs = uint64(v)
	}
	if len(o.Props) == 0 {
		return li, errcode.New("latencyFromObject", errcode.Invalid, "empty Latency param")
	}
	return li, nil
}

// AggregateLatency implements spec.md §4.7: the latency reported on a port
// in direction d is the combination of the opposite-direction latencies of
// every *other* port on the node, plus any processLatency contributed by
// the node implementation itself.
func AggregateLatency(ports []*Port, self *Port, processLatency LatencyInfo) LatencyInfo {
	opposite := DirectionOutput
	if self.Direction == DirectionOutput {
		opposite = DirectionInput
	}
	result := processLatency
	for _, port := range ports {
		if port == self {
			continue
		}
		result.Merge(port.Latency[opposite])
	}
	return result
}
