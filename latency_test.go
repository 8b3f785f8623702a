package mediagraph

import "testing"

func TestLatencyMergeAdoptsFirstValue(t *testing.T) {
	var li LatencyInfo
	li.Merge(LatencyInfo{MinQuantum: 10, MaxQuantum: 20, MinNs: 100, MaxNs: 200})
	if li.MinQuantum != 10 || li.MaxQuantum != 20 || li.MinNs != 100 || li.MaxNs != 200 {
		t.Fatalf("expected first merge to adopt other wholesale, got %+v", li)
	}
}

func TestLatencyMergeIsElementwiseMinMax(t *testing.T) {
	li := LatencyInfo{MinQuantum: 10, MaxQuantum: 20, MinRate: 44100, MaxRate: 48000, MinNs: 100, MaxNs: 200}
	li.Merge(LatencyInfo{MinQuantum: 5, MaxQuantum: 30, MinRate: 48000, MaxRate: 96000, MinNs: 50, MaxNs: 300})
	want := LatencyInfo{MinQuantum: 5, MaxQuantum: 30, MinRate: 44100, MaxRate: 96000, MinNs: 50, MaxNs: 300}
	if li != want {
		t.Fatalf("got %+v want %+v", li, want)
	}
}

func TestLatencyMergeIgnoresZeroOther(t *testing.T) {
	li := LatencyInfo{MinQuantum: 10, MaxQuantum: 20}
	li.Merge(LatencyInfo{})
	if li.MinQuantum != 10 || li.MaxQuantum != 20 {
		t.Fatalf("merging a zero LatencyInfo should be a no-op, got %+v", li)
	}
}

func TestAggregateLatencyCombinesOppositeDirectionOfOtherPorts(t *testing.T) {
	a := NewPort(1, 1, DirectionInput, 8)
	b := NewPort(2, 1, DirectionOutput, 8)
	c := NewPort(3, 1, DirectionOutput, 8)

	b.Latency[DirectionOutput] = LatencyInfo{MinNs: 100, MaxNs: 500}
	c.Latency[DirectionOutput] = LatencyInfo{MinNs: 50, MaxNs: 800}

	processLatency := LatencyInfo{MinNs: 10, MaxNs: 20}
	got := AggregateLatency([]*Port{a, b, c}, a, processLatency)

	if got.MinNs != 10 || got.MaxNs != 800 {
		t.Fatalf("unexpected aggregate: %+v", got)
	}
}
