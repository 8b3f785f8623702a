package mediagraph

import (
	"testing"

	"github.com/graphkit/mediagraph/internal/paramstore"
	"github.com/graphkit/mediagraph/internal/wire"
)

func latencyObject(t *testing.T, minQuantum, maxQuantum, minRate, maxRate, minNs, maxNs int64) *paramstore.Object {
	t.Helper()
	return &paramstore.Object{
		ID: wire.ParamLatency,
		Props: []paramstore.Property{
			{Key: "min_quantum", Choice: paramstore.ChoiceNone, Default: minQuantum},
			{Key: "max_quantum", Choice: paramstore.ChoiceNone, Default: maxQuantum},
			{Key: "min_rate", Choice: paramstore.ChoiceNone, Default: minRate},
			{Key: "max_rate", Choice: paramstore.ChoiceNone, Default: maxRate},
			{Key: "min_ns", Choice: paramstore.ChoiceNone, Default: minNs},
			{Key: "max_ns", Choice: paramstore.ChoiceNone, Default: maxNs},
		},
	}
}

func TestUseBuffersOnOutputPortStartsAllDequeued(t *testing.T) {
	p := NewPort(1, 1, DirectionOutput, 8)
	buffers := []*Buffer{newTestBuffer(0, 64), newTestBuffer(1, 64)}
	if err := p.UseBuffers(buffers); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}

	id, err := p.DequeueBuffer()
	if err != nil {
		t.Fatalf("DequeueBuffer: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected buffer 0 first, got %d", id)
	}
	id2, err := p.DequeueBuffer()
	if err != nil {
		t.Fatalf("DequeueBuffer second: %v", err)
	}
	if id2 != 1 {
		t.Fatalf("expected buffer 1 second, got %d", id2)
	}
	if _, err := p.DequeueBuffer(); err == nil {
		t.Fatalf("expected error dequeuing from an empty ring")
	}
}

func TestUseBuffersOnInputPortStartsEmpty(t *testing.T) {
	p := NewPort(1, 1, DirectionInput, 8)
	buffers := []*Buffer{newTestBuffer(0, 64)}
	if err := p.UseBuffers(buffers); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}
	if _, err := p.DequeueBuffer(); err == nil {
		t.Fatalf("input port should start with nothing in dequeued")
	}
}

func TestQueueBufferThenPopQueuedRoundTrip(t *testing.T) {
	p := NewPort(1, 1, DirectionOutput, 8)
	buffers := []*Buffer{newTestBuffer(0, 64)}
	if err := p.UseBuffers(buffers); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}
	id, err := p.DequeueBuffer()
	if err != nil {
		t.Fatalf("DequeueBuffer: %v", err)
	}
	if err := p.QueueBuffer(id); err != nil {
		t.Fatalf("QueueBuffer: %v", err)
	}
	got, err := p.PopQueued()
	if err != nil {
		t.Fatalf("PopQueued: %v", err)
	}
	if got != id {
		t.Fatalf("PopQueued returned %d, want %d", got, id)
	}
}

func TestSetParamFormatNilClearsBuffers(t *testing.T) {
	p := NewPort(1, 1, DirectionOutput, 8)
	buffers := []*Buffer{newTestBuffer(0, 64)}
	if err := p.UseBuffers(buffers); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}
	if err := p.SetParam(wire.ParamFormat, 0, nil); err != nil {
		t.Fatalf("SetParam(Format, nil): %v", err)
	}
	if len(p.Buffers()) != 0 {
		t.Fatalf("expected buffers cleared, got %d", len(p.Buffers()))
	}
}

func TestSetParamLatencyMergesIntoSide(t *testing.T) {
	p := NewPort(1, 1, DirectionOutput, 8)
	obj := latencyObject(t, 256, 2048, 44100, 48000, 1000, 5000)
	if err := p.SetParam(wire.ParamLatency, 0, obj); err != nil {
		t.Fatalf("SetParam(Latency): %v", err)
	}
	got := p.Latency[DirectionOutput]
	if got.MinQuantum != 256 || got.MaxQuantum != 2048 {
		t.Fatalf("unexpected latency after merge: %+v", got)
	}
}

func TestClearBuffersResetsRings(t *testing.T) {
	p := NewPort(1, 1, DirectionOutput, 8)
	buffers := []*Buffer{newTestBuffer(0, 64)}
	if err := p.UseBuffers(buffers); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}
	p.ClearBuffers()
	if len(p.Buffers()) != 0 {
		t.Fatalf("expected no buffers after ClearBuffers")
	}
	if _, err := p.DequeueBuffer(); err == nil {
		t.Fatalf("expected empty ring after ClearBuffers")
	}
}
