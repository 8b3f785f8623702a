package mediagraph

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/graphkit/mediagraph/internal/paramstore"
	"github.com/graphkit/mediagraph/internal/wire"
)

// outputPort returns the single port Connect added to s's backing node.
func outputPort(t *testing.T, s *Stream) *Port {
	t.Helper()
	for _, p := range s.Node().OutputPorts {
		return p
	}
	t.Fatalf("stream has no output port")
	return nil
}

func inputPort(t *testing.T, s *Stream) *Port {
	t.Helper()
	for _, p := range s.Node().InputPorts {
		return p
	}
	t.Fatalf("stream has no input port")
	return nil
}

func notDriverProps() *PropertyBag {
	props := NewPropertyBag()
	props.Set("node.want-driver", "false")
	return props
}

func TestStreamConnectTransitionsToPaused(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "out", notDriverProps())
	if got := s.State(); got != StreamUnconnected {
		t.Fatalf("initial state = %v, want Unconnected", got)
	}
	if err := s.Connect(DirectionOutput, 4); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := s.State(); got != StreamPaused {
		t.Fatalf("state after Connect = %v, want Paused", got)
	}
	if err := s.Connect(DirectionOutput, 4); !HasCode(err, CodeBusy) {
		t.Fatalf("second Connect should report CodeBusy, got %v", err)
	}
}

func TestStreamDequeueQueueProcessFlushDrain(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "out", notDriverProps())
	if err := s.Connect(DirectionOutput, 4); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	port := outputPort(t, s)
	if err := port.UseBuffers([]*Buffer{newTestBuffer(0, 64), newTestBuffer(1, 64)}); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}
	port.SetIO(&wire.IoBuffers{})

	id, err := s.DequeueBuffer()
	if err != nil {
		t.Fatalf("DequeueBuffer: %v", err)
	}
	buf, ok := port.Buffer(id)
	if !ok {
		t.Fatalf("buffer %d not found after DequeueBuffer", id)
	}
	buf.Data[0].Ptr[0] = 7

	if err := s.QueueBuffer(id); err != nil {
		t.Fatalf("QueueBuffer: %v", err)
	}

	if status := s.processOutput(); status != StatusHaveData {
		t.Fatalf("processOutput() = %v, want StatusHaveData", status)
	}
	io := port.IO()
	if io.BufferID != id || io.Status != wire.IOStatusHaveData {
		t.Fatalf("processOutput did not publish the queued buffer via io, got %+v", io)
	}

	var drained bool
	s.SetDrainedCallback(func() { drained = true })
	s.Flush(true)
	if status := s.processOutput(); status != StatusDrained {
		t.Fatalf("processOutput after Flush(drain) = %v, want StatusDrained", status)
	}
	if !drained {
		t.Fatalf("drained callback was not invoked")
	}
}

func TestStreamProcessInputConsumesQueuedBuffer(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "in", notDriverProps())
	if err := s.Connect(DirectionInput, 4); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	port := inputPort(t, s)
	if err := port.UseBuffers([]*Buffer{newTestBuffer(0, 64)}); err != nil {
		t.Fatalf("UseBuffers: %v", err)
	}

	if status := s.processInput(); status != StatusNeedData {
		t.Fatalf("processInput with nothing delivered = %v, want StatusNeedData", status)
	}

	port.SetIO(&wire.IoBuffers{Status: wire.IOStatusHaveData, BufferID: 0})
	if status := s.processInput(); status != StatusNeedData {
		t.Fatalf("processInput after io delivers a buffer with nothing queued back = %v, want StatusNeedData", status)
	}
	if id, err := s.DequeueBuffer(); err != nil || id != 0 {
		t.Fatalf("delivered buffer not dequeuable: id=%d err=%v", id, err)
	}
}

// TestProcessDispatchPolicyRTVsPosted covers spec.md §4.6's process-callback
// dispatch policy: FlagRTProcess runs the callback on the calling goroutine,
// otherwise it is posted onto the graph's internal/mainloop.Loop instead.
func TestProcessDispatchPolicyRTVsPosted(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "rt", notDriverProps())

	var calls int32
	s.SetProcessCallback(func() { atomic.AddInt32(&calls, 1) }, FlagRTProcess)
	s.dispatchProcessCB()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("FlagRTProcess callback did not run synchronously, calls=%d", got)
	}

	atomic.StoreInt32(&calls, 0)
	s.SetProcessCallback(func() { atomic.AddInt32(&calls, 1) }, 0)
	s.dispatchProcessCB()
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("non-RT callback ran synchronously instead of posting to the main loop, calls=%d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.MainLoop().Run(ctx)
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatalf("main loop never drained the posted callback")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

// TestProcessEarlyFlagOrdersCallbackBeforeMix covers the early_process
// prefetch (spec.md §4.6): on an output port, FlagEarlyProcess runs the
// user callback before the mixer, instead of after.
func TestProcessEarlyFlagOrdersCallbackBeforeMix(t *testing.T) {
	cases := []struct {
		name       string
		flags      StreamFlags
		wantStatus int32
	}{
		{"without early_process the mixer runs first and finds nothing queued", 0, int32(StatusNeedData)},
		{"with early_process the callback fills the queue before the mixer runs", FlagEarlyProcess, int32(StatusHaveData)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGraph()
			s := NewStream(g, "early", notDriverProps())
			if err := s.Connect(DirectionOutput, 4); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			port := outputPort(t, s)
			if err := port.UseBuffers([]*Buffer{newTestBuffer(0, 64)}); err != nil {
				t.Fatalf("UseBuffers: %v", err)
			}
			port.SetIO(&wire.IoBuffers{})

			s.SetProcessCallback(func() {
				id, err := s.DequeueBuffer()
				if err != nil {
					return
				}
				_ = s.QueueBuffer(id)
			}, tc.flags|FlagRTProcess)

			impl, ok := s.Node().Impl.(*streamImpl)
			if !ok {
				t.Fatalf("node impl is not a *streamImpl")
			}
			if got := impl.Process(context.Background()); got != tc.wantStatus {
				t.Fatalf("Process() = %v, want %v", got, tc.wantStatus)
			}
		})
	}
}

func TestSetControlRoundTrip(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "ctrl", notDriverProps())
	if err := s.Connect(DirectionInput, 4); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	port := inputPort(t, s)

	// Warm the store's cache with an empty, unbounded delegated query so
	// the Add below (driven through SetControl) is visible to a later
	// nil-delegate ForEachParam, per paramstore's documented caching
	// contract (internal/paramstore/store.go "ForEachParam").
	noopDelegate := func(wire.ParamID, int, int, *paramstore.Object, func(paramstore.Object) error) error { return nil }
	if err := port.Params.ForEachParam(wire.ParamProps, 0, paramstore.Unbounded, nil, noopDelegate, func(paramstore.Object) error { return nil }); err != nil {
		t.Fatalf("warming ForEachParam: %v", err)
	}

	if err := s.SetControl(map[string]float64{"volume": 0.5}); err != nil {
		t.Fatalf("SetControl: %v", err)
	}

	var got *paramstore.Property
	err := port.Params.ForEachParam(wire.ParamProps, 0, paramstore.Unbounded, nil, nil, func(obj paramstore.Object) error {
		for i := range obj.Props {
			if obj.Props[i].Key == "volume" {
				got = &obj.Props[i]
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachParam: %v", err)
	}
	if got == nil {
		t.Fatalf("volume control not found after SetControl")
	}
	if got.Default != 0.5 {
		t.Fatalf("volume = %v, want 0.5", got.Default)
	}
}

func TestGetTimeSeqLockRoundTrip(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "time", notDriverProps())
	want := Time{Now: 123, QueuedBytes: 456, BufferedNs: 789, Delay: 10}
	s.UpdateTime(want)
	if got := s.GetTime(); got != want {
		t.Fatalf("GetTime() = %+v, want %+v", got, want)
	}
}

func TestGetTimeSeqLockNeverObservesTornWrite(t *testing.T) {
	g := NewGraph()
	s := NewStream(g, "time-concurrent", notDriverProps())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(0); i < 2000; i++ {
			s.UpdateTime(Time{Now: i, QueuedBytes: uint64(i)})
		}
	}()
	for i := 0; i < 2000; i++ {
		got := s.GetTime()
		if got.Now != 0 && uint64(got.Now) != got.QueuedBytes {
			t.Fatalf("torn read: Now=%d QueuedBytes=%d", got.Now, got.QueuedBytes)
		}
	}
	<-done
}

func TestFilterAddRemovePortAndProcessCallback(t *testing.T) {
	g := NewGraph()
	f := NewFilter(g, "filt", nil)
	port, err := f.AddPort(DirectionInput, 4)
	if err != nil {
		t.Fatalf("AddPort: %v", err)
	}
	if _, ok := f.Node().InputPorts[port.ID]; !ok {
		t.Fatalf("AddPort did not register the port on the backing node")
	}

	var called bool
	f.SetProcessCallback(func() { called = true })
	rc := f.Node().Impl.Process(context.Background())
	if rc != int32(StatusHaveData) {
		t.Fatalf("Process() = %d, want StatusHaveData", rc)
	}
	if !called {
		t.Fatalf("filter process callback was not invoked")
	}

	f.RemovePort(port.ID, DirectionInput)
	if _, ok := f.Node().InputPorts[port.ID]; ok {
		t.Fatalf("RemovePort did not remove the port")
	}
}
