package mediagraph

import "testing"

func TestNodeStateTransitionsFollowTable(t *testing.T) {
	n := NewNode(1, NewMockNodeImpl())
	if n.State != StateCreating {
		t.Fatalf("new node should start Creating, got %v", n.State)
	}

	if _, err := n.RequestState(StateRunning, nil); err == nil {
		t.Fatalf("Creating -> Running should be rejected")
	}

	seq, err := n.RequestState(StateSuspended, nil)
	if err != nil {
		t.Fatalf("Creating -> Suspended: %v", err)
	}
	n.CompleteState(seq, true, nil)
	if n.State != StateSuspended {
		t.Fatalf("expected Suspended after completion, got %v", n.State)
	}
}

func TestRequestStateCancelsPriorPending(t *testing.T) {
	n := NewNode(1, NewMockNodeImpl())
	seq1, err := n.RequestState(StateSuspended, nil)
	if err != nil {
		t.Fatalf("first RequestState: %v", err)
	}

	called := false
	seq2, err := n.RequestState(StateSuspended, func(ok bool, err error) { called = true })
	if err != nil {
		t.Fatalf("second RequestState: %v", err)
	}

	n.CompleteState(seq1, true, nil) // stale completion, should no-op
	if called {
		t.Fatalf("stale completion should not invoke the second callback")
	}

	n.CompleteState(seq2, true, nil)
	if !called {
		t.Fatalf("expected second completion to invoke its callback")
	}
	if n.State != StateSuspended {
		t.Fatalf("expected final state Suspended, got %v", n.State)
	}
}

func TestMarkUsingTriggerLatches(t *testing.T) {
	n := NewNode(1, NewMockNodeImpl())
	n.MarkUsingTrigger()
	if !n.usingTrigger {
		t.Fatalf("expected usingTrigger latched")
	}
	n.MarkUsingTrigger() // should just warn, not panic
}

func TestSuspendFallsBackToPauseOnNotSupported(t *testing.T) {
	impl := NewMockNodeImpl()
	impl.SetProcessResult(int32(StatusHaveData))
	n := NewNode(1, impl)

	impl2 := &notSupportedImpl{MockNodeImpl: impl}
	n.Impl = impl2

	n.Suspend()
	if n.State != StateSuspended {
		t.Fatalf("expected Suspended after Suspend(), got %v", n.State)
	}
	if impl2.commandCalls < 2 {
		t.Fatalf("expected fallback to Pause after NotSupported, got %d calls", impl2.commandCalls)
	}
}

// notSupportedImpl wraps MockNodeImpl, returning NotSupported on the first
// SendCommand call (simulating a backend that can't Suspend directly) and
// OK on the fallback Pause call.
type notSupportedImpl struct {
	*MockNodeImpl
	commandCalls int
}

func (n *notSupportedImpl) SendCommand(cmd uint32) int32 {
	n.commandCalls++
	if n.commandCalls == 1 {
		return -2 // errcode.NotSupported's numeric value, mirrored as a plain int32
	}
	return 0
}
