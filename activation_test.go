package mediagraph

import "testing"

func TestActivationStateResetRestoresPendingFromRequired(t *testing.T) {
	var s ActivationState
	s.Required.Store(3)
	s.Pending.Store(0)
	s.Status.Store(int32(StatusFinished))

	s.Reset()

	if s.Pending.Load() != 3 {
		t.Fatalf("pending = %d, want 3", s.Pending.Load())
	}
	if NodeStatus(s.Status.Load()) != StatusNotTriggered {
		t.Fatalf("status = %v, want NotTriggered", NodeStatus(s.Status.Load()))
	}
}

func TestActivationStateDecrementEdgeTriggersAtZero(t *testing.T) {
	var s ActivationState
	s.Required.Store(2)
	s.Reset()

	if reached := s.Decrement(); reached {
		t.Fatalf("first decrement should not reach zero")
	}
	if reached := s.Decrement(); !reached {
		t.Fatalf("second decrement should reach zero")
	}
}

func TestNewActivationStartsNotTriggered(t *testing.T) {
	act := NewActivation()
	if NodeStatus(act.Status.Load()) != StatusNotTriggered {
		t.Fatalf("new activation should start NotTriggered")
	}
}
