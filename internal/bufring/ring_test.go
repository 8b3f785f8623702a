package bufring

import "testing"

func TestPushPopOrderAndEmpty(t *testing.T) {
	r := New(8)
	if !r.IsEmpty() {
		t.Fatalf("new ring must be empty")
	}
	if _, err := r.Pop(0); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	if err := r.Push(3, 1024); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if r.IsEmpty() {
		t.Fatalf("ring must not be empty after push")
	}
	id, err := r.Pop(1024)
	if err != nil || id != 3 {
		t.Fatalf("pop: got (%d, %v), want (3, nil)", id, err)
	}
	if !r.IsEmpty() {
		t.Fatalf("ring must be empty after draining")
	}
}

func TestPushAlreadyQueuedRejected(t *testing.T) {
	r := New(8)
	if err := r.Push(5, 0); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if err := r.Push(5, 0); err != ErrAlreadyQueued {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
	if _, err := r.Pop(0); err != nil {
		t.Fatalf("pop: %v", err)
	}
	// Once popped, the id is free to be requeued.
	if err := r.Push(5, 0); err != nil {
		t.Fatalf("re-push after pop should succeed: %v", err)
	}
}

func TestCapacityRoundsToPowerOfTwo(t *testing.T) {
	r := New(64)
	if r.Cap() != 64 {
		t.Fatalf("expected cap 64, got %d", r.Cap())
	}
	r2 := New(40)
	if r2.Cap() != 64 {
		t.Fatalf("expected cap rounded to 64, got %d", r2.Cap())
	}
}

func TestWraparoundWithFullRingOf64(t *testing.T) {
	r := New(64)
	for id := uint32(0); id < 64; id++ {
		if err := r.Push(id, 1); err != nil {
			t.Fatalf("push %d: %v", id, err)
		}
	}
	if err := r.Push(0, 1); err != ErrAlreadyQueued && err != ErrFull {
		t.Fatalf("expected rejection pushing into a full ring, got %v", err)
	}

	// Drain and refill several times to exercise index wraparound past 64.
	for round := 0; round < 4; round++ {
		for i := 0; i < 64; i++ {
			id, err := r.Pop(1)
			if err != nil {
				t.Fatalf("round %d pop %d: %v", round, i, err)
			}
			if id != uint32(i) {
				t.Fatalf("round %d: expected FIFO order id=%d, got %d", round, i, id)
			}
		}
		if !r.IsEmpty() {
			t.Fatalf("round %d: ring should be empty after full drain", round)
		}
		for id := uint32(0); id < 64; id++ {
			if err := r.Push(id, 1); err != nil {
				t.Fatalf("round %d re-push %d: %v", round, id, err)
			}
		}
	}

	in, out := r.Counts()
	if in != out+64 {
		t.Fatalf("expected incount - outcount == 64 (one full ring resident), got in=%d out=%d", in, out)
	}
	if r.Queued() != 64 {
		t.Fatalf("expected Queued()==64, got %d", r.Queued())
	}
}

func TestContainsReflectsPresence(t *testing.T) {
	r := New(8)
	if r.Contains(2) {
		t.Fatalf("id should not be present before push")
	}
	_ = r.Push(2, 0)
	if !r.Contains(2) {
		t.Fatalf("id should be present after push")
	}
	_, _ = r.Pop(0)
	if r.Contains(2) {
		t.Fatalf("id should not be present after pop")
	}
}
