package wakeup

import (
	"context"
	"testing"
	"time"
)

func TestSetWaitReportsSignaledSource(t *testing.T) {
	set, err := NewSet()
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer set.Close()

	a, err := New()
	if err != nil {
		t.Fatalf("New a: %v", err)
	}
	defer a.Close()
	b, err := New()
	if err != nil {
		t.Fatalf("New b: %v", err)
	}
	defer b.Close()

	if err := set.Add(1, a); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if err := set.Add(2, b); err != nil {
		t.Fatalf("Add b: %v", err)
	}

	if err := b.Signal(); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ready, err := set.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	found := false
	for _, r := range ready {
		if r.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected id 2 to be reported ready, got %+v", ready)
	}
}
