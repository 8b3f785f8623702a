//go:build !iouring_giouring

package iouring

import "testing"

func TestStubReturnsNotEnabled(t *testing.T) {
	if _, err := New(8); err != ErrNotEnabled {
		t.Fatalf("expected ErrNotEnabled, got %v", err)
	}
}
