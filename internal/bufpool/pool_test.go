package bufpool

import "testing"

func TestGetPutRoundTrip(t *testing.T) {
	b := Get(200 * 1024)
	if len(b) != 200*1024 {
		t.Fatalf("unexpected length: %d", len(b))
	}
	if cap(b) != Size256k {
		t.Fatalf("expected bucket %d, got cap %d", Size256k, cap(b))
	}
	Put(b)

	b2 := Get(200 * 1024)
	if cap(b2) != Size256k {
		t.Fatalf("expected recycled bucket size")
	}
}

func TestGetExactSizes(t *testing.T) {
	cases := []uint32{1, Size128k, Size128k + 1, Size1m, Size1m + 1}
	for _, sz := range cases {
		b := Get(sz)
		if uint32(len(b)) != sz {
			t.Fatalf("size %d: got len %d", sz, len(b))
		}
	}
}
