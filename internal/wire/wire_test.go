package wire

import "testing"

func TestMarshalIoBuffersRoundTrip(t *testing.T) {
	in := IoBuffers{Status: IOStatusHaveData, BufferID: 7}
	buf := MarshalIoBuffers(&in)
	out := UnmarshalIoBuffers(buf)
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestParamIDString(t *testing.T) {
	if ParamFormat.String() != "Format" {
		t.Fatalf("unexpected String(): %s", ParamFormat.String())
	}
	if ParamID(999).String() != "Unknown" {
		t.Fatalf("expected Unknown for out-of-range id")
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionInput.String() != "Input" || DirectionOutput.String() != "Output" {
		t.Fatalf("unexpected direction strings")
	}
}
