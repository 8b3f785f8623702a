package wire

import (
	"encoding/binary"
	"math"
)

// MarshalIoBuffers encodes an IoBuffers slot in little-endian byte order
// via a hand-rolled struct<->bytes codec rather than reflection-based
// encoding, since this type is mapped directly into a shared-memory region.
func MarshalIoBuffers(b *IoBuffers) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(b.Status))
	binary.LittleEndian.PutUint32(buf[4:8], b.BufferID)
	return buf
}

// UnmarshalIoBuffers decodes an IoBuffers slot previously written by
// MarshalIoBuffers (or by a peer process sharing the mapping).
func UnmarshalIoBuffers(data []byte) IoBuffers {
	return IoBuffers{
		Status:   IOStatus(int32(binary.LittleEndian.Uint32(data[0:4]))),
		BufferID: binary.LittleEndian.Uint32(data[4:8]),
	}
}

// MarshalIoRateMatch encodes an IoRateMatch slot.
func MarshalIoRateMatch(r *IoRateMatch) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], r.Delay)
	binary.LittleEndian.PutUint32(buf[4:8], r.Size)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(r.Rate))
	return buf
}
