//go:build linux

package mediagraph

import (
	"golang.org/x/sys/unix"

	"github.com/graphkit/mediagraph/internal/errcode"
	"github.com/graphkit/mediagraph/internal/wire"
)

// mappableTypes are the Data plane types this port will mmap (spec.md §4.3
// "if a plane is mappable ... mmap(prot) it").
func isMappable(t wire.DataType) bool {
	return t == wire.DataMemFd || t == wire.DataDmaBuf
}

// mapPlanes mmaps every mappable, fd-backed plane of b that doesn't
// already carry a pre-set data pointer, honoring the port's direction for
// the mmap protection bits (read-only for input, read+write otherwise),
// per spec.md §4.3.
func (p *Port) mapPlanes(b *Buffer) error {
	prot := unix.PROT_READ
	if p.Direction == DirectionOutput {
		prot |= unix.PROT_WRITE
	}
	for i := range b.Data {
		d := &b.Data[i]
		if !d.Mappable || !isMappable(d.Type) {
			continue
		}
		if d.Ptr != nil {
			continue // reuse pre-set pointer, per §4.3
		}
		if d.FD < 0 || d.MaxSize == 0 {
			continue
		}
		mem, err := unix.Mmap(d.FD, int64(d.MapOffset), int(d.MaxSize), prot, unix.MAP_SHARED)
		if err != nil {
			return errcode.Wrap("Port.mapPlanes", errcode.IO, err)
		}
		d.Ptr = mem
		if allowMlock() {
			if err := unix.Mlock(mem); err != nil {
				p.log.Warnf("mem.allow-mlock set but mlock failed (rlimit?): %v", err)
			}
		}
	}
	b.Flags |= BufferMapped
	return nil
}

func (p *Port) unmapPlanes(b *Buffer) {
	for i := range b.Data {
		d := &b.Data[i]
		if d.Ptr != nil && d.Mappable {
			_ = unix.Munmap(d.Ptr)
			d.Ptr = nil
		}
	}
	b.Flags &^= BufferMapped
}

// allowMlock reads the mem.allow-mlock policy; defaulting to false keeps
// locked-memory use opt-in, matching the original's conservative default.
var mlockEnabled bool

func allowMlock() bool { return mlockEnabled }

// SetAllowMlock toggles the process-wide mem.allow-mlock policy
// (spec.md §4.3 "controlled by mem.allow-mlock").
func SetAllowMlock(v bool) { mlockEnabled = v }
