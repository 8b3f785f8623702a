// Package constants holds the numeric and timing defaults shared across the
// graph runtime.
package constants

import "time"

// Buffer and queue limits
const (
	// MaxBuffers is the maximum number of buffers a port may hold (§3 Port).
	MaxBuffers = 64

	// DefaultQueueDepth is the default ring capacity (must be a power of two;
	// rounded up by the ring constructor if not).
	DefaultQueueDepth = 64

	// InlineBufferSize is the size of the per-buffer inline mmap region
	// before overflow allocations are served from internal/bufpool.
	InlineBufferSize = 64 * 1024

	// MainLoopQueueDepth is the default invocation queue depth for the
	// graph's non-RT dispatch loop (internal/mainloop.Loop).
	MainLoopQueueDepth = 256
)

// Scheduler timing defaults
const (
	// DefaultSyncTimeout is how long the driver waits in Starting before
	// forcing Running (§4.5 step 6, §8 S2).
	DefaultSyncTimeout = 50 * time.Millisecond

	// XrunLogInterval and XrunLogBurst bound how often xrun/missed-wakeup
	// warnings reach the log (§4.5, §5).
	XrunLogInterval = 2 * time.Second
	XrunLogBurst    = 1

	// CPU load EMA weights used when the driver closes a cycle (§4.5 step 5).
	CPULoadWeightFast   = 1.0 / 2.0
	CPULoadWeightMedium = 1.0 / 8.0
	CPULoadWeightSlow   = 1.0 / 32.0
)

// Default property values (§6 property keys)
const (
	DefaultPauseOnIdle   = true
	DefaultSuspendOnIdle = false
)
