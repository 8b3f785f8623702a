package mediagraph

import (
	"github.com/graphkit/mediagraph/internal/constants"
)

// Re-export tunables for public API (spec.md §2/§4.5 "ambient config").
const (
	MaxBuffers          = constants.MaxBuffers
	DefaultQueueDepth    = constants.DefaultQueueDepth
	InlineBufferSize     = constants.InlineBufferSize
	DefaultSyncTimeout   = constants.DefaultSyncTimeout
	XrunLogInterval      = constants.XrunLogInterval
	XrunLogBurst         = constants.XrunLogBurst
	CPULoadWeightFast    = constants.CPULoadWeightFast
	CPULoadWeightMedium  = constants.CPULoadWeightMedium
	CPULoadWeightSlow    = constants.CPULoadWeightSlow
	DefaultPauseOnIdle   = constants.DefaultPauseOnIdle
	DefaultSuspendOnIdle = constants.DefaultSuspendOnIdle
	MainLoopQueueDepth   = constants.MainLoopQueueDepth
)
