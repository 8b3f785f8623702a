// Package wire defines the self-describing, wire-shaped types that cross
// the node/port boundary: param identifiers, buffer plane types, and the
// IO structures mapped into the activation record (§3, §6).
package wire

// ParamID identifies the kind of configuration blob a ParamBlob carries
// (§3 ParamBlob).
type ParamID uint32

const (
	ParamInvalid ParamID = iota
	ParamFormat
	ParamEnumFormat
	ParamBuffers
	ParamMeta
	ParamIO
	ParamLatency
	ParamTag
	ParamPropInfo
	ParamProps
	ParamProcessLatency
	ParamPortConfig
	numParamIDs
)

// NumParamIDs is the count of well-known param ids (ParamInvalid through
// ParamPortConfig).
const NumParamIDs = int(numParamIDs)

func (id ParamID) String() string {
	switch id {
	case ParamInvalid:
		return "Invalid"
	case ParamFormat:
		return "Format"
	case ParamEnumFormat:
		return "EnumFormat"
	case ParamBuffers:
		return "Buffers"
	case ParamMeta:
		return "Meta"
	case ParamIO:
		return "IO"
	case ParamLatency:
		return "Latency"
	case ParamTag:
		return "Tag"
	case ParamPropInfo:
		return "PropInfo"
	case ParamProps:
		return "Props"
	case ParamProcessLatency:
		return "ProcessLatency"
	case ParamPortConfig:
		return "PortConfig"
	default:
		return "Unknown"
	}
}

// ParamFlags are the flags a ParamBlob carries (§3 ParamBlob).
type ParamFlags uint32

const (
	// ParamLocked means: do not clear this blob on a bulk clear(ALL).
	ParamLocked ParamFlags = 1 << iota
)

// DataType enumerates the kind of memory a Data plane references (§3
// Buffer, §4.1 Buffers-param rewrite for mappable types).
type DataType uint32

const (
	DataInvalid DataType = iota
	DataMemPtr
	DataMemFd
	DataDmaBuf
	DataMemAnon
)

func (t DataType) String() string {
	switch t {
	case DataMemPtr:
		return "MemPtr"
	case DataMemFd:
		return "MemFd"
	case DataDmaBuf:
		return "DmaBuf"
	case DataMemAnon:
		return "MemAnon"
	default:
		return "Invalid"
	}
}

// Direction is a port's data-flow direction (§3 Port, §6 Stream directions).
type Direction uint32

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionOutput {
		return "Output"
	}
	return "Input"
}

// IOStatus is the handshake status carried in IoBuffers (§6).
type IOStatus int32

const (
	IOStatusOK IOStatus = iota
	IOStatusHaveData
	IOStatusNeedData
	IOStatusDrained
)

// TransportState is IoPosition.State (§6 IoPosition).
type TransportState uint32

const (
	TransportStopped TransportState = iota
	TransportStarting
	TransportRunning
)

// Command is the activation command enum (§6 "Activation command enum").
type Command uint32

const (
	CommandNone Command = iota
	CommandStart
	CommandStop
)
