package mediagraph

import (
	"context"
	"sync"

	"github.com/graphkit/mediagraph/internal/interfaces"
)

// MockNodeImpl provides a mock interfaces.NodeImpl for testing graph
// wiring, scheduling, and the Stream/Filter facades without a real media
// implementation behind them. It tracks method calls for verification.
type MockNodeImpl struct {
	mu sync.RWMutex

	ProcessFunc func(ctx context.Context) int32
	processRC   int32

	listeners []interfaces.NodeListener
	cb        interfaces.NodeCallbacks

	processCalls     int
	sendCommandCalls int
	setParamCalls    int
	lastCommand      uint32
}

// NewMockNodeImpl creates a mock whose Process returns HaveData by default.
func NewMockNodeImpl() *MockNodeImpl {
	return &MockNodeImpl{processRC: int32(StatusHaveData)}
}

// SetProcessResult fixes the value Process returns absent a ProcessFunc.
func (m *MockNodeImpl) SetProcessResult(rc int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processRC = rc
}

func (m *MockNodeImpl) AddListener(l interfaces.NodeListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
	idx := len(m.listeners) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.listeners) {
			m.listeners[idx] = nil
		}
	}
}

func (m *MockNodeImpl) SetCallbacks(cb interfaces.NodeCallbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = cb
}

func (m *MockNodeImpl) EnumParams(seq int32, id uint32, start, num uint32, filter any) int32 {
	return 0
}

func (m *MockNodeImpl) SetParam(id uint32, flags uint32, param any) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setParamCalls++
	return 0
}

func (m *MockNodeImpl) SetIO(id uint32, data any, size uint32) int32 { return 0 }

func (m *MockNodeImpl) SendCommand(cmd uint32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCommandCalls++
	m.lastCommand = cmd
	return 0
}

func (m *MockNodeImpl) AddPort(direction uint32, props map[string]string) (uint32, error) {
	return 0, nil
}
func (m *MockNodeImpl) RemovePort(portID uint32) int32 { return 0 }
func (m *MockNodeImpl) PortEnumParams(seq int32, portID, id, start, num uint32, filter any) int32 {
	return 0
}
func (m *MockNodeImpl) PortSetParam(portID, id, flags uint32, param any) int32 { return 0 }
func (m *MockNodeImpl) PortSetIO(portID, id uint32, data any, size uint32) int32 { return 0 }
func (m *MockNodeImpl) PortUseBuffers(portID, flags uint32, buffers []interfaces.BufferSpec) int32 {
	return 0
}
func (m *MockNodeImpl) PortReuseBuffer(portID, bufferID uint32) int32 { return 0 }

// Process implements interfaces.NodeImpl, invoking ProcessFunc if set,
// otherwise returning the fixed result from SetProcessResult.
func (m *MockNodeImpl) Process(ctx context.Context) int32 {
	m.mu.Lock()
	m.processCalls++
	fn := m.ProcessFunc
	rc := m.processRC
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return rc
}

// ProcessCalls returns how many times Process has run.
func (m *MockNodeImpl) ProcessCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.processCalls
}

// SendCommandCalls returns how many times SendCommand has run, and the most
// recently received command.
func (m *MockNodeImpl) SendCommandCalls() (count int, lastCmd uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sendCommandCalls, m.lastCommand
}

// SetParamCalls returns how many times SetParam has run.
func (m *MockNodeImpl) SetParamCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setParamCalls
}

var _ interfaces.NodeImpl = (*MockNodeImpl)(nil)
