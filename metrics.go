package mediagraph

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphkit/mediagraph/internal/interfaces"
)

// LatencyBuckets are the cycle-duration histogram bucket upper bounds in
// nanoseconds, covering 10us (a very tight audio quantum) up to 1s
// (a stalled graph).
var LatencyBuckets = []uint64{
	10_000,      // 10us
	50_000,      // 50us
	100_000,     // 100us
	500_000,     // 500us
	1_000_000,   // 1ms
	5_000_000,   // 5ms
	20_000_000,  // 20ms
	100_000_000, // 100ms
	1_000_000_000,
}

const numLatencyBuckets = 9

// Metrics tracks process-cycle and graph-health statistics (spec.md §4.5
// "CPU load moving averages", §4.5 "xrun detection", §4.2 queue
// accounting).
type Metrics struct {
	CyclesCompleted atomic.Uint64
	XrunCount       atomic.Uint64
	DrainedCount    atomic.Uint64

	TotalLatencyNs atomic.Uint64
	CycleCount     atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// CPU load moving averages with weights 1/2, 1/8, 1/32 (§4.5 step 5),
	// stored as fixed-point (load * 1e6) since atomic.Float64 doesn't
	// exist in the standard library.
	loadFastMicros   atomic.Uint64
	loadMediumMicros atomic.Uint64
	loadSlowMicros   atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a zeroed Metrics with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordCycle records one completed driver cycle's wall-clock duration.
func (m *Metrics) RecordCycle(latencyNs uint64) {
	m.CyclesCompleted.Add(1)
	m.TotalLatencyNs.Add(latencyNs)
	m.CycleCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// RecordXrun increments the xrun counter (§4.5 "increment xrun_count").
func (m *Metrics) RecordXrun() { m.XrunCount.Add(1) }

// RecordDrained increments the drained-event counter.
func (m *Metrics) RecordDrained() { m.DrainedCount.Add(1) }

// UpdateCPULoad recomputes the three moving averages from a new sample,
// using the weights specified in §4.5 step 5 (1/2, 1/8, 1/32).
func (m *Metrics) UpdateCPULoad(sample float64) {
	updateEMA(&m.loadFastMicros, sample, constCPUWeightFast)
	updateEMA(&m.loadMediumMicros, sample, constCPUWeightMedium)
	updateEMA(&m.loadSlowMicros, sample, constCPUWeightSlow)
}

const (
	constCPUWeightFast   = 1.0 / 2.0
	constCPUWeightMedium = 1.0 / 8.0
	constCPUWeightSlow   = 1.0 / 32.0
)

func updateEMA(store *atomic.Uint64, sample, weight float64) {
	for {
		old := store.Load()
		oldVal := float64(old) / 1e6
		newVal := oldVal + weight*(sample-oldVal)
		newStored := uint64(newVal * 1e6)
		if store.CompareAndSwap(old, newStored) {
			return
		}
	}
}

// MetricsSnapshot is a point-in-time read of Metrics.
type MetricsSnapshot struct {
	CyclesCompleted  uint64
	XrunCount        uint64
	DrainedCount     uint64
	AvgLatencyNs     uint64
	LatencyHistogram [numLatencyBuckets]uint64
	LoadFast         float64
	LoadMedium       float64
	LoadSlow         float64
	UptimeNs         uint64
}

// Snapshot captures the current metrics state.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		CyclesCompleted: m.CyclesCompleted.Load(),
		XrunCount:       m.XrunCount.Load(),
		DrainedCount:    m.DrainedCount.Load(),
		LoadFast:        float64(m.loadFastMicros.Load()) / 1e6,
		LoadMedium:      float64(m.loadMediumMicros.Load()) / 1e6,
		LoadSlow:        float64(m.loadSlowMicros.Load()) / 1e6,
		UptimeNs:        uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if n := m.CycleCount.Load(); n > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / n
	}
	for i := range LatencyBuckets {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	return snap
}

// Reset zeroes all counters; useful in tests.
func (m *Metrics) Reset() {
	m.CyclesCompleted.Store(0)
	m.XrunCount.Store(0)
	m.DrainedCount.Store(0)
	m.TotalLatencyNs.Store(0)
	m.CycleCount.Store(0)
	for i := range m.LatencyBuckets {
		m.LatencyBuckets[i].Store(0)
	}
	m.loadFastMicros.Store(0)
	m.loadMediumMicros.Store(0)
	m.loadSlowMicros.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
}

// MetricsObserver adapts Metrics to internal/interfaces.Observer, letting
// scheduler/paramstore code observe process cycles, xruns, and queue depth
// without importing the root package (avoiding an import cycle).
type MetricsObserver struct {
	metrics     *Metrics
	queueDepths sync.Map // portID(uint64) -> last observed depth (uint32)
}

// NewMetricsObserver creates an Observer backed by m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveProcess(latencyNs uint64) { o.metrics.RecordCycle(latencyNs) }
func (o *MetricsObserver) ObserveXrun(nodeID uint64)       { o.metrics.RecordXrun() }
func (o *MetricsObserver) ObserveQueueDepth(portID uint64, depth uint32) {
	o.queueDepths.Store(portID, depth)
}

// QueueDepth returns the last depth observed for portID, or 0 if none.
func (o *MetricsObserver) QueueDepth(portID uint64) uint32 {
	v, ok := o.queueDepths.Load(portID)
	if !ok {
		return 0
	}
	return v.(uint32)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)

// NoOpObserver discards every observation; used as the default when the
// caller doesn't wire metrics.
type NoOpObserver struct{}

func (NoOpObserver) ObserveProcess(uint64)             {}
func (NoOpObserver) ObserveXrun(uint64)                {}
func (NoOpObserver) ObserveQueueDepth(uint64, uint32)  {}

var _ interfaces.Observer = NoOpObserver{}
