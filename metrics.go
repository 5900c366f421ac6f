package authcore

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRotateSuccess
	MetricRotateFailure
	MetricRotateReuseDetected
	MetricValidateSuccess
	MetricValidateFailure
	MetricValidateRevoked
	MetricPermissionDenied
	MetricRevocations
	MetricLogout
	MetricLogoutAll
	MetricAccountCreationSuccess
	MetricAccountCreationDuplicate
	MetricCacheFailOpen
	MetricValidateLatency
	metricIDCount
)

const histBucketCount = 8

// latencyBoundsMs are the upper bucket bounds of the validate-latency
// histogram in milliseconds; the ninth bucket is implicit +Inf.
var latencyBoundsMs = [histBucketCount - 1]int64{5, 10, 25, 50, 100, 250, 500}

// paddedCounter occupies a full cache line so hot counters incremented from
// different cores never false-share.
type paddedCounter struct {
	value uint64
	_     [56]byte
}

// Metrics is the engine's in-process counter set. Increments are lock-free
// atomic adds; a disabled Metrics reduces every call to a single branch.
// Only MetricValidateLatency carries a histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	latency       [histBucketCount]uint64
}

// MetricsSnapshot is a point-in-time copy safe to hand to exporters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a validation latency sample. IDs without a histogram are
// ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricValidateLatency {
		return
	}
	atomic.AddUint64(&m.latency[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := range m.counters {
		snap.Counters[MetricID(id)] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range m.latency {
			buckets[i] = atomic.LoadUint64(&m.latency[i])
		}
		snap.Histograms[MetricValidateLatency] = buckets
	}

	return snap
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range latencyBoundsMs {
		if ms <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
