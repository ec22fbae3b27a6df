package goCred

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricSignupSuccess counts accounts created.
	MetricSignupSuccess MetricID = iota
	// MetricSignupDuplicate counts signups rejected because the email exists.
	MetricSignupDuplicate
	// MetricSignupInvalid counts signups rejected by field validation.
	MetricSignupInvalid
	// MetricSigninSuccess counts issued credentials.
	MetricSigninSuccess
	// MetricSigninUserNotFound counts signins for unknown emails, whether or
	// not the failure is collapsed for the caller.
	MetricSigninUserNotFound
	// MetricSigninPasswordMismatch counts signins with a wrong password.
	MetricSigninPasswordMismatch
	// MetricSessionCreated counts opaque sessions written to the store.
	MetricSessionCreated
	// MetricTokenIssued counts stateless tokens signed.
	MetricTokenIssued
	// MetricResolveSuccess counts credentials resolved into an identity.
	MetricResolveSuccess
	// MetricResolveFailure counts credentials rejected by Resolve.
	MetricResolveFailure
	// MetricResolveOrphanedSession counts opaque sessions whose user no longer exists.
	MetricResolveOrphanedSession
	// MetricLogout counts successful logouts.
	MetricLogout
	// MetricProfileUpdate counts successful name changes.
	MetricProfileUpdate
	// MetricResolveLatency is the only histogram: wall time of Resolve.
	MetricResolveLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus one latency histogram.
// The zero value is disabled; construct with [NewMetrics].
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter. Histograms holds
// non-cumulative bucket counts keyed by [MetricResolveLatency].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the resolve histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. It is a no-op on a nil or disabled Metrics.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into the histogram for id. Only [MetricResolveLatency]
// carries a histogram; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricResolveLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the histogram buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricResolveLatency].buckets[i])
		}
		s.Histograms[MetricResolveLatency] = buckets
	}

	return s
}

// bucket upper bounds: 5, 10, 25, 50, 100, 250, 500 ms, +Inf
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
