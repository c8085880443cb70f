package zinc

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// streamReset and streamFinish index the two management streams
// throughout Metrics: reset at 0, finish at 1.
const (
	streamReset = 0
	streamFinish = 1
	numStreams  = 2
)

// Metrics tracks dispatch and admission statistics for a Scheduler
// instance, following the teacher's atomic-counter-plus-Snapshot shape
// but re-keyed to the scheduler's own domain: workload I/O counters
// stay close to the teacher's, management-gate admission counters and
// epoch bookkeeping are new.
type Metrics struct {
	// Workload I/O counters, one set per direction.
	ReadOps  atomic.Uint64
	WriteOps atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	// Queue depth summed across all priority buckets, sampled on insert.
	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	// Management-gate admissions, indexed by [streamReset|streamFinish].
	ManagementAdmittedDrain      [numStreams]atomic.Uint64
	ManagementAdmittedToken      [numStreams]atomic.Uint64
	ManagementAdmittedStarvation [numStreams]atomic.Uint64
	ManagementWaitNs             [numStreams]atomic.Uint64
	ManagementHoldCountSum       [numStreams]atomic.Uint64

	// Epoch timer bookkeeping, indexed the same way.
	EpochArmed    [numStreams]atomic.Uint64
	EpochConsumed [numStreams]atomic.Uint64

	// Inflight-write high-water mark observed at dispatch time, in
	// 8 KiB units (spec.md §6 unit convention).
	WriteInflightHighWater [numStreams]atomic.Uint64

	// Performance tracking.
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRead records a completed workload read.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records a completed workload write.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordManagementAdmission records an admitted RESET/FINISH request
// along with which admission case fired and its accumulated hold count
// (spec.md §4.4: drain, token, starvation cases).
func (m *Metrics) RecordManagementAdmission(stream int, cause AdmissionCause, waitNs uint64, holdCount int) {
	switch cause {
	case AdmissionDrain:
		m.ManagementAdmittedDrain[stream].Add(1)
	case AdmissionToken:
		m.ManagementAdmittedToken[stream].Add(1)
	case AdmissionStarvation:
		m.ManagementAdmittedStarvation[stream].Add(1)
	}
	m.ManagementWaitNs[stream].Add(waitNs)
	m.ManagementHoldCountSum[stream].Add(uint64(holdCount))
}

// RecordEpochArm records a gate timer firing (or eager re-arm) for a stream.
func (m *Metrics) RecordEpochArm(stream int) {
	m.EpochArmed[stream].Add(1)
}

// RecordEpochConsume records the dispatcher consuming an armed epoch.
func (m *Metrics) RecordEpochConsume(stream int) {
	m.EpochConsumed[stream].Add(1)
}

// RecordWriteInflight updates the high-water mark for a stream's
// inflight-write counter (in 8 KiB units).
func (m *Metrics) RecordWriteInflight(stream int, units uint64) {
	for {
		current := m.WriteInflightHighWater[stream].Load()
		if units <= current {
			return
		}
		if m.WriteInflightHighWater[stream].CompareAndSwap(current, units) {
			return
		}
	}
}

// RecordQueueDepth records the aggregate queued-request count across
// all priority buckets.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)

	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the scheduler instance as detached.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to read
// without further synchronization.
type MetricsSnapshot struct {
	ReadOps  uint64
	WriteOps uint64

	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors  uint64
	WriteErrors uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	ManagementAdmittedDrain      [numStreams]uint64
	ManagementAdmittedToken      [numStreams]uint64
	ManagementAdmittedStarvation [numStreams]uint64
	AvgManagementWaitNs          [numStreams]uint64
	AvgManagementHoldCount       [numStreams]float64

	EpochArmed    [numStreams]uint64
	EpochConsumed [numStreams]uint64

	WriteInflightHighWater [numStreams]uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ReadOps:       m.ReadOps.Load(),
		WriteOps:      m.WriteOps.Load(),
		ReadBytes:     m.ReadBytes.Load(),
		WriteBytes:    m.WriteBytes.Load(),
		ReadErrors:    m.ReadErrors.Load(),
		WriteErrors:   m.WriteErrors.Load(),
		MaxQueueDepth: m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.ReadOps + snap.WriteOps
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	for s := 0; s < numStreams; s++ {
		snap.ManagementAdmittedDrain[s] = m.ManagementAdmittedDrain[s].Load()
		snap.ManagementAdmittedToken[s] = m.ManagementAdmittedToken[s].Load()
		snap.ManagementAdmittedStarvation[s] = m.ManagementAdmittedStarvation[s].Load()
		snap.EpochArmed[s] = m.EpochArmed[s].Load()
		snap.EpochConsumed[s] = m.EpochConsumed[s].Load()
		snap.WriteInflightHighWater[s] = m.WriteInflightHighWater[s].Load()

		admitted := snap.ManagementAdmittedDrain[s] + snap.ManagementAdmittedToken[s] + snap.ManagementAdmittedStarvation[s]
		if admitted > 0 {
			snap.AvgManagementWaitNs[s] = m.ManagementWaitNs[s].Load() / admitted
			snap.AvgManagementHoldCount[s] = float64(m.ManagementHoldCountSum[s].Load()) / float64(admitted)
		}
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters. Useful for tests.
func (m *Metrics) Reset() {
	m.ReadOps.Store(0)
	m.WriteOps.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	for s := 0; s < numStreams; s++ {
		m.ManagementAdmittedDrain[s].Store(0)
		m.ManagementAdmittedToken[s].Store(0)
		m.ManagementAdmittedStarvation[s].Store(0)
		m.ManagementWaitNs[s].Store(0)
		m.ManagementHoldCountSum[s].Store(0)
		m.EpochArmed[s].Store(0)
		m.EpochConsumed[s].Store(0)
		m.WriteInflightHighWater[s].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, mirroring
// internal/interfaces.Observer so a *MetricsObserver satisfies both.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveDiscard(bytes uint64, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveManagement(op string, waitNs uint64, holdCount int)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)      {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool)     {}
func (NoOpObserver) ObserveDiscard(uint64, uint64, bool)   {}
func (NoOpObserver) ObserveFlush(uint64, bool)             {}
func (NoOpObserver) ObserveManagement(string, uint64, int) {}
func (NoOpObserver) ObserveQueueDepth(uint32)              {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveDiscard(bytes uint64, latencyNs uint64, success bool) {
	// Discards are not a scheduled direction in zinc; tracked for
	// interface parity with internal/interfaces.Observer only.
}

func (o *MetricsObserver) ObserveFlush(latencyNs uint64, success bool) {}

func (o *MetricsObserver) ObserveManagement(op string, waitNs uint64, holdCount int) {
	stream := streamReset
	if op == "finish" {
		stream = streamFinish
	}
	o.metrics.RecordManagementAdmission(stream, AdmissionUnknown, waitNs, holdCount)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

// Compile-time interface checks.
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
