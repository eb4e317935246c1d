package processor

import (
	"sync/atomic"
	"time"
)

// ServiceMetrics tracks settlement throughput with plain atomics; the
// per-order histograms live in the prom package.
type ServiceMetrics struct {
	totalSettled    int64
	totalFailed     int64
	totalDurationNs int64
	startedNs       int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{startedNs: time.Now().UnixNano()}
}

func (m *ServiceMetrics) RecordSettlement(duration time.Duration) {
	atomic.AddInt64(&m.totalSettled, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *ServiceMetrics) RecordFailure() {
	atomic.AddInt64(&m.totalFailed, 1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	settled := atomic.LoadInt64(&m.totalSettled)
	failed := atomic.LoadInt64(&m.totalFailed)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	startedNs := atomic.LoadInt64(&m.startedNs)

	elapsed := time.Since(time.Unix(0, startedNs)).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(settled) / elapsed
	}

	avgDuration := time.Duration(0)
	if settled > 0 {
		avgDuration = time.Duration(durationNs / settled)
	}

	return map[string]interface{}{
		"total_settled":   settled,
		"total_failed":    failed,
		"rate_per_second": rate,
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}
