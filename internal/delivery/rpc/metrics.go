package rpc

import (
	"sync/atomic"
	"time"
)

// Metrics tracks request counts and latency without locks.
type Metrics struct {
	totalRequests      uint64
	successfulRequests uint64
	failedRequests     uint64
	activeRequests     int64
	avgLatency         int64 // exponential moving average, nanoseconds
	startTime          time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) begin() {
	atomic.AddUint64(&m.totalRequests, 1)
	atomic.AddInt64(&m.activeRequests, 1)
}

func (m *Metrics) end(ok bool, latency time.Duration) {
	atomic.AddInt64(&m.activeRequests, -1)
	if !ok {
		atomic.AddUint64(&m.failedRequests, 1)
		return
	}
	atomic.AddUint64(&m.successfulRequests, 1)
	m.updateAvgLatency(latency.Nanoseconds())
}

func (m *Metrics) updateAvgLatency(newLatency int64) {
	const alpha = 0.05
	for {
		currentAvg := atomic.LoadInt64(&m.avgLatency)
		newAvg := int64(float64(newLatency)*alpha + float64(currentAvg)*(1-alpha))
		if currentAvg == 0 {
			newAvg = newLatency
		}
		if atomic.CompareAndSwapInt64(&m.avgLatency, currentAvg, newAvg) {
			return
		}
	}
}

func (m *Metrics) ActiveRequests() int64 {
	return atomic.LoadInt64(&m.activeRequests)
}

// Snapshot returns the current values keyed for JSON output.
func (m *Metrics) Snapshot() map[string]any {
	uptime := time.Since(m.startTime)
	total := atomic.LoadUint64(&m.totalRequests)
	return map[string]any{
		"totalRequests":      total,
		"successfulRequests": atomic.LoadUint64(&m.successfulRequests),
		"failedRequests":     atomic.LoadUint64(&m.failedRequests),
		"activeRequests":     atomic.LoadInt64(&m.activeRequests),
		"avgLatencyMs":       time.Duration(atomic.LoadInt64(&m.avgLatency)).Milliseconds(),
		"uptimeSeconds":      uptime.Seconds(),
		"requestsPerSecond":  float64(total) / uptime.Seconds(),
	}
}
