package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds live aggregated counters for the progress display. The
// histogram tracks success latencies only, mirroring what the final
// report computes over.
type Stats struct {
	Dispatched uint64
	Completed  uint64
	Success    uint64
	Fail       uint64

	Latency *SafeHistogram
}

func NewStats() *Stats {
	return &Stats{
		Latency: NewSafeHistogram(),
	}
}

// MarkDispatched counts one launched attempt.
func (s *Stats) MarkDispatched() {
	atomic.AddUint64(&s.Dispatched, 1)
}

// AddResult counts one completed attempt.
func (s *Stats) AddResult(success bool, latency time.Duration) {
	atomic.AddUint64(&s.Completed, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
		s.Latency.RecordValue(latency.Microseconds())
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
}

// Snapshot is a cheap copy for the progress loop.
type Snapshot struct {
	Dispatched uint64
	Completed  uint64
	Success    uint64
	Fail       uint64

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Dispatched: atomic.LoadUint64(&s.Dispatched),
		Completed:  atomic.LoadUint64(&s.Completed),
		Success:    atomic.LoadUint64(&s.Success),
		Fail:       atomic.LoadUint64(&s.Fail),
		P50Ms:      float64(s.Latency.ValueAtQuantile(50)) / 1000.0,
		P90Ms:      float64(s.Latency.ValueAtQuantile(90)) / 1000.0,
		P99Ms:      float64(s.Latency.ValueAtQuantile(99)) / 1000.0,
		MaxMs:      float64(s.Latency.Max()) / 1000.0,
	}
}

// Inflight is the number of dispatched attempts not yet completed.
func (s *Stats) Inflight() int64 {
	return int64(atomic.LoadUint64(&s.Dispatched)) - int64(atomic.LoadUint64(&s.Completed))
}
