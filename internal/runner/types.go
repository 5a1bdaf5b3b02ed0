package runner

import (
	"time"
)

// Config describes a single load test run.
type Config struct {
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`
	Payload     map[string]any    `json:"payload,omitempty"`
	QPS         float64           `json:"qps"`
	Duration    int               `json:"duration"` // seconds
	Concurrency int               `json:"concurrency"`
	TimeoutSec  int               `json:"timeout,omitempty"` // 0 = no per-request timeout
	Output      string            `json:"output,omitempty"`
}

// TotalRequests returns the number of attempts the run will dispatch,
// floor(qps * duration).
func (c Config) TotalRequests() int {
	n := c.QPS * float64(c.Duration)
	if n <= 0 {
		return 0
	}
	return int(n)
}

// OutcomeKind tags the result of one request attempt.
type OutcomeKind int

const (
	// KindSuccess is a 200 response.
	KindSuccess OutcomeKind = iota
	// KindErrorStatus is a non-200 response whose body was read for diagnostics.
	KindErrorStatus
	// KindException is a transport-level failure; no latency is recorded.
	KindException
)

// Outcome is the immutable result of exactly one request attempt.
type Outcome struct {
	Kind    OutcomeKind
	Latency time.Duration // zero for KindException
	Status  int           // zero for KindException
	Body    string        // response body text, KindErrorStatus only
	Message string        // transport error text, KindException only
}
