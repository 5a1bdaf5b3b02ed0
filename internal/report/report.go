// Package report reduces a finished run's outcomes into the summary
// written to the output file. The statistics here are computed from the
// raw latency samples, not from a histogram: the percentile method
// (nearest rank at floor(0.9*n)) and the sample standard deviation are
// part of the report's compatibility contract.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/aagoksoy/http-load-tester/internal/runner"
)

// Summary is the machine-readable result of one run. Latency fields are
// present only when at least one request succeeded; otherwise Message
// explains the reduced form.
type Summary struct {
	TotalRequests      int      `json:"total_requests"`
	SuccessfulRequests int      `json:"successful_requests"`
	FailedRequests     int      `json:"failed_requests"`
	MeanLatency        *float64 `json:"mean_latency,omitempty"`
	MedianLatency      *float64 `json:"median_latency,omitempty"`
	StddevLatency      *float64 `json:"stddev_latency,omitempty"`
	MaxLatency         *float64 `json:"max_latency,omitempty"`
	MinLatency         *float64 `json:"min_latency,omitempty"`
	P90Latency         *float64 `json:"90th_percentile_latency,omitempty"`
	Message            string   `json:"message,omitempty"`

	// DetailedErrors maps an error category (decimal status code, or
	// "exceptions" for transport failures) to raw diagnostic strings in
	// insertion order.
	DetailedErrors map[string][]string `json:"detailed_errors"`
}

// ExceptionsKey is the detailed-errors category for transport failures.
const ExceptionsKey = "exceptions"

// Summarize reduces a run's outcomes to a Summary. It never fails:
// a run with zero successes yields the reduced report.
func Summarize(outcomes []runner.Outcome) Summary {
	latencies := make([]float64, 0, len(outcomes))
	detailed := make(map[string][]string)
	failed := 0

	for _, o := range outcomes {
		switch o.Kind {
		case runner.KindSuccess:
			latencies = append(latencies, o.Latency.Seconds())
		case runner.KindErrorStatus:
			failed++
			key := strconv.Itoa(o.Status)
			detailed[key] = append(detailed[key], o.Body)
		case runner.KindException:
			failed++
			detailed[ExceptionsKey] = append(detailed[ExceptionsKey], o.Message)
		}
	}

	s := Summary{
		TotalRequests:      len(outcomes),
		SuccessfulRequests: len(latencies),
		FailedRequests:     failed,
		DetailedErrors:     detailed,
	}

	if len(latencies) == 0 {
		s.Message = "No successful requests."
		return s
	}

	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)

	s.MeanLatency = round4(mean(latencies))
	s.MedianLatency = round4(median(sorted))
	s.StddevLatency = round4(stddev(latencies))
	s.MaxLatency = round4(sorted[len(sorted)-1])
	s.MinLatency = round4(sorted[0])
	s.P90Latency = round4(Percentile90(sorted))
	return s
}

// Percentile90 returns the nearest-rank 90th percentile of an already
// sorted sample: the value at index floor(0.9*n). Not interpolated.
func Percentile90(sorted []float64) float64 {
	return sorted[int(float64(len(sorted))*0.9)]
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// stddev is the sample standard deviation (N-1 divisor). With fewer than
// two samples it is undefined; we report 0 rather than fail the run.
func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

func round4(v float64) *float64 {
	r := math.Round(v*10000) / 10000
	return &r
}

// WriteFile serializes the summary as JSON with 4-space indentation.
// HTML escaping is off so error bodies appear verbatim in the file.
func (s Summary) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
