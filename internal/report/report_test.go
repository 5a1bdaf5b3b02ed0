package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aagoksoy/http-load-tester/internal/runner"
)

func success(latency time.Duration) runner.Outcome {
	return runner.Outcome{Kind: runner.KindSuccess, Latency: latency, Status: 200}
}

func errorStatus(status int, body string) runner.Outcome {
	return runner.Outcome{Kind: runner.KindErrorStatus, Latency: 5 * time.Millisecond, Status: status, Body: body}
}

func exception(msg string) runner.Outcome {
	return runner.Outcome{Kind: runner.KindException, Message: msg}
}

func TestSummarizeAllSuccess(t *testing.T) {
	outcomes := []runner.Outcome{
		success(100 * time.Millisecond),
		success(200 * time.Millisecond),
		success(300 * time.Millisecond),
		success(400 * time.Millisecond),
	}
	s := Summarize(outcomes)

	if s.TotalRequests != 4 || s.SuccessfulRequests != 4 || s.FailedRequests != 0 {
		t.Fatalf("counts wrong: total=%d ok=%d fail=%d", s.TotalRequests, s.SuccessfulRequests, s.FailedRequests)
	}
	if *s.MeanLatency != 0.25 {
		t.Errorf("mean: got %v, want 0.25", *s.MeanLatency)
	}
	if *s.MedianLatency != 0.25 {
		t.Errorf("median: got %v, want 0.25", *s.MedianLatency)
	}
	// sample stddev of {0.1,0.2,0.3,0.4} = sqrt(0.05/3) = 0.1291
	if *s.StddevLatency != 0.1291 {
		t.Errorf("stddev: got %v, want 0.1291", *s.StddevLatency)
	}
	if *s.MinLatency != 0.1 || *s.MaxLatency != 0.4 {
		t.Errorf("min/max: got %v/%v", *s.MinLatency, *s.MaxLatency)
	}
	// nearest rank: index floor(0.9*4) = 3
	if *s.P90Latency != 0.4 {
		t.Errorf("p90: got %v, want 0.4", *s.P90Latency)
	}
	if s.Message != "" {
		t.Errorf("message should be empty on a successful run, got %q", s.Message)
	}
}

// Scenario: every request answers 500; the reduced report carries the
// message and per-status diagnostics, no latency fields.
func TestSummarizeZeroSuccesses(t *testing.T) {
	outcomes := make([]runner.Outcome, 0, 10)
	for i := 0; i < 10; i++ {
		outcomes = append(outcomes, errorStatus(500, "Internal Server Error"))
	}
	s := Summarize(outcomes)

	if s.TotalRequests != 10 || s.SuccessfulRequests != 0 || s.FailedRequests != 10 {
		t.Fatalf("counts wrong: total=%d ok=%d fail=%d", s.TotalRequests, s.SuccessfulRequests, s.FailedRequests)
	}
	if s.Message == "" {
		t.Errorf("expected explanatory message")
	}
	if s.MeanLatency != nil || s.MedianLatency != nil || s.StddevLatency != nil ||
		s.MaxLatency != nil || s.MinLatency != nil || s.P90Latency != nil {
		t.Errorf("latency fields must be absent with zero successes")
	}
	if got := len(s.DetailedErrors["500"]); got != 10 {
		t.Errorf(`detailed_errors["500"]: got %d entries, want 10`, got)
	}
}

// Scenario: 7 successes and 3 transport failures; stats cover the 7
// successes only and exceptions land in their own bucket.
func TestSummarizeMixed(t *testing.T) {
	outcomes := []runner.Outcome{
		success(10 * time.Millisecond),
		exception("dial tcp: connection refused"),
		success(20 * time.Millisecond),
		success(30 * time.Millisecond),
		exception("context deadline exceeded"),
		success(40 * time.Millisecond),
		success(50 * time.Millisecond),
		success(60 * time.Millisecond),
		exception("dial tcp: connection refused"),
		success(70 * time.Millisecond),
	}
	s := Summarize(outcomes)

	if s.TotalRequests != 10 || s.SuccessfulRequests != 7 || s.FailedRequests != 3 {
		t.Fatalf("counts wrong: total=%d ok=%d fail=%d", s.TotalRequests, s.SuccessfulRequests, s.FailedRequests)
	}
	if got := len(s.DetailedErrors[ExceptionsKey]); got != 3 {
		t.Errorf("exceptions bucket: got %d entries, want 3", got)
	}
	if *s.MeanLatency != 0.04 {
		t.Errorf("mean over successes only: got %v, want 0.04", *s.MeanLatency)
	}
	if *s.MinLatency != 0.01 || *s.MaxLatency != 0.07 {
		t.Errorf("min/max: got %v/%v", *s.MinLatency, *s.MaxLatency)
	}
}

func TestBucketCountsSumToFailures(t *testing.T) {
	outcomes := []runner.Outcome{
		errorStatus(500, "a"),
		errorStatus(500, "b"),
		errorStatus(404, "missing"),
		exception("timeout"),
		success(time.Millisecond),
	}
	s := Summarize(outcomes)

	sum := 0
	for _, entries := range s.DetailedErrors {
		sum += len(entries)
	}
	if sum != s.FailedRequests {
		t.Fatalf("detailed entries %d != failed_requests %d", sum, s.FailedRequests)
	}
	if s.SuccessfulRequests+s.FailedRequests != s.TotalRequests {
		t.Fatalf("ok+fail != total")
	}
}

func TestDetailedErrorsPreserveInsertionOrder(t *testing.T) {
	outcomes := []runner.Outcome{
		errorStatus(500, "first"),
		errorStatus(500, "second"),
		errorStatus(500, "third"),
	}
	s := Summarize(outcomes)
	got := s.DetailedErrors["500"]
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken at %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPercentileNearestRank(t *testing.T) {
	cases := []struct {
		sorted []float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10}, // index 9
		{[]float64{1, 2, 3, 4, 5}, 5},                  // index 4
		{[]float64{42}, 42},                            // index 0
		{[]float64{1, 2}, 2},                           // index 1
	}
	for _, tc := range cases {
		got := Percentile90(tc.sorted)
		if got != tc.want {
			t.Errorf("Percentile90(%v) = %v, want %v", tc.sorted, got, tc.want)
		}
		// idempotent and deterministic
		if again := Percentile90(tc.sorted); again != got {
			t.Errorf("Percentile90 not deterministic: %v then %v", got, again)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{1, 2, 3}); got != 2 {
		t.Errorf("odd median: got %v", got)
	}
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("even median: got %v", got)
	}
}

func TestStddevSample(t *testing.T) {
	got := stddev([]float64{1, 2, 3, 4})
	want := math.Sqrt(5.0 / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("sample stddev: got %v, want %v", got, want)
	}
}

// A single latency sample makes sample stddev undefined; the policy is
// to report 0 rather than fail the run.
func TestStddevSingleSample(t *testing.T) {
	s := Summarize([]runner.Outcome{success(123 * time.Millisecond)})
	if s.StddevLatency == nil || *s.StddevLatency != 0 {
		t.Fatalf("expected stddev 0 for a single sample, got %v", s.StddevLatency)
	}
	if *s.MeanLatency != 0.123 {
		t.Errorf("mean: got %v, want 0.123", *s.MeanLatency)
	}
}

func TestRounding(t *testing.T) {
	// 1/3 s rounds to 0.3333
	s := Summarize([]runner.Outcome{
		success(time.Second / 3),
		success(time.Second / 3),
	})
	if *s.MeanLatency != 0.3333 {
		t.Errorf("expected 4-decimal rounding, got %v", *s.MeanLatency)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	s := Summarize([]runner.Outcome{
		success(100 * time.Millisecond),
		success(200 * time.Millisecond),
		errorStatus(503, "unavailable"),
	})
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "\n    \"total_requests\"") {
		t.Errorf("expected 4-space indentation, got:\n%s", text)
	}
	for _, key := range []string{
		`"total_requests"`, `"successful_requests"`, `"failed_requests"`,
		`"mean_latency"`, `"median_latency"`, `"stddev_latency"`,
		`"max_latency"`, `"min_latency"`, `"90th_percentile_latency"`,
		`"detailed_errors"`, `"503"`,
	} {
		if !strings.Contains(text, key) {
			t.Errorf("missing key %s in output", key)
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["total_requests"].(float64) != 3 {
		t.Errorf("total_requests round trip: got %v", decoded["total_requests"])
	}
}

func TestWriteFileReducedReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	s := Summarize([]runner.Outcome{exception("connection refused")})
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, _ := os.ReadFile(path)
	text := string(data)

	if !strings.Contains(text, `"message"`) {
		t.Errorf("reduced report must carry a message")
	}
	for _, key := range []string{`"mean_latency"`, `"median_latency"`, `"90th_percentile_latency"`} {
		if strings.Contains(text, key) {
			t.Errorf("reduced report must omit %s", key)
		}
	}
	if !strings.Contains(text, `"exceptions"`) {
		t.Errorf("expected exceptions bucket in detailed_errors")
	}
}
