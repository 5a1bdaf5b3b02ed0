package runner

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/aagoksoy/http-load-tester/internal/stats"
)

// Runner paces request dispatch at the configured QPS and bounds the
// number of in-flight attempts at Concurrency. Executors report back over
// a channel; the driver loop is the only writer of the result slice, so
// outcomes land in completion order within a batch.
type Runner struct {
	Cfg    Config
	Stats  *stats.Stats
	Client *http.Client

	body []byte
}

func NewRunner(cfg Config) *Runner {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	client := &http.Client{
		Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		Transport: t,
	}

	// The payload is constant for the whole run; marshal it once.
	body := []byte("{}")
	if cfg.Payload != nil {
		body, _ = json.Marshal(cfg.Payload)
	}

	return &Runner{
		Cfg:    cfg,
		Stats:  stats.NewStats(),
		Client: client,
		body:   body,
	}
}

// Run dispatches floor(qps*duration) attempts and returns one Outcome per
// attempt actually dispatched. Cancelling ctx stops dispatch; attempts
// already in flight are drained, so the result may be shorter than the
// nominal total. No error escapes the run: per-request failures come back
// as KindException outcomes.
func (r *Runner) Run(ctx context.Context) []Outcome {
	n := r.Cfg.TotalRequests()
	outcomes := make([]Outcome, 0, n)
	if n == 0 {
		return outcomes
	}

	period := time.Duration(float64(time.Second) / r.Cfg.QPS)
	results := make(chan Outcome, r.Cfg.Concurrency)
	inflight := 0

	drain := func() {
		for inflight > 0 {
			outcomes = append(outcomes, r.collect(<-results))
			inflight--
		}
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		// Batch barrier: once the batch is full, wait for the whole batch,
		// not just one free slot. Achieved QPS degrades once response
		// latency exceeds concurrency/qps; that is the intended behavior.
		if inflight >= r.Cfg.Concurrency {
			drain()
		}

		go r.execute(ctx, results)
		inflight++
		r.Stats.MarkDispatched()

		// Fixed per-iteration pacing delay, independent of batch state.
		select {
		case <-time.After(period):
		case <-ctx.Done():
		}
	}

	drain()
	return outcomes
}

// execute performs one request attempt and always delivers exactly one
// outcome on results.
func (r *Runner) execute(ctx context.Context, results chan<- Outcome) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, r.Cfg.Method, r.Cfg.URL, bytes.NewReader(r.body))
	if err != nil {
		results <- Outcome{Kind: KindException, Message: err.Error()}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.Cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		results <- Outcome{Kind: KindException, Message: err.Error()}
		return
	}
	latency := time.Since(start)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		results <- Outcome{Kind: KindSuccess, Latency: latency, Status: resp.StatusCode}
		return
	}

	b, _ := io.ReadAll(resp.Body)
	results <- Outcome{
		Kind:    KindErrorStatus,
		Latency: latency,
		Status:  resp.StatusCode,
		Body:    string(b),
	}
}

// collect feeds the live stats as outcomes come off the channel. The
// final report recomputes exact statistics from the raw outcomes; the
// histogram here only backs the progress display.
func (r *Runner) collect(o Outcome) Outcome {
	switch o.Kind {
	case KindSuccess:
		r.Stats.AddResult(true, o.Latency)
	default:
		r.Stats.AddResult(false, o.Latency)
	}
	return o
}
