package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/aagoksoy/http-load-tester/internal/report"
	"github.com/aagoksoy/http-load-tester/internal/runner"
	"github.com/aagoksoy/http-load-tester/internal/storage"
)

// Start runs one headless load test: progress line while the run is
// active, then a summary to stdout, the JSON report to cfg.Output, and a
// history record. SIGINT/SIGTERM cancel the run; a partial run still
// reports and persists.
func Start(cfg runner.Config, quiet bool) error {
	printHeader(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.NewRunner(cfg)
	startTime := time.Now()

	done := make(chan []runner.Outcome, 1)
	go func() {
		done <- r.Run(ctx)
	}()

	totalDuration := time.Duration(cfg.Duration) * time.Second
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var outcomes []runner.Outcome
loop:
	for {
		select {
		case outcomes = <-done:
			break loop
		case <-ticker.C:
			if quiet {
				continue
			}
			printProgress(r, startTime, totalDuration)
		}
	}
	elapsed := time.Since(startTime)
	if !quiet {
		printProgress(r, startTime, totalDuration)
		fmt.Println()
	}

	summary := report.Summarize(outcomes)
	printSummary(summary, elapsed)

	if err := summary.WriteFile(cfg.Output); err != nil {
		return err
	}
	fmt.Printf("💾 Results written to %s\n", cfg.Output)

	saveHistory(cfg, summary)
	return nil
}

func printProgress(r *runner.Runner, startTime time.Time, totalDuration time.Duration) {
	elapsed := time.Since(startTime)
	pct := elapsed.Seconds() / totalDuration.Seconds()
	if pct > 1.0 {
		pct = 1.0
	}

	snap := r.Stats.Snapshot()
	fmt.Printf("\r%s %3.0f%% | %s/%s | Inf: %3d | OK: %d | Err: %d | P90: %.1fms",
		progressBar(pct, 20), pct*100,
		elapsed.Round(time.Second), totalDuration,
		r.Stats.Inflight(),
		snap.Success,
		snap.Fail,
		snap.P90Ms,
	)
}

func printHeader(cfg runner.Config) {
	fmt.Printf("\n🚀 STARTING LOAD TEST\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Target URL  : %s\n", cfg.URL)
	fmt.Printf("Method      : %s\n", cfg.Method)
	fmt.Printf("QPS         : %g\n", cfg.QPS)
	fmt.Printf("Duration    : %ds\n", cfg.Duration)
	fmt.Printf("Concurrency : %d\n", cfg.Concurrency)
	if cfg.TimeoutSec > 0 {
		fmt.Printf("Timeout     : %ds\n", cfg.TimeoutSec)
	} else {
		fmt.Printf("Timeout     : none (a hung request stalls the batch)\n")
	}
	fmt.Printf("Requests    : %d\n", cfg.TotalRequests())
	fmt.Printf("======================================================================\n\n")
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(s report.Summary, totalTime time.Duration) {
	fmt.Printf("\n📊 LOAD TEST RESULTS\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Total Duration : %s\n", totalTime.Round(time.Millisecond))
	fmt.Printf("Requests Sent  : %d\n", s.TotalRequests)
	fmt.Printf("Success        : %d\n", s.SuccessfulRequests)
	fmt.Printf("Failures       : %d\n", s.FailedRequests)

	if s.SuccessfulRequests > 0 {
		fmt.Printf("\n⏱️  LATENCY (s) [Success Only]\n")
		fmt.Printf("   Mean   : %.4f\n", *s.MeanLatency)
		fmt.Printf("   Median : %.4f\n", *s.MedianLatency)
		fmt.Printf("   Stddev : %.4f\n", *s.StddevLatency)
		fmt.Printf("   Min    : %.4f\n", *s.MinLatency)
		fmt.Printf("   Max    : %.4f\n", *s.MaxLatency)
		fmt.Printf("   P90    : %.4f\n", *s.P90Latency)
	} else {
		fmt.Printf("\n⚠️  %s\n", s.Message)
	}

	if len(s.DetailedErrors) > 0 {
		fmt.Printf("\n❌ FAILURE SUMMARY\n")
		categories := make([]string, 0, len(s.DetailedErrors))
		for c := range s.DetailedErrors {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Printf("   %d x %s\n", len(s.DetailedErrors[c]), c)
		}
	}
	fmt.Printf("======================================================================\n")
}

// saveHistory is best-effort: a broken history db never fails the run.
func saveHistory(cfg runner.Config, s report.Summary) {
	path, err := storage.DefaultPath()
	if err != nil {
		fmt.Printf("⚠️  History not saved: %v\n", err)
		return
	}
	store, err := storage.Open(path)
	if err != nil {
		fmt.Printf("⚠️  History not saved: %v\n", err)
		return
	}
	defer store.Close()

	rec := storage.Record{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Config:    cfg,
		Summary:   s,
	}
	if err := store.Save(rec); err != nil {
		fmt.Printf("⚠️  History not saved: %v\n", err)
	}
}
