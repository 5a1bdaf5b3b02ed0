// Package config turns raw CLI inputs into a validated runner.Config.
// Everything that can fail here is fatal: the run never starts with a
// malformed configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aagoksoy/http-load-tester/internal/runner"
)

// Options are the raw, unvalidated CLI inputs.
type Options struct {
	URL         string
	Method      string
	Headers     string // JSON object string
	Payload     string // JSON object string
	QPS         float64
	Duration    int
	Concurrency int
	TimeoutSec  int
	Output      string
}

// Build validates the options and produces a runner.Config.
func (o Options) Build() (runner.Config, error) {
	var cfg runner.Config

	target := strings.TrimSpace(o.URL)
	if target == "" {
		return cfg, fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return cfg, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return cfg, fmt.Errorf("target URL %q must use http or https", target)
	}

	if o.QPS <= 0 {
		return cfg, fmt.Errorf("qps must be > 0, got %v", o.QPS)
	}
	if o.Duration <= 0 {
		return cfg, fmt.Errorf("duration must be > 0, got %d", o.Duration)
	}
	if o.Concurrency < 1 {
		return cfg, fmt.Errorf("concurrency must be >= 1, got %d", o.Concurrency)
	}
	if o.TimeoutSec < 0 {
		return cfg, fmt.Errorf("timeout must be >= 0, got %d", o.TimeoutSec)
	}

	method := strings.ToUpper(strings.TrimSpace(o.Method))
	if method == "" {
		method = "GET"
	}

	headers, err := parseHeaders(o.Headers)
	if err != nil {
		return cfg, err
	}
	payload, err := parsePayload(o.Payload)
	if err != nil {
		return cfg, err
	}

	output := o.Output
	if output == "" {
		output = "results.json"
	}

	return runner.Config{
		URL:         target,
		Method:      method,
		Headers:     headers,
		Payload:     payload,
		QPS:         o.QPS,
		Duration:    o.Duration,
		Concurrency: o.Concurrency,
		TimeoutSec:  o.TimeoutSec,
		Output:      output,
	}, nil
}

func parseHeaders(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	headers := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, fmt.Errorf("headers must be a JSON object of strings: %w", err)
	}
	return headers, nil
}

func parsePayload(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	payload := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return payload, nil
}
