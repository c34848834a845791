// Package benchmark drives concurrent load against a running API and
// summarises latency and status codes.
package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"accessible-env-backend/pkg/logger"
)

// APIBenchmark fires Requests requests with at most Concurrency in flight
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult summarises one run
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	P95Time        time.Duration `json:"p95_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

// RequestResult is the outcome of a single request
type RequestResult struct {
	Duration   time.Duration
	StatusCode int
	Error      error
}

// NewAPIBenchmark creates a runner against baseURL
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// RunGET benchmarks GET path
func (b *APIBenchmark) RunGET(ctx context.Context, path string) *BenchmarkResult {
	return b.run(ctx, http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST benchmarks POST path with a JSON payload
func (b *APIBenchmark) RunPOST(ctx context.Context, path string, payload interface{}) *BenchmarkResult {
	url := b.BaseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{URL: url, Method: http.MethodPost, Errors: []string{fmt.Sprintf("encode payload: %v", err)}}
	}
	return b.run(ctx, http.MethodPost, url, body)
}

func (b *APIBenchmark) do(ctx context.Context, method, url string, payload []byte) RequestResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return RequestResult{Error: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return RequestResult{Error: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return RequestResult{Duration: time.Since(start), StatusCode: resp.StatusCode}
}

func (b *APIBenchmark) run(ctx context.Context, method, url string, payload []byte) *BenchmarkResult {
	var (
		mu      sync.Mutex
		results = make([]RequestResult, 0, b.Requests)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Concurrency)

	startTime := time.Now()
	for i := 0; i < b.Requests; i++ {
		g.Go(func() error {
			r := b.do(gctx, method, url, payload)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	res := summarize(results, time.Since(startTime))
	res.URL = url
	res.Method = method
	res.Concurrency = b.Concurrency
	res.TotalRequests = b.Requests
	return res
}

func summarize(results []RequestResult, elapsed time.Duration) *BenchmarkResult {
	res := &BenchmarkResult{TotalTime: elapsed, StatusCodes: make(map[int]int)}

	var durations []time.Duration
	var total time.Duration
	for _, r := range results {
		if r.Error != nil {
			res.FailureCount++
			res.Errors = append(res.Errors, r.Error.Error())
			continue
		}
		durations = append(durations, r.Duration)
		total += r.Duration
		res.StatusCodes[r.StatusCode]++
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			res.SuccessCount++
		} else {
			res.FailureCount++
		}
	}

	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		res.MinTime = durations[0]
		res.MaxTime = durations[len(durations)-1]
		res.AverageTime = total / time.Duration(len(durations))
		res.P95Time = durations[(len(durations)*95-1)/100]
	}
	if elapsed > 0 {
		res.RequestsPerSec = float64(len(results)) / elapsed.Seconds()
	}
	return res
}

// SuccessRate is the share of 2xx responses in percent
func (r *BenchmarkResult) SuccessRate() float64 {
	if r.TotalRequests == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalRequests) * 100
}

// Log writes the summary as one structured line
func (r *BenchmarkResult) Log() {
	ev := logger.Get().Info().
		Str("method", r.Method).
		Str("url", r.URL).
		Int("concurrency", r.Concurrency).
		Int("requests", r.TotalRequests).
		Int("success", r.SuccessCount).
		Int("failure", r.FailureCount).
		Dur("avg", r.AverageTime).
		Dur("p95", r.P95Time).
		Dur("max", r.MaxTime).
		Float64("rps", r.RequestsPerSec).
		Interface("status_codes", r.StatusCodes)
	if len(r.Errors) > 0 {
		n := len(r.Errors)
		if n > 5 {
			n = 5
		}
		ev = ev.Strs("errors", r.Errors[:n])
	}
	ev.Msg("benchmark")
}
