package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// liveConfig points the load tests at a running server. They are skipped
// unless BENCH_BASE_URL is set.
type liveConfig struct {
	BaseURL     string
	Login       string
	Password    string
	Concurrency int
	Requests    int
}

func loadLiveConfig(t *testing.T) liveConfig {
	t.Helper()
	base := os.Getenv("BENCH_BASE_URL")
	if base == "" {
		t.Skip("BENCH_BASE_URL not set")
	}
	cfg := liveConfig{
		BaseURL:     base,
		Login:       os.Getenv("BENCH_LOGIN"),
		Password:    os.Getenv("BENCH_PASSWORD"),
		Concurrency: 10,
		Requests:    100,
	}
	if n, err := strconv.Atoi(os.Getenv("BENCH_CONCURRENCY")); err == nil && n > 0 {
		cfg.Concurrency = n
	}
	if n, err := strconv.Atoi(os.Getenv("BENCH_REQUESTS")); err == nil && n > 0 {
		cfg.Requests = n
	}
	return cfg
}

func login(t *testing.T, cfg liveConfig) string {
	t.Helper()
	if cfg.Login == "" {
		return ""
	}
	b := NewAPIBenchmark(cfg.BaseURL, 1, 1, "")
	body, err := json.Marshal(map[string]string{"login": cfg.Login, "password": cfg.Password})
	require.NoError(t, err)

	resp, err := b.Client.Post(cfg.BaseURL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Data.Token
}

func TestSummarizeCountsStatuses(t *testing.T) {
	var n int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&n, 1)%4 == 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := NewAPIBenchmark(srv.URL, 4, 40, "").RunGET(context.Background(), "/ping")

	assert.Equal(t, 40, res.TotalRequests)
	assert.Equal(t, 30, res.SuccessCount)
	assert.Equal(t, 10, res.FailureCount)
	assert.Equal(t, 30, res.StatusCodes[http.StatusOK])
	assert.Equal(t, 10, res.StatusCodes[http.StatusTooManyRequests])
	assert.InDelta(t, 75.0, res.SuccessRate(), 1e-9)
	assert.LessOrEqual(t, res.MinTime, res.P95Time)
	assert.LessOrEqual(t, res.P95Time, res.MaxTime)
	res.Log()
}

func TestRunSendsTokenAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if r.Header.Get("Authorization") != "Bearer tok" ||
			json.NewDecoder(r.Body).Decode(&body) != nil || body["name"] != "Ramp" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	res := NewAPIBenchmark(srv.URL, 2, 6, "tok").RunPOST(context.Background(), "/criteria", map[string]string{"name": "Ramp"})
	assert.Equal(t, 6, res.SuccessCount)
	assert.Empty(t, res.Errors)
}

func TestUnreachableServerIsReported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewAPIBenchmark(url, 2, 4, "").RunGET(context.Background(), "/ping")
	assert.Equal(t, 4, res.FailureCount)
	assert.Len(t, res.Errors, 4)
	assert.Empty(t, res.StatusCodes)
}

func TestLivePublicEndpoints(t *testing.T) {
	cfg := loadLiveConfig(t)
	for _, path := range []string{"/ping", "/categories", "/locations"} {
		res := NewAPIBenchmark(cfg.BaseURL, cfg.Concurrency, cfg.Requests, "").RunGET(context.Background(), path)
		res.Log()
		assert.Empty(t, res.Errors, path)
	}
}

func TestLiveAuthenticatedEndpoints(t *testing.T) {
	cfg := loadLiveConfig(t)
	token := login(t, cfg)
	if token == "" {
		t.Skip("BENCH_LOGIN not set")
	}
	for _, path := range []string{"/notifications/unread-count", "/assessments/mine", "/criteria"} {
		res := NewAPIBenchmark(cfg.BaseURL, cfg.Concurrency, cfg.Requests, token).RunGET(context.Background(), path)
		res.Log()
		assert.Empty(t, res.Errors, path)
	}
}
