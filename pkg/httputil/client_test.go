package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/factorlab-lite/pkg/config"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		FetchRetries:      2,
		RetryBaseWait:     800 * time.Millisecond,
		RequestsPerSecond: 1000, // no throttling in tests
		LogLevel:          "error",
		LogFormat:         "console",
	}
}

func TestNew(t *testing.T) {
	client := New(testConfig(), logger.NewNop())
	if client == nil {
		t.Fatal("expected client to be created")
	}
	if client.retryConfig.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", client.retryConfig.MaxAttempts)
	}
	if client.retryConfig.BaseWait != 800*time.Millisecond {
		t.Errorf("BaseWait = %v, want 800ms", client.retryConfig.BaseWait)
	}
}

func TestGetBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		if r.Header.Get("X-Probe") != "yes" {
			t.Errorf("expected request header to pass through")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.NewNop())
	header := http.Header{}
	header.Set("X-Probe", "yes")

	body, err := client.GetBody(context.Background(), server.URL, header)
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetBody_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := New(testConfig(), logger.NewNop()).
		WithRetry(3, 100*time.Millisecond).
		WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) })

	body, err := client.GetBody(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("GetBody failed after retries: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %s", body)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}

	// Two failed attempts mean exactly two backoff sleeps, each within
	// [base*2^(n-1), base*2^(n-1) + base/2).
	if len(sleeps) != 2 {
		t.Fatalf("sleeps = %v, want exactly 2", sleeps)
	}
	base := 100 * time.Millisecond
	for i, sleep := range sleeps {
		lo := base << i
		hi := lo + base/2
		if sleep < lo || sleep > hi {
			t.Errorf("sleep[%d] = %v, want within [%v, %v]", i, sleep, lo, hi)
		}
	}
	if sleeps[1] < sleeps[0] {
		t.Errorf("backoff not non-decreasing: %v", sleeps)
	}
}

func TestGetBody_ExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig(), logger.NewNop()).
		WithRetry(2, time.Millisecond).
		WithSleep(func(time.Duration) {})

	_, err := client.GetBody(context.Background(), server.URL, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestGetBody_NoRetryAfterSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	slept := false
	client := New(testConfig(), logger.NewNop()).
		WithSleep(func(time.Duration) { slept = true })

	if _, err := client.GetBody(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if slept {
		t.Error("client slept on a first-attempt success")
	}
}

func TestGetBody_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetBody(ctx, server.URL, nil); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{503, false},
	}
	for _, tt := range tests {
		if got := IsSuccess(tt.status); got != tt.want {
			t.Errorf("IsSuccess(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
