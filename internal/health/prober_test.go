package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"skipper/internal/config"
	"skipper/internal/sidecar"
)

func testProber() *Prober {
	cfg := config.Default()
	cfg.Health.ProbeIntervalMS = 10
	cfg.Health.RequestTimeout = 1
	return NewProber(&cfg, nil)
}

func TestCheckHealthySends2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != Path {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if !testProber().Check(context.Background(), server.URL, "") {
		t.Fatal("expected healthy for 204 response")
	}
}

func TestCheckUsesBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != Username || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := testProber()
	if prober.Check(context.Background(), server.URL, "") {
		t.Fatal("check without password should fail auth")
	}
	if !prober.Check(context.Background(), server.URL, "s3cret") {
		t.Fatal("check with password should pass auth")
	}
}

func TestCheckUnhealthyOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if testProber().Check(context.Background(), server.URL, "") {
		t.Fatal("expected unhealthy for 503 response")
	}
}

func TestCheckUnhealthyWhenUnreachable(t *testing.T) {
	if testProber().Check(context.Background(), "http://127.0.0.1:1", "") {
		t.Fatal("expected unhealthy for refused connection")
	}
}

func TestWaitUntilHealthyEventualSuccess(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	terminated := make(chan sidecar.ExitStatus)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := testProber().WaitUntilHealthy(ctx, server.URL, "", terminated); err != nil {
		t.Fatalf("WaitUntilHealthy returned error: %v", err)
	}
	if calls.Load() < 4 {
		t.Fatalf("expected at least 4 probes, got %d", calls.Load())
	}
}

func TestWaitUntilHealthyLosesToTermination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	terminated := make(chan sidecar.ExitStatus, 1)
	code := 127
	terminated <- sidecar.ExitStatus{Code: &code}

	err := testProber().WaitUntilHealthy(context.Background(), server.URL, "", terminated)
	if err == nil {
		t.Fatal("expected error when process terminates first")
	}
	if !strings.Contains(err.Error(), "code=127") {
		t.Fatalf("error should embed exit status, got %q", err)
	}
}

func TestEnsureLoopbackNoProxy(t *testing.T) {
	t.Setenv("NO_PROXY", "example.com, localhost")
	t.Setenv("no_proxy", "")

	EnsureLoopbackNoProxy()

	upper := os.Getenv("NO_PROXY")
	for _, host := range []string{"example.com", "localhost", "127.0.0.1", "::1"} {
		if !strings.Contains(upper, host) {
			t.Fatalf("NO_PROXY missing %q: %q", host, upper)
		}
	}
	if strings.Count(upper, "localhost") != 1 {
		t.Fatalf("localhost duplicated in NO_PROXY: %q", upper)
	}
	if lower := os.Getenv("no_proxy"); !strings.Contains(lower, "127.0.0.1") {
		t.Fatalf("no_proxy not updated: %q", lower)
	}
}
