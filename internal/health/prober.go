// Package health probes the sidecar's readiness endpoint.
//
// A single probe is deliberately coarse: network errors, timeouts, and
// non-2xx responses are all just "not yet healthy". WaitUntilHealthy turns
// probes into a readiness wait that races process termination; the overall
// deadline is the caller's concern.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"skipper/internal/config"
	"skipper/internal/logging"
	"skipper/internal/sidecar"
)

// Username is the fixed basic auth user for locally spawned sidecars.
const Username = "skipper"

// Path is the readiness endpoint on the sidecar.
const Path = "/global/health"

// Prober issues readiness checks with configured timing.
type Prober struct {
	requestTimeout time.Duration
	probeInterval  time.Duration
	logger         *slog.Logger
}

// NewProber builds a prober from configuration.
func NewProber(cfg *config.Config, logger *slog.Logger) *Prober {
	requestTimeout := 3 * time.Second
	probeInterval := 100 * time.Millisecond
	if cfg != nil {
		if cfg.Health.RequestTimeout > 0 {
			requestTimeout = time.Duration(cfg.Health.RequestTimeout) * time.Second
		}
		if cfg.Health.ProbeIntervalMS > 0 {
			probeInterval = time.Duration(cfg.Health.ProbeIntervalMS) * time.Millisecond
		}
	}
	return &Prober{
		requestTimeout: requestTimeout,
		probeInterval:  probeInterval,
		logger:         logging.WithComponent(logger, "health"),
	}
}

// Check issues one readiness probe against baseURL. Any 2xx response is
// healthy; everything else, including transport errors, is not.
func (p *Prober) Check(ctx context.Context, baseURL, password string) bool {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return false
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if isLoopback(parsed) {
		// Proxy variables set without excluding localhost would otherwise
		// intercept traffic to our own sidecar.
		transport.Proxy = nil
	}
	client := &http.Client{Timeout: p.requestTimeout, Transport: transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+Path, nil)
	if err != nil {
		return false
	}
	if password != "" {
		req.SetBasicAuth(Username, password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// WaitUntilHealthy probes baseURL until a probe succeeds, racing the
// process-terminated signal. Whichever resolves first wins: termination
// yields an error embedding the exit status. The caller imposes any overall
// deadline via ctx.
func (p *Prober) WaitUntilHealthy(ctx context.Context, baseURL, password string, terminated <-chan sidecar.ExitStatus) error {
	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case status, ok := <-terminated:
			if !ok {
				return fmt.Errorf("sidecar terminated before becoming healthy")
			}
			return fmt.Errorf("sidecar terminated before becoming healthy (%s)", status)
		case <-time.After(p.probeInterval):
			if p.Check(ctx, baseURL, password) {
				p.logger.Info("sidecar ready", logging.Duration("elapsed", time.Since(started)))
				return nil
			}
		}
	}
}

func isLoopback(u *url.URL) bool {
	host := u.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
