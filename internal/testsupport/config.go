// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"skipper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Probe timing is tightened so readiness loops resolve quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Sidecar.StateDir = filepath.Join(base, "state")
	cfgVal.Sidecar.DatabasePath = filepath.Join(base, "state", "sidecar.db")
	cfgVal.Health.ProbeIntervalMS = 10
	cfgVal.Health.RequestTimeout = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}
	return builder.cfg
}

// WithPort fixes the sidecar port on the test config.
func WithPort(port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sidecar.Port = port
	}
}

// WithStubSidecar writes a shell script as the sidecar binary and points the
// config at it. The script body runs with `sh` and receives the usual serve
// arguments.
func WithStubSidecar(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sidecar.Binary = StubScript(b.t, b.baseDir, "sidecar", body)
		b.cfg.Sidecar.LaunchMode = "direct"
	}
}

// StubScript writes an executable shell script into dir and returns its
// path.
func StubScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
