package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if cfg.Sidecar.Hostname != "127.0.0.1" {
		t.Fatalf("unexpected default hostname %q", cfg.Sidecar.Hostname)
	}
	if cfg.Health.StartupTimeout != 30 {
		t.Fatalf("unexpected default startup timeout %d", cfg.Health.StartupTimeout)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[sidecar]
hostname = "0.0.0.0"
port = 4747
launch_mode = "direct"

[health]
startup_timeout = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Sidecar.Port != 4747 {
		t.Fatalf("port = %d, want 4747", cfg.Sidecar.Port)
	}
	if cfg.Health.StartupTimeout != 5 {
		t.Fatalf("startup timeout = %d, want 5", cfg.Health.StartupTimeout)
	}
}

func TestLoadRejectsBadLaunchMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sidecar]\nlaunch_mode = \"rsh\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported launch mode")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/var/lib/skipper"
	cfg.Paths.LogDir = "/var/log/skipper"

	if got := cfg.Socket(); got != "/var/lib/skipper/skipperd.sock" {
		t.Fatalf("Socket() = %q", got)
	}
	if got := cfg.SettingsPath(); got != "/var/lib/skipper/settings.json" {
		t.Fatalf("SettingsPath() = %q", got)
	}
	if got := cfg.SidecarDatabasePath(); got != "/var/lib/skipper/state/sidecar.db" {
		t.Fatalf("SidecarDatabasePath() = %q", got)
	}

	cfg.Sidecar.DatabasePath = "/tmp/side.db"
	if got := cfg.SidecarDatabasePath(); got != "/tmp/side.db" {
		t.Fatalf("SidecarDatabasePath() override = %q", got)
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := os.WriteFile(path, []byte(SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !strings.Contains(cfg.Paths.LogDir, "skipper") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
}
