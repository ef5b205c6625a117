package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	LogDir     string `toml:"log_dir"`
	DataDir    string `toml:"data_dir"`
	SocketPath string `toml:"socket_path"`
}

// Sidecar contains launch settings for the supervised backend process.
type Sidecar struct {
	// Binary is the sidecar executable. When empty the daemon looks for a
	// binary named "sidecar" next to its own executable.
	Binary string `toml:"binary"`
	// Hostname is the bind address handed to the sidecar's serve command.
	Hostname string `toml:"hostname"`
	// Port fixes the sidecar port. Zero means use SKIPPER_PORT from the
	// environment or bind an ephemeral port.
	Port int `toml:"port"`
	// LaunchMode selects the invocation strategy: auto, direct, shell, wsl.
	LaunchMode string `toml:"launch_mode"`
	// StateDir is exported to the sidecar as its state home.
	StateDir string `toml:"state_dir"`
	// DatabasePath is the sidecar's sqlite database. Its absence at startup
	// means a first-run migration is expected.
	DatabasePath string `toml:"database_path"`
}

// Health contains readiness probe timing.
type Health struct {
	StartupTimeout  int `toml:"startup_timeout"`
	ProbeIntervalMS int `toml:"probe_interval_ms"`
	RequestTimeout  int `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	TailLines     int    `toml:"tail_lines"`
}

// Config encapsulates all configuration values for skipper.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Sidecar Sidecar `toml:"sidecar"`
	Health  Health  `toml:"health"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/skipper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("skipper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Validate checks configuration invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Sidecar.LaunchMode)) {
	case "", "auto", "direct", "shell", "wsl":
	default:
		return fmt.Errorf("sidecar.launch_mode: unsupported value %q", c.Sidecar.LaunchMode)
	}
	if c.Sidecar.Port < 0 || c.Sidecar.Port > 65535 {
		return fmt.Errorf("sidecar.port: %d outside valid range", c.Sidecar.Port)
	}
	if c.Health.StartupTimeout <= 0 {
		return errors.New("health.startup_timeout must be positive")
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.SocketPath != "" {
		if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
			return err
		}
	}
	if c.Sidecar.Binary != "" {
		if c.Sidecar.Binary, err = expandPath(c.Sidecar.Binary); err != nil {
			return err
		}
	}
	if c.Sidecar.StateDir != "" {
		if c.Sidecar.StateDir, err = expandPath(c.Sidecar.StateDir); err != nil {
			return err
		}
	}
	if c.Sidecar.DatabasePath != "" {
		if c.Sidecar.DatabasePath, err = expandPath(c.Sidecar.DatabasePath); err != nil {
			return err
		}
	}
	return nil
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "skipperd.log")
}

// SettingsPath returns the persisted settings document location.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Paths.DataDir, "settings.json")
}

// JournalPath returns the launch journal database location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.DataDir, "journal.db")
}

// Socket returns the IPC socket path, defaulting under the data directory.
func (c *Config) Socket() string {
	if strings.TrimSpace(c.Paths.SocketPath) != "" {
		return c.Paths.SocketPath
	}
	return filepath.Join(c.Paths.DataDir, "skipperd.sock")
}

// SidecarDatabasePath returns the sidecar database location used by the
// first-run migration gate, defaulting under the sidecar state directory.
func (c *Config) SidecarDatabasePath() string {
	if strings.TrimSpace(c.Sidecar.DatabasePath) != "" {
		return c.Sidecar.DatabasePath
	}
	return filepath.Join(c.SidecarStateDir(), "sidecar.db")
}

// SidecarStateDir returns the state directory exported to the sidecar.
func (c *Config) SidecarStateDir() string {
	if strings.TrimSpace(c.Sidecar.StateDir) != "" {
		return c.Sidecar.StateDir
	}
	return filepath.Join(c.Paths.DataDir, "state")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path, refusing to overwrite.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
