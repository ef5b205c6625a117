package sidecar

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"skipper/internal/config"
	"skipper/internal/logging"
)

// Environment contract between the supervisor and the sidecar.
const (
	// EnvPortOverride fixes the local sidecar port.
	EnvPortOverride = "SKIPPER_PORT"
	// EnvServerUsername and EnvServerPassword carry the per-launch basic
	// auth credentials for the sidecar's HTTP surface.
	EnvServerUsername = "SKIPPER_SERVER_USERNAME"
	EnvServerPassword = "SKIPPER_SERVER_PASSWORD"
	// EnvClient identifies the launching shell to the sidecar.
	EnvClient = "SKIPPER_CLIENT"
)

// Supervisor spawns sidecar commands with the configured launch strategy and
// the standard environment applied.
type Supervisor struct {
	launcher Launcher
	stateDir string
	logger   *slog.Logger
}

// WSLToggle reports whether the user enabled the WSL launch path. It is the
// one piece of persisted settings the supervisor consults.
type WSLToggle interface {
	WSLEnabled() bool
}

// NewSupervisor selects a launch strategy from configuration and settings.
func NewSupervisor(cfg *config.Config, wsl WSLToggle, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}

	binary := cfg.Sidecar.Binary
	if binary == "" {
		binary = defaultBinaryPath()
	}

	var launcher Launcher
	switch strings.ToLower(strings.TrimSpace(cfg.Sidecar.LaunchMode)) {
	case "direct":
		launcher = DirectExec{Binary: binary}
	case "shell":
		launcher = UserShell{Binary: binary}
	case "wsl":
		launcher = WSL{}
	default: // auto
		switch {
		case runtime.GOOS == "windows" && wsl != nil && wsl.WSLEnabled():
			launcher = WSL{}
		case runtime.GOOS == "windows":
			launcher = DirectExec{Binary: binary}
		default:
			launcher = UserShell{Binary: binary}
		}
	}

	return &Supervisor{
		launcher: launcher,
		stateDir: cfg.SidecarStateDir(),
		logger:   logging.WithComponent(logger, "sidecar"),
	}
}

// NewSupervisorWithLauncher wires an explicit launcher (used in tests).
func NewSupervisorWithLauncher(launcher Launcher, stateDir string, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		launcher: launcher,
		stateDir: stateDir,
		logger:   logging.WithComponent(logger, "sidecar"),
	}
}

// Spawn launches a sidecar command with the standard environment plus any
// extras.
func (s *Supervisor) Spawn(args []string, extraEnv map[string]string) (<-chan Event, *Handle, error) {
	env := map[string]string{
		EnvClient:        "desktop",
		"XDG_STATE_HOME": s.stateDir,
	}
	for key, value := range extraEnv {
		env[key] = value
	}
	return Spawn(s.launcher.Command(args, env))
}

// ServeArgs builds the argument list that starts the sidecar's server mode.
func ServeArgs(hostname string, port int) []string {
	return []string{
		"--print-logs", "--log-level", "WARN",
		"serve", "--hostname", hostname, "--port", strconv.Itoa(port),
	}
}

// Serve spawns the sidecar server with per-launch credentials.
func (s *Supervisor) Serve(hostname string, port int, password string) (<-chan Event, *Handle, error) {
	s.logger.Info("spawning sidecar server",
		logging.String("hostname", hostname),
		logging.Int("port", port))
	return s.Spawn(ServeArgs(hostname, port), map[string]string{
		EnvServerUsername: "skipper",
		EnvServerPassword: password,
	})
}

// Drain forwards process output to the supervisor log and reports the
// terminal status on the returned channel. It consumes events until the
// stream ends; the exit channel resolves exactly once.
func Drain(events <-chan Event, logger *slog.Logger) <-chan ExitStatus {
	if logger == nil {
		logger = logging.NewNop()
	}
	exit := make(chan ExitStatus, 1)

	go func() {
		defer close(exit)
		for event := range events {
			switch event.Kind {
			case EventStdout, EventStderr:
				logger.Info(string(event.Line))
			case EventSpawnError:
				logger.Error("sidecar wait failed", logging.String("error", event.Err))
				exit <- ExitStatus{Err: event.Err}
			case EventTerminated:
				logger.Info("sidecar terminated", logging.String("status", event.Exit.String()))
				exit <- event.Exit
			}
		}
	}()

	return exit
}

func defaultBinaryPath() string {
	executable, err := os.Executable()
	if err != nil {
		return "sidecar"
	}
	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}
	return filepath.Join(filepath.Dir(executable), "sidecar")
}
