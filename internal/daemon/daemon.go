package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"skipper/internal/bootstrap"
	"skipper/internal/config"
	"skipper/internal/display"
	"skipper/internal/launchlog"
	"skipper/internal/logging"
	"skipper/internal/settings"
)

// Daemon coordinates sidecar initialization and enforces single-instance
// execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	settings     *settings.Store
	journal      *launchlog.Store
	orchestrator *bootstrap.Orchestrator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status is the daemon runtime snapshot reported over IPC.
type Status struct {
	Running     bool
	PID         int
	Step        string
	Initialized bool
	ServerURL   string
	Err         string
	LockPath    string
	JournalPath string
	LogPath     string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *settings.Store, journal *launchlog.Store, orch *bootstrap.Orchestrator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("daemon requires config, settings, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "skipperd.lock")
	return &Daemon{
		cfg:          cfg,
		logger:       logging.WithComponent(logger, "daemon"),
		settings:     store,
		journal:      journal,
		orchestrator: orch,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and kicks off initialization. Canceling
// ctx halts in-flight initialization work.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another skipper daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go func() {
		<-runCtx.Done()
		d.orchestrator.Close()
	}()
	d.orchestrator.Start()
	d.running.Store(true)
	d.logger.Info("skipper daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts initialization work and terminates any spawned sidecar; the
// sidecar must not outlive its supervising daemon.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.orchestrator.KillSidecar() {
		d.logger.Info("sidecar terminated on shutdown")
	}
	d.orchestrator.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("skipper daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// AwaitInit blocks on the shared initialization result.
func (d *Daemon) AwaitInit(ctx context.Context) (bootstrap.Result, error) {
	return d.orchestrator.Await(ctx)
}

// CurrentStep reports the latest initialization step.
func (d *Daemon) CurrentStep() bootstrap.InitStep {
	return d.orchestrator.CurrentStep()
}

// NotifyUIReady delivers the one-shot "shell rendered" acknowledgment.
func (d *Daemon) NotifyUIReady() {
	d.orchestrator.UIReady().Signal()
}

// ShowLoadingScreen exposes the orchestrator's one-shot loading decision.
func (d *Daemon) ShowLoadingScreen() bool {
	return d.orchestrator.ShowLoadingScreen()
}

// KillSidecar requests termination of the spawned sidecar, if any.
func (d *Daemon) KillSidecar() bool {
	return d.orchestrator.KillSidecar()
}

// LogPath returns the daemon log file path.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// History returns recent launch attempts, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]launchlog.Entry, error) {
	if d.journal == nil {
		return nil, errors.New("launch journal unavailable")
	}
	return d.journal.Recent(ctx, limit)
}

// ServerURL returns the persisted custom server URL, if any.
func (d *Daemon) ServerURL() (string, bool) {
	return d.settings.ServerURL()
}

// SetServerURL persists the custom server URL; empty clears it. The change
// applies to the next initialization.
func (d *Daemon) SetServerURL(url string) error {
	return d.settings.SetServerURL(url)
}

// WSLEnabled reports the persisted WSL launch toggle.
func (d *Daemon) WSLEnabled() bool {
	return d.settings.WSLEnabled()
}

// SetWSLEnabled persists the WSL launch toggle.
func (d *Daemon) SetWSLEnabled(enabled bool) error {
	return d.settings.SetWSLEnabled(enabled)
}

// DisplayBackend reports the windowing backend decision for the current
// session together with the persisted Wayland preference.
func (d *Daemon) DisplayBackend() (decision *display.Decision, decorations, preferWayland bool) {
	env := display.Capture()
	prefer, _ := d.settings.PreferWayland()
	return display.SelectBackend(env, prefer), display.UseDecorations(env), prefer
}

// SetPreferWayland persists the native Wayland preference.
func (d *Daemon) SetPreferWayland(prefer bool) error {
	return d.settings.SetPreferWayland(prefer)
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		Step:        d.orchestrator.CurrentStep().String(),
		Initialized: d.orchestrator.Finished(),
		LockPath:    d.lockPath,
		LogPath:     d.cfg.LogPath(),
	}
	if d.journal != nil {
		status.JournalPath = d.journal.Path()
	}
	if status.Initialized {
		// The result is already terminal, so this cannot block.
		result, err := d.orchestrator.Await(context.Background())
		if err != nil {
			status.Err = err.Error()
		} else {
			status.ServerURL = result.URL
		}
	}
	return status
}
