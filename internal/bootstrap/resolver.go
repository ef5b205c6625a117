package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/google/uuid"

	"skipper/internal/config"
	"skipper/internal/logging"
	"skipper/internal/sidecar"
)

// Connection is the resolver's decision: reuse a server that is already
// reachable, or supervise a freshly spawned one.
type Connection struct {
	URL      string
	Password string

	// Spawned connections additionally carry the live event stream and the
	// process handle; both are nil for existing servers.
	Spawned bool
	Events  <-chan sidecar.Event
	Handle  *sidecar.Handle
}

// RetryPrompter is the external collaborator consulted when a configured
// server URL fails its health check. Returning true retries the check,
// false gives up on the configured server and falls back to a local one.
type RetryPrompter interface {
	RetryConnect(ctx context.Context, url string) bool
}

// SavedServer exposes the persisted custom server URL.
type SavedServer interface {
	ServerURL() (string, bool)
}

// ServerSpawner is the slice of the sidecar supervisor the resolver needs.
type ServerSpawner interface {
	Serve(hostname string, port int, password string) (<-chan sidecar.Event, *sidecar.Handle, error)
	ProbeConfig(ctx context.Context) *sidecar.ServerConfig
}

// HealthChecker issues a single readiness probe.
type HealthChecker interface {
	Check(ctx context.Context, baseURL, password string) bool
}

// Resolver decides which server the shell should talk to.
type Resolver struct {
	cfg        *config.Config
	saved      SavedServer
	supervisor ServerSpawner
	checker    HealthChecker
	prompter   RetryPrompter
	logger     *slog.Logger

	newPassword func() string
	pickPort    func() (int, error)
}

func NewResolver(cfg *config.Config, saved SavedServer, supervisor ServerSpawner, checker HealthChecker, prompter RetryPrompter, logger *slog.Logger) *Resolver {
	r := &Resolver{
		cfg:         cfg,
		saved:       saved,
		supervisor:  supervisor,
		checker:     checker,
		prompter:    prompter,
		logger:      logging.WithComponent(logger, "resolver"),
		newPassword: uuid.NewString,
	}
	r.pickPort = r.defaultPort
	return r
}

// Resolve picks the server connection. Preference order: a configured custom
// URL that answers health checks, then a local server already listening on
// the expected port, then a freshly spawned sidecar with a per-launch
// password.
func (r *Resolver) Resolve(ctx context.Context) (*Connection, error) {
	if url, ok := r.customURL(ctx); ok {
		for {
			if r.checker.Check(ctx, url, "") {
				r.logger.Info("using configured server", logging.String("url", url))
				return &Connection{URL: url}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if r.prompter == nil || !r.prompter.RetryConnect(ctx, url) {
				break
			}
		}
		r.logger.Warn("configured server unreachable, falling back to local sidecar",
			logging.String("url", url))
	}

	port, err := r.pickPort()
	if err != nil {
		return nil, fmt.Errorf("selecting sidecar port: %w", err)
	}
	hostname := "127.0.0.1"
	if r.cfg != nil && r.cfg.Sidecar.Hostname != "" {
		hostname = r.cfg.Sidecar.Hostname
	}
	localURL := sidecar.ServerConfig{Hostname: hostname, Port: port}.URL()

	if r.checker.Check(ctx, localURL, "") {
		r.logger.Info("reusing server already listening locally", logging.String("url", localURL))
		return &Connection{URL: localURL}, nil
	}

	password := r.newPassword()
	events, handle, err := r.supervisor.Serve(hostname, port, password)
	if err != nil {
		return nil, fmt.Errorf("spawning sidecar: %w", err)
	}
	return &Connection{
		URL:      localURL,
		Password: password,
		Spawned:  true,
		Events:   events,
		Handle:   handle,
	}, nil
}

// customURL finds an explicitly configured server: the settings store first,
// then the sidecar's own config file via the diagnostic subcommand. Probe
// failures mean "no custom config".
func (r *Resolver) customURL(ctx context.Context) (string, bool) {
	if r.saved != nil {
		if url, ok := r.saved.ServerURL(); ok {
			return url, true
		}
	}
	if r.supervisor != nil {
		if probed := r.supervisor.ProbeConfig(ctx); probed != nil {
			return probed.URL(), true
		}
	}
	return "", false
}

func (r *Resolver) defaultPort() (int, error) {
	if r.cfg != nil && r.cfg.Sidecar.Port > 0 {
		return r.cfg.Sidecar.Port, nil
	}
	if raw := os.Getenv(sidecar.EnvPortOverride); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 && port <= 65535 {
			return port, nil
		}
		r.logger.Warn("ignoring invalid port override",
			logging.String("var", sidecar.EnvPortOverride),
			logging.String("value", raw))
	}
	return ephemeralPort()
}

// ephemeralPort asks the kernel for a free port and releases it so the
// spawned sidecar can bind it.
func ephemeralPort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
