//go:build unix

package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"skipper/internal/config"
	"skipper/internal/health"
	"skipper/internal/logging"
	"skipper/internal/migration"
	"skipper/internal/sidecar"
)

func fastHealthConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Health.ProbeIntervalMS = 10
	cfg.Health.RequestTimeout = 1
	return &cfg
}

func existingFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sidecar.db")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func spawnShell(t *testing.T, script string) (<-chan sidecar.Event, *sidecar.Handle) {
	t.Helper()
	events, handle, err := sidecar.Spawn(sidecar.CommandSpec{
		Path: "/bin/sh",
		Args: []string{"-c", script},
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return events, handle
}

func waitForExit(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); err == syscall.ESRCH {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("process %d still alive", pid)
}

func TestTimeoutKillsSidecarAndReportsFailure(t *testing.T) {
	cfg := fastHealthConfig(t)
	events, handle := spawnShell(t, "sleep 30")
	conn := &Connection{
		URL:     "http://127.0.0.1:1",
		Spawned: true,
		Events:  events,
		Handle:  handle,
	}

	o := NewOrchestrator(cfg, &stubResolver{conn: conn}, health.NewProber(cfg, nil), nil)
	defer o.Close()
	o.databasePath = existingFile(t)
	o.startupTimeout = 400 * time.Millisecond

	_, err := o.Await(context.Background())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want a timeout failure", err)
	}
	waitForExit(t, handle.PID())
}

func TestSidecarDeathBeforeHealthyCarriesExitAndLogs(t *testing.T) {
	tail := logging.NewTailBuffer(100)
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{filepath.Join(t.TempDir(), "test.log")},
		Tail:        tail,
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := fastHealthConfig(t)
	events, handle := spawnShell(t, "echo boom; exit 3")
	conn := &Connection{
		URL:     "http://127.0.0.1:1",
		Spawned: true,
		Events:  events,
		Handle:  handle,
	}

	o := NewOrchestrator(cfg, &stubResolver{conn: conn}, health.NewProber(cfg, nil), logger)
	defer o.Close()
	o.databasePath = existingFile(t)
	o.AttachTail(tail)

	_, err = o.Await(context.Background())
	if err == nil {
		t.Fatal("expected a failure")
	}
	if !strings.Contains(err.Error(), "code=3") {
		t.Fatalf("failure does not carry the exit status: %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("failure does not carry recent output: %v", err)
	}
}

type noProbeSpawner struct{ *sidecar.Supervisor }

func (s noProbeSpawner) ProbeConfig(ctx context.Context) *sidecar.ServerConfig { return nil }

func TestEndToEndSpawnedSidecarInitialization(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	port, err := strconv.Atoi(srv.URL[strings.LastIndex(srv.URL, ":")+1:])
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}

	dir := t.TempDir()
	stub := filepath.Join(dir, "sidecar-stub")
	script := "#!/bin/sh\n" +
		"echo 'sqlite-migration: 10'\n" +
		"echo 'sqlite-migration: 60'\n" +
		"echo 'sqlite-migration: done'\n" +
		"sleep 5\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := fastHealthConfig(t)
	prober := health.NewProber(cfg, nil)
	supervisor := sidecar.NewSupervisorWithLauncher(sidecar.DirectExec{Binary: stub}, dir, nil)

	resolver := NewResolver(cfg, fakeSaved{}, noProbeSpawner{supervisor}, prober, nil, nil)
	resolver.pickPort = func() (int, error) { return port, nil }

	o := NewOrchestrator(cfg, resolver, prober, nil)
	defer func() {
		o.KillSidecar()
		o.Close()
	}()
	o.databasePath = filepath.Join(dir, "missing.db")

	var mu sync.Mutex
	var progress []migration.Progress
	o.onMigrationProgress = func(p migration.Progress) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, p)
	}

	stepCh, cancelSteps := o.WatchSteps()
	defer cancelSteps()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := o.Await(ctx)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if result.URL != srv.URL {
		t.Fatalf("result URL = %q, want %q", result.URL, srv.URL)
	}
	if result.Password == "" {
		t.Fatal("spawned connection must carry a password")
	}
	if got := hits.Load(); got < 4 {
		t.Fatalf("probe hit the server %d times, want at least 4", got)
	}

	o.UIReady().Signal()
	steps := collectSteps(t, stepCh, 3)
	want := []InitStep{StepServerWaiting, StepSqliteWaiting, StepDone}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(progress) != 3 {
		t.Fatalf("migration notifications = %v, want 3", progress)
	}
	if progress[0].Done || progress[0].Percent != 10 {
		t.Fatalf("first notification = %+v", progress[0])
	}
	if progress[1].Done || progress[1].Percent != 60 {
		t.Fatalf("second notification = %+v", progress[1])
	}
	if !progress[2].Done {
		t.Fatalf("third notification = %+v", progress[2])
	}
}
