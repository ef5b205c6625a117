package bootstrap

import (
	"context"
	"strings"
	"testing"

	"skipper/internal/config"
	"skipper/internal/sidecar"
)

type checkerFunc func(ctx context.Context, baseURL, password string) bool

func (f checkerFunc) Check(ctx context.Context, baseURL, password string) bool {
	return f(ctx, baseURL, password)
}

type fakeSaved struct{ url string }

func (f fakeSaved) ServerURL() (string, bool) { return f.url, f.url != "" }

type fakeSpawner struct {
	probed *sidecar.ServerConfig

	servedHost     string
	servedPort     int
	servedPassword string
	serveCount     int
}

func (f *fakeSpawner) Serve(hostname string, port int, password string) (<-chan sidecar.Event, *sidecar.Handle, error) {
	f.serveCount++
	f.servedHost = hostname
	f.servedPort = port
	f.servedPassword = password
	events := make(chan sidecar.Event)
	close(events)
	return events, &sidecar.Handle{}, nil
}

func (f *fakeSpawner) ProbeConfig(ctx context.Context) *sidecar.ServerConfig {
	return f.probed
}

type fakePrompter struct {
	answers []bool
	asked   int
}

func (f *fakePrompter) RetryConnect(ctx context.Context, url string) bool {
	if f.asked >= len(f.answers) {
		return false
	}
	answer := f.answers[f.asked]
	f.asked++
	return answer
}

func testConfig(port int) *config.Config {
	cfg := config.Default()
	cfg.Sidecar.Port = port
	return &cfg
}

func TestResolveUsesHealthySavedURL(t *testing.T) {
	spawner := &fakeSpawner{}
	r := NewResolver(testConfig(0), fakeSaved{url: "http://example.test:9000"}, spawner,
		checkerFunc(func(_ context.Context, url, _ string) bool {
			return url == "http://example.test:9000"
		}), nil, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.Spawned || conn.URL != "http://example.test:9000" {
		t.Fatalf("unexpected connection %+v", conn)
	}
	if spawner.serveCount != 0 {
		t.Fatal("healthy saved URL must not spawn")
	}
}

func TestResolveRetriesSavedURLThenSucceeds(t *testing.T) {
	failures := 2
	prompter := &fakePrompter{answers: []bool{true, true}}
	r := NewResolver(testConfig(0), fakeSaved{url: "http://example.test:9000"}, &fakeSpawner{},
		checkerFunc(func(_ context.Context, _, _ string) bool {
			if failures > 0 {
				failures--
				return false
			}
			return true
		}), prompter, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.Spawned {
		t.Fatal("should have reached the saved URL after retries")
	}
	if prompter.asked != 2 {
		t.Fatalf("prompted %d times, want 2", prompter.asked)
	}
}

func TestResolveFallsBackToSpawnWhenPromptDeclined(t *testing.T) {
	spawner := &fakeSpawner{}
	r := NewResolver(testConfig(4242), fakeSaved{url: "http://example.test:9000"}, spawner,
		checkerFunc(func(_ context.Context, _, _ string) bool { return false }),
		&fakePrompter{}, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !conn.Spawned {
		t.Fatal("expected a spawned connection")
	}
	if conn.URL != "http://127.0.0.1:4242" {
		t.Fatalf("url = %q", conn.URL)
	}
	if conn.Password == "" || conn.Password != spawner.servedPassword {
		t.Fatalf("password not threaded through: %q vs %q", conn.Password, spawner.servedPassword)
	}
	if spawner.servedPort != 4242 {
		t.Fatalf("served port = %d, want 4242", spawner.servedPort)
	}
}

func TestResolveReusesLocalListener(t *testing.T) {
	spawner := &fakeSpawner{}
	r := NewResolver(testConfig(5252), fakeSaved{}, spawner,
		checkerFunc(func(_ context.Context, url, _ string) bool {
			return strings.HasSuffix(url, ":5252")
		}), nil, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.Spawned || conn.URL != "http://127.0.0.1:5252" {
		t.Fatalf("unexpected connection %+v", conn)
	}
	if conn.Password != "" {
		t.Fatal("reused servers carry no password")
	}
}

func TestResolveConsultsConfigProbeWhenNoSavedURL(t *testing.T) {
	spawner := &fakeSpawner{probed: &sidecar.ServerConfig{Hostname: "0.0.0.0", Port: 7878}}
	r := NewResolver(testConfig(0), fakeSaved{}, spawner,
		checkerFunc(func(_ context.Context, url, _ string) bool {
			return url == "http://127.0.0.1:7878"
		}), nil, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conn.Spawned || conn.URL != "http://127.0.0.1:7878" {
		t.Fatalf("unexpected connection %+v", conn)
	}
}

func TestResolvePicksEphemeralPortWithoutConfig(t *testing.T) {
	spawner := &fakeSpawner{}
	r := NewResolver(testConfig(0), fakeSaved{}, spawner,
		checkerFunc(func(_ context.Context, _, _ string) bool { return false }), nil, nil)

	conn, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !conn.Spawned {
		t.Fatal("expected a spawned connection")
	}
	if spawner.servedPort <= 0 || spawner.servedPort > 65535 {
		t.Fatalf("implausible ephemeral port %d", spawner.servedPort)
	}
}
