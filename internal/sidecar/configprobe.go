package sidecar

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ServerConfig is the subset of the sidecar's own configuration the
// supervisor cares about: where an already-configured server listens.
type ServerConfig struct {
	Hostname string
	Port     int
}

// URL renders the connect address for the configured server.
func (c ServerConfig) URL() string {
	hostname := normalizeHostname(c.Hostname)
	if hostname == "" {
		hostname = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", hostname, c.Port)
}

// ProbeConfig invokes the sidecar's diagnostic subcommand and extracts an
// optional server address from its JSON output. Every failure mode — spawn
// error, malformed JSON, missing keys — yields nil: a probe can never make
// initialization fail, it only falls through to default resolution.
func (s *Supervisor) ProbeConfig(ctx context.Context) *ServerConfig {
	events, handle, err := s.Spawn([]string{"debug", "config"}, nil)
	if err != nil {
		return nil
	}

	var out bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			handle.Kill()
			// Drain so the stream goroutines finish.
			for range events {
			}
			return nil
		case event, ok := <-events:
			if !ok {
				return parseServerConfig(out.String())
			}
			if event.Kind == EventStdout {
				out.Write(event.Line)
			}
		}
	}
}

func parseServerConfig(raw string) *ServerConfig {
	if !gjson.Valid(raw) {
		return nil
	}
	port := gjson.Get(raw, "server.port")
	if !port.Exists() || port.Int() <= 0 || port.Int() > 65535 {
		return nil
	}
	return &ServerConfig{
		Hostname: gjson.Get(raw, "server.hostname").String(),
		Port:     int(port.Int()),
	}
}

// normalizeHostname converts a bind address into a valid connect target:
// wildcard addresses map to loopback and bare IPv6 addresses gain brackets.
func normalizeHostname(hostname string) string {
	switch hostname {
	case "0.0.0.0":
		return "127.0.0.1"
	case "::":
		return "[::1]"
	}
	if strings.Contains(hostname, ":") && !strings.HasPrefix(hostname, "[") {
		return "[" + hostname + "]"
	}
	return hostname
}
