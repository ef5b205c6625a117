package sidecar

import "testing"

func TestParseServerConfig(t *testing.T) {
	cfg := parseServerConfig(`{"server":{"hostname":"0.0.0.0","port":4747},"theme":"dark"}`)
	if cfg == nil {
		t.Fatal("expected server config")
	}
	if cfg.Port != 4747 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if got := cfg.URL(); got != "http://127.0.0.1:4747" {
		t.Fatalf("URL() = %q", got)
	}
}

func TestParseServerConfigMissingPort(t *testing.T) {
	if cfg := parseServerConfig(`{"server":{"hostname":"example.com"}}`); cfg != nil {
		t.Fatalf("expected nil without port, got %+v", cfg)
	}
}

func TestParseServerConfigMalformed(t *testing.T) {
	if cfg := parseServerConfig(`{"server":`); cfg != nil {
		t.Fatalf("expected nil for malformed JSON, got %+v", cfg)
	}
	if cfg := parseServerConfig(""); cfg != nil {
		t.Fatalf("expected nil for empty output, got %+v", cfg)
	}
}

func TestNormalizeHostname(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0":     "127.0.0.1",
		"::":          "[::1]",
		"::1":         "[::1]",
		"fe80::1":     "[fe80::1]",
		"[::1]":       "[::1]",
		"localhost":   "localhost",
		"192.168.1.5": "192.168.1.5",
	}
	for input, want := range cases {
		if got := normalizeHostname(input); got != want {
			t.Errorf("normalizeHostname(%q) = %q, want %q", input, got, want)
		}
	}
}
