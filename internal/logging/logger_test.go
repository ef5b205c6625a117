package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, tail *TailBuffer) *slog.Logger {
	lvl := new(slog.LevelVar)
	var handler slog.Handler = newConsoleHandler(buf, lvl)
	if tail != nil {
		handler = newTailHandler(handler, tail)
	}
	return slog.New(handler)
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, nil)

	logger = WithComponent(logger, "prober")
	logger.Info("probe attempt", String("url", "http://127.0.0.1:8080"), Int("try", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO prober: probe attempt") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "url=http://127.0.0.1:8080") || !strings.Contains(line, "try=3") {
		t.Fatalf("attrs missing from console line: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, nil)

	logger.Warn("spawn failed", String("detail", "no such file"))
	if !strings.Contains(buf.String(), `detail="no such file"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestTailBufferEviction(t *testing.T) {
	tail := NewTailBuffer(3)
	for i := 0; i < 5; i++ {
		tail.Append(fmt.Sprintf("line-%d", i))
	}

	got := tail.Tail()
	want := "line-2\nline-3\nline-4"
	if got != want {
		t.Fatalf("Tail() = %q, want %q", got, want)
	}
}

func TestTailHandlerMirrorsRecords(t *testing.T) {
	var buf bytes.Buffer
	tail := NewTailBuffer(10)
	logger := newTestLogger(&buf, tail)

	logger.Info("sidecar terminated", Int("code", 1))

	if !strings.Contains(tail.Tail(), "sidecar terminated code=1") {
		t.Fatalf("tail missing record: %q", tail.Tail())
	}
	if buf.Len() == 0 {
		t.Fatal("underlying handler did not receive record")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
