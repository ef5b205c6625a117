package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TailBuffer retains the most recent log lines in memory so failure messages
// can carry diagnostics without re-reading log files. It is constructed once
// and injected into the components that attach it to errors.
type TailBuffer struct {
	mu       sync.Mutex
	capacity int
	lines    []string
	next     int
	full     bool
}

// NewTailBuffer constructs a bounded tail buffer.
func NewTailBuffer(capacity int) *TailBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &TailBuffer{capacity: capacity, lines: make([]string, capacity)}
}

// Append records one formatted log line, evicting the oldest when full.
func (b *TailBuffer) Append(line string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.lines[b.next] = line
	b.next = (b.next + 1) % b.capacity
	if b.next == 0 {
		b.full = true
	}
	b.mu.Unlock()
}

// Tail returns the retained lines, oldest first, joined by newlines.
func (b *TailBuffer) Tail() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	if b.full {
		out = append(out, b.lines[b.next:]...)
		out = append(out, b.lines[:b.next]...)
	} else {
		out = append(out, b.lines[:b.next]...)
	}
	return strings.Join(out, "\n")
}

// tailHandler mirrors every record into the tail buffer as a rendered line
// before delegating to the real handler.
type tailHandler struct {
	next  slog.Handler
	tail  *TailBuffer
	attrs []slog.Attr
}

func newTailHandler(next slog.Handler, tail *TailBuffer) slog.Handler {
	if next == nil || tail == nil {
		return next
	}
	return &tailHandler{next: next, tail: tail}
}

func (h *tailHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *tailHandler) Handle(ctx context.Context, record slog.Record) error {
	h.tail.Append(renderTailLine(record, h.attrs))
	return h.next.Handle(ctx, record.Clone())
}

func (h *tailHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &tailHandler{next: h.next.WithAttrs(attrs), tail: h.tail, attrs: merged}
}

func (h *tailHandler) WithGroup(name string) slog.Handler {
	return &tailHandler{next: h.next.WithGroup(name), tail: h.tail, attrs: h.attrs}
}

func renderTailLine(record slog.Record, preAttrs []slog.Attr) string {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var sb strings.Builder
	sb.WriteString(timestamp.UTC().Format(time.RFC3339))
	sb.WriteByte(' ')
	sb.WriteString(levelLabel(record.Level))
	sb.WriteByte(' ')
	sb.WriteString(strings.TrimSpace(record.Message))

	appendAttr := func(attr slog.Attr) {
		if attr.Key == "" {
			return
		}
		sb.WriteByte(' ')
		sb.WriteString(attr.Key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(attr.Value))
	}
	for _, attr := range preAttrs {
		appendAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(attr)
		return true
	})

	return sb.String()
}
