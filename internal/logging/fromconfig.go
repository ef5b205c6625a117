package logging

import (
	"fmt"
	"log/slog"
	"os"

	"skipper/internal/config"
)

// NewFromConfig creates a logger using application config defaults, writing
// to stderr and the daemon log file.
func NewFromConfig(cfg *config.Config, tail *TailBuffer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Tail: tail})
	}

	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		outputs = append(outputs, cfg.LogPath())
	}

	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Tail:        tail,
	})
}
