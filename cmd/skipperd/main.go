// The skipperd daemon supervises the sidecar server and answers IPC
// requests from the skipper CLI and the desktop shell.
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"skipper/internal/bootstrap"
	"skipper/internal/config"
	"skipper/internal/daemon"
	"skipper/internal/health"
	"skipper/internal/ipc"
	"skipper/internal/launchlog"
	"skipper/internal/logging"
	"skipper/internal/settings"
	"skipper/internal/sidecar"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	// Before any HTTP work starts, so proxy variables cannot swallow health
	// probes aimed at our own loopback sidecar.
	health.EnsureLoopbackNoProxy()

	tail := logging.NewTailBuffer(cfg.Logging.TailLines)
	logger, err := logging.NewFromConfig(cfg, tail)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "*.log", cfg.Logging.RetentionDays,
		filepath.Base(cfg.LogPath()))

	store := settings.Open(cfg.SettingsPath())
	journal, err := launchlog.Open(cfg.JournalPath())
	if err != nil {
		logger.Error("open launch journal", logging.Error(err))
		journal = nil
	}

	supervisor := sidecar.NewSupervisor(cfg, store, logger)
	prober := health.NewProber(cfg, logger)
	resolver := bootstrap.NewResolver(cfg, store, supervisor, prober, nil, logger)

	orchestrator := bootstrap.NewOrchestrator(cfg, resolver, prober, logger)
	orchestrator.AttachTail(tail)
	orchestrator.AttachJournal(journal)

	d, err := daemon.New(cfg, store, journal, orchestrator, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Socket(), d, cancel, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("skipperd shutting down")
}
