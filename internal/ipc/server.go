package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"skipper/internal/daemon"
	"skipper/internal/logging"
	"skipper/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown,
// when non-nil, is invoked by the Stop operation to end the daemon process.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{
		daemon:   d,
		shutdown: shutdown,
		logger:   logging.WithComponent(logger, "ipc"),
		ctx:      ctx,
	}
	if err := rpcServer.RegisterName("Skipper", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logging.WithComponent(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Step = status.Step
	resp.Initialized = status.Initialized
	resp.ServerURL = status.ServerURL
	resp.Err = status.Err
	resp.LockPath = status.LockPath
	resp.JournalPath = status.JournalPath
	resp.LogPath = status.LogPath
	return nil
}

func (s *service) AwaitInit(req AwaitInitRequest, resp *AwaitInitResponse) error {
	ctx := s.ctx
	if req.TimeoutMillis > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, time.Duration(req.TimeoutMillis)*time.Millisecond)
		defer cancel()
	}
	result, err := s.daemon.AwaitInit(ctx)
	if err != nil {
		// Initialization failures are data, not transport errors.
		resp.Err = err.Error()
		return nil
	}
	resp.Ready = true
	resp.URL = result.URL
	resp.Password = result.Password
	return nil
}

func (s *service) InitStep(_ InitStepRequest, resp *InitStepResponse) error {
	resp.Step = s.daemon.CurrentStep().String()
	resp.ShowLoading = s.daemon.ShowLoadingScreen()
	return nil
}

func (s *service) NotifyUIReady(_ NotifyUIReadyRequest, resp *NotifyUIReadyResponse) error {
	s.daemon.NotifyUIReady()
	resp.Acknowledged = true
	return nil
}

func (s *service) KillSidecar(_ KillSidecarRequest, resp *KillSidecarResponse) error {
	resp.Killed = s.daemon.KillSidecar()
	if resp.Killed {
		s.logger.Info("sidecar kill requested via IPC")
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	reader := logs.NewReader(s.daemon.LogPath())

	if req.Offset < 0 {
		chunk, err := reader.Last(req.Limit)
		if err != nil {
			return err
		}
		resp.Lines = chunk.Lines
		resp.Offset = chunk.Offset
		return nil
	}

	if req.Follow {
		wait := time.Duration(req.WaitMillis) * time.Millisecond
		if wait <= 0 {
			wait = time.Second
		}
		ctx, cancel := context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
		chunk, err := reader.Follow(ctx, req.Offset, wait)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		resp.Lines = chunk.Lines
		resp.Offset = chunk.Offset
		return nil
	}

	chunk, err := reader.From(req.Offset)
	if err != nil {
		return err
	}
	resp.Lines = chunk.Lines
	resp.Offset = chunk.Offset
	return nil
}

func (s *service) ServerURL(_ ServerURLRequest, resp *ServerURLResponse) error {
	resp.URL, resp.Set = s.daemon.ServerURL()
	return nil
}

func (s *service) SetServerURL(req SetServerURLRequest, resp *SetServerURLResponse) error {
	if err := s.daemon.SetServerURL(req.URL); err != nil {
		return err
	}
	resp.Saved = true
	s.logger.Info("custom server URL updated", logging.String("url", req.URL))
	return nil
}

func (s *service) WSL(_ WSLRequest, resp *WSLResponse) error {
	resp.Enabled = s.daemon.WSLEnabled()
	return nil
}

func (s *service) SetWSL(req SetWSLRequest, resp *SetWSLResponse) error {
	if err := s.daemon.SetWSLEnabled(req.Enabled); err != nil {
		return err
	}
	resp.Saved = true
	return nil
}

func (s *service) Display(_ DisplayRequest, resp *DisplayResponse) error {
	decision, decorations, prefer := s.daemon.DisplayBackend()
	if decision != nil {
		resp.Backend = string(decision.Backend)
		resp.Note = decision.Note
	}
	resp.Decorations = decorations
	resp.PreferWayland = prefer
	return nil
}

func (s *service) SetDisplay(req SetDisplayRequest, resp *SetDisplayResponse) error {
	if err := s.daemon.SetPreferWayland(req.PreferWayland); err != nil {
		return err
	}
	resp.Saved = true
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.daemon.History(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC")
	resp.Stopping = true
	if s.shutdown != nil {
		// Asynchronously, so this reply still reaches the client.
		go s.shutdown()
	}
	return nil
}
