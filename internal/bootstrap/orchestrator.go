package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"skipper/internal/config"
	"skipper/internal/launchlog"
	"skipper/internal/logging"
	"skipper/internal/migration"
	"skipper/internal/sidecar"
)

// Result is the successful terminal value of initialization: where the
// server lives and, for spawned sidecars, the per-launch password.
type Result struct {
	URL      string
	Password string
}

// ConnectionResolver decides which server to use. Satisfied by *Resolver.
type ConnectionResolver interface {
	Resolve(ctx context.Context) (*Connection, error)
}

// HealthWaiter blocks until the server is healthy or the process dies.
// Satisfied by *health.Prober.
type HealthWaiter interface {
	WaitUntilHealthy(ctx context.Context, baseURL, password string, terminated <-chan sidecar.ExitStatus) error
}

// Orchestrator runs initialization once and shares the outcome. The first
// Await triggers the work; every caller, concurrent or late, observes the
// identical result.
type Orchestrator struct {
	cfg      *config.Config
	resolver ConnectionResolver
	prober   HealthWaiter
	logger   *slog.Logger

	steps   *StepBroadcaster
	uiReady *Completion
	tail    *logging.TailBuffer
	journal *launchlog.Store

	databasePath   string
	startupTimeout time.Duration
	loadingDelay   time.Duration

	runCtx context.Context
	cancel context.CancelFunc

	once   sync.Once
	done   chan struct{}
	result Result
	err    error

	mu     sync.Mutex
	handle *sidecar.Handle

	loadOnce    sync.Once
	showLoading bool

	// optional observer for migration progress, beyond the step broadcast
	onMigrationProgress func(migration.Progress)
}

func NewOrchestrator(cfg *config.Config, resolver ConnectionResolver, prober HealthWaiter, logger *slog.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:            cfg,
		resolver:       resolver,
		prober:         prober,
		logger:         logging.WithComponent(logger, "bootstrap"),
		steps:          NewStepBroadcaster(),
		uiReady:        NewCompletion(),
		startupTimeout: 30 * time.Second,
		loadingDelay:   time.Second,
		runCtx:         ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	if cfg != nil {
		o.databasePath = cfg.SidecarDatabasePath()
		if cfg.Health.StartupTimeout > 0 {
			o.startupTimeout = time.Duration(cfg.Health.StartupTimeout) * time.Second
		}
	}
	return o
}

// AttachTail keeps recent process output available for failure diagnostics.
func (o *Orchestrator) AttachTail(tail *logging.TailBuffer) { o.tail = tail }

// AttachJournal records one launch-history row per initialization attempt.
func (o *Orchestrator) AttachJournal(store *launchlog.Store) { o.journal = store }

// UIReady is the one-shot "shell finished rendering" acknowledgment. The
// orchestrator waits for it before finalizing StepDone on the success path.
func (o *Orchestrator) UIReady() *Completion { return o.uiReady }

// CurrentStep returns the latest published initialization step.
func (o *Orchestrator) CurrentStep() InitStep { return o.steps.Current() }

// WatchSteps subscribes to step transitions; see StepBroadcaster.Subscribe.
func (o *Orchestrator) WatchSteps() (<-chan InitStep, func()) { return o.steps.Subscribe() }

// Start kicks off initialization if it has not run yet. Await calls it
// implicitly; Start exists for callers that want the work running before
// anyone waits.
func (o *Orchestrator) Start() {
	o.once.Do(func() { go o.run(o.runCtx) })
}

// Await returns the shared terminal result, starting the work on first
// call. ctx only bounds this caller's wait, not the underlying work.
func (o *Orchestrator) Await(ctx context.Context) (Result, error) {
	o.Start()
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-o.done:
		return o.result, o.err
	}
}

// Finished reports without blocking whether the terminal result exists.
func (o *Orchestrator) Finished() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// ShowLoadingScreen races completion against a short grace delay, once. If
// initialization finishes inside the delay the shell skips the intermediate
// loading state. Repeated calls return the first decision.
func (o *Orchestrator) ShowLoadingScreen() bool {
	o.loadOnce.Do(func() {
		o.Start()
		select {
		case <-o.done:
		case <-time.After(o.loadingDelay):
			o.showLoading = true
		}
	})
	return o.showLoading
}

// KillSidecar requests termination of the spawned sidecar, if any.
func (o *Orchestrator) KillSidecar() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle == nil {
		return false
	}
	o.handle.Kill()
	return true
}

// Close cancels any in-flight initialization work.
func (o *Orchestrator) Close() {
	o.cancel()
}

func (o *Orchestrator) run(ctx context.Context) {
	conn, err := o.resolver.Resolve(ctx)
	if err != nil {
		o.journalRow(ctx, "unresolved", launchlog.OutcomeFailed, "", err.Error())
		o.fail(fmt.Errorf("resolving server connection: %w", err))
		return
	}

	if !conn.Spawned {
		o.journalRow(ctx, "existing", launchlog.OutcomeExisting, conn.URL, "")
		o.succeed(ctx, Result{URL: conn.URL, Password: conn.Password}, false)
		return
	}

	o.mu.Lock()
	o.handle = conn.Handle
	o.mu.Unlock()

	journalID := o.journalBegin(ctx, "spawned")

	var migrationDone = make(chan struct{})
	var doneOnce sync.Once
	notify := func(p migration.Progress) {
		o.steps.Advance(StepSqliteWaiting)
		if o.onMigrationProgress != nil {
			o.onMigrationProgress(p)
		}
		if p.Done {
			doneOnce.Do(func() { close(migrationDone) })
		} else {
			o.logger.Info("database migration in progress", logging.Int("percent", int(p.Percent)))
		}
	}

	events := migration.Intercept(conn.Events, notify)
	terminated := sidecar.Drain(events, o.logger)

	// A first run migrates the database before the server can answer, so
	// the readiness clock must not start until migration reports done.
	if o.firstRun() {
		o.logger.Info("waiting for first-run database migration")
		select {
		case <-ctx.Done():
			o.journalFinish(journalID, launchlog.OutcomeFailed, conn.URL, ctx.Err().Error())
			o.fail(ctx.Err())
			return
		case status, ok := <-terminated:
			detail := o.diedMessage(status, ok)
			o.journalFinish(journalID, launchlog.OutcomeFailed, conn.URL, detail)
			o.fail(errors.New(detail))
			return
		case <-migrationDone:
			o.logger.Info("database migration complete")
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.startupTimeout)
	defer cancel()

	err = o.prober.WaitUntilHealthy(waitCtx, conn.URL, conn.Password, terminated)
	switch {
	case err == nil:
		o.journalFinish(journalID, launchlog.OutcomeReady, conn.URL, "")
		o.succeed(ctx, Result{URL: conn.URL, Password: conn.Password}, true)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		conn.Handle.Kill()
		detail := fmt.Sprintf("timed out after %s waiting for the server to report healthy%s",
			o.startupTimeout, o.tailSuffix())
		o.journalFinish(journalID, launchlog.OutcomeFailed, conn.URL, detail)
		o.fail(errors.New(detail))
	default:
		detail := fmt.Sprintf("%v%s", err, o.tailSuffix())
		o.journalFinish(journalID, launchlog.OutcomeFailed, conn.URL, detail)
		o.fail(errors.New(detail))
	}
}

// succeed publishes the result, releases all waiters, and finalizes
// StepDone once the shell acknowledges it has rendered.
func (o *Orchestrator) succeed(ctx context.Context, result Result, spawned bool) {
	o.result = result
	close(o.done)
	o.logger.Info("initialization complete",
		logging.String("url", result.URL),
		logging.Bool("spawned", spawned))

	select {
	case <-ctx.Done():
	case <-o.uiReady.Done():
	}
	o.steps.Advance(StepDone)
}

func (o *Orchestrator) fail(err error) {
	o.err = err
	close(o.done)
	o.logger.Error("initialization failed", logging.Error(err))
	o.steps.Advance(StepDone)
}

// firstRun reports whether the sidecar database does not exist yet.
func (o *Orchestrator) firstRun() bool {
	if o.databasePath == "" {
		return false
	}
	_, err := os.Stat(o.databasePath)
	return errors.Is(err, os.ErrNotExist)
}

func (o *Orchestrator) diedMessage(status sidecar.ExitStatus, ok bool) string {
	if !ok {
		return "sidecar exited before initialization completed" + o.tailSuffix()
	}
	return fmt.Sprintf("sidecar exited before initialization completed (%s)%s", status, o.tailSuffix())
}

func (o *Orchestrator) tailSuffix() string {
	if o.tail == nil {
		return ""
	}
	tail := o.tail.Tail()
	if tail == "" {
		return ""
	}
	return "\nrecent output:\n" + tail
}

func (o *Orchestrator) journalBegin(ctx context.Context, strategy string) int64 {
	if o.journal == nil {
		return 0
	}
	id, err := o.journal.Begin(ctx, strategy)
	if err != nil {
		o.logger.Warn("recording launch attempt failed", logging.Error(err))
		return 0
	}
	return id
}

func (o *Orchestrator) journalFinish(id int64, outcome, url, detail string) {
	if o.journal == nil || id == 0 {
		return
	}
	// Deliberately not the run context: the outcome row should land even
	// when the run was canceled.
	if err := o.journal.Finish(context.Background(), id, outcome, url, detail); err != nil {
		o.logger.Warn("recording launch outcome failed", logging.Error(err))
	}
}

func (o *Orchestrator) journalRow(ctx context.Context, strategy, outcome, url, detail string) {
	id := o.journalBegin(ctx, strategy)
	o.journalFinish(id, outcome, url, detail)
}
