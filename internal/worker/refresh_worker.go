// Package worker runs the scheduled dataset refresh.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"spendtrack/internal/log"

	"github.com/robfig/cron/v3"
)

// ErrNoSchedule is returned by Start when no schedule is configured.
var ErrNoSchedule = errors.New("no refresh schedule configured")

// Refresher reloads cached data.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshWorker calls a Refresher on a cron schedule. Runs never overlap:
// a tick that arrives while the previous refresh is still going is skipped.
type RefreshWorker struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	logger    *log.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	runs    atomic.Int64
	failed  atomic.Int64
	lastErr atomic.Value // string
}

// NewRefreshWorker returns a worker for a standard five-field cron
// schedule or a descriptor such as "@every 15m". Each run is bounded by
// timeout when it is positive.
func NewRefreshWorker(r Refresher, schedule string, timeout time.Duration, logger *log.Logger) *RefreshWorker {
	return &RefreshWorker{
		refresher: r,
		schedule:  schedule,
		timeout:   timeout,
		logger:    log.OrDefault(logger, log.ComponentWorker),
	}
}

// Start schedules the refresh. It returns once the scheduler is running;
// the scheduler stops when ctx is cancelled or Stop is called.
func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.schedule == "" {
		return ErrNoSchedule
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return nil
	}

	cl := cronLogger{w.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	id, err := c.AddFunc(w.schedule, func() { _ = w.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("parse refresh schedule %q: %w", w.schedule, err)
	}
	w.cron, w.entry = c, id
	c.Start()

	w.logger.InfoContext(ctx, "Refresh worker started",
		log.FieldSchedule, w.schedule,
		"next_run", c.Entry(id).Next)

	go func() {
		<-ctx.Done()
		w.Stop(context.Background())
	}()
	return nil
}

// Stop halts the scheduler and waits for a running refresh, bounded by ctx.
func (w *RefreshWorker) Stop(ctx context.Context) {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		w.logger.Info("Refresh worker stopped", "runs", w.runs.Load())
	case <-ctx.Done():
		w.logger.Warn("Refresh worker stop timed out")
	}
}

// Next reports when the next scheduled run is due.
func (w *RefreshWorker) Next() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron == nil {
		return time.Time{}, false
	}
	return w.cron.Entry(w.entry).Next, true
}

// RunOnce performs a single refresh.
func (w *RefreshWorker) RunOnce(ctx context.Context) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	start := time.Now()
	w.runs.Add(1)
	if err := w.refresher.Refresh(ctx); err != nil {
		w.failed.Add(1)
		w.lastErr.Store(err.Error())
		w.logger.Failure(ctx, "Scheduled refresh failed", log.OpRefresh, err)
		return err
	}
	w.lastErr.Store("")
	w.logger.InfoContext(ctx, "Scheduled refresh complete",
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Schedule  string `json:"schedule"`
	Runs      int64  `json:"runs"`
	Failures  int64  `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

func (w *RefreshWorker) Stats() Stats {
	s := Stats{Schedule: w.schedule, Runs: w.runs.Load(), Failures: w.failed.Load()}
	if v, ok := w.lastErr.Load().(string); ok {
		s.LastError = v
	}
	return s
}

// cronLogger routes scheduler messages into the application logger.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
