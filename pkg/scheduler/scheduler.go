// Package scheduler implements the Scheduler of spec §4.8: periodic and
// crontab-triggered callbacks wired into the same post-handler commit
// pipeline as pkg/dispatcher, so a timer tick and a dispatched record are
// indistinguishable to whatever runs after them.
//
// Grounded on gs_framework/timer_handler.py's TimerHandler.init_faust_timers
// and gs_framework/crontab_handler.py's CrontabHandler.init_faust_crontabs:
// both strip a framework-supplied trailing argument (Faust's app.timer/
// app.crontab pass the running App as a final positional arg the user
// function never asked for) before invoking the handler, then call an
// on_handler_executed hook. Go has no framework runtime to pass a stray
// trailing argument in the first place, so there is nothing to strip; the
// wrapper's remaining job -- invoke the callback, then the post-execution
// hook -- is applied once, at registration time, which is how the source's
// *live* code path behaves (its commented-out alternative, which re-applied
// the wrapper at every call, was never actually wired in and is not
// followed here; this resolves spec.md §9's Open Question about when the
// wrapper runs).
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riverforge/statestream/pkg/slog"
)

// MinPeriodicInterval is the minimum periodic callback interval (0.01
// seconds); AddPeriodic accepts an interval equal to it.
const MinPeriodicInterval = 10 * time.Millisecond

// Callback is a scheduled action. A returned error is logged but never
// stops future invocations -- a missed or failed tick should not cascade
// into a dead timer.
type Callback func(ctx context.Context) error

// Scheduler runs periodic and crontab callbacks, calling onExecuted after
// every invocation (including failed ones), mirroring
// FUNC_ON_HANDLERS_CALLED's cross-package reuse for "a unit of work just
// finished" notifications.
type Scheduler struct {
	cron       *cron.Cron
	onExecuted func()
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// New creates a Scheduler. onExecuted and logger may both be nil.
func New(onExecuted func(), logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		onExecuted: onExecuted,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Scheduler) wrap(cb Callback) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := cb(ctx); err != nil && s.logger != nil {
			s.logger.Error("scheduler: callback failed: %v", err)
		}
		if s.onExecuted != nil {
			s.onExecuted()
		}
	}
}

// AddPeriodic schedules cb to run every interval, starting immediately
// (the first tick fires after one interval elapses, matching Faust's
// app.timer semantics). interval below MinPeriodicInterval is rejected.
func (s *Scheduler) AddPeriodic(interval time.Duration, cb Callback) error {
	if interval < MinPeriodicInterval {
		return fmt.Errorf("scheduler: interval %s below minimum %s", interval, MinPeriodicInterval)
	}

	wrapped := s.wrap(cb)
	ticker := time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				wrapped(s.ctx)
			}
		}
	}()
	return nil
}

// AddCrontab schedules cb to run on the standard 6-field (seconds-capable)
// cron expression spec, via robfig/cron/v3. Returns the entry ID so callers
// can later remove it.
func (s *Scheduler) AddCrontab(spec string, cb Callback) (cron.EntryID, error) {
	wrapped := s.wrap(cb)
	return s.cron.AddFunc(spec, func() { wrapped(s.ctx) })
}

// RemoveCrontab cancels a previously scheduled crontab callback.
func (s *Scheduler) RemoveCrontab(id cron.EntryID) {
	s.cron.Remove(id)
}

// Start begins running scheduled crontab callbacks (periodic callbacks run
// from the moment AddPeriodic is called).
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop halts the cron scheduler and every periodic goroutine, waiting for
// in-flight callbacks to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if started {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
	s.cancel()
	s.wg.Wait()
}
