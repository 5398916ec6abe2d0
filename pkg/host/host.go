// Package host implements the Service Host of spec §4.10: a process
// lifecycle state machine, a (topic, role) single-consumer registry, and
// the SIGINT/SIGTERM-triggered graceful shutdown that flips an Activatable
// entity's active flag off before the process exits.
//
// Grounded on the teacher's pkg/service/base.go (BaseService.Run's state
// transitions and its `signal.Notify(sigCh, os.Interrupt,
// syscall.SIGTERM)` -> select -> shutdown shape) and
// gs_framework/activatable_stateful_service.py (Env.start setting
// active.VALUE = 1 then committing, and its terminate handler setting it
// back to 0). The gRPC server, supervisor registration/heartbeat, and
// health-check plumbing that base.go wraps around this shape have no home
// in this runtime (see DESIGN.md's "Dropped teacher code") and are not
// carried.
package host

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/riverforge/statestream/pkg/entity"
	"github.com/riverforge/statestream/pkg/slog"
)

// State is a position in the service lifecycle.
type State int

const (
	StateConstructed State = iota
	StateStarted
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateStarted:
		return "started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Lifecycle is implemented by the service running under a Host.
type Lifecycle interface {
	// Initialize prepares the service (binding streams, opening storage)
	// before Start is called.
	Initialize(ctx context.Context) error

	// Start begins the service's main work. Returning control here means
	// the service's own background work (consumer loops, schedulers) has
	// already been launched; Run does not block inside Start.
	Start(ctx context.Context) error

	// Stop gracefully winds the service down.
	Stop(ctx context.Context) error
}

type consumerKey struct {
	topic string
	role  string
}

// Host runs one Lifecycle through Constructed -> Started -> Running ->
// Stopping -> Stopped, enforcing at most one registered consumer per
// (topic, role) pair across the process.
type Host struct {
	name   string
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	consumers map[consumerKey]bool

	activeEntity *entity.Instance
	activeVar    string

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Host for a service named name.
func New(name string, logger *slog.Logger) *Host {
	return &Host{
		name:      name,
		logger:    logger,
		state:     StateConstructed,
		consumers: make(map[consumerKey]bool),
		stopCh:    make(chan struct{}),
	}
}

// State reports the host's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Host) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Info("host %s: %s", h.name, s)
	}
}

// RegisterConsumer claims the (topic, role) pair for the life of the
// process. A second registration for the same pair is rejected: spec §3's
// invariant is at most one consumer agent per (topic, role) per process.
func (h *Host) RegisterConsumer(topic, role string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := consumerKey{topic: topic, role: role}
	if h.consumers[key] {
		return fmt.Errorf("host: consumer already registered for topic %q role %q", topic, role)
	}
	h.consumers[key] = true
	return nil
}

// BindActivatable wires an Activatable-composing entity's active variable
// to this host's start/stop transitions: Run sets it to 1 and commits
// right after Start returns, and to 0 and commits right before Stop is
// called.
func (h *Host) BindActivatable(inst *entity.Instance, activeVarName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeEntity = inst
	h.activeVar = activeVarName
}

// Stop programmatically requests shutdown, as an alternative to an OS
// signal; Run's select sees whichever arrives first.
func (h *Host) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Run drives impl through its full lifecycle and blocks until a shutdown
// signal (SIGINT, SIGTERM, programmatic Stop, or ctx cancellation) arrives,
// then shuts down gracefully.
//
// Unlike the source, which saves and restores the process's prior signal
// handler around its own (install_terminate_handler's
// signal.getsignal/re-invoke dance, needed because Python's signal module
// only lets one handler own a signal at a time), Go's signal.Notify is
// itself additive: any channel a caller registered with Notify before Run
// was called keeps receiving the signal unchanged. There is nothing to
// save or chain to -- registering here never displaces another handler.
func (h *Host) Run(ctx context.Context, impl Lifecycle) error {
	h.setState(StateStarted)

	if err := impl.Initialize(ctx); err != nil {
		h.setState(StateStopped)
		return fmt.Errorf("host: initialize: %w", err)
	}

	if err := impl.Start(ctx); err != nil {
		h.setState(StateStopped)
		return fmt.Errorf("host: start: %w", err)
	}

	h.setActive(ctx, 1)
	h.setState(StateRunning)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		if h.logger != nil {
			h.logger.Info("host %s: received shutdown signal", h.name)
		}
	case <-h.stopCh:
		if h.logger != nil {
			h.logger.Info("host %s: received stop request", h.name)
		}
	case <-ctx.Done():
		if h.logger != nil {
			h.logger.Info("host %s: context cancelled", h.name)
		}
	}

	h.setState(StateStopping)
	h.setActive(context.Background(), 0)

	err := impl.Stop(context.Background())
	h.setState(StateStopped)
	if err != nil {
		return fmt.Errorf("host: stop: %w", err)
	}
	return nil
}

func (h *Host) setActive(ctx context.Context, value int) {
	h.mu.Lock()
	inst := h.activeEntity
	varName := h.activeVar
	h.mu.Unlock()

	if inst == nil {
		return
	}
	v := inst.Var(varName)
	if v == nil {
		return
	}
	v.Set(value)
	if err := inst.Commit(ctx); err != nil && h.logger != nil {
		h.logger.Error("host %s: commit active=%d failed: %v", h.name, value, err)
	}
}
