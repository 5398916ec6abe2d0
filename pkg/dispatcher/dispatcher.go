// Package dispatcher implements the Change Dispatcher of spec §4.6: a
// (source name, variable name) -> handlers registry that fires each
// matching handler exactly once per record, expanding nested variable
// names to a short alias the way a handler that doesn't care about nesting
// can still subscribe to them.
//
// Grounded on gs_framework/state_var_change_dispatcher.py's
// StateVarChangeDispatcher: the `_regex_matching_top_level_state_var_names`
// alias rule, the itertools.chain + set dedup used to fire each handler
// exactly once, and the FUNC_ON_HANDLERS_CALLED post-dispatch hook.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/riverforge/statestream/pkg/slog"
	"github.com/riverforge/statestream/pkg/stream"
)

// DispatchError wraps the error a single subscription's handler (or one of
// the Committers it returned) raised during a Dispatch call. Dispatch keeps
// running the remaining subscriptions in the same fire-set regardless --
// SourceName/VarNames identify which subscription failed, matching the
// source's per-handler try/except in state_var_change_dispatcher.py, which
// logs and moves on rather than aborting the whole dispatch.
type DispatchError struct {
	SourceName string
	VarNames   []string
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatcher: %s %v: %v", e.SourceName, e.VarNames, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Committer is anything a Handler may hand back to be committed after it
// runs, such as an entity.Instance whose Set calls during the handler body
// left it with a dirty set to flush. Grounded on the source's handlers
// returning values process_handler_sync_result feeds back into the stream
// pipeline.
type Committer interface {
	Commit(ctx context.Context) error
}

// Handler is a change-var subscription callback. changed is the full,
// alias-expanded record (so a handler written against "active" sees the
// same value as one written against "Activatable.active"); triggeringVars
// is the subscription's own declared variable list, in subscription order,
// for adaptors like PickOne that care which of several watched variables
// actually fired.
type Handler func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]Committer, error)

type varRef struct {
	sourceName string
	varName    string
}

type subscription struct {
	id      int
	vars    []string
	handler Handler
}

// Dispatcher is a (source, variable) -> handlers registry. A single
// Dispatcher instance typically serves one process/service; Subscribe is
// called once per handler at startup, and Dispatch once per observed
// record.
type Dispatcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[varRef][]subscription

	onDispatched func()
	logger       *slog.Logger
}

// New creates an empty Dispatcher. onDispatched, if non-nil, runs once
// after every Dispatch call regardless of whether any handler errored --
// mirroring FUNC_ON_HANDLERS_CALLED, used by callers that need to know a
// record has been fully processed (e.g. to commit a read offset). logger,
// if non-nil, receives one Error entry per failing handler or Commit; a nil
// logger just drops them, since not every caller (tests, short-lived
// samples) wants diagnostics wired up.
func New(onDispatched func(), logger *slog.Logger) *Dispatcher {
	return &Dispatcher{subs: make(map[varRef][]subscription), onDispatched: onDispatched, logger: logger}
}

// Subscribe registers handler to fire whenever any of varNames changes on
// sourceName. Returns a subscription id, usable with Unsubscribe.
func (d *Dispatcher) Subscribe(sourceName string, varNames []string, handler Handler) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	sub := subscription{id: id, vars: append([]string(nil), varNames...), handler: handler}
	for _, name := range varNames {
		ref := varRef{sourceName: sourceName, varName: name}
		d.subs[ref] = append(d.subs[ref], sub)
	}
	return id
}

// Unsubscribe removes every registration made under id.
func (d *Dispatcher) Unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for ref, subs := range d.subs {
		filtered := subs[:0]
		for _, s := range subs {
			if s.id != id {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) == 0 {
			delete(d.subs, ref)
		} else {
			d.subs[ref] = filtered
		}
	}
}

var aliasPattern = regexp.MustCompile(`(?i)^[a-z_0-9]+\.([a-z_0-9]+)$`)

// expandAliases adds a short-name alias for every top-level "Class.member"
// key (exactly one dot), pointing at the same value, so a handler can
// subscribe by either name. Deeper names ("Outer.Inner.member") are left
// as-is, matching the source regex exactly: its single capture group only
// matches a name with exactly one dot.
func expandAliases(changed map[string]stream.Value) map[string]stream.Value {
	out := make(map[string]stream.Value, len(changed)*2)
	for k, v := range changed {
		out[k] = v
	}
	for k, v := range changed {
		if m := aliasPattern.FindStringSubmatch(k); m != nil {
			if _, exists := out[m[1]]; !exists {
				out[m[1]] = v
			}
		}
	}
	return out
}

// Dispatch fires every handler subscribed to any variable present in
// changed for sourceName, each exactly once even if it watches more than
// one triggering variable, in a deterministic order. Go's map iteration
// order is not the declaration order the source relies on for its
// first-handler tie-break, so this implementation sorts variable names
// before computing the fire set -- still a total, deterministic order, just
// not declaration order (see DESIGN.md).
func (d *Dispatcher) Dispatch(ctx context.Context, ownerPK interface{}, sourceName string, changed map[string]stream.Value) error {
	expanded := expandAliases(changed)

	names := make([]string, 0, len(expanded))
	for name := range expanded {
		names = append(names, name)
	}
	sort.Strings(names)

	d.mu.Lock()
	seen := make(map[int]bool)
	var fired []subscription
	for _, name := range names {
		for _, sub := range d.subs[varRef{sourceName: sourceName, varName: name}] {
			if !seen[sub.id] {
				seen[sub.id] = true
				fired = append(fired, sub)
			}
		}
	}
	onDispatched := d.onDispatched
	logger := d.logger
	d.mu.Unlock()

	var errs []error
	for _, sub := range fired {
		committers, err := sub.handler(ctx, ownerPK, expanded, sub.vars)
		if err != nil {
			derr := &DispatchError{SourceName: sourceName, VarNames: sub.vars, Err: err}
			errs = append(errs, derr)
			if logger != nil {
				logger.Error("%v", derr)
			}
			continue
		}
		for _, c := range committers {
			if c == nil {
				continue
			}
			if err := c.Commit(ctx); err != nil {
				derr := &DispatchError{SourceName: sourceName, VarNames: sub.vars, Err: err}
				errs = append(errs, derr)
				if logger != nil {
					logger.Error("%v", derr)
				}
				continue
			}
		}
	}

	if onDispatched != nil {
		onDispatched()
	}
	return errors.Join(errs...)
}
