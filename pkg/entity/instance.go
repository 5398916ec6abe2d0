// Package entity implements the Entity Instance of spec §4.4: a
// per-primary-key container over a schema's flattened state variables,
// tracking a dirty set since the last commit and flushing it as a single
// delta record per target stream.
//
// Grounded on gs_framework/stateful_object.py's StatefulObject (pk-bearing
// State instance) and state_variable.py's StateVariableCommitter
// (_state_vars_changes accumulation, commit_state_var_changes's
// snapshot-then-clear and the "_"-prefix publish/save partitioning). Go has
// no equivalent of State's __getattribute__/__setattr__ interception, so
// callers read/write through explicit Var(name) lookups instead of
// attribute access.
package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/statevar"
	"github.com/riverforge/statestream/pkg/stream"
)

// Instance is one primary key's live state: a clone of every variable in
// the owning schema's flattened list, plus the set of variables changed
// since the last Commit.
type Instance struct {
	pk     interface{}
	schema *schema.Schema
	vars   map[string]*statevar.Variable

	publish *stream.Stream
	save    *stream.Stream

	mu    sync.Mutex
	dirty map[string]interface{}
}

// New constructs an Instance for pk, cloning every variable the schema
// flattens to (spec §4.1's per-instance rebinding of class-level
// declarations). publish is required; save may be nil, meaning publish and
// save share a single stream (the common case -- see Commit).
func New(pk interface{}, sch *schema.Schema, publish, save *stream.Stream) *Instance {
	flat := sch.Flatten()
	inst := &Instance{
		pk:      pk,
		schema:  sch,
		vars:    make(map[string]*statevar.Variable, len(flat)),
		publish: publish,
		save:    save,
		dirty:   make(map[string]interface{}),
	}
	for _, classVar := range flat {
		v := classVar.Clone()
		inst.vars[v.Name()] = v
	}
	for _, v := range inst.vars {
		v.Initialize(nil, inst.onVarChanged)
	}
	return inst
}

// PK returns the instance's primary key.
func (e *Instance) PK() interface{} { return e.pk }

// Var returns the per-instance clone bound to fqName, or nil if fqName is
// not part of this instance's schema.
func (e *Instance) Var(fqName string) *statevar.Variable {
	return e.vars[fqName]
}

// Vars returns every per-instance variable, in no particular order.
func (e *Instance) Vars() []*statevar.Variable {
	out := make([]*statevar.Variable, 0, len(e.vars))
	for _, v := range e.vars {
		out = append(out, v)
	}
	return out
}

func (e *Instance) onVarChanged(name string, value interface{}) {
	e.mu.Lock()
	e.dirty[name] = value
	e.mu.Unlock()
}

// StateReader supplies an initial value for a named variable, given its
// schema default; it returns defaultVal itself when it has nothing to
// offer. See reader.go for the three strategies gs_framework composes here.
type StateReader func(pk interface{}, name string, defaultVal interface{}) interface{}

// InitializeState seeds every variable from reader, without marking
// anything dirty (an initial load is not a change). Grounded on
// StateVariableCommitter.initialize_state.
func (e *Instance) InitializeState(reader StateReader) {
	for name, v := range e.vars {
		value := reader(e.pk, name, v.DefaultVal())
		v.Initialize(value, e.onVarChanged)
	}
}

// MarkAllStateVariableChanged force-dirties every non-compare-on-write
// variable, e.g. to republish a full snapshot after a restart. Grounded on
// StatefulObject.mark_all_state_variable_changed.
func (e *Instance) MarkAllStateVariableChanged() {
	for _, v := range e.vars {
		v.MarkChanged()
	}
}

// Commit snapshots and clears the dirty set, then emits it as a delta
// record. If save is nil or the same stream as publish, a single record is
// sent to publish. Otherwise each dirty variable is routed by its last
// dotted segment: a segment starting with "_" is storage-only and goes to
// save, everything else is publish-visible and goes to publish; both
// streams are written in parallel. Grounded on
// StateVariableCommitter.commit_state_var_changes.
func (e *Instance) Commit(ctx context.Context) error {
	e.mu.Lock()
	changes := e.dirty
	if len(changes) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.dirty = make(map[string]interface{})
	e.mu.Unlock()

	if e.publish == nil {
		return fmt.Errorf("entity: instance %v has no publish stream bound", e.pk)
	}

	save := e.save
	if save == nil || save == e.publish {
		return e.publish.Upsert(ctx, e.pk, changes, nil)
	}

	toPublish := make(map[string]interface{})
	toSave := make(map[string]interface{})
	for name, v := range changes {
		if strings.HasPrefix(shortName(name), "_") {
			toSave[name] = v
		} else {
			toPublish[name] = v
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(toPublish) > 0 {
		g.Go(func() error { return e.publish.Upsert(gctx, e.pk, toPublish, nil) })
	}
	if len(toSave) > 0 {
		g.Go(func() error { return save.Upsert(gctx, e.pk, toSave, nil) })
	}
	return g.Wait()
}

func shortName(fqName string) string {
	if i := strings.LastIndexByte(fqName, '.'); i >= 0 {
		return fqName[i+1:]
	}
	return fqName
}
