// Package statevar implements the typed, change-notifying slot every entity
// state variable is built from (spec §4.3 StateVariable): a declared type
// tag, a default value, a memory-only flag controlling whether Storage ever
// persists it, and a compare-on-write flag controlling whether re-assigning
// the same value still marks it dirty.
//
// Grounded on gs_framework/state_variable.py's StateVariable/VALUE property:
// Go has no property-setter sugar, so Set/Value/MarkChanged are explicit
// methods instead of an assignment-triggered descriptor.
package statevar

import "sync"

// ChangeFunc is invoked with a variable's fully-qualified name and its new
// value whenever a write is considered a change (see Set).
type ChangeFunc func(name string, value interface{})

// Variable is a single typed, named, change-notifying slot. A class-level
// Variable declared on a schema is never mutated directly; Clone produces
// the per-instance copy that entity.Instance actually writes through.
type Variable struct {
	dtype          string
	defaultVal     interface{}
	memoryOnly     bool
	compareOnWrite bool
	help           string

	mu        sync.Mutex
	name      string
	nameSet   bool
	value     interface{}
	hasValue  bool
	onChanged ChangeFunc
}

// Option configures a Variable at declaration time.
type Option func(*Variable)

// MemoryOnly sets whether Storage must never persist this variable
// (spec §3 Storage invariant). Defaults to true, matching
// gs_framework.StateVariable's own default.
func MemoryOnly(v bool) Option { return func(sv *Variable) { sv.memoryOnly = v } }

// CompareOnWrite sets whether re-assigning an equal value is a no-op
// (true) or should still mark the variable dirty (false, needed for
// non-idempotent deltas re-applied verbatim).
func CompareOnWrite(v bool) Option { return func(sv *Variable) { sv.compareOnWrite = v } }

// Help attaches a human-readable description, kept only for documentation
// purposes (no runtime effect), matching the source's `help` parameter.
func Help(s string) Option { return func(sv *Variable) { sv.help = s } }

// New declares a class-level state variable. dtype is an opaque tag used
// only by codecs/documentation, never interpreted by this package.
func New(dtype string, defaultVal interface{}, opts ...Option) *Variable {
	sv := &Variable{dtype: dtype, defaultVal: defaultVal, memoryOnly: true}
	for _, opt := range opts {
		opt(sv)
	}
	return sv
}

// Clone returns a fresh, unbound copy carrying the same declaration but its
// own value and change callback. Called once per entity instance at
// construction, per spec §9's "runtime-dynamic class member -> instance
// member rebinding" design note.
func (sv *Variable) Clone() *Variable {
	return &Variable{
		dtype:          sv.dtype,
		defaultVal:     sv.defaultVal,
		memoryOnly:     sv.memoryOnly,
		compareOnWrite: sv.compareOnWrite,
		help:           sv.help,
		name:           sv.name,
		nameSet:        sv.nameSet,
	}
}

// BindName fixes the variable's fully-qualified name. Invariant (spec §3):
// a variable's name is fixed at schema load time and never changes again;
// a second call panics.
func (sv *Variable) BindName(name string) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.nameSet {
		panic("statevar: name already bound for " + sv.name)
	}
	sv.name = name
	sv.nameSet = true
}

// Name returns the fully-qualified name, or "" if not yet bound.
func (sv *Variable) Name() string { return sv.name }

// Dtype returns the declared type tag.
func (sv *Variable) Dtype() string { return sv.dtype }

// DefaultVal returns the schema-declared default.
func (sv *Variable) DefaultVal() interface{} { return sv.defaultVal }

// MemoryOnlyFlag reports whether Storage must never persist this variable.
func (sv *Variable) MemoryOnlyFlag() bool { return sv.memoryOnly }

// CompareOnWriteFlag reports whether Set skips the change notification for
// an unchanged value.
func (sv *Variable) CompareOnWriteFlag() bool { return sv.compareOnWrite }

// Help returns the declaration's human-readable description.
func (sv *Variable) Help() string { return sv.help }

// Initialize seeds the slot's current value (e.g. from Storage, from a
// just-observed record, or from caller-supplied properties; see
// pkg/entity's StateReader implementations) without triggering a change
// notification, and installs the callback future writes notify.
func (sv *Variable) Initialize(v interface{}, onChanged ChangeFunc) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if v != nil && v != sv.defaultVal {
		sv.value = v
		sv.hasValue = true
	}
	sv.onChanged = onChanged
}

// Value returns the current value, or the schema default if never set.
func (sv *Variable) Value() interface{} {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if !sv.hasValue {
		return sv.defaultVal
	}
	return sv.value
}

// Set writes a new value. If CompareOnWriteFlag is set, an equal value is a
// no-op (no dirty entry, no notification); this is required for plain
// state but wrong for deltas, which must re-fire even when numerically
// identical to a value already applied (spec §4.4, DESIGN.md grounding on
// state_variable.py's VALUE setter comment).
func (sv *Variable) Set(v interface{}) {
	sv.mu.Lock()
	if sv.compareOnWrite && sv.hasValue && sv.value == v {
		sv.mu.Unlock()
		return
	}
	sv.value = v
	sv.hasValue = true
	name := sv.name
	onChanged := sv.onChanged
	sv.mu.Unlock()

	if onChanged != nil {
		onChanged(name, v)
	}
}

// MarkChanged force-adds the current value to the owning entity's dirty
// set, without requiring a new Set call. A no-op when CompareOnWriteFlag
// is set (matching gs_framework.StateVariable.mark_changed: that path only
// exists for non-idempotent deltas, which are never compare-on-write).
func (sv *Variable) MarkChanged() {
	sv.mu.Lock()
	if sv.compareOnWrite {
		sv.mu.Unlock()
		return
	}
	name := sv.name
	value := sv.value
	hasValue := sv.hasValue
	onChanged := sv.onChanged
	sv.mu.Unlock()

	if !hasValue {
		value = sv.defaultVal
	}
	if onChanged != nil {
		onChanged(name, value)
	}
}
