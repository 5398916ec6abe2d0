// Package schema implements the class-level Entity Schema of spec §4.1:
// a declaration of a stateful entity's state variables, including nested
// composition, flattened to fully-qualified names of the form
// "Outer.Inner.var".
//
// Grounded on gs_framework/stateful_object.py's StateMeta/_get_all_state_vars
// (a metaclass walk naming each variable `cls.__qualname__.member`). Go has
// no metaclasses, so composition here is explicit: a Schema is built by
// calling Declare/Compose at package-init time, and Flatten walks the tree
// the caller assembled instead of reflecting over struct tags. Struct-tag
// reflection was rejected because the source's "name is fixed by the
// declaring class, not the embedding one" rule is a runtime contract (the
// same Activatable.active leaf is shared, unrenamed, by every composing
// entity), not a data-shape one a tag could express faithfully.
package schema

import "github.com/riverforge/statestream/pkg/statevar"

// Schema is a class-level declaration: a name (the "class" this schema
// represents) plus the state variables declared directly on it and any
// nested schemas composed into it. Nesting is purely a naming convenience
// (spec §3): there is no runtime sub-object, only a flattened name list.
type Schema struct {
	name   string
	vars   []*statevar.Variable
	nested []*Schema
}

// New declares a new class-level schema named name. name becomes the
// prefix of every variable declared directly on this schema.
func New(name string) *Schema {
	return &Schema{name: name}
}

// Name returns the schema's class-level name.
func (s *Schema) Name() string { return s.name }

// Declare binds v's fully-qualified name to "<schema name>.<member>" and
// registers it as a direct member of this schema. Returns v so declarations
// can be assigned to a package-level var in the same statement they are
// declared in, mirroring the source's class-body assignment style.
func (s *Schema) Declare(member string, v *statevar.Variable) *statevar.Variable {
	v.BindName(s.name + "." + member)
	s.vars = append(s.vars, v)
	return v
}

// Compose includes nested's variables under this schema. The nested
// schema's own name is left untouched as the prefix of its variables'
// fully-qualified names (matching the source's per-declaring-class naming:
// a mixin like Activatable keeps producing "Activatable.active" no matter
// how many entities compose it).
func (s *Schema) Compose(nested *Schema) *Schema {
	s.nested = append(s.nested, nested)
	return s
}

// Vars returns the variables declared directly on this schema, in
// declaration order.
func (s *Schema) Vars() []*statevar.Variable {
	out := make([]*statevar.Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Nested returns the schemas composed into this one, in composition order.
func (s *Schema) Nested() []*Schema {
	out := make([]*Schema, len(s.nested))
	copy(out, s.nested)
	return out
}

// Flatten returns every state variable reachable from this schema --
// its own, then each nested schema's in composition order -- as the flat
// ordered list of fully-qualified names spec §3 calls for.
func (s *Schema) Flatten() []*statevar.Variable {
	out := make([]*statevar.Variable, 0, len(s.vars))
	out = append(out, s.vars...)
	for _, n := range s.nested {
		out = append(out, n.Flatten()...)
	}
	return out
}
