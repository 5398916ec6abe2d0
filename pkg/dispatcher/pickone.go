package dispatcher

import (
	"context"
	"fmt"

	"github.com/riverforge/statestream/pkg/stream"
)

// PickFunc is the business logic behind a PickOne handler: it receives only
// the one variable that actually triggered the dispatch, by name and value.
type PickFunc func(ctx context.Context, ownerPK interface{}, varName string, value stream.Value) ([]Committer, error)

// PickOne adapts a PickFunc watching several variables into a Handler that
// calls it with the first declared variable present in the record.
//
// Grounded on state_var_change_dispatcher.py's pick_one_change, which picks
// the first of triggering_state_var_names for which get_item(state_vars,
// name) reports present -- it does not check the value against any
// default. spec.md's §4.6 wording ("first entry whose value is non-default")
// describes a different rule; this is a deliberate deviation from the
// prose spec toward the literal reference behavior (see DESIGN.md). Use
// PickOneNonDefault for the literal spec wording instead.
func PickOne(h PickFunc) Handler {
	return func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]Committer, error) {
		for _, name := range triggeringVars {
			if v, ok := changed[name]; ok {
				return h(ctx, ownerPK, name, v)
			}
		}
		return nil, fmt.Errorf("dispatcher: pick_one: no triggering variable present in record")
	}
}

// IsDefaultFunc reports whether value equals the declared default for
// varName, so PickOneNonDefault can skip over unchanged variables.
type IsDefaultFunc func(varName string, value stream.Value) bool

// PickOneNonDefault implements spec.md's literal "first entry whose value
// is non-default" wording: it skips past any present-but-default variable
// before handing off to h.
func PickOneNonDefault(isDefault IsDefaultFunc, h PickFunc) Handler {
	return func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]Committer, error) {
		for _, name := range triggeringVars {
			v, ok := changed[name]
			if !ok {
				continue
			}
			if isDefault != nil && isDefault(name, v) {
				continue
			}
			return h(ctx, ownerPK, name, v)
		}
		return nil, fmt.Errorf("dispatcher: pick_one_non_default: no non-default triggering variable present")
	}
}
