package host

import (
	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/statevar"
)

// Activatable is the mixin schema composed into every service that reports
// its running state through an `active` state variable -- Env, Episode, and
// Agent in the supplemented convention (SPEC_FULL.md §4). Declared once at
// package init so every composing schema shares the same class-level
// "Activatable.active" variable, matching gs_framework's single
// module-level Activatable(State) class.
var Activatable = schema.New("Activatable")

// ActiveVar is the flattened fully-qualified name Host.BindActivatable
// expects, matching Activatable.active after schema.Compose.
var ActiveVar = Activatable.Declare("active", statevar.New(
	"int", 0,
	statevar.MemoryOnly(true),
	statevar.CompareOnWrite(true),
	statevar.Help("activation state"),
)).Name()
