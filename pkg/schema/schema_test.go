package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/statevar"
)

func TestFlattenOrdersOwnThenNested(t *testing.T) {
	inner := schema.New("Google")
	inner.Declare("scholar_info", statevar.New("str", ""))

	outer := schema.New("Author")
	outer.Declare("name", statevar.New("str", ""))
	outer.Compose(inner)

	names := namesOf(outer.Flatten())
	assert.Equal(t, []string{"Author.name", "Google.scholar_info"}, names)
}

func TestNestedPreservesOwnPrefixAcrossComposers(t *testing.T) {
	activatable := schema.New("Activatable")
	activatable.Declare("active", statevar.New("int", 0))

	env := schema.New("Env")
	env.Compose(activatable)

	agent := schema.New("Agent")
	agent.Compose(activatable)

	assert.Equal(t, []string{"Activatable.active"}, namesOf(env.Flatten()))
	assert.Equal(t, []string{"Activatable.active"}, namesOf(agent.Flatten()))
}

func namesOf(vars []*statevar.Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name()
	}
	return out
}
