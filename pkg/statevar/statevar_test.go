package statevar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/statevar"
)

func TestCompareOnWriteSkipsDuplicateAssignment(t *testing.T) {
	sv := statevar.New("int", 0, statevar.CompareOnWrite(true))
	sv.BindName("Test.v")

	var fired int
	sv.Initialize(nil, func(name string, value interface{}) { fired++ })

	sv.Set(5)
	sv.Set(5)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 5, sv.Value())
}

func TestNonCompareOnWriteRefiresEqualValue(t *testing.T) {
	sv := statevar.New("int", 0, statevar.CompareOnWrite(false))
	sv.BindName("Test.delta")

	var fired int
	sv.Initialize(nil, func(name string, value interface{}) { fired++ })

	sv.Set(5)
	sv.Set(5)
	assert.Equal(t, 2, fired)
}

func TestMarkChangedForcesNotification(t *testing.T) {
	sv := statevar.New("int", 0, statevar.CompareOnWrite(false))
	sv.BindName("Test.v")

	var last interface{}
	sv.Initialize(3, func(name string, value interface{}) { last = value })

	sv.MarkChanged()
	assert.Equal(t, 3, last)
}

func TestMarkChangedNoOpWhenCompareOnWrite(t *testing.T) {
	sv := statevar.New("int", 0, statevar.CompareOnWrite(true))
	sv.BindName("Test.v")

	var fired int
	sv.Initialize(3, func(name string, value interface{}) { fired++ })

	sv.MarkChanged()
	assert.Equal(t, 0, fired)
}

func TestBindNameTwicePanics(t *testing.T) {
	sv := statevar.New("int", 0)
	sv.BindName("Test.v")
	assert.Panics(t, func() { sv.BindName("Test.other") })
}

func TestValueDefaultsWhenUnset(t *testing.T) {
	sv := statevar.New("string", "fallback")
	assert.Equal(t, "fallback", sv.Value())
}

func TestCloneIsIndependent(t *testing.T) {
	class := statevar.New("int", 0, statevar.CompareOnWrite(true))
	class.BindName("Outer.v")

	instA := class.Clone()
	instB := class.Clone()

	require.Equal(t, "Outer.v", instA.Name())

	instA.Initialize(nil, func(string, interface{}) {})
	instA.Set(10)

	assert.Equal(t, 10, instA.Value())
	assert.Equal(t, 0, instB.Value())
}
