package dispatcher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/codec"
	"github.com/riverforge/statestream/pkg/dispatcher"
	"github.com/riverforge/statestream/pkg/stream"
)

func valueOf(t *testing.T, v interface{}) stream.Value {
	t.Helper()
	raw, err := codec.Encode(v)
	require.NoError(t, err)
	return stream.ValueOf(raw)
}

func TestHandlerFiresOnceForMultipleSubscribedVars(t *testing.T) {
	d := dispatcher.New(nil, nil)

	var calls int
	d.Subscribe("widgets", []string{"Widget.count", "Widget.label"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		calls++
		return nil, nil
	})

	err := d.Dispatch(context.Background(), "widget-1", "widgets", map[string]stream.Value{
		"Widget.count": valueOf(t, 3),
		"Widget.label": valueOf(t, "alpha"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestAliasExpansionFiresShortNameSubscription(t *testing.T) {
	d := dispatcher.New(nil, nil)

	var gotValue int
	d.Subscribe("widgets", []string{"active"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		v, err := changed["active"].Int()
		require.NoError(t, err)
		gotValue = v
		return nil, nil
	})

	err := d.Dispatch(context.Background(), "widget-1", "widgets", map[string]stream.Value{
		"Activatable.active": valueOf(t, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gotValue)
}

func TestDeeplyNestedNameHasNoAlias(t *testing.T) {
	d := dispatcher.New(nil, nil)

	var calls int
	d.Subscribe("authors", []string{"scholar_info"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		calls++
		return nil, nil
	})

	err := d.Dispatch(context.Background(), "author-1", "authors", map[string]stream.Value{
		"Author.Google.scholar_info": valueOf(t, "cite"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls, "a two-dot name must not generate a short alias")
}

func TestPickOneSelectsFirstDeclaredPresentVariable(t *testing.T) {
	handler := dispatcher.PickOne(func(ctx context.Context, ownerPK interface{}, varName string, value stream.Value) ([]dispatcher.Committer, error) {
		s, err := value.String()
		require.NoError(t, err)
		assert.Equal(t, "b", varName)
		assert.Equal(t, "b-value", s)
		return nil, nil
	})

	_, err := handler(context.Background(), "pk", map[string]stream.Value{
		"b": valueOf(t, "b-value"),
		"c": valueOf(t, "c-value"),
	}, []string{"a", "b", "c"})
	require.NoError(t, err)
}

func TestSecondSubscriptionStillFiresAfterFirstHandlerErrors(t *testing.T) {
	d := dispatcher.New(nil, nil)

	var secondRan bool
	d.Subscribe("widgets", []string{"Widget.count"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		return nil, errors.New("first handler boom")
	})
	d.Subscribe("widgets", []string{"Widget.label"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		secondRan = true
		return nil, nil
	})

	err := d.Dispatch(context.Background(), "widget-1", "widgets", map[string]stream.Value{
		"Widget.count": valueOf(t, 3),
		"Widget.label": valueOf(t, "alpha"),
	})
	require.Error(t, err, "an erroring handler's failure must still be reported")
	assert.True(t, secondRan, "a handler error must not skip other subscriptions firing on the same record")

	var derr *dispatcher.DispatchError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "widgets", derr.SourceName)
}

func TestOnDispatchedRunsAfterHandlers(t *testing.T) {
	var order []string
	d := dispatcher.New(func() { order = append(order, "done") }, nil)

	d.Subscribe("widgets", []string{"Widget.count"}, func(ctx context.Context, ownerPK interface{}, changed map[string]stream.Value, triggeringVars []string) ([]dispatcher.Committer, error) {
		order = append(order, "handler")
		return nil, nil
	})

	err := d.Dispatch(context.Background(), "widget-1", "widgets", map[string]stream.Value{
		"Widget.count": valueOf(t, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"handler", "done"}, order)
}
