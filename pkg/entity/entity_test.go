package entity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/riverforge/statestream/pkg/broker/inmemory"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/entity"
	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/statevar"
	"github.com/riverforge/statestream/pkg/stream"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func newInMemoryStream(t *testing.T, name string) *stream.Stream {
	t.Helper()
	adapter, err := broker.GetAdapter(streamplatform.InMemory)
	require.NoError(t, err)
	conn, err := adapter.Connect(context.Background(), broker.ConnectionConfig{ID: name})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s := stream.Bind(name, 1)
	require.NoError(t, s.Initialize(context.Background(), conn, name+"-consumer"))
	return s
}

func TestCommitSendsSingleStreamWhenNoSaveStream(t *testing.T) {
	widget := schema.New("Widget")
	count := widget.Declare("count", statevar.New("int", 0))

	publish := newInMemoryStream(t, "widgets")

	inst := entity.New("widget-1", widget, publish, nil)
	inst.Var(count.Name()).Set(5)

	received := make(chan map[string]stream.Value, 1)
	require.NoError(t, publish.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		received <- changed
		return nil
	}))

	require.NoError(t, inst.Commit(context.Background()))

	select {
	case changed := <-received:
		v, err := changed["Widget.count"].Int()
		require.NoError(t, err)
		assert.Equal(t, 5, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for commit record")
	}
}

func TestCommitSplitsPublishAndSaveByUnderscorePrefix(t *testing.T) {
	widget := schema.New("Widget")
	visible := widget.Declare("count", statevar.New("int", 0))
	hidden := widget.Declare("_internal", statevar.New("int", 0))

	publish := newInMemoryStream(t, "widgets-publish")
	save := newInMemoryStream(t, "widgets-save")

	inst := entity.New("widget-1", widget, publish, save)
	inst.Var(visible.Name()).Set(1)
	inst.Var(hidden.Name()).Set(2)

	publishedCh := make(chan map[string]stream.Value, 1)
	savedCh := make(chan map[string]stream.Value, 1)
	require.NoError(t, publish.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		publishedCh <- changed
		return nil
	}))
	require.NoError(t, save.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		savedCh <- changed
		return nil
	}))

	require.NoError(t, inst.Commit(context.Background()))

	select {
	case changed := <-publishedCh:
		_, hasHidden := changed["Widget._internal"]
		assert.False(t, hasHidden)
		v, err := changed["Widget.count"].Int()
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publish record")
	}

	select {
	case changed := <-savedCh:
		_, hasVisible := changed["Widget.count"]
		assert.False(t, hasVisible)
		v, err := changed["Widget._internal"].Int()
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for save record")
	}
}

func TestCommitWithNoChangesIsNoOp(t *testing.T) {
	widget := schema.New("Widget")
	widget.Declare("count", statevar.New("int", 0))

	publish := newInMemoryStream(t, "widgets-idle")
	inst := entity.New("widget-1", widget, publish, nil)

	require.NoError(t, inst.Commit(context.Background()))
}

func TestInitializeStateDoesNotMarkDirty(t *testing.T) {
	widget := schema.New("Widget")
	count := widget.Declare("count", statevar.New("int", 0))

	publish := newInMemoryStream(t, "widgets-init")
	inst := entity.New("widget-1", widget, publish, nil)

	inst.InitializeState(entity.PropertiesAsStateReader(map[string]interface{}{
		count.Name(): 9,
	}))

	assert.Equal(t, 9, inst.Var(count.Name()).Value())
	require.NoError(t, inst.Commit(context.Background()), "initialize must not leave anything dirty")
}

func TestHashPKIsStableUnderFieldOrder(t *testing.T) {
	a := entity.HashPK("Widget", map[string]interface{}{"name": "x", "size": 3})
	b := entity.HashPK("Widget", map[string]interface{}{"size": 3, "name": "x"})
	assert.Equal(t, a, b)

	c := entity.HashPK("Widget", map[string]interface{}{"name": "y", "size": 3})
	assert.NotEqual(t, a, c)
}
