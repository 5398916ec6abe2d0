package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/codec"
	"github.com/riverforge/statestream/pkg/statevar"
	"github.com/riverforge/statestream/pkg/storage"
	"github.com/riverforge/statestream/pkg/stream"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := storage.Open(path, "widgets")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Write("widget-1", "Widget.count", 7))

	ok, err := s.Contains("widget-1", "Widget.count")
	require.NoError(t, err)
	assert.True(t, ok)

	v, ok, err := storage.Read[int](s, "widget-1", "Widget.count", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestReadMissingReturnsDefault(t *testing.T) {
	s := openTestStore(t)

	v, ok, err := storage.Read[int](s, "widget-1", "Widget.missing", 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 42, v)
}

func TestDeleteRemovesValue(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Write("widget-1", "Widget.count", 7))
	require.NoError(t, s.Delete("widget-1", "Widget.count"))

	ok, err := s.Contains("widget-1", "Widget.count")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamStorageSkipsMemoryOnlyVariables(t *testing.T) {
	s := openTestStore(t)

	persisted := statevar.New("int", 0, statevar.MemoryOnly(false))
	persisted.BindName("Widget.count")

	ephemeral := statevar.New("int", 0, statevar.MemoryOnly(true))
	ephemeral.BindName("Widget.scratch")

	ss := storage.New(s, []*statevar.Variable{persisted, ephemeral}, nil)

	var observed map[string]stream.Value
	ss.WithDownstream(func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		observed = changed
		return nil
	})

	countRaw := encodeInt(t, 3)
	scratchRaw := encodeInt(t, 99)

	observer := ss.Observer()
	err := observer(context.Background(), "widget-1", map[string]stream.Value{
		"Widget.count":   stream.ValueOf(countRaw),
		"Widget.scratch": stream.ValueOf(scratchRaw),
	}, nil, nil)
	require.NoError(t, err)

	ok, err := s.Contains("widget-1", "Widget.count")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Contains("widget-1", "Widget.scratch")
	require.NoError(t, err)
	assert.False(t, ok, "memory-only variable must never be persisted")

	require.Len(t, observed, 2, "downstream still observes every changed variable, persisted or not")
}

func encodeInt(t *testing.T, v int) []byte {
	t.Helper()
	b, err := codec.Encode(v)
	require.NoError(t, err)
	return b
}
