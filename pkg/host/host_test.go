package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/broker"
	_ "github.com/riverforge/statestream/pkg/broker/inmemory"
	"github.com/riverforge/statestream/pkg/entity"
	"github.com/riverforge/statestream/pkg/host"
	"github.com/riverforge/statestream/pkg/schema"
	"github.com/riverforge/statestream/pkg/stream"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

type fakeLifecycle struct {
	initialized, started, stopped bool
}

func (f *fakeLifecycle) Initialize(ctx context.Context) error { f.initialized = true; return nil }
func (f *fakeLifecycle) Start(ctx context.Context) error      { f.started = true; return nil }
func (f *fakeLifecycle) Stop(ctx context.Context) error       { f.stopped = true; return nil }

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

func TestRegisterConsumerRejectsDuplicateTopicRole(t *testing.T) {
	h := host.New("svc", nil)
	require.NoError(t, h.RegisterConsumer("widgets", "agent"))
	assert.Error(t, h.RegisterConsumer("widgets", "agent"))
	assert.NoError(t, h.RegisterConsumer("widgets", "observer"))
}

func TestRunSetsActiveOnStartAndClearsOnStop(t *testing.T) {
	agent := schema.New("Agent")
	agent.Compose(host.Activatable)

	publish := newInMemoryStream(t, "agent-state")
	inst := entity.New("agent-1", agent, publish, nil)

	seen := make(chan int, 8)
	require.NoError(t, publish.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		if v, ok := changed[host.ActiveVar]; ok {
			n, err := v.Int()
			require.NoError(t, err)
			seen <- n
		}
		return nil
	}))

	h := host.New("agent", nil)
	h.BindActivatable(inst, host.ActiveVar)

	ctx, cancel := context.WithCancel(context.Background())
	impl := &fakeLifecycle{}

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, impl) }()

	require.Eventually(t, func() bool { return h.State() == host.StateRunning }, time.Second, time.Millisecond*10)
	assert.True(t, impl.initialized)
	assert.True(t, impl.started)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, impl.stopped)
	assert.Equal(t, host.StateStopped, h.State())

	assert.Equal(t, 1, <-seen)
	assert.Equal(t, 0, <-seen)
}

func TestStopTriggersShutdown(t *testing.T) {
	h := host.New("svc", nil)
	impl := &fakeLifecycle{}

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background(), impl) }()

	require.Eventually(t, func() bool { return h.State() == host.StateRunning }, time.Second, time.Millisecond*10)
	h.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, host.StateStopped, h.State())
}
