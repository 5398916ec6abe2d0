package stream_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/stream"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

// fakeConn is a minimal in-test broker.Connection backed by a channel,
// standing in for pkg/broker/inmemory so this package's tests do not need
// to depend on a sibling package under construction.
type fakeConn struct {
	mu      sync.Mutex
	topics  map[string]int32
	ch      chan *broker.Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{topics: make(map[string]int32), ch: make(chan *broker.Message, 16)}
}

func (f *fakeConn) ID() string                           { return "fake" }
func (f *fakeConn) Type() streamplatform.Platform         { return streamplatform.Platform("fake") }
func (f *fakeConn) IsConnected() bool                     { return true }
func (f *fakeConn) Ping(ctx context.Context) error        { return nil }
func (f *fakeConn) Close() error                          { return nil }
func (f *fakeConn) ProducerOperations() broker.ProducerOperator { return &fakeProducer{f} }
func (f *fakeConn) ConsumerOperations() broker.ConsumerOperator { return &fakeConsumer{f} }
func (f *fakeConn) AdminOperations() broker.AdminOperator       { return &fakeAdmin{f} }
func (f *fakeConn) Raw() interface{}                      { return f }
func (f *fakeConn) Config() broker.ConnectionConfig       { return broker.ConnectionConfig{} }
func (f *fakeConn) Adapter() broker.StreamAdapter         { return nil }

type fakeAdmin struct{ f *fakeConn }

func (a *fakeAdmin) ListTopics(ctx context.Context) ([]broker.TopicInfo, error) { return nil, nil }
func (a *fakeAdmin) CreateTopic(ctx context.Context, name string, cfg broker.TopicConfig) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	a.f.topics[name] = cfg.NumPartitions
	return nil
}
func (a *fakeAdmin) DeleteTopic(ctx context.Context, name string) error { return nil }
func (a *fakeAdmin) GetTopicMetadata(ctx context.Context, topic string) (broker.TopicMetadata, error) {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	n, ok := a.f.topics[topic]
	if !ok {
		return broker.TopicMetadata{}, assertErr{"not found"}
	}
	parts := make([]broker.PartitionMetadata, n)
	return broker.TopicMetadata{Name: topic, Partitions: parts}, nil
}
func (a *fakeAdmin) GetTopicConfig(ctx context.Context, topic string) (broker.TopicConfig, error) {
	return broker.TopicConfig{}, nil
}

type assertErr struct{ s string }

func (e assertErr) Error() string { return e.s }

type fakeProducer struct{ f *fakeConn }

func (p *fakeProducer) Produce(ctx context.Context, topic string, messages []broker.Message) error {
	for i := range messages {
		m := messages[i]
		p.f.ch <- &m
	}
	return nil
}
func (p *fakeProducer) ProduceAsync(ctx context.Context, topic string, messages []broker.Message, cb func(error)) error {
	err := p.Produce(ctx, topic, messages)
	if cb != nil {
		cb(err)
	}
	return err
}
func (p *fakeProducer) Flush(ctx context.Context) error { return nil }
func (p *fakeProducer) Close() error                    { return nil }

type fakeConsumer struct{ f *fakeConn }

func (c *fakeConsumer) Subscribe(ctx context.Context, topics []string, groupID string) error {
	return nil
}
func (c *fakeConsumer) Consume(ctx context.Context, handler broker.MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.f.ch:
			if err := handler(ctx, msg); err != nil {
				return err
			}
		}
	}
}
func (c *fakeConsumer) Commit(ctx context.Context) error { return nil }
func (c *fakeConsumer) Seek(ctx context.Context, topic string, partition int32, offset int64) error {
	return nil
}
func (c *fakeConsumer) Close() error { return nil }

func TestUpsertObserveRoundTrip(t *testing.T) {
	conn := newFakeConn()
	s := stream.Bind("widgets", 1)
	require.NoError(t, s.Initialize(context.Background(), conn, "widgets-consumer"))

	received := make(chan map[string]stream.Value, 1)
	err := s.Observe(context.Background(), nil, func(ctx context.Context, pk interface{}, changed map[string]stream.Value, headers map[string]string, pkBytes []byte) error {
		received <- changed
		return nil
	})
	require.NoError(t, err)
	defer s.Close()

	err = s.Upsert(context.Background(), "widget-1", map[string]interface{}{
		"count": 3,
		"label": "alpha",
	}, nil)
	require.NoError(t, err)

	select {
	case changed := <-received:
		count, derr := changed["count"].Int()
		require.NoError(t, derr)
		assert.Equal(t, 3, count)

		label, derr := changed["label"].String()
		require.NoError(t, derr)
		assert.Equal(t, "alpha", label)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for observed record")
	}
}
