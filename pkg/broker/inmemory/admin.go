package inmemory

import (
	"context"
	"fmt"

	"github.com/riverforge/statestream/pkg/broker"
)

// admin implements broker.AdminOperator over the connection's topic map.
type admin struct{ conn *Connection }

// ListTopics returns every topic created on this connection so far.
func (a *admin) ListTopics(ctx context.Context) ([]broker.TopicInfo, error) {
	a.conn.mu.Lock()
	defer a.conn.mu.Unlock()

	out := make([]broker.TopicInfo, 0, len(a.conn.topics))
	for name, t := range a.conn.topics {
		out = append(out, broker.TopicInfo{Name: name, Partitions: t.partitions, Replicas: 1})
	}
	return out, nil
}

// CreateTopic creates name with the declared partition count, or is a no-op
// if it already exists with the same shape (idempotent, matching the
// network adapters' EnsureTopic contract).
func (a *admin) CreateTopic(ctx context.Context, name string, config broker.TopicConfig) error {
	a.conn.mu.Lock()
	defer a.conn.mu.Unlock()

	if existing, ok := a.conn.topics[name]; ok {
		if existing.partitions != config.NumPartitions {
			return &broker.TopicShapeError{
				Topic:               name,
				RequestedPartitions: config.NumPartitions,
				ActualPartitions:    existing.partitions,
			}
		}
		return nil
	}

	partitions := config.NumPartitions
	if partitions < 1 {
		partitions = 1
	}
	a.conn.topics[name] = &topic{
		partitions: partitions,
		ch:         make(chan *broker.Message, 256),
	}
	return nil
}

// DeleteTopic removes the named topic; pending messages are discarded.
func (a *admin) DeleteTopic(ctx context.Context, name string) error {
	a.conn.mu.Lock()
	defer a.conn.mu.Unlock()
	delete(a.conn.topics, name)
	return nil
}

// GetTopicMetadata reports the topic's partition count, or an error if it
// does not exist yet (mirroring the network adapters' not-found behavior
// so broker.EnsureTopic's create-if-missing logic works unchanged).
func (a *admin) GetTopicMetadata(ctx context.Context, name string) (broker.TopicMetadata, error) {
	a.conn.mu.Lock()
	defer a.conn.mu.Unlock()

	t, ok := a.conn.topics[name]
	if !ok {
		return broker.TopicMetadata{}, fmt.Errorf("inmemory: topic %q does not exist", name)
	}
	partitions := make([]broker.PartitionMetadata, t.partitions)
	for i := range partitions {
		partitions[i] = broker.PartitionMetadata{ID: int32(i)}
	}
	return broker.TopicMetadata{Name: name, Partitions: partitions}, nil
}

// GetTopicConfig returns the partition count as a TopicConfig; there is no
// other configurable shape for an in-memory topic.
func (a *admin) GetTopicConfig(ctx context.Context, name string) (broker.TopicConfig, error) {
	a.conn.mu.Lock()
	defer a.conn.mu.Unlock()

	t, ok := a.conn.topics[name]
	if !ok {
		return broker.TopicConfig{}, fmt.Errorf("inmemory: topic %q does not exist", name)
	}
	return broker.TopicConfig{NumPartitions: t.partitions, ReplicationFactor: 1}, nil
}
