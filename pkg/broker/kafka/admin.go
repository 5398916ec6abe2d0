package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/riverforge/statestream/pkg/broker"
)

// Admin performs topic administration over the single admin connection
// established at Connect time.
type Admin struct {
	conn *kafkago.Conn
}

func (a *Admin) ListTopics(ctx context.Context) ([]broker.TopicInfo, error) {
	partitions, err := a.conn.ReadPartitions()
	if err != nil {
		return nil, &broker.TransportError{Op: "list-topics", Err: err}
	}

	byTopic := make(map[string]int32)
	for _, p := range partitions {
		byTopic[p.Topic]++
	}

	infos := make([]broker.TopicInfo, 0, len(byTopic))
	for topic, count := range byTopic {
		infos = append(infos, broker.TopicInfo{Name: topic, Partitions: count})
	}
	return infos, nil
}

func (a *Admin) CreateTopic(ctx context.Context, name string, config broker.TopicConfig) error {
	numPartitions := int(config.NumPartitions)
	if numPartitions <= 0 {
		numPartitions = 1
	}
	replicationFactor := int(config.ReplicationFactor)
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	err := a.conn.CreateTopics(kafkago.TopicConfig{
		Topic:             name,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil {
		return &broker.TransportError{Op: "create-topic", Err: err}
	}
	return nil
}

func (a *Admin) DeleteTopic(ctx context.Context, name string) error {
	if err := a.conn.DeleteTopics(name); err != nil {
		return &broker.TransportError{Op: "delete-topic", Err: err}
	}
	return nil
}

func (a *Admin) GetTopicMetadata(ctx context.Context, topic string) (broker.TopicMetadata, error) {
	partitions, err := a.conn.ReadPartitions(topic)
	if err != nil {
		return broker.TopicMetadata{}, &broker.TransportError{Op: "topic-metadata", Err: err}
	}

	meta := broker.TopicMetadata{Name: topic}
	for _, p := range partitions {
		replicas := make([]string, 0, len(p.Replicas))
		for _, r := range p.Replicas {
			replicas = append(replicas, r.Host)
		}
		meta.Partitions = append(meta.Partitions, broker.PartitionMetadata{
			ID:       int32(p.ID),
			Leader:   p.Leader.Host,
			Replicas: replicas,
		})
	}
	return meta, nil
}

func (a *Admin) GetTopicConfig(ctx context.Context, topic string) (broker.TopicConfig, error) {
	partitions, err := a.conn.ReadPartitions(topic)
	if err != nil {
		return broker.TopicConfig{}, &broker.TransportError{Op: "topic-config", Err: err}
	}
	return broker.TopicConfig{NumPartitions: int32(len(partitions))}, nil
}
