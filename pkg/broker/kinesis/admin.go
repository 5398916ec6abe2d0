package kinesis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/riverforge/statestream/pkg/broker"
)

type Admin struct {
	conn *Connection
}

func (a *Admin) ListTopics(ctx context.Context) ([]broker.TopicInfo, error) {
	var topics []broker.TopicInfo
	var nextToken *string

	for {
		input := &kinesis.ListStreamsInput{
			Limit:                    aws.Int32(100),
			ExclusiveStartStreamName: nextToken,
		}

		output, err := a.conn.client.ListStreams(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list streams: %w", err)
		}

		for _, streamName := range output.StreamNames {
			// Get stream details
			describeOutput, err := a.conn.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
				StreamName: aws.String(streamName),
			})
			if err != nil {
				continue // Skip streams we can't describe
			}

			topics = append(topics, broker.TopicInfo{
				Name:       streamName,
				Partitions: int32(len(describeOutput.StreamDescription.Shards)),
				Replicas:   0, // Kinesis doesn't expose replica count
			})
		}

		if output.HasMoreStreams != nil && !*output.HasMoreStreams {
			break
		}

		if len(output.StreamNames) > 0 {
			lastStream := output.StreamNames[len(output.StreamNames)-1]
			nextToken = &lastStream
		} else {
			break
		}
	}

	return topics, nil
}

func (a *Admin) CreateTopic(ctx context.Context, name string, config broker.TopicConfig) error {
	input := &kinesis.CreateStreamInput{
		StreamName: aws.String(name),
		ShardCount: aws.Int32(config.NumPartitions),
	}

	if config.NumPartitions == 0 {
		input.ShardCount = aws.Int32(1)
	}

	_, err := a.conn.client.CreateStream(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

func (a *Admin) DeleteTopic(ctx context.Context, name string) error {
	input := &kinesis.DeleteStreamInput{
		StreamName: aws.String(name),
	}

	_, err := a.conn.client.DeleteStream(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}

	return nil
}

func (a *Admin) GetTopicMetadata(ctx context.Context, topic string) (broker.TopicMetadata, error) {
	describeOutput, err := a.conn.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
		StreamName: aws.String(topic),
	})
	if err != nil {
		return broker.TopicMetadata{}, fmt.Errorf("failed to describe stream: %w", err)
	}

	desc := describeOutput.StreamDescription
	metadata := broker.TopicMetadata{
		Name:       topic,
		Partitions: make([]broker.PartitionMetadata, 0),
		Metadata: map[string]interface{}{
			"stream_arn":      *desc.StreamARN,
			"stream_status":   string(desc.StreamStatus),
			"retention_hours": *desc.RetentionPeriodHours,
		},
	}

	// Convert shards to partition metadata
	for i, shard := range desc.Shards {
		metadata.Partitions = append(metadata.Partitions, broker.PartitionMetadata{
			ID:       int32(i),
			Leader:   *shard.ShardId,
			Replicas: []string{},
			ISR:      []string{},
			Offset: broker.OffsetInfo{
				Oldest: 0,
				Newest: 0,
			},
		})
	}

	return metadata, nil
}

func (a *Admin) GetTopicConfig(ctx context.Context, topic string) (broker.TopicConfig, error) {
	describeOutput, err := a.conn.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
		StreamName: aws.String(topic),
	})
	if err != nil {
		return broker.TopicConfig{}, fmt.Errorf("failed to describe stream: %w", err)
	}

	return broker.TopicConfig{
		NumPartitions:     int32(len(describeOutput.StreamDescription.Shards)),
		ReplicationFactor: 0, // Kinesis handles replication internally
		RetentionMs:       int64(*describeOutput.StreamDescription.RetentionPeriodHours) * 3600000,
	}, nil
}
