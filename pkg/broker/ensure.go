package broker

import "context"

// EnsureTopic creates name with the given partition count if it does not
// exist, or verifies an existing topic has exactly that partition count.
// A mismatch is a TopicShapeError: partition count is fixed for the life of
// a topic in this runtime, not renegotiated.
func EnsureTopic(ctx context.Context, admin AdminOperator, name string, partitions int32) error {
	meta, err := admin.GetTopicMetadata(ctx, name)
	if err == nil && len(meta.Partitions) > 0 {
		if int32(len(meta.Partitions)) != partitions {
			return &TopicShapeError{
				Topic:               name,
				RequestedPartitions: partitions,
				ActualPartitions:    int32(len(meta.Partitions)),
			}
		}
		return nil
	}

	return admin.CreateTopic(ctx, name, TopicConfig{
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
}
