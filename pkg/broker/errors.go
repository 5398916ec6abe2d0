package broker

import "fmt"

// TopicShapeError indicates a topic already exists with a different
// partition count than requested.
type TopicShapeError struct {
	Topic              string
	RequestedPartitions int32
	ActualPartitions    int32
}

func (e *TopicShapeError) Error() string {
	return fmt.Sprintf("broker: topic %q exists with %d partitions, requested %d",
		e.Topic, e.ActualPartitions, e.RequestedPartitions)
}

// TransportError wraps a produce/consume failure surfaced after the
// adapter's own retries are exhausted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("broker: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
