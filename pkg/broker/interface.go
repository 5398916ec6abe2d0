// Package broker provides the unified interface for all log-broker adapters:
// Kafka-compatible partitioned topics, cloud streaming services, and an
// in-memory channel variant. This is the Broker Adapter of the runtime's
// component design: an abstract transport that Stream (pkg/stream) binds
// one topic or channel to, so a Stream never has to know whether its
// records are flowing through Kafka, Kinesis, Pub/Sub, Event Hubs, MQTT, or
// a single process's own memory.
package broker

import (
	"context"

	"github.com/riverforge/statestream/pkg/streamplatform"
)

// StreamAdapter is the factory side of one platform binding: it reports what
// the platform is capable of (streamplatform.Capability, the registry
// entry each adapter returns unchanged from Capabilities()) and opens
// connections. pkg/broker/{kafka,kinesis,pubsub,eventhubs,mqtt,inmemory}
// each register one StreamAdapter implementation into the package registry
// (RegisterAdapter) from their init(); GetAdapter is the only way callers
// obtain one.
type StreamAdapter interface {
	Type() streamplatform.Platform
	Capabilities() streamplatform.Capability
	Connect(ctx context.Context, config ConnectionConfig) (Connection, error)
}

// Connection is what Stream.Initialize binds a topic/channel to: one
// connection yields independent producer, consumer, and admin operators, so
// a single process can run a produce-side and a consume-side loop over the
// same broker link without them interfering.
type Connection interface {
	ID() string
	Type() streamplatform.Platform
	IsConnected() bool

	Ping(ctx context.Context) error
	Close() error

	// ProducerOperations, ConsumerOperations, and AdminOperations return nil
	// when the bound platform cannot perform that category (the mqtt client
	// adapter's AdminOperations returns nil, for example).
	ProducerOperations() ProducerOperator
	ConsumerOperations() ConsumerOperator
	AdminOperations() AdminOperator

	// Raw exposes the platform client underneath (*kafka.Conn, *pubsub.Client,
	// and so on) for the rare adapter-specific escape hatch; everything
	// pkg/stream and pkg/rpc need is covered by the typed operators above.
	Raw() interface{}

	Config() ConnectionConfig
	Adapter() StreamAdapter
}

// ProducerOperator is the write side Stream.Upsert (and, through it,
// entity.Instance.Commit) calls through, once a record has been
// codec-encoded into a Message.
type ProducerOperator interface {
	Produce(ctx context.Context, topic string, messages []Message) error
	ProduceAsync(ctx context.Context, topic string, messages []Message, callback func(error)) error
	Flush(ctx context.Context) error
	Close() error
}

// ConsumerOperator is the read side Stream.Observe drives: Subscribe once at
// startup, then Consume in a loop until its context is cancelled. Commit
// and Seek complete the contract, but Stream.Observe calls neither and no
// code in this module calls Seek; the kinesis and eventhubs adapters' Seek
// returns an error.
type ConsumerOperator interface {
	Subscribe(ctx context.Context, topics []string, groupID string) error
	Consume(ctx context.Context, handler MessageHandler) error
	Commit(ctx context.Context) error
	Seek(ctx context.Context, topic string, partition int32, offset int64) error
	Close() error
}

// AdminOperator is the topic-lifecycle side: Stream.Initialize, through
// EnsureTopic, calls GetTopicMetadata first, returns a TopicShapeError if
// an existing topic has a different partition count, and calls CreateTopic
// only when no partitions are reported.
type AdminOperator interface {
	ListTopics(ctx context.Context) ([]TopicInfo, error)
	CreateTopic(ctx context.Context, name string, config TopicConfig) error
	DeleteTopic(ctx context.Context, name string) error
	GetTopicMetadata(ctx context.Context, topic string) (TopicMetadata, error)
	GetTopicConfig(ctx context.Context, topic string) (TopicConfig, error)
}

// MessageHandler is called once per Message consumed; returning an error
// stops Consume, which is why pkg/stream's own handler never returns one for
// an individual record's processing failure -- see stream.Stream.Observe.
type MessageHandler func(ctx context.Context, msg *Message) error
