package broker

import (
	"time"

	"github.com/riverforge/statestream/pkg/streamplatform"
)

// Message is the wire unit every adapter produces and consumes: Value holds
// a codec-encoded envelope (see pkg/codec), Key is the entity pk bytes
// stream.Stream hashes records on, and Partition/Offset are only meaningful
// once a Message has actually been read back off a ConsumerOperator (a
// freshly constructed outbound Message leaves them zero).
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// TopicInfo is one entry of AdminOperator.ListTopics.
type TopicInfo struct {
	Name       string
	Partitions int32
	Replicas   int32
	Config     map[string]string
}

// TopicMetadata is AdminOperator.GetTopicMetadata's result: the topic's full
// per-partition layout, read by Stream.Initialize (through EnsureTopic)
// before any CreateTopic call to check an existing topic's partition count.
type TopicMetadata struct {
	Name       string
	Partitions []PartitionMetadata
	Config     map[string]string
	Metadata   map[string]interface{}
}

// PartitionMetadata describes one partition's replica placement and offset
// range; the kafka, kinesis, and eventhubs adapters fill Leader/Replicas/ISR
// from their platform's own metadata call, while pubsub, mqtt, and inmemory
// -- which have no replica concept -- leave them empty.
type PartitionMetadata struct {
	ID       int32
	Leader   string
	Replicas []string
	ISR      []string
	Offset   OffsetInfo
}

// OffsetInfo is the oldest/newest readable offset of one partition. Only the
// eventhubs adapter's GetTopicMetadata fills it from the platform; kinesis
// reports zeros and the other adapters leave it unset.
type OffsetInfo struct {
	Oldest int64
	Newest int64
}

// TopicConfig is CreateTopic's input and GetTopicConfig's output: the
// partition count Stream.Initialize requests, and (when the platform keeps
// one) the retention window and arbitrary platform knobs.
type TopicConfig struct {
	NumPartitions     int32
	ReplicationFactor int32
	RetentionMs       int64
	Config            map[string]string
}

// ConnectionConfig is StreamAdapter.Connect's input. Not every adapter reads
// every field -- pubsub and eventhubs, in particular, take their platform
// identity out of Configuration's string map rather than a typed field, to
// match the ad hoc key sets their underlying SDKs actually need -- but the
// fields below are Validate's and Clone's view of the union, kept flat
// rather than split per platform so a caller building one config doesn't
// need a type switch before it knows which variant to fill in.
type ConnectionConfig struct {
	ID       string
	Platform streamplatform.Platform

	Brokers       []string          // kafka: bootstrap list; mqtt: fallback broker address
	Region        string            // kinesis: AWS region passed to config.WithRegion
	Project       string            // pubsub: required by Validate; the adapter itself reads Configuration["project_id"]
	Namespace     string            // eventhubs: required by Validate; the adapter itself reads Configuration["namespace"]
	Endpoint      string            // mqtt: broker URL, preferred over Brokers[0] when set
	Configuration map[string]string // kinesis credentials, pubsub project/credentials, eventhubs connection string, mqtt client/server tuning -- see each adapter's Connect

	Username       string // kafka (SASL PLAIN), mqtt: broker credentials
	Password       string
	SASLMechanism  string // reserved for a non-PLAIN mechanism; every shipped adapter only wires PLAIN today
	CertFile       string // reserved for mutual-TLS dialing, not yet consumed by any shipped adapter
	KeyFile        string
	CAFile         string
	TLSEnabled     bool // kafka: dial over TLS (the mqtt adapters ignore it)
	TLSSkipVerify  bool // kafka: skip server certificate verification (dev/test only)
	Authentication map[string]string

	GroupID          string // copied by Clone only; adapters take the group id from ConsumerOperator.Subscribe
	AutoOffsetReset  string // kafka: earliest, latest
	EnableAutoCommit bool   // kafka: let kafka-go commit offsets instead of ConsumerOperator.Commit

	Acks           string // kafka: 0, 1, all, passed straight through to kafka.Writer.RequiredAcks
	Compression    string // reserved for a compressed kafka.Writer; not yet read by the adapter
	MaxMessageSize int

	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	Metadata map[string]interface{}
}
