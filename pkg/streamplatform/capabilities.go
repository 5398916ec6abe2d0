// Package streamplatform is the capability registry each broker adapter
// (pkg/broker/kafka, kinesis, pubsub, eventhubs, mqtt, inmemory) returns its
// entry from in Capabilities(), and that pkg/config uses to reject an
// unrecognized platform (BrokerPlatform) and to report 0 partitions for a
// partition-incapable one (BrokerPartitions).
package streamplatform

import "strings"

// Platform is the canonical identifier for a streaming platform this
// runtime can bind a Stream to. Use these constants to look up capability
// information.
type Platform string

const (
	Kafka     Platform = "kafka"
	Kinesis   Platform = "kinesis"
	PubSub    Platform = "pubsub"
	EventHubs Platform = "eventhubs"
	MQTT      Platform = "mqtt"

	// MQTTServer is the embedded-broker variant of MQTT: the adapter runs
	// its own in-process broker (mochi-mqtt) instead of dialing an external one.
	MQTTServer Platform = "mqtt_server"

	// InMemory is the single-process, lossless channel variant: no broker
	// process, used for tests and single-host examples.
	InMemory Platform = "inmemory"
)

// Capability describes what a streaming platform supports in a way that
// components can consume uniformly regardless of which adapter is bound.
type Capability struct {
	// Human-friendly platform name, e.g., "Apache Kafka".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see Platform constants), e.g., "kafka".
	ID Platform `json:"id"`

	// Whether the platform supports producing messages
	SupportsProducer bool `json:"supportsProducer"`

	// Whether the platform supports consuming messages
	SupportsConsumer bool `json:"supportsConsumer"`

	// Whether the platform supports topic/stream partitions
	SupportsPartitions bool `json:"supportsPartitions"`

	// Whether the platform supports consumer groups for parallel processing
	SupportsConsumerGroups bool `json:"supportsConsumerGroups"`

	// Whether the adapter can act as the broker itself instead of dialing one
	SupportsServerMode bool `json:"supportsServerMode"`

	// Whether the platform supports SASL authentication
	SupportsSASL bool `json:"supportsSASL"`

	// Whether the platform supports TLS/SSL encryption
	SupportsTLS bool `json:"supportsTLS"`

	// Default port for the platform
	DefaultPort int `json:"defaultPort"`

	// Default SSL/TLS port (if different from DefaultPort)
	DefaultSSLPort int `json:"defaultSSLPort"`

	// Connection string template for the platform
	ConnectionStringTemplate string `json:"connectionStringTemplate"`

	// Whether the platform supports message ordering guarantees
	SupportsOrdering bool `json:"supportsOrdering"`
}

// All is a registry of capabilities keyed by the canonical platform ID.
var All = map[Platform]Capability{
	Kafka: {
		Name:                     "Apache Kafka",
		ID:                       Kafka,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       true,
		SupportsConsumerGroups:   true,
		SupportsSASL:             true,
		SupportsTLS:              true,
		DefaultPort:              9092,
		DefaultSSLPort:           9093,
		ConnectionStringTemplate: "kafka://{{hosts}}/{{topic}}",
		SupportsOrdering:         true,
	},
	Kinesis: {
		Name:                     "AWS Kinesis",
		ID:                       Kinesis,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       true, // shards
		SupportsConsumerGroups:   false,
		SupportsSASL:             false,
		SupportsTLS:              true,
		DefaultPort:              443,
		DefaultSSLPort:           443,
		ConnectionStringTemplate: "kinesis://{{region}}/{{stream}}",
		SupportsOrdering:         true,
	},
	PubSub: {
		Name:                     "Google Cloud Pub/Sub",
		ID:                       PubSub,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       false,
		SupportsConsumerGroups:   true, // subscriptions
		SupportsSASL:             false,
		SupportsTLS:              true,
		DefaultPort:              443,
		DefaultSSLPort:           443,
		ConnectionStringTemplate: "pubsub://{{project}}/{{topic}}",
		SupportsOrdering:         true,
	},
	EventHubs: {
		Name:                     "Azure Event Hubs",
		ID:                       EventHubs,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       true,
		SupportsConsumerGroups:   true,
		SupportsSASL:             true,
		SupportsTLS:              true,
		DefaultPort:              5671,
		DefaultSSLPort:           5672,
		ConnectionStringTemplate: "eventhubs://{{namespace}}.servicebus.windows.net/{{eventhub}}",
		SupportsOrdering:         true,
	},
	MQTT: {
		Name:                     "MQTT",
		ID:                       MQTT,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       false,
		SupportsConsumerGroups:   false,
		SupportsSASL:             false,
		SupportsTLS:              true,
		DefaultPort:              1883,
		DefaultSSLPort:           8883,
		ConnectionStringTemplate: "mqtt://{{host}}:{{port}}/{{topic}}",
		SupportsOrdering:         false,
	},
	MQTTServer: {
		Name:                     "MQTT Broker",
		ID:                       MQTTServer,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsServerMode:       true,
		SupportsPartitions:       false,
		SupportsConsumerGroups:   false,
		SupportsSASL:             false,
		SupportsTLS:              true,
		DefaultPort:              1883,
		DefaultSSLPort:           8883,
		ConnectionStringTemplate: "mqtt://{{bind_address}}:{{port}}",
		SupportsOrdering:         false,
	},
	InMemory: {
		Name:                     "In-process channel",
		ID:                       InMemory,
		SupportsProducer:         true,
		SupportsConsumer:         true,
		SupportsPartitions:       false,
		SupportsConsumerGroups:   false,
		SupportsSASL:             false,
		SupportsTLS:              false,
		ConnectionStringTemplate: "inmemory://{{topic}}",
		SupportsOrdering:         true,
	},
}

// Get retrieves the capability for a given streaming platform. Every
// adapter's Capabilities() goes through this except inmemory's, which
// indexes All directly.
func Get(platform Platform) (Capability, bool) {
	c, ok := All[platform]
	return c, ok
}

// IsValidPlatform reports whether name (case-insensitive) names a
// registered platform, used by config.Config.BrokerPlatform to reject a
// typo before it reaches GetAdapter as an opaque "not registered" error.
func IsValidPlatform(name string) bool {
	_, ok := Get(Platform(strings.ToLower(name)))
	return ok
}

// SupportsPartitions reports whether platform models multiple partitions
// per topic, used by config.Config.BrokerPartitions to avoid asking a
// partition-incapable platform (pubsub, mqtt, inmemory) for a shape it has
// no way to honor.
func SupportsPartitions(platform Platform) bool {
	c, ok := Get(platform)
	return ok && c.SupportsPartitions
}

// ListPlatforms returns every registered platform ID, used to build the
// "valid values are..." half of an invalid-platform error message.
func ListPlatforms() []Platform {
	platforms := make([]Platform, 0, len(All))
	for platform := range All {
		platforms = append(platforms, platform)
	}
	return platforms
}
