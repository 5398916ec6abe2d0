package streamplatform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riverforge/statestream/pkg/streamplatform"
)

func TestGetReturnsKnownCapability(t *testing.T) {
	c, ok := streamplatform.Get(streamplatform.Kafka)
	assert.True(t, ok)
	assert.Equal(t, "Apache Kafka", c.Name)
}

func TestGetReportsUnknownPlatform(t *testing.T) {
	_, ok := streamplatform.Get(streamplatform.Platform("nope"))
	assert.False(t, ok)
}

func TestIsValidPlatformIsCaseInsensitive(t *testing.T) {
	assert.True(t, streamplatform.IsValidPlatform("KAFKA"))
	assert.True(t, streamplatform.IsValidPlatform("kafka"))
	assert.False(t, streamplatform.IsValidPlatform("not-a-platform"))
}

func TestSupportsPartitions(t *testing.T) {
	assert.True(t, streamplatform.SupportsPartitions(streamplatform.Kafka))
	assert.False(t, streamplatform.SupportsPartitions(streamplatform.PubSub))
	assert.False(t, streamplatform.SupportsPartitions(streamplatform.Platform("nope")))
}

func TestListPlatformsIncludesEveryRegisteredPlatform(t *testing.T) {
	platforms := streamplatform.ListPlatforms()
	assert.Contains(t, platforms, streamplatform.Kafka)
	assert.Contains(t, platforms, streamplatform.InMemory)
	assert.Len(t, platforms, len(streamplatform.All))
}
