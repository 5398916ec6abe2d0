package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/config"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func TestBrokerPlatformResolvesValidName(t *testing.T) {
	c := config.New()
	c.Set("broker.platform", "Kafka")

	p, err := c.BrokerPlatform()
	require.NoError(t, err)
	assert.Equal(t, streamplatform.Kafka, p)
}

func TestBrokerPlatformRejectsUnknownName(t *testing.T) {
	c := config.New()
	c.Set("broker.platform", "not-a-platform")

	_, err := c.BrokerPlatform()
	require.Error(t, err)
}

func TestBrokerPlatformRequiresAValue(t *testing.T) {
	c := config.New()
	_, err := c.BrokerPlatform()
	require.Error(t, err)
}

func TestBrokerBrokersSplitsOnCommas(t *testing.T) {
	c := config.New()
	c.Set("broker.brokers", "a:9092, b:9092,c:9092")
	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"}, c.BrokerBrokers())
}

func TestBrokerPartitionsIsZeroForPartitionlessPlatform(t *testing.T) {
	c := config.New()
	c.Set("broker.platform", "pubsub")
	c.Set("broker.partitions", "8")

	assert.EqualValues(t, 0, c.BrokerPartitions(8))
}

func TestBrokerPartitionsUsesConfiguredValueForKafka(t *testing.T) {
	c := config.New()
	c.Set("broker.platform", "kafka")
	c.Set("broker.partitions", "8")

	assert.EqualValues(t, 8, c.BrokerPartitions(1))
}

func TestGracePeriodFallsBackWhenUnset(t *testing.T) {
	c := config.New()
	assert.Equal(t, 5*time.Second, c.GracePeriod(5*time.Second))
}
