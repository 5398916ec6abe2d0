package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/riverforge/statestream/pkg/streamplatform"
)

// Dotted keys this file's accessors read, gathered here so a deployment's
// env/file source has one place to look up the full set.
const (
	keyBrokerPlatform   = "broker.platform"
	keyBrokerBrokers    = "broker.brokers"
	keyBrokerEndpoint   = "broker.endpoint"
	keyBrokerPartitions = "broker.partitions"
	keyGracePeriod      = "scheduler.grace_period"
)

// BrokerPlatform resolves broker.platform to a streamplatform.Platform,
// rejecting anything streamplatform doesn't recognize rather than letting
// an unregistered platform name surface later as a confusing
// GetAdapter error.
func (c *Config) BrokerPlatform() (streamplatform.Platform, error) {
	raw := c.Get(keyBrokerPlatform)
	if raw == "" {
		return "", fmt.Errorf("config: %s is required", keyBrokerPlatform)
	}
	if !streamplatform.IsValidPlatform(raw) {
		return "", fmt.Errorf("config: %s %q is not one of %v", keyBrokerPlatform, raw, streamplatform.ListPlatforms())
	}
	return streamplatform.Platform(strings.ToLower(raw)), nil
}

// BrokerBrokers splits broker.brokers on commas, for platforms
// (ConnectionConfig.Brokers) that take a bootstrap list.
func (c *Config) BrokerBrokers() []string {
	raw := c.Get(keyBrokerBrokers)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BrokerEndpoint returns broker.endpoint, for platforms
// (ConnectionConfig.Endpoint) that take a single dial target instead of a
// broker list.
func (c *Config) BrokerEndpoint() string {
	return c.Get(keyBrokerEndpoint)
}

// BrokerPartitions returns broker.partitions, the count Stream.Initialize
// asks EnsureTopic for; fallback is used when the key is unset or not an
// integer, and is skipped entirely (returning 0) when the resolved platform
// doesn't support partitions at all, so a caller never asks
// pubsub/mqtt/inmemory for a shape they can't provide.
func (c *Config) BrokerPartitions(fallback int32) int32 {
	platform, err := c.BrokerPlatform()
	if err == nil && !streamplatform.SupportsPartitions(platform) {
		return 0
	}
	n := c.GetInt(keyBrokerPartitions, int(fallback))
	return int32(n)
}

// GracePeriod returns scheduler.grace_period, or fallback when it is unset.
// No component in this module reads it: host.Host.Run calls the service's
// Stop with context.Background() and applies no grace period.
func (c *Config) GracePeriod(fallback time.Duration) time.Duration {
	return c.GetDuration(keyGracePeriod, fallback)
}
