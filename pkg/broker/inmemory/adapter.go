// Package inmemory implements a broker.StreamAdapter backed by buffered Go
// channels, for single-process topologies (tests, samples, and any
// component that genuinely never needs to leave one process).
//
// Grounded on gs_framework/topic_channel_wrapper.py's InMemoryChannelWrapper,
// which wraps a Faust in-memory channel behind the same send/receive shape
// as its TopicWrapper sibling. This package does the same thing for
// pkg/broker.Connection: it is a full implementation of the network
// adapters' contract, not a separate code path pkg/stream has to know
// about.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

func init() {
	broker.RegisterAdapter(streamplatform.InMemory, func() broker.StreamAdapter { return &Adapter{} })
}

// Adapter is the broker.StreamAdapter for the in-memory platform.
type Adapter struct{}

// Type returns the in-memory platform identifier.
func (a *Adapter) Type() streamplatform.Platform { return streamplatform.InMemory }

// Capabilities reports the in-memory adapter's feature set: everything
// needed for a single process, nothing that requires cross-process
// durability.
func (a *Adapter) Capabilities() streamplatform.Capability {
	return streamplatform.All[streamplatform.InMemory]
}

// Connect returns a fresh Connection backed by an independent set of
// channel-backed topics; config.ID names the connection for diagnostics
// only, since there is no network endpoint to dial.
func (a *Adapter) Connect(ctx context.Context, config broker.ConnectionConfig) (broker.Connection, error) {
	return &Connection{
		id:     config.ID,
		topics: make(map[string]*topic),
	}, nil
}

// topic is one named channel plus its declared partition count (kept only
// for EnsureTopic's shape check; delivery itself is not partition-aware).
type topic struct {
	mu         sync.Mutex
	partitions int32
	ch         chan *broker.Message
}

// Connection is the in-memory broker.Connection: a registry of topics, each
// a buffered channel shared by every producer/consumer bound to it.
type Connection struct {
	id string

	mu       sync.Mutex
	topics   map[string]*topic
	closed   bool
	group    errgroup.Group
}

// ID returns the connection's diagnostic identifier.
func (c *Connection) ID() string { return c.id }

// Type returns the in-memory platform identifier.
func (c *Connection) Type() streamplatform.Platform { return streamplatform.InMemory }

// IsConnected reports true until Close is called; there is no network
// link to lose.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Ping is a no-op; success is definitional for an in-process channel set.
func (c *Connection) Ping(ctx context.Context) error { return nil }

// Close marks the connection closed. It neither stops nor waits for consume
// loops started through this connection's ConsumerOperator; those return
// when their own context is cancelled.
func (c *Connection) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.group.Wait()
}

// ProducerOperations returns a producer bound to this connection's topics.
func (c *Connection) ProducerOperations() broker.ProducerOperator { return &producer{conn: c} }

// ConsumerOperations returns a consumer bound to this connection's topics.
func (c *Connection) ConsumerOperations() broker.ConsumerOperator { return &consumer{conn: c} }

// AdminOperations returns the topic-management operator for this connection.
func (c *Connection) AdminOperations() broker.AdminOperator { return &admin{conn: c} }

// Raw returns the Connection itself; there is no distinct underlying client.
func (c *Connection) Raw() interface{} { return c }

// Config returns a ConnectionConfig with only ID and Platform set; the
// in-memory adapter takes no connection parameters beyond the ID passed to
// Connect.
func (c *Connection) Config() broker.ConnectionConfig {
	return broker.ConnectionConfig{ID: c.id, Platform: c.Type()}
}

// Adapter returns nil; callers needing the originating adapter should hold
// their own reference (the in-memory adapter is stateless and a package
// singleton in practice).
func (c *Connection) Adapter() broker.StreamAdapter { return nil }

func (c *Connection) topicFor(name string) (*topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.topics[name]
	if !ok {
		return nil, fmt.Errorf("inmemory: topic %q does not exist", name)
	}
	return t, nil
}
