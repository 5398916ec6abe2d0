// Package kafka is the Kafka Broker Adapter, binding a Stream to a Kafka (or
// Kafka-protocol-compatible) cluster over segmentio/kafka-go.
package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/streamplatform"
)

// Adapter implements broker.StreamAdapter for Kafka.
type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Type() streamplatform.Platform {
	return streamplatform.Kafka
}

func (a *Adapter) Capabilities() streamplatform.Capability {
	c, _ := streamplatform.Get(streamplatform.Kafka)
	return c
}

func (a *Adapter) Connect(ctx context.Context, config broker.ConnectionConfig) (broker.Connection, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker address is required")
	}

	dialer := &kafkago.Dialer{
		Timeout:   config.ConnectTimeout,
		DualStack: true,
	}
	if config.TLSEnabled {
		dialer.TLS = &tls.Config{InsecureSkipVerify: config.TLSSkipVerify} //nolint:gosec
	}
	if config.Username != "" {
		dialer.SASLMechanism = plainMechanism(config.Username, config.Password)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeoutOr(config.ConnectTimeout, 10*time.Second))
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", config.Brokers[0])
	if err != nil {
		return nil, &broker.TransportError{Op: "dial", Err: err}
	}

	return &Connection{
		id:     config.ID,
		config: config,
		dialer: dialer,
		conn:   conn,
	}, nil
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Connection holds a live admin connection plus the dialer used to build
// producers and consumers on demand for individual topics.
type Connection struct {
	id     string
	config broker.ConnectionConfig
	dialer *kafkago.Dialer
	conn   *kafkago.Conn
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Type() streamplatform.Platform { return streamplatform.Kafka }

func (c *Connection) IsConnected() bool { return c.conn != nil }

func (c *Connection) Ping(ctx context.Context) error {
	_, err := c.conn.Brokers()
	if err != nil {
		return &broker.TransportError{Op: "ping", Err: err}
	}
	return nil
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) ProducerOperations() broker.ProducerOperator {
	return &Producer{brokers: c.config.Brokers, cfg: c.config}
}

func (c *Connection) ConsumerOperations() broker.ConsumerOperator {
	return &Consumer{brokers: c.config.Brokers, cfg: c.config}
}

func (c *Connection) AdminOperations() broker.AdminOperator {
	return &Admin{conn: c.conn}
}

func (c *Connection) Raw() interface{} { return c.conn }

func (c *Connection) Config() broker.ConnectionConfig { return c.config }

func (c *Connection) Adapter() broker.StreamAdapter { return &Adapter{} }
