package inmemory

import (
	"context"

	"github.com/riverforge/statestream/pkg/broker"
)

// producer implements broker.ProducerOperator by enqueueing onto the
// destination topic's channel.
type producer struct{ conn *Connection }

// Produce enqueues each message onto its topic's channel, blocking if the
// channel is full (backpressure rather than silent drop, matching the
// network adapters' synchronous Produce contract).
func (p *producer) Produce(ctx context.Context, destTopic string, messages []broker.Message) error {
	for i := range messages {
		t, err := p.conn.topicFor(destTopic)
		if err != nil {
			return &broker.TransportError{Op: "produce " + destTopic, Err: err}
		}
		m := messages[i]
		select {
		case t.ch <- &m:
		case <-ctx.Done():
			return &broker.TransportError{Op: "produce " + destTopic, Err: ctx.Err()}
		}
	}
	return nil
}

// ProduceAsync runs Produce synchronously and reports the result through
// callback; there is no network round trip to overlap, so there is nothing
// genuinely asynchronous to do.
func (p *producer) ProduceAsync(ctx context.Context, topic string, messages []broker.Message, callback func(error)) error {
	err := p.Produce(ctx, topic, messages)
	if callback != nil {
		callback(err)
	}
	return err
}

// Flush is a no-op; Produce already blocks until the message is enqueued.
func (p *producer) Flush(ctx context.Context) error { return nil }

// Close is a no-op; the producer holds no resources of its own.
func (p *producer) Close() error { return nil }
