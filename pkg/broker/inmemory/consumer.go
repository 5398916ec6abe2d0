package inmemory

import (
	"context"

	"github.com/riverforge/statestream/pkg/broker"
	"golang.org/x/sync/errgroup"
)

// consumer implements broker.ConsumerOperator over one or more of the
// connection's topic channels.
type consumer struct {
	conn   *Connection
	topics []string
}

// Subscribe records which topics this consumer reads from. groupID is
// accepted for interface parity with the network adapters but has no
// effect: an in-memory topic has exactly one channel, so there is only ever
// one logical "group" reading it, matching pkg/stream's single-observer
// invariant.
func (c *consumer) Subscribe(ctx context.Context, topics []string, groupID string) error {
	c.topics = append([]string(nil), topics...)
	return nil
}

// Consume fans the subscribed topics' channels into handler, one goroutine
// per topic coordinated by errgroup so Consume returns only once every
// fan-in goroutine has exited (on ctx cancellation or handler error).
func (c *consumer) Consume(ctx context.Context, handler broker.MessageHandler) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range c.topics {
		t, err := c.conn.topicFor(name)
		if err != nil {
			return &broker.TransportError{Op: "consume " + name, Err: err}
		}
		t := t
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case msg := <-t.ch:
					if err := handler(gctx, msg); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}

// Commit is a no-op; the in-memory adapter has no offset to persist.
func (c *consumer) Commit(ctx context.Context) error { return nil }

// Seek is unsupported: an in-memory channel has no addressable offset
// history to rewind to once a message has been received.
func (c *consumer) Seek(ctx context.Context, topic string, partition int32, offset int64) error {
	return &broker.TransportError{Op: "seek " + topic, Err: errSeekUnsupported}
}

// Close is a no-op; Consume's own goroutines exit via context cancellation.
func (c *consumer) Close() error { return nil }

var errSeekUnsupported = seekUnsupportedError{}

type seekUnsupportedError struct{}

func (seekUnsupportedError) Error() string { return "inmemory: seek is not supported" }
