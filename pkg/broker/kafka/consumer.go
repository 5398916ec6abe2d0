package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/riverforge/statestream/pkg/broker"
)

// Consumer wraps one kafka.Reader per subscribed topic. kafka-go's reader
// already manages group membership and offset commit, so Subscribe just
// instantiates one reader per topic and Consume fans all of them into a
// single handler loop.
type Consumer struct {
	brokers []string
	cfg     broker.ConnectionConfig
	readers []*kafkago.Reader
}

func (c *Consumer) Subscribe(ctx context.Context, topics []string, groupID string) error {
	c.readers = make([]*kafkago.Reader, 0, len(topics))
	for _, topic := range topics {
		c.readers = append(c.readers, kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:     c.brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: startOffsetFromString(c.cfg.AutoOffsetReset),
			MinBytes:    1,
			MaxBytes:    10e6,
		}))
	}
	return nil
}

func startOffsetFromString(s string) int64 {
	if s == "earliest" {
		return kafkago.FirstOffset
	}
	return kafkago.LastOffset
}

func (c *Consumer) Consume(ctx context.Context, handler broker.MessageHandler) error {
	errCh := make(chan error, len(c.readers))
	for _, r := range c.readers {
		go func(r *kafkago.Reader) {
			for {
				km, err := r.FetchMessage(ctx)
				if err != nil {
					errCh <- &broker.TransportError{Op: "fetch", Err: err}
					return
				}
				msg := fromKafkaMessage(km)
				if err := handler(ctx, &msg); err != nil {
					errCh <- err
					return
				}
				if c.cfg.EnableAutoCommit {
					if err := r.CommitMessages(ctx, km); err != nil {
						errCh <- &broker.TransportError{Op: "commit", Err: err}
						return
					}
				}
			}
		}(r)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (c *Consumer) Commit(ctx context.Context) error {
	return nil
}

func (c *Consumer) Seek(ctx context.Context, topic string, partition int32, offset int64) error {
	for _, r := range c.readers {
		if r.Config().Topic == topic {
			return r.SetOffset(offset)
		}
	}
	return nil
}

func (c *Consumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func fromKafkaMessage(km kafkago.Message) broker.Message {
	headers := make(map[string]string, len(km.Headers))
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	return broker.Message{
		Topic:     km.Topic,
		Partition: int32(km.Partition),
		Offset:    km.Offset,
		Key:       km.Key,
		Value:     km.Value,
		Headers:   headers,
		Timestamp: km.Time,
	}
}
