package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/riverforge/statestream/pkg/broker"
)

// Producer writes messages through one kafka.Writer, built on first use
// against the configured brokers and reused for every later call; the
// underlying client balances across topics/partitions
// on its own, so one Producer can serve any topic passed to Produce.
type Producer struct {
	brokers []string
	cfg     broker.ConnectionConfig
	writer  *kafkago.Writer
}

func (p *Producer) writerFor(topic string) *kafkago.Writer {
	if p.writer != nil {
		return p.writer
	}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: acksFromString(p.cfg.Acks),
		Async:        false,
	}
	return p.writer
}

func acksFromString(s string) kafkago.RequiredAcks {
	switch s {
	case "0":
		return kafkago.RequireNone
	case "1":
		return kafkago.RequireOne
	default:
		return kafkago.RequireAll
	}
}

func (p *Producer) Produce(ctx context.Context, topic string, messages []broker.Message) error {
	w := p.writerFor(topic)
	kmsgs := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		kmsgs[i] = toKafkaMessage(topic, m)
	}
	if err := w.WriteMessages(ctx, kmsgs...); err != nil {
		return &broker.TransportError{Op: "produce", Err: err}
	}
	return nil
}

func (p *Producer) ProduceAsync(ctx context.Context, topic string, messages []broker.Message, callback func(error)) error {
	go func() {
		callback(p.Produce(ctx, topic, messages))
	}()
	return nil
}

func (p *Producer) Flush(ctx context.Context) error {
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toKafkaMessage(topic string, m broker.Message) kafkago.Message {
	headers := make([]kafkago.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    m.Timestamp,
	}
}
