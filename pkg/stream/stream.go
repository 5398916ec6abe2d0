// Package stream implements the Stream of spec §4.3: a producer/consumer
// binding to one topic (or in-memory channel, via pkg/broker/inmemory,
// which satisfies the same broker.Connection contract) carrying a map of
// changed variable names to values for one entity primary key.
//
// Grounded on gs_framework/state_stream.py's ObjectStateStream
// (upsert_object_state/set_state_observer) and topic_channel_wrapper.py's
// TopicWrapper/InMemoryChannelWrapper split. Unlike the source, this
// package does not need a separate in-memory code path: pkg/broker/inmemory
// implements the same broker.Connection interface as the network adapters,
// so Stream only ever talks to one abstraction.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/riverforge/statestream/pkg/broker"
	"github.com/riverforge/statestream/pkg/codec"
	"github.com/riverforge/statestream/pkg/slog"
)

// Value is one field's still-enveloped wire bytes. Decoding is deferred to
// the caller, who knows the variable's intended Go type (or wants the
// generic form); this preserves type fidelity across the wire without
// requiring the dispatcher to know every schema up front.
type Value struct {
	raw []byte
}

// Decode unmarshals the value into out, which must be a pointer.
func (v Value) Decode(out interface{}) error { return codec.Decode(v.raw, out) }

// Any decodes the value into a generic interface{}.
func (v Value) Any() (interface{}, error) { return codec.DecodeAny(v.raw) }

// Int decodes the value as an int.
func (v Value) Int() (int, error) {
	var i int
	err := v.Decode(&i)
	return i, err
}

// Float64 decodes the value as a float64.
func (v Value) Float64() (float64, error) {
	var f float64
	err := v.Decode(&f)
	return f, err
}

// String decodes the value as a string.
func (v Value) String() (string, error) {
	var s string
	err := v.Decode(&s)
	return s, err
}

// Bool decodes the value as a bool.
func (v Value) Bool() (bool, error) {
	var b bool
	err := v.Decode(&b)
	return b, err
}

// Raw returns the still-enveloped bytes, for forwarding without a
// decode/re-encode round trip (e.g. Storage writing the value back out
// unchanged).
func (v Value) Raw() []byte { return v.raw }

// ValueOf wraps already-enveloped bytes, e.g. bytes read back from Storage.
func ValueOf(raw []byte) Value { return Value{raw: raw} }

// Observer is the single dispatch handler a Stream may register (spec
// §4.3's observe contract). Returning an error logs and isolates the
// failure (spec §7 DispatchError); it never blocks the consumer offset
// from advancing, matching the at-least-once, no-poison-message-loop
// policy.
type Observer func(ctx context.Context, pk interface{}, changed map[string]Value, headers map[string]string, pkBytes []byte) error

// Stream wraps one topic (or in-memory channel) as an entity-state
// carrier. At most one Observer may be registered per Stream (spec §3
// invariant: at most one consumer agent per (topic, role) per process).
type Stream struct {
	name       string
	partitions int32

	mu          sync.Mutex
	conn        broker.Connection
	producer    broker.ProducerOperator
	groupID     string
	observerSet bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// Bind declares a stream bound to the given topic coordinate. It is not
// usable until Initialize is called with a live broker connection.
func Bind(name string, partitions int32) *Stream {
	return &Stream{name: name, partitions: partitions}
}

// Name returns the topic/channel name this stream is bound to.
func (s *Stream) Name() string { return s.name }

// Partitions returns the declared partition count.
func (s *Stream) Partitions() int32 { return s.partitions }

// Initialize ensures the topic exists with the declared partition count
// and prepares the producer. groupID identifies this stream's consumer
// role for Subscribe; it is also the key the host registry uses to enforce
// the single-consumer-per-role constraint (see pkg/host).
func (s *Stream) Initialize(ctx context.Context, conn broker.Connection, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn = conn
	s.groupID = groupID

	if admin := conn.AdminOperations(); admin != nil {
		if err := broker.EnsureTopic(ctx, admin, s.name, s.partitions); err != nil {
			return err
		}
	}
	s.producer = conn.ProducerOperations()
	return nil
}

// Upsert encodes key and changed values and enqueues a single delta record
// (spec §3: "every record's value is a delta, not a full snapshot").
func (s *Stream) Upsert(ctx context.Context, pk interface{}, changed map[string]interface{}, headers map[string]string) error {
	s.mu.Lock()
	producer := s.producer
	s.mu.Unlock()

	if producer == nil {
		return fmt.Errorf("stream %q: not initialized", s.name)
	}

	keyBytes, err := codec.Encode(pk)
	if err != nil {
		return fmt.Errorf("stream %q: encode key: %w", s.name, err)
	}

	valueBytes, err := encodeChangeMap(changed)
	if err != nil {
		return fmt.Errorf("stream %q: encode value: %w", s.name, err)
	}

	msg := broker.Message{
		Topic:   s.name,
		Key:     keyBytes,
		Value:   valueBytes,
		Headers: headers,
	}
	if err := producer.Produce(ctx, s.name, []broker.Message{msg}); err != nil {
		return &broker.TransportError{Op: "produce " + s.name, Err: err}
	}
	return nil
}

// Observe registers the stream's single dispatch handler and starts its
// consume loop. A second call returns an error without disturbing the
// first registration.
func (s *Stream) Observe(ctx context.Context, logger *slog.Logger, handler Observer) error {
	s.mu.Lock()
	if s.observerSet {
		s.mu.Unlock()
		return fmt.Errorf("stream %q: observer already registered", s.name)
	}
	s.observerSet = true
	conn := s.conn
	groupID := s.groupID
	s.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("stream %q: not initialized", s.name)
	}

	consumer := conn.ConsumerOperations()
	if err := consumer.Subscribe(ctx, []string{s.name}, groupID); err != nil {
		return &broker.TransportError{Op: "subscribe " + s.name, Err: err}
	}

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		err := consumer.Consume(cctx, func(mctx context.Context, msg *broker.Message) error {
			pk, changed, derr := decodeRecord(msg)
			if derr != nil {
				if logger != nil {
					logger.Error("stream %s: malformed record dropped: %v", s.name, derr)
				}
				return nil
			}
			if herr := handler(mctx, pk, changed, msg.Headers, msg.Key); herr != nil {
				if logger != nil {
					logger.Error("stream %s: handler error for pk %v: %v", s.name, pk, herr)
				}
			}
			return nil
		})
		if err != nil && cctx.Err() == nil && logger != nil {
			logger.Error("stream %s: consume loop ended: %v", s.name, err)
		}
	}()
	return nil
}

// Close stops the consume loop (if any) and closes the producer.
func (s *Stream) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	producer := s.producer
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if producer != nil {
		return producer.Close()
	}
	return nil
}

func decodeRecord(msg *broker.Message) (interface{}, map[string]Value, error) {
	pk, err := codec.DecodeAny(msg.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("decode key: %w", err)
	}
	fields, err := decodeChangeMap(msg.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("decode value: %w", err)
	}
	out := make(map[string]Value, len(fields))
	for name, raw := range fields {
		out[name] = Value{raw: raw}
	}
	return pk, out, nil
}

// encodeChangeMap enveloppes each field independently via codec.Encode (so
// a single large/opaque field can pick the columnar envelope while its
// siblings stay compact) and flattens the result into one JSON object,
// whose own []byte values base64-encode automatically.
func encodeChangeMap(values map[string]interface{}) ([]byte, error) {
	fields := make(map[string][]byte, len(values))
	for name, v := range values {
		b, err := codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = b
	}
	return json.Marshal(fields)
}

func decodeChangeMap(data []byte) (map[string][]byte, error) {
	if len(data) == 0 {
		return map[string][]byte{}, nil
	}
	var fields map[string][]byte
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
