// Package codec converts arbitrary values to and from a length-prefixed,
// self-describing byte stream. The first byte of every encoded value
// selects one of three envelopes: a compact self-described form for small
// or structurally stable values, the same form wrapped in a streaming
// compressor once it grows past a size threshold, and a dense columnar form
// for large, structurally opaque binary or numeric payloads.
package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope identifies which encoding produced a byte stream.
type Envelope byte

const (
	// EnvelopeCompact is a plain structural encoding (JSON) of the value.
	EnvelopeCompact Envelope = 0x01

	// EnvelopeCompressed is EnvelopeCompact wrapped in a streaming compressor.
	EnvelopeCompressed Envelope = 0x02

	// EnvelopeColumnar is a dense binary encoding used for opaque/large payloads.
	EnvelopeColumnar Envelope = 0x03
)

// CompressionThreshold is the uncompressed size, in bytes, above which a
// structured value is compressed (envelope 2) instead of left plain
// (envelope 1).
const CompressionThreshold = 2048

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode selects an envelope for v and returns the length-prefixed (by the
// caller's transport, not by this function) envelope byte followed by the
// encoded payload.
func Encode(v interface{}) ([]byte, error) {
	if v == nil {
		return append([]byte{byte(EnvelopeCompact)}, []byte("null")...), nil
	}

	if isOpaqueBinary(v) {
		packed, err := msgpack.Marshal(v)
		if err != nil {
			return nil, &CodecError{Op: "encode columnar", Err: err}
		}
		return append([]byte{byte(EnvelopeColumnar)}, packed...), nil
	}

	plain, err := json.Marshal(v)
	if err != nil {
		// Not every Go value round-trips through JSON (e.g. map[int]string);
		// fall back to the dense encoding rather than failing the commit.
		packed, merr := msgpack.Marshal(v)
		if merr != nil {
			return nil, &CodecError{Op: "encode", Err: fmt.Errorf("json: %w; msgpack: %v", err, merr)}
		}
		return append([]byte{byte(EnvelopeColumnar)}, packed...), nil
	}

	if len(plain) <= CompressionThreshold {
		return append([]byte{byte(EnvelopeCompact)}, plain...), nil
	}

	compressed, err := compress(plain)
	if err != nil {
		return nil, &CodecError{Op: "compress", Err: err}
	}
	return append([]byte{byte(EnvelopeCompressed)}, compressed...), nil
}

// Decode decodes data into out, which must be a pointer (as with
// encoding/json.Unmarshal). The envelope byte selects the decoding path;
// an unrecognized envelope byte is a CodecError.
func Decode(data []byte, out interface{}) error {
	if len(data) == 0 {
		return &CodecError{Op: "decode", Err: fmt.Errorf("empty input")}
	}

	envelope := Envelope(data[0])
	payload := data[1:]

	switch envelope {
	case EnvelopeCompact:
		if err := json.Unmarshal(payload, out); err != nil {
			return &CodecError{Op: "decode compact", Err: err}
		}
		return nil
	case EnvelopeCompressed:
		raw, err := decompress(payload)
		if err != nil {
			return &CodecError{Op: "decompress", Err: err}
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &CodecError{Op: "decode compressed", Err: err}
		}
		return nil
	case EnvelopeColumnar:
		if err := msgpack.Unmarshal(payload, out); err != nil {
			return &CodecError{Op: "decode columnar", Err: err}
		}
		return nil
	default:
		return &CodecError{Op: "decode", Err: fmt.Errorf("unknown envelope byte 0x%02x", byte(envelope))}
	}
}

// DecodeAny decodes data into a generic interface{} value, for callers that
// do not know the destination type ahead of time (e.g. dispatching on a
// record's changed-variable map).
func DecodeAny(data []byte) (interface{}, error) {
	var v interface{}
	if err := Decode(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func isOpaqueBinary(v interface{}) bool {
	switch v.(type) {
	case []byte, [][]byte,
		[]int8, []int16, []int32, []int64,
		[]uint16, []uint32, []uint64,
		[]float32, []float64:
		return true
	default:
		return false
	}
}

func compress(plain []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(plain, make([]byte, 0, len(plain)/2)), nil
}

func decompress(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}
