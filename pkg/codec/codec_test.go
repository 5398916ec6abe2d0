package codec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/codec"
)

type sample struct {
	Name  string
	Count int
}

func TestRoundTripCompact(t *testing.T) {
	encoded, err := codec.Encode(sample{Name: "Ada", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, byte(codec.EnvelopeCompact), encoded[0])

	var out sample
	require.NoError(t, codec.Decode(encoded, &out))
	assert.Equal(t, sample{Name: "Ada", Count: 3}, out)
}

func TestRoundTripCompressed(t *testing.T) {
	big := strings.Repeat("x", codec.CompressionThreshold*2)
	encoded, err := codec.Encode(big)
	require.NoError(t, err)
	assert.Equal(t, byte(codec.EnvelopeCompressed), encoded[0])

	var out string
	require.NoError(t, codec.Decode(encoded, &out))
	assert.Equal(t, big, out)
}

func TestRoundTripColumnar(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	encoded, err := codec.Encode(payload)
	require.NoError(t, err)
	assert.Equal(t, byte(codec.EnvelopeColumnar), encoded[0])

	var out []byte
	require.NoError(t, codec.Decode(encoded, &out))
	assert.Equal(t, payload, out)
}

func TestDecodeUnknownEnvelope(t *testing.T) {
	var out interface{}
	err := codec.Decode([]byte{0xFF, 0x01}, &out)
	require.Error(t, err)
	var codecErr *codec.CodecError
	require.ErrorAs(t, err, &codecErr)
}

func TestDecodeAny(t *testing.T) {
	encoded, err := codec.Encode(map[string]interface{}{"a": 1.0, "b": "two"})
	require.NoError(t, err)

	v, err := codec.DecodeAny(encoded)
	require.NoError(t, err)
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, m["a"])
	assert.Equal(t, "two", m["b"])
}
