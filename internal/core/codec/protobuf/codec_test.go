package protobuf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-ipcbus/pkg/types"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New()
	sent := time.Unix(1700000000, 123456789)

	in := &types.Message{
		Topic:     "control/cmd",
		Payload:   []byte("go"),
		Sequence:  99,
		Timestamp: sent,
		QoS:       types.QoSAtLeastOnce,
	}
	data, err := c.Encode(in)
	require.NoError(t, err)

	before := time.Now()
	out, err := c.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, in.Topic, out.Topic)
	assert.Equal(t, in.Payload, out.Payload)
	assert.Equal(t, in.Sequence, out.Sequence)
	assert.Equal(t, in.QoS, out.QoS)
	assert.True(t, out.SentAt.Equal(sent))
	assert.False(t, out.Timestamp.Before(before), "Timestamp 应为本地接收时间")
}

func TestCodec_RoundTripAck(t *testing.T) {
	c := New()
	ack := types.NewAck(1234)

	data, err := c.Encode(&ack)
	require.NoError(t, err)
	out, err := c.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, types.AckTopic, out.Topic)
	assert.True(t, out.IsAck)
	assert.Equal(t, uint64(1234), out.AckFor)
	assert.Equal(t, types.QoSBestEffort, out.QoS)
	assert.False(t, out.SentAt.IsZero(), "未设置 Timestamp 时编码当前时间")
}

func TestCodec_Limits(t *testing.T) {
	c := New()

	_, err := c.Encode(&types.Message{Topic: strings.Repeat("t", MaxTopicBytes+1)})
	assert.ErrorIs(t, err, ErrTopicTooLong)

	data, err := c.Encode(&types.Message{Topic: "p", Payload: make([]byte, MaxPayloadBytes+1)})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Nil(t, data)

	data, err = c.Encode(&types.Message{Topic: "p", Payload: make([]byte, MaxPayloadBytes)})
	require.NoError(t, err)
	out, err := c.Decode(data)
	require.NoError(t, err)
	assert.Len(t, out.Payload, MaxPayloadBytes)
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	c := New()
	data, err := c.Encode(&types.Message{Topic: "a", Sequence: 5})
	require.NoError(t, err)

	data = protowire.AppendTag(data, 15, protowire.Fixed32Type)
	data = protowire.AppendFixed32(data, 0xdeadbeef)
	data = protowire.AppendTag(data, 16, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future"))

	out, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "a", out.Topic)
	assert.Equal(t, uint64(5), out.Sequence)
}

func TestCodec_DecodeMalformed(t *testing.T) {
	c := New()
	data, err := c.Encode(&types.Message{Topic: "topic", Payload: []byte("payload")})
	require.NoError(t, err)

	// 截断在 payload 中间
	_, err = c.Decode(data[:len(data)-12])
	assert.ErrorIs(t, err, ErrMalformed)

	// 非法 tag
	_, err = c.Decode([]byte{0x00})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodec_DecodeInvalidQoS(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, fieldTopic, protowire.BytesType)
	data = protowire.AppendString(data, "x")
	data = protowire.AppendTag(data, fieldQoS, protowire.VarintType)
	data = protowire.AppendVarint(data, 7)

	_, err := New().Decode(data)
	assert.ErrorIs(t, err, ErrInvalidQoS)
}

func TestCodec_EmptyInput(t *testing.T) {
	out, err := New().Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, out.Topic)
	assert.True(t, out.SentAt.IsZero())
}
