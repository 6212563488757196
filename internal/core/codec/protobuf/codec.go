// Package protobuf 实现基于 protobuf wire format 的编解码器
//
// 消息结构见 envelope.proto。编码直接使用 protowire 逐字段写入，
// 与任何遵循该 schema 的 protobuf 实现互通。
package protobuf

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

const (
	// Name 编解码器名称
	Name = "protobuf"

	// MaxTopicBytes 主题最大字节数
	MaxTopicBytes = 65535

	// MaxPayloadBytes 负载最大字节数（4 MiB）
	MaxPayloadBytes = 4 * 1024 * 1024
)

// Envelope 字段号
const (
	fieldTopic       protowire.Number = 1
	fieldPayload     protowire.Number = 2
	fieldSequence    protowire.Number = 3
	fieldQoS         protowire.Number = 4
	fieldTimestampNs protowire.Number = 5
	fieldAckFor      protowire.Number = 6
	fieldIsAck       protowire.Number = 7
)

var (
	// ErrTopicTooLong 主题超出长度限制
	ErrTopicTooLong = errors.New("topic exceeds 65535 bytes")

	// ErrPayloadTooLarge 负载超出长度限制
	ErrPayloadTooLarge = errors.New("payload exceeds 4 MiB")

	// ErrMalformed 输入不是合法的 Envelope
	ErrMalformed = errors.New("malformed envelope")

	// ErrInvalidQoS qos 字段不是已定义的值
	ErrInvalidQoS = errors.New("invalid qos value")
)

// Codec protobuf 编解码器
type Codec struct {
	now func() time.Time
}

var _ pkgif.Codec = (*Codec)(nil)

// New 创建 protobuf 编解码器
func New() *Codec {
	return &Codec{now: time.Now}
}

// Name 返回编解码器名称
func (c *Codec) Name() string {
	return Name
}

// Encode 编码消息
//
// 按 proto3 规则省略零值字段。timestamp_ns 取消息的 Timestamp，
// 未设置时取当前时间。
func (c *Codec) Encode(msg *types.Message) ([]byte, error) {
	if len(msg.Topic) > MaxTopicBytes {
		return nil, fmt.Errorf("%w: %d", ErrTopicTooLong, len(msg.Topic))
	}
	if len(msg.Payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(msg.Payload))
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}

	buf := make([]byte, 0, 48+len(msg.Topic)+len(msg.Payload))
	if msg.Topic != "" {
		buf = protowire.AppendTag(buf, fieldTopic, protowire.BytesType)
		buf = protowire.AppendString(buf, msg.Topic)
	}
	if len(msg.Payload) > 0 {
		buf = protowire.AppendTag(buf, fieldPayload, protowire.BytesType)
		buf = protowire.AppendBytes(buf, msg.Payload)
	}
	if msg.Sequence != 0 {
		buf = protowire.AppendTag(buf, fieldSequence, protowire.VarintType)
		buf = protowire.AppendVarint(buf, msg.Sequence)
	}
	if msg.QoS != 0 {
		buf = protowire.AppendTag(buf, fieldQoS, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(msg.QoS))
	}
	buf = protowire.AppendTag(buf, fieldTimestampNs, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(ts.UnixNano()))
	if msg.AckFor != 0 {
		buf = protowire.AppendTag(buf, fieldAckFor, protowire.VarintType)
		buf = protowire.AppendVarint(buf, msg.AckFor)
	}
	if msg.IsAck {
		buf = protowire.AppendTag(buf, fieldIsAck, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
	}
	return buf, nil
}

// Decode 解码消息
//
// 未知字段被跳过；同一字段重复出现时以最后一次为准。
func (c *Codec) Decode(data []byte) (*types.Message, error) {
	msg := &types.Message{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldTopic && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: topic: %v", ErrMalformed, protowire.ParseError(m))
			}
			if len(v) > MaxTopicBytes {
				return nil, fmt.Errorf("%w: %d", ErrTopicTooLong, len(v))
			}
			msg.Topic = string(v)
			n = m

		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: payload: %v", ErrMalformed, protowire.ParseError(m))
			}
			if len(v) > MaxPayloadBytes {
				return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(v))
			}
			msg.Payload = append([]byte(nil), v...)
			n = m

		case typ == protowire.VarintType && num >= fieldSequence && num <= fieldIsAck:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			if err := setVarint(msg, num, v); err != nil {
				return nil, err
			}
			n = m

		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			n = m
		}
		data = data[n:]
	}

	msg.Timestamp = c.now()
	return msg, nil
}

func setVarint(msg *types.Message, num protowire.Number, v uint64) error {
	switch num {
	case fieldSequence:
		msg.Sequence = v
	case fieldQoS:
		if v > 0xff || !types.QoS(v).Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidQoS, v)
		}
		msg.QoS = types.QoS(v)
	case fieldTimestampNs:
		if v != 0 {
			msg.SentAt = time.Unix(0, int64(v))
		}
	case fieldAckFor:
		msg.AckFor = v
	case fieldIsAck:
		msg.IsAck = protowire.DecodeBool(v)
	}
	return nil
}
