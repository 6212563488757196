// Package binary 实现固定布局的二进制线路编码
//
// 布局（大端序）：
//
//	[2B topic 长度][topic][1B qos][8B sequence][8B ack_for][1B is_ack][4B payload 长度][payload]
//
// 发送方时间戳不在此格式中传输，解码时打上本地接收时间。
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	pkgif "github.com/dep2p/go-ipcbus/pkg/interfaces"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

const (
	// Name 编解码器名称
	Name = "binary"

	// MaxTopicBytes 主题最大字节数
	MaxTopicBytes = math.MaxUint16

	// MaxPayloadBytes 负载最大字节数（4 MiB）
	MaxPayloadBytes = 4 * 1024 * 1024

	// fixedSize 除 topic 与 payload 外的固定字段长度
	fixedSize = 2 + 1 + 8 + 8 + 1 + 4
)

var (
	// ErrTopicTooLong 主题超出长度限制
	ErrTopicTooLong = errors.New("topic exceeds 65535 bytes")

	// ErrPayloadTooLarge 负载超出长度限制
	ErrPayloadTooLarge = errors.New("payload exceeds 4 MiB")

	// ErrTruncated 输入在字段边界处截断
	ErrTruncated = errors.New("truncated frame")

	// ErrInvalidQoS qos 字节不是已定义的值
	ErrInvalidQoS = errors.New("invalid qos byte")

	// ErrPayloadLength payload 长度字段与剩余字节不符
	ErrPayloadLength = errors.New("payload length exceeds frame")
)

// Codec 二进制编解码器
type Codec struct {
	now func() time.Time
}

var _ pkgif.Codec = (*Codec)(nil)

// New 创建二进制编解码器
func New() *Codec {
	return &Codec{now: time.Now}
}

// Name 返回编解码器名称
func (c *Codec) Name() string {
	return Name
}

// Encode 编码消息
func (c *Codec) Encode(msg *types.Message) ([]byte, error) {
	if len(msg.Topic) > MaxTopicBytes {
		return nil, fmt.Errorf("%w: %d", ErrTopicTooLong, len(msg.Topic))
	}
	if len(msg.Payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(msg.Payload))
	}

	buf := make([]byte, 0, fixedSize+len(msg.Topic)+len(msg.Payload))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(msg.Topic)))
	buf = append(buf, msg.Topic...)
	buf = append(buf, byte(msg.QoS))
	buf = binary.BigEndian.AppendUint64(buf, msg.Sequence)
	buf = binary.BigEndian.AppendUint64(buf, msg.AckFor)
	if msg.IsAck {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(msg.Payload)))
	buf = append(buf, msg.Payload...)
	return buf, nil
}

// Decode 解码消息
func (c *Codec) Decode(data []byte) (*types.Message, error) {
	r := reader{buf: data}

	topicLen, ok := r.u16()
	if !ok {
		return nil, ErrTruncated
	}
	topic, ok := r.bytes(int(topicLen))
	if !ok {
		return nil, ErrTruncated
	}
	qos, ok := r.u8()
	if !ok {
		return nil, ErrTruncated
	}
	if !types.QoS(qos).Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	seq, ok := r.u64()
	if !ok {
		return nil, ErrTruncated
	}
	ackFor, ok := r.u64()
	if !ok {
		return nil, ErrTruncated
	}
	isAck, ok := r.u8()
	if !ok {
		return nil, ErrTruncated
	}
	payloadLen, ok := r.u32()
	if !ok {
		return nil, ErrTruncated
	}
	if payloadLen > MaxPayloadBytes || int(payloadLen) > r.remaining() {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadLength, payloadLen, r.remaining())
	}
	payload, _ := r.bytes(int(payloadLen))

	return &types.Message{
		Topic:     string(topic),
		Payload:   append([]byte(nil), payload...),
		Sequence:  seq,
		Timestamp: c.now(),
		QoS:       types.QoS(qos),
		AckFor:    ackFor,
		IsAck:     isAck != 0,
	}, nil
}

// ============================================================================
//                              reader
// ============================================================================

// reader 顺序读取大端字段，越界时返回 false
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) ([]byte, bool) {
	if r.remaining() < n {
		return nil, false
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, true
}

func (r *reader) u8() (uint8, bool) {
	b, ok := r.bytes(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *reader) u16() (uint16, bool) {
	b, ok := r.bytes(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(b), true
}

func (r *reader) u32() (uint32, bool) {
	b, ok := r.bytes(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

func (r *reader) u64() (uint64, bool) {
	b, ok := r.bytes(8)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
