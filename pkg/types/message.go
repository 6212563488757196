package types

import "time"

// ============================================================================
//                              QoS - 投递质量
// ============================================================================

// QoS 消息投递质量
type QoS uint8

const (
	// QoSBestEffort 尽力投递（发送即忘）
	QoSBestEffort QoS = 0
	// QoSAtLeastOnce 至少一次（需要 ACK，未确认时重发）
	QoSAtLeastOnce QoS = 1
)

// Valid 检查 QoS 是否为已定义的值
func (q QoS) Valid() bool {
	return q == QoSBestEffort || q == QoSAtLeastOnce
}

// String 返回 QoS 的字符串表示
func (q QoS) String() string {
	switch q {
	case QoSBestEffort:
		return "best-effort"
	case QoSAtLeastOnce:
		return "at-least-once"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Message - 总线消息
// ============================================================================

// AckTopic 确认帧使用的主题
const AckTopic = "__ipc_ack"

// Message 总线消息
//
// Sequence 由总线分配（调用方已设置时保留），同一 Bus 实例内单调递增。
// 确认消息（IsAck）本身不会被重发，也不会被确认。
type Message struct {
	// Topic 主题（精确匹配）
	Topic string

	// Payload 消息内容
	Payload []byte

	// Sequence 序列号，0 表示由总线分配
	Sequence uint64

	// Timestamp 发布时为发布时间，解码后为本地接收时间
	Timestamp time.Time

	// SentAt 发送方时间戳，仅由携带时间戳的编解码器填充
	SentAt time.Time

	// QoS 投递质量
	QoS QoS

	// AckFor 被确认的序列号，0 表示不是确认消息
	AckFor uint64

	// IsAck 是否为确认消息
	IsAck bool
}

// Reliable 是否需要确认与重发
func (m *Message) Reliable() bool {
	return m.QoS == QoSAtLeastOnce && !m.IsAck
}

// Clone 深拷贝消息（复制 Payload）
func (m Message) Clone() Message {
	if m.Payload != nil {
		payload := make([]byte, len(m.Payload))
		copy(payload, m.Payload)
		m.Payload = payload
	}
	return m
}

// NewAck 构造对指定序列号的确认消息
func NewAck(sequence uint64) Message {
	return Message{
		Topic:  AckTopic,
		QoS:    QoSBestEffort,
		AckFor: sequence,
		IsAck:  true,
	}
}
