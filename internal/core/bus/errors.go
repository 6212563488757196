package bus

import "errors"

var (
	// ErrNilCodec 编解码器为空
	ErrNilCodec = errors.New("bus: codec is nil")

	// ErrNilTransport 传输层为空
	ErrNilTransport = errors.New("bus: transport is nil")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("bus: already started")

	// ErrNotRunning 未启动、传输层启动失败或已关闭
	ErrNotRunning = errors.New("bus: not running")

	// ErrClosed 已关闭
	ErrClosed = errors.New("bus: closed")

	// ErrInvalidSubscription 主题为空或回调为空
	ErrInvalidSubscription = errors.New("bus: invalid subscription")

	// ErrEmptyTopic 发布的消息主题为空
	ErrEmptyTopic = errors.New("bus: empty topic")

	// ErrInvalidQoS 未定义的 QoS
	ErrInvalidQoS = errors.New("bus: invalid qos")

	// ErrEncode 编码失败，消息不会被重发
	ErrEncode = errors.New("bus: encode failed")
)

// encodeError 编码失败，与传输层错误区分，决定是否撤销待确认项
type encodeError struct {
	err error
}

func (e *encodeError) Error() string {
	return ErrEncode.Error() + ": " + e.err.Error()
}

func (e *encodeError) Unwrap() []error {
	return []error{ErrEncode, e.err}
}
