// Package types 定义 go-ipcbus 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

var (
	// ErrUnknownTransport 未知的传输类型
	ErrUnknownTransport = errors.New("unknown transport kind")

	// ErrUnknownCodec 未知的编解码器类型
	ErrUnknownCodec = errors.New("unknown codec kind")
)

// ============================================================================
//                              传输层错误
// ============================================================================

var (
	// ErrTransportNotRunning 传输未启动或已停止
	ErrTransportNotRunning = errors.New("transport not running")

	// ErrTransportStarted 传输已启动
	ErrTransportStarted = errors.New("transport already started")

	// ErrNilReceiveHandler 接收回调为空
	ErrNilReceiveHandler = errors.New("receive handler is nil")

	// ErrEmptyFrame 帧长度为 0
	ErrEmptyFrame = errors.New("empty frame")
)
