// Package transport 实现传输层选择与装配
package transport

import "github.com/dep2p/go-ipcbus/pkg/types"

// 各传输实现共用的错误，定义在 pkg/types 以便子包引用
var (
	// ErrNotRunning 传输未启动或已停止
	ErrNotRunning = types.ErrTransportNotRunning

	// ErrAlreadyStarted 传输已启动
	ErrAlreadyStarted = types.ErrTransportStarted

	// ErrNilHandler 接收回调为空
	ErrNilHandler = types.ErrNilReceiveHandler

	// ErrEmptyFrame 帧长度为 0
	ErrEmptyFrame = types.ErrEmptyFrame
)
