package ipcbus

import (
	"github.com/dep2p/go-ipcbus/internal/core/bus"
	"github.com/dep2p/go-ipcbus/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              消息
// ════════════════════════════════════════════════════════════════════════════

// Message 总线消息
type Message = types.Message

// QoS 投递质量
type QoS = types.QoS

// Handler 订阅回调
type Handler = bus.Handler

const (
	// QoSBestEffort 尽力投递
	QoSBestEffort = types.QoSBestEffort
	// QoSAtLeastOnce 至少一次
	QoSAtLeastOnce = types.QoSAtLeastOnce
)

// ════════════════════════════════════════════════════════════════════════════
//                              传输与编解码
// ════════════════════════════════════════════════════════════════════════════

// TransportKind 传输类型
type TransportKind = types.TransportKind

// CodecKind 编解码器类型
type CodecKind = types.CodecKind

// Role 套接字角色
type Role = types.Role

const (
	TransportLocal = types.TransportLocal
	TransportTCP   = types.TransportTCP
	TransportUnix  = types.TransportUnix
	TransportSHM   = types.TransportSHM

	CodecBinary   = types.CodecBinary
	CodecProtobuf = types.CodecProtobuf

	RoleServer = types.RoleServer
	RoleClient = types.RoleClient
)

// ════════════════════════════════════════════════════════════════════════════
//                              健康
// ════════════════════════════════════════════════════════════════════════════

// HealthEvent 健康事件
type HealthEvent = types.HealthEvent

// HealthState 健康状态
type HealthState = types.HealthState

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota

	// StateStarting 启动中
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateClosed 已关闭（不可重新启动）
	StateClosed
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
