// Package types 定义 go-ipcbus 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 ipcbus 内部包。
// 所有类型都是纯值类型，用于在总线、编解码器与传输层之间传递数据。
//
// # 文件组织
//
//   - message.go - Message, QoS, AckTopic
//   - enums.go   - TransportKind, CodecKind, Role
//   - health.go  - HealthState, HealthEvent
//   - errors.go  - 公共错误定义
//
// # 与 wire format 的区别
//
// pkg/types 定义 Go 内部数据结构（内存结构），
// 字节布局由 internal/core/codec 下的编解码器定义。
package types
