// Package metrics 提供总线的 Prometheus 指标
//
// BusMetrics 汇总投递总线的计数器与仪表：
//   - 发布/接收消息数（按 QoS）
//   - 重发次数、重试耗尽次数
//   - ACK 发送与接收数
//   - 编解码错误（按操作）、传输发送失败、处理函数 panic
//   - 当前待确认消息数、当前订阅数
//
// 所有方法在接收者为 nil 时是空操作，未启用指标时总线无需判空。
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewBusMetrics("ipcbus")
//	if err := m.Register(reg); err != nil {
//	    return err
//	}
//	b, _ := bus.New(codec, transport, cfg, bus.WithMetrics(m))
package metrics
