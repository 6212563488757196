// Package health 实现默认的健康事件接收端
//
// Monitor 记录各组件最近一次上报的状态与一段有限的事件历史，
// 并把每个事件扇出给订阅者。订阅者缓冲区满时事件被丢弃，不阻塞上报方。
//
// 使用示例：
//
//	m := health.NewMonitor(64)
//	sub := m.Subscribe(16)
//	defer sub.Close()
//
//	b, _ := bus.New(codec, transport, cfg, bus.WithHealthReporter(m))
//
//	for ev := range sub.Out() {
//	    fmt.Println(ev.Component, ev.State, ev.Detail)
//	}
package health
