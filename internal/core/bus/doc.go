// Package bus 实现基于主题的发布/订阅总线
//
// Bus 持有一个编解码器和一个传输层，负责订阅管理、序列号分配、
// 至少一次投递的确认与重发。
//
// # 发布路径
//
//	Publish → 填充时间戳/序列号 → (至少一次) 登记待确认项 → 编码 → 传输发送
//
// 待确认项在发送之前登记，本地回环路径上的确认不会早于登记到达。
// 编码与发送在同一把出站锁内完成，同一 Bus 顺序发布的消息按发布顺序交给传输层。
// local 这类同步回调的传输例外：编码在锁内，发送在锁外，避免回调路径上的确认死锁。
//
// # 接收路径
//
//	传输回调 → 解码 → 确认帧: 清除待确认项
//	                → 至少一次: 先回送确认，再调用订阅回调
//
// 订阅回调在锁外调用，回调内可以再次发布、订阅或取消订阅。
// 同一主题的回调按订阅顺序调用。回调 panic 被恢复并记录。
//
// # 重发
//
// 单个重发 goroutine 等待最早的到期时间或新登记唤醒。
// 到期且仍有预算的消息被重新编码发送；预算耗尽的消息被丢弃，
// 发布方不会收到通知，只计入指标并上报 HealthDegraded 事件。
//
// # 使用示例
//
//	b, err := bus.New(codec, transport, cfg.Bus)
//	if err != nil {
//	    return err
//	}
//	if err := b.Start(ctx); err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	id, _ := b.Subscribe("sensor/imu", func(msg types.Message) {
//	    fmt.Println(msg.Sequence, len(msg.Payload))
//	})
//	defer b.Unsubscribe(id)
//
//	b.Publish(types.Message{Topic: "sensor/imu", Payload: data, QoS: types.QoSAtLeastOnce})
package bus
