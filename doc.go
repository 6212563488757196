// Package ipcbus 提供进程内/进程间的主题发布订阅总线
//
// go-ipcbus 由三层组成：
//
//   - 编解码器：binary（固定布局）或 protobuf（带发送时间戳）
//   - 传输层：local（进程内直接调用）、tcp、unix（域套接字）、shm（共享内存环形缓冲区）
//   - 投递总线：订阅管理、序列号分配、至少一次投递的确认与重发
//
// 编解码器与传输层在节点创建时选定，生命周期内不可更换。
//
// # 快速开始
//
//	import "github.com/dep2p/go-ipcbus"
//
//	node, err := ipcbus.New(
//	    ipcbus.WithTransport(ipcbus.TransportUnix),
//	    ipcbus.WithUnix(ipcbus.RoleServer, "/tmp/robot.sock"),
//	    ipcbus.WithRetry(5, 20*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	node.Subscribe("sensor/imu", func(msg ipcbus.Message) {
//	    fmt.Println(msg.Sequence, len(msg.Payload))
//	})
//	node.Publish(ipcbus.Message{Topic: "cmd/stop", QoS: ipcbus.QoSAtLeastOnce})
//
// # 投递语义
//
// 至少一次的消息在收到确认前按配置的间隔重发，预算耗尽后被丢弃，
// 发布方不会收到通知；丢弃计入指标 ipcbus_bus_exhausted_total 并上报健康事件。
// 同一主题的订阅回调按订阅顺序调用。
//
// 共享内存传输是广播：每个已接入的参与者（包括发布者自身）都会收到每一帧。
// 离线期间写入的帧不会补发。
//
// # 文件组织
//
//	ipcbus/
//	├── doc.go        # 包文档
//	├── version.go    # 版本信息
//	├── types.go      # 公共类型别名
//	├── errors.go     # 公共错误
//	├── options.go    # 用户选项
//	├── node.go       # Node 门面
//	└── fx.go         # Fx 模块组装
//
// # 日志
//
// 通过环境变量配置：
//
//	IPCBUS_LOG_LEVEL=core/bus=debug,core/transport=warn,info
//	IPCBUS_LOG_FORMAT=json
package ipcbus
